// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"sort"
	"strings"

	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/store/memory"
	"github.com/jllopis/kairos-weaviate/pkg/store/qdrant"
	"github.com/jllopis/kairos-weaviate/pkg/store/sqlite"
	"github.com/jllopis/kairos-weaviate/pkg/store/weaviate"
)

// Supported store providers.
const (
	ProviderWeaviate = "weaviate"
	ProviderQdrant   = "qdrant"
	ProviderSQLite   = "sqlite"
	ProviderMemory   = "memory"
)

var dialers = map[string]store.Dialer{
	ProviderWeaviate: weaviate.Dial,
	ProviderQdrant:   qdrant.Dial,
	ProviderSQLite:   sqlite.Dial,
	ProviderMemory:   memory.Dial,
}

// DialerFor returns the dialer of a provider. An empty provider selects
// Weaviate.
func DialerFor(provider string) (store.Dialer, error) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		p = ProviderWeaviate
	}
	dial, ok := dialers[p]
	if !ok {
		return nil, errors.Misconfiguration("unknown store provider %q (supported: %s)", provider, strings.Join(Providers(), ", "))
	}
	return dial, nil
}

// Providers lists the supported store providers, sorted.
func Providers() []string {
	out := make([]string, 0, len(dialers))
	for name := range dialers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
