// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"fmt"

	"github.com/jllopis/kairos-weaviate/pkg/core"
)

// HealthChecks returns the plugin's health checks: "store" for the shared
// connection, "collection/<name>" per collection, plus the configured extra
// checkers. Running them connects to the store.
func (p *Plugin) HealthChecks() *core.HealthChecks {
	checks := core.NewHealthChecks()
	checks.Register("store", core.HealthCheckFunc(p.checkStore))
	for _, name := range p.order {
		checks.Register("collection/"+name, p.collectionCheck(name))
	}
	for name, checker := range p.checkers {
		checks.Register(name, checker)
	}
	return checks
}

func (p *Plugin) checkStore(ctx context.Context) core.HealthResult {
	provider := p.conn.Params().Provider
	if err := p.conn.Connect(ctx); err != nil {
		return core.HealthResult{Status: core.HealthUnhealthy, Message: provider + " unreachable", Error: err}
	}
	return core.HealthResult{Status: core.HealthHealthy, Message: "connected to " + provider}
}

func (p *Plugin) collectionCheck(name string) core.HealthCheckFunc {
	return func(ctx context.Context) core.HealthResult {
		if err := p.conn.Connect(ctx); err != nil {
			return core.HealthResult{Status: core.HealthUnhealthy, Message: "store unavailable", Error: err}
		}
		stats, err := p.conn.GetCollectionStats(ctx, name)
		if err == nil {
			return core.HealthResult{Status: core.HealthHealthy, Message: fmt.Sprintf("%d objects", stats.ObjectCount)}
		}
		// A collection provisioned on first index is expected to be missing.
		if p.indexers[name].CreatesCollection() {
			return core.HealthResult{Status: core.HealthDegraded, Message: "not provisioned yet", Error: err}
		}
		return core.HealthResult{Status: core.HealthUnhealthy, Message: "collection unavailable", Error: err}
	}
}
