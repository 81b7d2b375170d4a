// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the plugin configuration with koanf: built-in
// defaults, then a YAML file and its profile overlay, then KAIROS_WEAVIATE_*
// environment variables, then explicit key=value overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/resilience"
	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/telemetry"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: KAIROS_WEAVIATE_CLIENT_PARAMS__API_KEY sets
// client_params.api_key.
const EnvPrefix = "KAIROS_WEAVIATE_"

// Embedder providers.
const (
	EmbedderOllama = "ollama"
	EmbedderOpenAI = "openai"
	EmbedderMock   = "mock"
)

type Config struct {
	Log          telemetry.LogConfig       `koanf:"log"`
	Telemetry    telemetry.Config          `koanf:"telemetry"`
	ClientParams store.ClientParams        `koanf:"client_params"`
	Embedders    map[string]EmbedderConfig `koanf:"embedders"`
	Collections  []CollectionConfig        `koanf:"collections"`
}

// EmbedderConfig defines a named embedder. A positive ChunkSize wraps the
// embedder in a chunker; retry.max_attempts above one or a positive
// circuit_breaker.failure_threshold makes model calls resilient.
type EmbedderConfig struct {
	Provider       string                          `koanf:"provider"` // ollama, openai, mock
	BaseURL        string                          `koanf:"base_url"`
	Model          string                          `koanf:"model"`
	APIKey         string                          `koanf:"api_key"`
	Dimensions     int                             `koanf:"dimensions"`
	ChunkSize      int                             `koanf:"chunk_size"`
	ChunkOverlap   int                             `koanf:"chunk_overlap"`
	Retry          resilience.RetryConfig          `koanf:"retry"`
	CircuitBreaker resilience.CircuitBreakerConfig `koanf:"circuit_breaker"`
}

type CollectionConfig struct {
	CollectionName            string                  `koanf:"collection_name"`
	Embedder                  string                  `koanf:"embedder"`
	EmbedderOptions           map[string]any          `koanf:"embedder_options"`
	CreateCollectionIfMissing *bool                   `koanf:"create_collection_if_missing"`
	CollectionConfig          *store.CollectionConfig `koanf:"collection_config"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":                  "info",
		"log.format":                 "text",
		"telemetry.exporter":         telemetry.ExporterNone,
		"telemetry.otlp_endpoint":    "localhost:4317",
		"telemetry.otlp_insecure":    true,
		"telemetry.otlp_timeout":     "10s",
		"client_params.provider":     "weaviate",
		"client_params.timeout":      store.DefaultTimeout.String(),
		"embedders.default.provider": EmbedderOllama,
		"embedders.default.base_url": "http://localhost:11434",
		"embedders.default.model":    "nomic-embed-text",
	}
}

// Load reads path (optional) over the defaults, then the environment.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, "", nil)
}

// LoadWithProfile also merges the profile overlay next to path:
// config.yaml with profile "dev" reads config.dev.yaml when it exists.
func LoadWithProfile(path, profile string) (*Config, error) {
	return LoadWithOverrides(path, profile, nil)
}

// LoadWithOverrides is LoadWithProfile followed by key=value overrides, as
// given on the command line with --set.
func LoadWithOverrides(path, profile string, sets []string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		if overlay := ProfilePath(path, profile); overlay != "" {
			if _, err := os.Stat(overlay); err == nil {
				if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
					return nil, fmt.Errorf("config: load %s: %w", overlay, err)
				}
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("config: override %q must be key=value", set)
		}
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("config: override %q: %w", set, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// ProfilePath returns the overlay file for profile, or "" without profile.
func ProfilePath(path, profile string) string {
	if path == "" || profile == "" {
		return ""
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + profile + ext
}

// envKey maps KAIROS_WEAVIATE_CLIENT_PARAMS__API_KEY to client_params.api_key.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks the collection bindings.
func (c *Config) Validate() error {
	if len(c.Collections) == 0 {
		return errors.Misconfiguration("no collections configured")
	}
	seen := make(map[string]bool, len(c.Collections))
	for i, coll := range c.Collections {
		name := strings.TrimSpace(coll.CollectionName)
		switch {
		case name == "":
			return errors.Misconfiguration("collections[%d]: collection_name is required", i)
		case seen[name]:
			return errors.Misconfiguration("collection %q is configured more than once", name)
		case coll.Embedder == "":
			return errors.Misconfiguration("collection %q: embedder is required", name)
		}
		if _, ok := c.Embedders[coll.Embedder]; !ok {
			return errors.Misconfiguration("collection %q: unknown embedder %q", name, coll.Embedder)
		}
		seen[name] = true
	}
	for name, e := range c.Embedders {
		switch strings.ToLower(e.Provider) {
		case EmbedderOllama, EmbedderOpenAI, EmbedderMock:
		default:
			return errors.Misconfiguration("embedder %q: unknown provider %q", name, e.Provider)
		}
		if e.ChunkSize > 0 && e.ChunkOverlap >= e.ChunkSize {
			return errors.Misconfiguration("embedder %q: chunk_overlap must be less than chunk_size", name)
		}
	}
	return nil
}

// Collection returns the configuration of a named collection.
func (c *Config) Collection(name string) (CollectionConfig, bool) {
	for _, coll := range c.Collections {
		if coll.CollectionName == name {
			return coll, true
		}
	}
	return CollectionConfig{}, false
}
