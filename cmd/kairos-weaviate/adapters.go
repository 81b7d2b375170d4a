// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Adapter describes a store transport or embedder backend.
type Adapter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	ConfigKeys  []string `json:"config_keys,omitempty"`
	Docs        string   `json:"docs,omitempty"`
}

// adaptersRegistry is the catalog of known adapters.
var adaptersRegistry = []Adapter{
	// Vector stores
	{
		Name:        "weaviate",
		Type:        "store",
		Description: "Weaviate over REST and gRPC, local or cloud",
		ConfigKeys:  []string{"client_params.provider=weaviate", "client_params.host", "client_params.port", "client_params.grpc_port", "client_params.api_key"},
		Docs:        "https://weaviate.io/developers/weaviate",
	},
	{
		Name:        "qdrant",
		Type:        "store",
		Description: "Qdrant over gRPC",
		ConfigKeys:  []string{"client_params.provider=qdrant", "client_params.host", "client_params.grpc_port", "client_params.api_key"},
		Docs:        "https://qdrant.tech/documentation",
	},
	{
		Name:        "sqlite",
		Type:        "store",
		Description: "Embedded SQLite file with brute-force search (development)",
		ConfigKeys:  []string{"client_params.provider=sqlite", "client_params.path"},
		Docs:        "pkg/store/sqlite",
	},
	{
		Name:        "memory",
		Type:        "store",
		Description: "In-process map, lost on exit (testing)",
		ConfigKeys:  []string{"client_params.provider=memory"},
		Docs:        "pkg/store/memory",
	},

	// Embedders
	{
		Name:        "ollama",
		Type:        "embedder",
		Description: "Local embeddings with Ollama",
		ConfigKeys:  []string{"embedders.<name>.provider=ollama", "embedders.<name>.base_url", "embedders.<name>.model"},
		Docs:        "https://ollama.ai",
	},
	{
		Name:        "openai",
		Type:        "embedder",
		Description: "OpenAI embeddings API and compatible servers",
		ConfigKeys:  []string{"embedders.<name>.provider=openai", "embedders.<name>.api_key", "embedders.<name>.model", "embedders.<name>.dimensions"},
		Docs:        "https://platform.openai.com/docs/guides/embeddings",
	},
	{
		Name:        "mock",
		Type:        "embedder",
		Description: "Deterministic hashing embedder (testing)",
		ConfigKeys:  []string{"embedders.<name>.provider=mock", "embedders.<name>.dimensions"},
		Docs:        "pkg/embedding/mock.go",
	},
	{
		Name:        "chunking",
		Type:        "embedder",
		Description: "Splits documents into overlapping windows before embedding",
		ConfigKeys:  []string{"embedders.<name>.chunk_size", "embedders.<name>.chunk_overlap"},
		Docs:        "pkg/embedding/chunk",
	},
	{
		Name:        "resilient",
		Type:        "embedder",
		Description: "Retries with backoff and circuit breaking around model calls",
		ConfigKeys:  []string{"embedders.<name>.retry.max_attempts", "embedders.<name>.retry.initial_delay", "embedders.<name>.circuit_breaker.failure_threshold", "embedders.<name>.circuit_breaker.timeout"},
		Docs:        "pkg/resilience",
	},

	// Telemetry
	{
		Name:        "otel-stdout",
		Type:        "telemetry",
		Description: "OpenTelemetry export to stdout",
		ConfigKeys:  []string{"telemetry.exporter=stdout"},
	},
	{
		Name:        "otel-otlp",
		Type:        "telemetry",
		Description: "OpenTelemetry export via OTLP gRPC",
		ConfigKeys:  []string{"telemetry.exporter=otlp", "telemetry.otlp_endpoint", "telemetry.otlp_insecure"},
	},
}

type adaptersListResult struct {
	Adapters []Adapter `json:"adapters"`
	Total    int       `json:"total"`
}

type adapterInfoResult struct {
	Adapter Adapter `json:"adapter"`
	Found   bool    `json:"found"`
}

func filterAdapters(kind string) []Adapter {
	if kind == "" {
		return adaptersRegistry
	}
	filtered := make([]Adapter, 0)
	for _, a := range adaptersRegistry {
		if a.Type == kind {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func findAdapter(name string) (Adapter, bool) {
	for _, a := range adaptersRegistry {
		if a.Name == name {
			return a, true
		}
	}
	return Adapter{}, false
}

func newAdaptersCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "adapters [name]",
		Short: "List the available stores and embedders, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.adapterInfo(args[0])
			}
			adapters := filterAdapters(kind)
			result := adaptersListResult{Adapters: adapters, Total: len(adapters)}
			return a.print(result, func(w io.Writer) { printAdapters(w, adapters) })
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "Filter by type: store, embedder, telemetry")
	return cmd
}

func printAdapters(w io.Writer, adapters []Adapter) {
	if len(adapters) == 0 {
		fmt.Fprintln(w, "No adapters found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t----\t-----------")
	for _, a := range adapters {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Name, a.Type, a.Description)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nTotal: %d adapters\n", len(adapters))
	fmt.Fprintf(w, "\nUse '%s adapters <name>' for configuration details.\n", appName)
}

func (a *app) adapterInfo(name string) error {
	found, ok := findAdapter(name)
	if a.flags.JSON {
		if err := a.print(adapterInfoResult{Adapter: found, Found: ok}, nil); err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("adapter %q not found", name)
	}
	if a.flags.JSON {
		return nil
	}

	w := a.stdout
	fmt.Fprintf(w, "Adapter: %s\n", found.Name)
	fmt.Fprintf(w, "Type: %s\n", found.Type)
	fmt.Fprintf(w, "Description: %s\n", found.Description)
	if len(found.ConfigKeys) > 0 {
		fmt.Fprintln(w, "\nConfiguration:")
		for _, k := range found.ConfigKeys {
			fmt.Fprintf(w, "  • %s\n", k)
		}
	}
	if found.Docs != "" {
		fmt.Fprintf(w, "\nDocumentation: %s\n", found.Docs)
	}
	return nil
}
