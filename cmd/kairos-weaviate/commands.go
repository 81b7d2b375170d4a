// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/indexer"
	kwmcp "github.com/jllopis/kairos-weaviate/pkg/mcp"
	"github.com/jllopis/kairos-weaviate/pkg/retriever"
	"github.com/jllopis/kairos-weaviate/pkg/store"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection actions as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.openPlugin()
			if err != nil {
				return err
			}
			defer p.Close()

			reg := core.NewRegistry()
			if err := p.Register(reg); err != nil {
				return err
			}
			srv := kwmcp.NewServer(appName, version, a.logger)
			tools, err := srv.RegisterActions(reg)
			if err != nil {
				return err
			}
			a.logger.Info("serving MCP over stdio", "tools", tools, "provider", a.cfg.ClientParams.Provider)
			return srv.ServeStdio()
		},
	}
}

func newIndexCmd(a *app) *cobra.Command {
	var (
		contentType string
		create      bool
	)
	cmd := &cobra.Command{
		Use:   "index <collection> [files...]",
		Short: "Index files, or stdin when no file is given, one document each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(cmd.InOrStdin(), args[1:], contentType)
			if err != nil {
				return err
			}

			p, err := a.openPlugin()
			if err != nil {
				return err
			}
			defer p.Close()
			if err := a.collection(p, args[0]); err != nil {
				return err
			}
			ix, _ := p.Indexer(args[0])

			var opts *indexer.Options
			if cmd.Flags().Changed("create") {
				opts = &indexer.Options{CreateCollectionIfMissing: &create}
			}
			if err := ix.Index(cmd.Context(), docs, opts); err != nil {
				return err
			}
			return a.print(indexResult{Collection: args[0], Documents: len(docs)}, func(w io.Writer) {
				fmt.Fprintf(w, "Indexed %d document(s) into %s\n", len(docs), args[0])
			})
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "text/plain", "Content type of the indexed documents")
	cmd.Flags().BoolVar(&create, "create", true, "Create the collection when missing (defaults to the collection setting)")
	return cmd
}

type indexResult struct {
	Collection string `json:"collection" yaml:"collection"`
	Documents  int    `json:"documents" yaml:"documents"`
}

// readDocuments reads one document per file, or a single one from stdin.
func readDocuments(stdin io.Reader, files []string, contentType string) ([]core.Document, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("nothing to index: stdin is empty")
		}
		return []core.Document{{Content: string(data), ContentType: contentType, Metadata: map[string]any{"source": "stdin"}}}, nil
	}

	docs := make([]core.Document, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, core.Document{
			Content:     string(data),
			ContentType: contentType,
			Metadata:    map[string]any{"source": filepath.Base(path), "path": path},
		})
	}
	return docs, nil
}

func newRetrieveCmd(a *app) *cobra.Command {
	var (
		k        int
		distance float32
		filter   string
	)
	cmd := &cobra.Command{
		Use:   "retrieve <collection> <query>",
		Short: "Find the documents nearest to a query",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openPlugin()
			if err != nil {
				return err
			}
			defer p.Close()
			if err := a.collection(p, args[0]); err != nil {
				return err
			}
			rt, _ := p.Retriever(args[0])

			opts := retriever.Options{K: k, Filters: store.RawFilter([]byte(filter))}
			if cmd.Flags().Changed("distance") {
				opts.Distance = &distance
			}
			query := core.NewTextDocument(strings.Join(args[1:], " "), nil)
			docs, err := rt.Retrieve(cmd.Context(), query, opts)
			if err != nil {
				return err
			}
			return a.print(docs, func(w io.Writer) { printDocuments(w, docs) })
		},
	}
	cmd.Flags().IntVar(&k, "k", store.DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().Float32Var(&distance, "distance", 0, "Maximum distance of a result")
	cmd.Flags().StringVar(&filter, "filter", "", "Filter in the store's JSON filter language")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <collection>",
		Short: "Show a collection's description and object count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openPlugin()
			if err != nil {
				return err
			}
			defer p.Close()
			stats, err := p.Connection().GetCollectionStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(stats, func(w io.Writer) { printYAML(w, stats) })
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <ids...>",
		Short: "Delete objects by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.openPlugin()
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.Connection().DeleteObjects(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			return a.print(map[string]any{"collection": args[0], "deleted": args[1:]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %d object(s) from %s\n", len(args)-1, args[0])
			})
		},
	}
}

func newDropCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop <collection>",
		Short: "Delete a collection and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return confirmationError(args[0])
			}
			p, err := a.openPlugin()
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.Connection().DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.print(map[string]any{"collection": args[0], "dropped": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Dropped %s\n", args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the irreversible drop")
	return cmd
}

type healthReport struct {
	Status core.HealthStatus   `json:"status"`
	Checks []core.HealthResult `json:"checks"`
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the store, each collection and the embedder circuit breakers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.openPlugin()
			if err != nil {
				return err
			}
			defer p.Close()

			results, overall := p.HealthChecks().CheckAll(cmd.Context())
			report := healthReport{Status: overall, Checks: results}
			if err := a.print(report, func(w io.Writer) { printHealth(w, report) }); err != nil {
				return err
			}
			if overall == core.HealthUnhealthy {
				return fmt.Errorf("%s is unhealthy", appName)
			}
			return nil
		},
	}
}
