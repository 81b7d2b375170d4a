// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/retriever"
)

// print writes value as indented JSON with --json, or through human otherwise.
func (a *app) print(value any, human func(io.Writer)) error {
	if a.flags.JSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	human(a.stdout)
	return nil
}

func printYAML(w io.Writer, value any) {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		fmt.Fprintf(w, "%v\n", value)
	}
	_ = enc.Close()
}

func printDocuments(w io.Writer, docs []core.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	writeRow(tw, "#", "DISTANCE", "CONTENT", "METADATA")
	for i, doc := range docs {
		distance := "-"
		if d, ok := doc.Metadata[retriever.DistanceKey].(float64); ok {
			distance = fmt.Sprintf("%.4f", d)
		}
		writeRow(tw, fmt.Sprint(i+1), distance, truncate(doc.Content, 60), formatMetadata(doc.Metadata))
	}
	_ = tw.Flush()
}

func writeRow(w *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		cols[i] = normalizeCell(col)
	}
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func normalizeCell(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return strings.Join(strings.Fields(value), " ")
}

func truncate(value string, limit int) string {
	value = normalizeCell(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// formatMetadata renders metadata as sorted key=value pairs, without the
// injected distance.
func formatMetadata(meta map[string]any) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k != retriever.DistanceKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return strings.Join(parts, " ")
}

func printHealth(w io.Writer, report healthReport) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	writeRow(tw, "COMPONENT", "STATUS", "MESSAGE")
	for _, r := range report.Checks {
		msg := r.Message
		if r.Error != nil {
			msg += ": " + r.Error.Error()
		}
		writeRow(tw, r.Component, string(r.Status), truncate(msg, 80))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nOverall: %s\n", report.Status)
}
