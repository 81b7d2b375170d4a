// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/embedding"
	"github.com/jllopis/kairos-weaviate/pkg/plugin"
	"github.com/jllopis/kairos-weaviate/pkg/store"
	"github.com/jllopis/kairos-weaviate/pkg/store/memory"
)

type stubAction struct {
	name string
	kind core.ActionKind
	out  any
	err  error
}

func (a stubAction) Name() string          { return a.name }
func (a stubAction) Kind() core.ActionKind { return a.kind }
func (a stubAction) Description() string   { return "stub" }
func (a stubAction) Call(context.Context, any) (any, error) {
	return a.out, a.err
}

func TestToolName(t *testing.T) {
	tests := []struct {
		action core.Action
		want   string
	}{
		{stubAction{name: "weaviate/Docs", kind: core.KindIndexer}, "weaviate_index_Docs"},
		{stubAction{name: "weaviate/Docs", kind: core.KindRetriever}, "weaviate_retrieve_Docs"},
		{stubAction{name: "weaviate/team notes", kind: core.KindRetriever}, "weaviate_retrieve_team_notes"},
		{stubAction{name: "plain", kind: "custom"}, "custom_plain"},
	}
	for _, tt := range tests {
		if got := ToolName(tt.action); got != tt.want {
			t.Errorf("ToolName(%s) = %q, want %q", tt.action.Name(), got, tt.want)
		}
	}
}

func newTestServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	p, err := plugin.New(plugin.Config{
		ClientParams: store.ClientParams{Provider: plugin.ProviderMemory},
		Dialer:       memory.New().Dialer(),
		Collections:  []plugin.CollectionConfig{{CollectionName: "Docs", Embedder: &embedding.MockEmbedder{}}},
	})
	if err != nil {
		t.Fatalf("new plugin: %v", err)
	}
	t.Cleanup(p.Close)

	reg := core.NewRegistry()
	if err := p.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(stubAction{name: "weaviate/Broken", kind: core.KindRetriever, err: context.DeadlineExceeded}); err != nil {
		t.Fatalf("register stub: %v", err)
	}

	srv := NewServer("kairos-weaviate", "test", nil)
	if _, err := srv.RegisterActions(reg); err != nil {
		t.Fatalf("register actions: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	c, err := NewInProcessClient(ctx, srv, WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("in-process client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return srv, c
}

func TestRegisterActionsListsTools(t *testing.T) {
	_, c := newTestServer(t)
	tools, err := c.ListTools(context.Background())
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"weaviate_index_Docs", "weaviate_retrieve_Broken", "weaviate_retrieve_Docs"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected tools %v, got %v", want, names)
	}
}

func TestToolCallsReachActions(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	res, err := c.CallTool(ctx, "weaviate_index_Docs", map[string]any{
		"documents": []any{map[string]any{"content": "vectors are lists of numbers", "metadata": map[string]any{"source": "docs"}}},
	})
	if err != nil || res.IsError {
		t.Fatalf("index tool failed: %v %+v", err, res)
	}

	res, err = c.CallTool(ctx, "weaviate_retrieve_Docs", map[string]any{
		"query":   "vectors are lists of numbers",
		"options": map[string]any{"k": 3},
	})
	if err != nil || res.IsError {
		t.Fatalf("retrieve tool failed: %v %+v", err, res)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	var docs []core.Document
	if err := json.Unmarshal([]byte(text.Text), &docs); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata["source"] != "docs" {
		t.Errorf("unexpected documents %+v", docs)
	}
}

func TestToolErrorsAreResults(t *testing.T) {
	_, c := newTestServer(t)
	res, err := c.CallTool(context.Background(), "weaviate_retrieve_Broken", map[string]any{"query": "x"})
	if err != nil {
		t.Fatalf("expected a tool result, got %v", err)
	}
	if !res.IsError {
		t.Error("expected the tool result to be flagged as error")
	}
}

type blockingAction struct{}

func (blockingAction) Name() string          { return "weaviate/Slow" }
func (blockingAction) Kind() core.ActionKind { return core.KindRetriever }
func (blockingAction) Description() string   { return "blocks until canceled" }
func (blockingAction) Call(ctx context.Context, _ any) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestClientTimeoutBoundsCalls(t *testing.T) {
	reg := core.NewRegistry()
	if err := reg.Register(blockingAction{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	srv := NewServer("kairos-weaviate", "test", nil)
	if _, err := srv.RegisterActions(reg); err != nil {
		t.Fatalf("register actions: %v", err)
	}
	c, err := NewInProcessClient(context.Background(), srv, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("in-process client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	start := time.Now()
	res, err := c.CallTool(context.Background(), "weaviate_retrieve_Slow", map[string]any{"query": "x"})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("call took %s, expected the timeout to stop it", elapsed)
	}
	if err == nil && !res.IsError {
		t.Error("expected a timed out call to fail")
	}
}
