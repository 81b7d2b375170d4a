// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAdaptersRegistry(t *testing.T) {
	types := map[string]bool{}
	for _, a := range adaptersRegistry {
		if a.Name == "" || a.Type == "" || a.Description == "" {
			t.Errorf("adapter %+v is missing required fields", a)
		}
		types[a.Type] = true
	}
	for _, et := range []string{"store", "embedder", "telemetry"} {
		if !types[et] {
			t.Errorf("expected adapter type %q not found", et)
		}
	}
}

func TestFilterAdaptersByType(t *testing.T) {
	stores := filterAdapters("store")
	if len(stores) != 4 {
		t.Errorf("expected 4 stores, got %d", len(stores))
	}
	for _, a := range stores {
		if a.Type != "store" {
			t.Errorf("filtered adapter %q has wrong type: %s", a.Name, a.Type)
		}
	}
	if len(filterAdapters("")) != len(adaptersRegistry) {
		t.Error("expected no filter to return every adapter")
	}
}

func TestAdaptersCommand(t *testing.T) {
	out, stderr, code := runCLI(t, "", "--json", "adapters", "--type", "embedder")
	if code != 0 {
		t.Fatalf("adapters failed: %s", stderr)
	}
	var result adaptersListResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != len(result.Adapters) || result.Total == 0 {
		t.Errorf("unexpected result %+v", result)
	}

	out, _, code = runCLI(t, "", "adapters", "weaviate")
	if code != 0 || !strings.Contains(out, "client_params.grpc_port") {
		t.Errorf("unexpected info output %q", out)
	}

	if _, _, code := runCLI(t, "", "adapters", "pinecone"); code == 0 {
		t.Error("expected unknown adapter to fail")
	}
}
