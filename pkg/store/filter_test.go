// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"testing"
)

func TestFilterForms(t *testing.T) {
	var nilFilter *Filter
	if !nilFilter.IsZero() {
		t.Error("expected nil filter to be zero")
	}
	if RawFilter(nil) != nil || RawFilter(json.RawMessage("null")) != nil {
		t.Error("expected empty raw filter to be nil")
	}

	raw := RawFilter(json.RawMessage(`{"path":["source"]}`))
	if _, ok := raw.Native(); ok {
		t.Error("raw filter should not report a native value")
	}
	if got, ok := raw.Raw(); !ok || string(got) != `{"path":["source"]}` {
		t.Errorf("unexpected raw form %s", got)
	}

	native := NativeFilter("where")
	if v, ok, err := NativeAs[string](native); err != nil || !ok || v != "where" {
		t.Errorf("unexpected native extraction: %v %v %v", v, ok, err)
	}
	if _, _, err := NativeAs[int](native); err == nil {
		t.Error("expected type mismatch error")
	}
	if _, ok, err := NativeAs[int](raw); ok || err != nil {
		t.Error("expected raw filter to yield no native value")
	}
}

func TestFilterJSON(t *testing.T) {
	var opts struct {
		Filters *Filter `json:"filters"`
	}
	if err := json.Unmarshal([]byte(`{"filters":{"source":"docs"}}`), &opts); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	raw, ok := opts.Filters.Raw()
	if !ok || string(raw) != `{"source":"docs"}` {
		t.Errorf("unexpected raw filter %s", raw)
	}

	out, err := json.Marshal(opts)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `{"filters":{"source":"docs"}}` {
		t.Errorf("unexpected output %s", out)
	}

	if _, err := json.Marshal(NativeFilter(1)); err == nil {
		t.Error("expected native filter marshal to fail")
	}
}
