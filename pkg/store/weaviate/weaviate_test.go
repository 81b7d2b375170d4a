// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package weaviate

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/jllopis/kairos-weaviate/pkg/store"
)

func TestClientConfigLocalDefaults(t *testing.T) {
	cfg := clientConfig(store.ClientParams{})
	if cfg.Scheme != "http" || cfg.Host != "localhost:8080" {
		t.Errorf("unexpected local endpoint %s://%s", cfg.Scheme, cfg.Host)
	}
	if cfg.GrpcConfig == nil || cfg.GrpcConfig.Host != "localhost:50051" || cfg.GrpcConfig.Secured {
		t.Errorf("unexpected grpc config %+v", cfg.GrpcConfig)
	}
	if cfg.AuthConfig != nil {
		t.Error("expected local mode to be unauthenticated")
	}
	if cfg.Timeout != store.DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
}

func TestClientConfigLocalOverrides(t *testing.T) {
	cfg := clientConfig(store.ClientParams{
		Host:     "weaviate.internal",
		Port:     9090,
		GRPCPort: 6000,
		Secure:   true,
		Headers:  map[string]string{"X-OpenAI-Api-Key": "k"},
		Timeout:  5 * time.Second,
	})
	if cfg.Scheme != "https" || cfg.Host != "weaviate.internal:9090" {
		t.Errorf("unexpected endpoint %s://%s", cfg.Scheme, cfg.Host)
	}
	if cfg.GrpcConfig.Host != "weaviate.internal:6000" || !cfg.GrpcConfig.Secured {
		t.Errorf("unexpected grpc config %+v", cfg.GrpcConfig)
	}
	if cfg.Headers["X-OpenAI-Api-Key"] != "k" || cfg.Timeout != 5*time.Second {
		t.Errorf("expected headers and timeout to pass through, got %+v", cfg)
	}
}

func TestClientConfigCloud(t *testing.T) {
	cfg := clientConfig(store.ClientParams{Host: "https://demo.c0.weaviate.cloud/", APIKey: "secret"})
	if cfg.Scheme != "https" || cfg.Host != "demo.c0.weaviate.cloud" {
		t.Errorf("unexpected cloud endpoint %s://%s", cfg.Scheme, cfg.Host)
	}
	if cfg.GrpcConfig.Host != "grpc-demo.c0.weaviate.cloud" || !cfg.GrpcConfig.Secured {
		t.Errorf("unexpected cloud grpc config %+v", cfg.GrpcConfig)
	}
	key, ok := cfg.AuthConfig.(auth.ApiKey)
	if !ok || key.Value != "secret" {
		t.Errorf("expected api key auth, got %#v", cfg.AuthConfig)
	}
}

func TestClassName(t *testing.T) {
	tests := map[string]string{
		"docs":      "Docs",
		"Docs":      "Docs",
		"menuItems": "MenuItems",
		"":          "",
	}
	for in, want := range tests {
		if got := ClassName(in); got != want {
			t.Errorf("ClassName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassFor(t *testing.T) {
	class := classFor(store.CollectionConfig{
		Name:        "docs",
		Description: "team docs",
		Properties:  []store.PropertyConfig{{Name: "author"}, {Name: "page", DataType: "int"}},
	})
	if class.Class != "Docs" || class.Vectorizer != "none" || class.Description != "team docs" {
		t.Errorf("unexpected class %+v", class)
	}
	want := []string{"content:text", "contentType:text", "metadata:text", "author:text", "page:int"}
	if len(class.Properties) != len(want) {
		t.Fatalf("expected %d properties, got %d", len(want), len(class.Properties))
	}
	for i, p := range class.Properties {
		if got := p.Name + ":" + strings.Join(p.DataType, ","); got != want[i] {
			t.Errorf("property %d: expected %s, got %s", i, want[i], got)
		}
	}
}

func TestToModels(t *testing.T) {
	objs, ids := toModels("Docs", []store.Object{
		{Properties: store.Properties{Content: "a", ContentType: "text/plain", Metadata: "{}"}, Vector: []float32{1, 2}},
		{ID: "8f14e45f-ceea-467a-9af0-000000000001", Vector: []float32{3}},
	})
	if ids[0] == "" || ids[1] != "8f14e45f-ceea-467a-9af0-000000000001" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if string(objs[0].ID) != ids[0] || objs[0].Class != "Docs" {
		t.Errorf("unexpected object %+v", objs[0])
	}
	props := objs[0].Properties.(map[string]any)
	if props["content"] != "a" || props["contentType"] != "text/plain" || props["metadata"] != "{}" {
		t.Errorf("unexpected properties %v", props)
	}
	if len(objs[0].Vector) != 2 || objs[0].Vector[1] != 2 {
		t.Errorf("expected vector to be carried, got %v", objs[0].Vector)
	}
}

func TestBatchErrors(t *testing.T) {
	if err := batchErrors(nil); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	resp := []models.ObjectsGetResponse{
		{},
		{Result: &models.ObjectsGetResponseAO2Result{Errors: &models.ErrorResponse{
			Error: []*models.ErrorResponseErrorItems0{{Message: "vector lengths don't match"}},
		}}},
	}
	err := batchErrors(resp)
	if err == nil || !strings.Contains(err.Error(), "vector lengths don't match") {
		t.Errorf("expected batch error, got %v", err)
	}
}

func decodeData(t *testing.T, raw string) map[string]models.JSONObject {
	t.Helper()
	var data map[string]models.JSONObject
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return data
}

func TestParseGet(t *testing.T) {
	data := decodeData(t, `{"Get":{"Docs":[
		{"content":"near","contentType":"text/plain","metadata":"{\"source\":\"docs\"}","_additional":{"id":"a1","distance":0.12}},
		{"content":"far","contentType":"","metadata":"not json","_additional":{"id":"a2","distance":0.5}},
		{"content":"no distance","_additional":{"id":"a3"}}
	]}}`)

	hits, err := parseGet(data, "Docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Object.ID != "a1" || hits[0].Object.Properties.Metadata != `{"source":"docs"}` {
		t.Errorf("unexpected first hit %+v", hits[0].Object)
	}
	if hits[0].Distance == nil || *hits[0].Distance != float32(0.12) {
		t.Errorf("unexpected distance %v", hits[0].Distance)
	}
	if hits[1].Object.Properties.Content != "far" {
		t.Errorf("expected store order to be kept, got %+v", hits[1].Object)
	}
	if hits[2].Distance != nil {
		t.Error("expected missing distance to stay nil")
	}

	empty, err := parseGet(decodeData(t, `{"Get":{"Docs":null}}`), "Docs")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result, got %v %v", empty, err)
	}
	if _, err := parseGet(decodeData(t, `{}`), "Docs"); err == nil {
		t.Error("expected missing Get section to fail")
	}
}

func TestParseCount(t *testing.T) {
	n, err := parseCount(decodeData(t, `{"Aggregate":{"Docs":[{"meta":{"count":17}}]}}`), "Docs")
	if err != nil || n != 17 {
		t.Errorf("expected 17, got %d (%v)", n, err)
	}
	if _, err := parseCount(decodeData(t, `{"Aggregate":{"Docs":[{}]}}`), "Docs"); err == nil {
		t.Error("expected missing meta to fail")
	}
}

func TestGraphQLErrors(t *testing.T) {
	if err := graphQLErrors(&models.GraphQLResponse{}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	err := graphQLErrors(&models.GraphQLResponse{Errors: []*models.GraphQLError{{Message: "class not found"}}})
	if err == nil || !strings.Contains(err.Error(), "class not found") {
		t.Errorf("expected graphql error, got %v", err)
	}
}

func TestWhereValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"equal text", `{"path":["contentType"],"operator":"Equal","valueText":"text/plain"}`, false},
		{"nested", `{"operator":"And","operands":[
			{"path":["content"],"operator":"Like","valueText":"*vector*"},
			{"path":["metadata"],"operator":"IsNull","valueBoolean":false}]}`, false},
		{"contains any", `{"path":["tags"],"operator":"ContainsAny","valueTextArray":["a","b"]}`, false},
		{"unknown operator", `{"path":["content"],"operator":"Near","valueText":"x"}`, true},
		{"missing path", `{"operator":"Equal","valueText":"x"}`, true},
		{"missing value", `{"path":["content"],"operator":"Equal"}`, true},
		{"two values", `{"path":["content"],"operator":"Equal","valueText":"x","valueInt":1}`, true},
		{"empty and", `{"operator":"And"}`, true},
		{"bad operand", `{"operator":"Or","operands":[{"operator":"Equal"}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w Where
			if err := json.Unmarshal([]byte(tt.raw), &w); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			err := w.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestWhereFor(t *testing.T) {
	if w, err := whereFor(nil); w != nil || err != nil {
		t.Errorf("expected nil filter to produce nothing, got %v %v", w, err)
	}

	native := filters.Where().WithPath([]string{"content"}).WithOperator(filters.Equal).WithValueText("x")
	w, err := whereFor(store.NativeFilter(native))
	if err != nil || w != native {
		t.Errorf("expected native builder to pass through, got %v %v", w, err)
	}

	w, err = whereFor(store.RawFilter([]byte(`{"path":["contentType"],"operator":"Equal","valueText":"text/plain"}`)))
	if err != nil || w == nil {
		t.Errorf("expected raw filter to convert, got %v %v", w, err)
	}

	if _, err := whereFor(store.RawFilter([]byte(`{"operator":"Bogus"}`))); err == nil {
		t.Error("expected invalid raw filter to fail")
	}
	if _, err := whereFor(store.NativeFilter("where")); err == nil {
		t.Error("expected foreign native filter to fail")
	}
}
