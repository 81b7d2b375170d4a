// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jllopis/kairos-weaviate/pkg/core"
	"github.com/jllopis/kairos-weaviate/pkg/errors"
	"github.com/jllopis/kairos-weaviate/pkg/indexer"
	"github.com/jllopis/kairos-weaviate/pkg/retriever"
)

// IndexInput is the input of an indexer action.
type IndexInput struct {
	Documents []core.Document  `json:"documents"`
	Options   *indexer.Options `json:"options,omitempty"`
}

// IndexOutput reports what an indexer action wrote.
type IndexOutput struct {
	Collection string `json:"collection"`
	Documents  int    `json:"documents"`
}

// RetrieveInput is the input of a retriever action. Query accepts either a
// document or a plain string.
type RetrieveInput struct {
	Query   Query             `json:"query"`
	Options retriever.Options `json:"options"`
}

// Query is a retrieval query document.
type Query struct {
	core.Document
}

// UnmarshalJSON accepts a JSON string as a plain-text document.
func (q *Query) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		q.Document = core.NewTextDocument(text, nil)
		return nil
	}
	return json.Unmarshal(data, &q.Document)
}

// indexInput takes typed input as is so native values, such as filters, are
// not forced through JSON.
func indexInput(input any) (IndexInput, error) {
	switch v := input.(type) {
	case IndexInput:
		return v, nil
	case *IndexInput:
		if v != nil {
			return *v, nil
		}
	}
	var in IndexInput
	if err := core.DecodeInput(input, "", &in); err != nil {
		return in, errors.InvalidInput("decode indexer input", err)
	}
	return in, nil
}

func retrieveInput(input any) (RetrieveInput, error) {
	switch v := input.(type) {
	case RetrieveInput:
		return v, nil
	case *RetrieveInput:
		if v != nil {
			return *v, nil
		}
	}
	var in RetrieveInput
	if err := core.DecodeInput(input, "query", &in); err != nil {
		return in, errors.InvalidInput("decode retriever input", err)
	}
	return in, nil
}

type indexAction struct {
	ix *indexer.Indexer
}

func (a *indexAction) Name() string          { return ActionName(a.ix.Collection()) }
func (a *indexAction) Kind() core.ActionKind { return core.KindIndexer }

func (a *indexAction) Description() string {
	return fmt.Sprintf("Embed documents and store them in the %q collection.", a.ix.Collection())
}

func (a *indexAction) Call(ctx context.Context, input any) (any, error) {
	in, err := indexInput(input)
	if err != nil {
		return nil, err
	}
	if err := a.ix.Index(ctx, in.Documents, in.Options); err != nil {
		return nil, err
	}
	return IndexOutput{Collection: a.ix.Collection(), Documents: len(in.Documents)}, nil
}

func (a *indexAction) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"documents": map[string]any{
				"type":  "array",
				"items": documentSchema(),
			},
			"options": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"createCollectionIfMissing": map[string]any{"type": "boolean"},
					"collectionConfig": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"description": map[string]any{"type": "string"},
							"vectorSize":  map[string]any{"type": "integer"},
							"properties": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"name":        map[string]any{"type": "string"},
										"dataType":    map[string]any{"type": "string"},
										"description": map[string]any{"type": "string"},
									},
									"required": []string{"name"},
								},
							},
						},
					},
				},
			},
		},
		"required": []string{"documents"},
	}
}

type retrieveAction struct {
	rt *retriever.Retriever
}

func (a *retrieveAction) Name() string          { return ActionName(a.rt.Collection()) }
func (a *retrieveAction) Kind() core.ActionKind { return core.KindRetriever }

func (a *retrieveAction) Description() string {
	return fmt.Sprintf("Find the documents nearest to a query in the %q collection.", a.rt.Collection())
}

func (a *retrieveAction) Call(ctx context.Context, input any) (any, error) {
	in, err := retrieveInput(input)
	if err != nil {
		return nil, err
	}
	if in.Query.IsEmpty() {
		return nil, errors.InvalidInput("query is required", nil)
	}
	return a.rt.Retrieve(ctx, in.Query.Document, in.Options)
}

func (a *retrieveAction) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"description": "Query text, or a document",
				"oneOf":       []any{map[string]any{"type": "string"}, documentSchema()},
			},
			"options": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"k":        map[string]any{"type": "integer", "minimum": 1},
					"distance": map[string]any{"type": "number", "minimum": 0},
					"filters":  map[string]any{"type": "object", "description": "Filter in the store's own filter language"},
				},
			},
		},
		"required": []string{"query"},
	}
}

func documentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content":     map[string]any{"type": "string"},
			"contentType": map[string]any{"type": "string"},
			"metadata":    map[string]any{"type": "object"},
		},
		"required": []string{"content"},
	}
}
