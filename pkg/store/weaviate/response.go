// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package weaviate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/jllopis/kairos-weaviate/pkg/store"
)

func graphQLErrors(resp *models.GraphQLResponse) error {
	if resp == nil {
		return errors.New("empty graphql response")
	}
	if len(resp.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		if e != nil {
			msgs = append(msgs, e.Message)
		}
	}
	return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
}

// classRows extracts data[op][class] as a list of objects.
func classRows(data map[string]models.JSONObject, op, class string) ([]map[string]any, error) {
	byClass, ok := data[op].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("graphql response has no %s section", op)
	}
	raw, ok := byClass[class]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected %s payload for class %s: %T", op, class, raw)
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected %s row for class %s: %T", op, class, item)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseGet(data map[string]models.JSONObject, class string) ([]store.ScoredObject, error) {
	rows, err := classRows(data, "Get", class)
	if err != nil {
		return nil, err
	}
	out := make([]store.ScoredObject, 0, len(rows))
	for _, row := range rows {
		hit := store.ScoredObject{
			Object: store.Object{
				Properties: store.Properties{
					Content:     stringField(row, store.PropContent),
					ContentType: stringField(row, store.PropContentType),
					Metadata:    stringField(row, store.PropMetadata),
				},
			},
		}
		if extra, ok := row["_additional"].(map[string]any); ok {
			hit.Object.ID = stringField(extra, "id")
			if d, ok := number(extra["distance"]); ok {
				f := float32(d)
				hit.Distance = &f
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

func parseCount(data map[string]models.JSONObject, class string) (int64, error) {
	rows, err := classRows(data, "Aggregate", class)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	meta, ok := rows[0]["meta"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("aggregate response for class %s has no meta", class)
	}
	n, ok := number(meta["count"])
	if !ok {
		return 0, fmt.Errorf("aggregate response for class %s has no count", class)
	}
	return int64(n), nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
