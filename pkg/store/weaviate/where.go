// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package weaviate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"

	"github.com/jllopis/kairos-weaviate/pkg/store"
)

var operators = map[string]filters.WhereOperator{
	"And":              filters.And,
	"Or":               filters.Or,
	"Equal":            filters.Equal,
	"NotEqual":         filters.NotEqual,
	"GreaterThan":      filters.GreaterThan,
	"GreaterThanEqual": filters.GreaterThanEqual,
	"LessThan":         filters.LessThan,
	"LessThanEqual":    filters.LessThanEqual,
	"Like":             filters.Like,
	"IsNull":           filters.IsNull,
	"ContainsAny":      filters.ContainsAny,
	"ContainsAll":      filters.ContainsAll,
}

// Where is the JSON shape of a Weaviate REST where filter.
type Where struct {
	Operator string   `json:"operator"`
	Path     []string `json:"path,omitempty"`
	Operands []Where  `json:"operands,omitempty"`

	ValueText    *string    `json:"valueText,omitempty"`
	ValueString  *string    `json:"valueString,omitempty"`
	ValueInt     *int64     `json:"valueInt,omitempty"`
	ValueNumber  *float64   `json:"valueNumber,omitempty"`
	ValueBoolean *bool      `json:"valueBoolean,omitempty"`
	ValueDate    *time.Time `json:"valueDate,omitempty"`

	ValueTextArray    []string  `json:"valueTextArray,omitempty"`
	ValueIntArray     []int64   `json:"valueIntArray,omitempty"`
	ValueNumberArray  []float64 `json:"valueNumberArray,omitempty"`
	ValueBooleanArray []bool    `json:"valueBooleanArray,omitempty"`
}

// whereFor converts a filter into a WhereBuilder. Native filters must be a
// *filters.WhereBuilder; raw filters use the REST where JSON shape.
func whereFor(f *store.Filter) (*filters.WhereBuilder, error) {
	if f.IsZero() {
		return nil, nil
	}
	if native, ok, err := store.NativeAs[*filters.WhereBuilder](f); err != nil {
		return nil, err
	} else if ok {
		return native, nil
	}
	raw, _ := f.Raw()
	var w Where
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode where filter: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w.Builder(), nil
}

// Validate checks operators, paths and value counts recursively.
func (w Where) Validate() error {
	if _, ok := operators[w.Operator]; !ok {
		return fmt.Errorf("unknown where operator %q", w.Operator)
	}
	if w.Operator == "And" || w.Operator == "Or" {
		if len(w.Operands) == 0 {
			return fmt.Errorf("%s requires operands", w.Operator)
		}
		for i, op := range w.Operands {
			if err := op.Validate(); err != nil {
				return fmt.Errorf("operand %d: %w", i, err)
			}
		}
		return nil
	}
	if len(w.Path) == 0 {
		return fmt.Errorf("%s requires a path", w.Operator)
	}
	if n := w.valueKinds(); n != 1 {
		return fmt.Errorf("%s on %v requires exactly one value, got %d", w.Operator, w.Path, n)
	}
	return nil
}

func (w Where) valueKinds() int {
	n := 0
	for _, set := range []bool{
		w.ValueText != nil, w.ValueString != nil, w.ValueInt != nil,
		w.ValueNumber != nil, w.ValueBoolean != nil, w.ValueDate != nil,
		len(w.ValueTextArray) > 0, len(w.ValueIntArray) > 0,
		len(w.ValueNumberArray) > 0, len(w.ValueBooleanArray) > 0,
	} {
		if set {
			n++
		}
	}
	return n
}

// Builder converts a validated Where into the client's filter builder.
func (w Where) Builder() *filters.WhereBuilder {
	b := filters.Where().WithOperator(operators[w.Operator])
	if len(w.Operands) > 0 {
		operands := make([]*filters.WhereBuilder, len(w.Operands))
		for i, op := range w.Operands {
			operands[i] = op.Builder()
		}
		return b.WithOperands(operands)
	}
	b = b.WithPath(w.Path)
	switch {
	case w.ValueText != nil:
		b = b.WithValueText(*w.ValueText)
	case w.ValueString != nil:
		b = b.WithValueString(*w.ValueString)
	case w.ValueInt != nil:
		b = b.WithValueInt(*w.ValueInt)
	case w.ValueNumber != nil:
		b = b.WithValueNumber(*w.ValueNumber)
	case w.ValueBoolean != nil:
		b = b.WithValueBoolean(*w.ValueBoolean)
	case w.ValueDate != nil:
		b = b.WithValueDate(*w.ValueDate)
	case len(w.ValueTextArray) > 0:
		b = b.WithValueText(w.ValueTextArray...)
	case len(w.ValueIntArray) > 0:
		b = b.WithValueInt(w.ValueIntArray...)
	case len(w.ValueNumberArray) > 0:
		b = b.WithValueNumber(w.ValueNumberArray...)
	case len(w.ValueBooleanArray) > 0:
		b = b.WithValueBoolean(w.ValueBooleanArray...)
	}
	return b
}
