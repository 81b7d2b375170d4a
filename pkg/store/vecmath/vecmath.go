// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package vecmath holds the exact-search helpers shared by the embedded
// transports: cosine distance, vector encoding and equality filters.
package vecmath

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/jllopis/kairos-weaviate/pkg/store"
)

// CosineDistance returns 1 - cosine similarity. Mismatched or zero vectors
// are maximally distant.
func CosineDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}

// Encode serializes a vector as little-endian float32s.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Equality is a conjunction of field == value conditions. Keys "content" and
// "contentType" address the fixed properties; any other key addresses a
// top-level metadata field.
type Equality map[string]any

// ParseEquality decodes a raw JSON object into an Equality filter.
func ParseEquality(raw json.RawMessage) (Equality, error) {
	var eq Equality
	if err := json.Unmarshal(raw, &eq); err != nil {
		return nil, fmt.Errorf("filter must be a JSON object of field/value pairs: %w", err)
	}
	return eq, nil
}

// Match reports whether props satisfy every condition.
func (e Equality) Match(props store.Properties) bool {
	if len(e) == 0 {
		return true
	}
	var meta map[string]any
	metaParsed := false
	for key, want := range e {
		switch key {
		case store.PropContent:
			if s, ok := want.(string); !ok || s != props.Content {
				return false
			}
		case store.PropContentType:
			if s, ok := want.(string); !ok || s != props.ContentType {
				return false
			}
		default:
			if !metaParsed {
				_ = json.Unmarshal([]byte(props.Metadata), &meta)
				metaParsed = true
			}
			got, ok := meta[strings.TrimPrefix(key, store.PropMetadata+".")]
			if !ok || !reflect.DeepEqual(got, want) {
				return false
			}
		}
	}
	return true
}
