// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"fmt"
)

// Filter is an opaque store predicate. The pipelines pass it through
// untouched; transports interpret it. A Filter carries either a value in the
// transport's native filter type or the raw JSON form of the store's filter
// language.
type Filter struct {
	native any
	raw    json.RawMessage
}

// NativeFilter wraps a transport-native filter value.
func NativeFilter(v any) *Filter {
	return &Filter{native: v}
}

// RawFilter wraps a JSON filter in the store's own filter language.
func RawFilter(data json.RawMessage) *Filter {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return &Filter{raw: append(json.RawMessage(nil), data...)}
}

// Native returns the native value, if any.
func (f *Filter) Native() (any, bool) {
	if f == nil || f.native == nil {
		return nil, false
	}
	return f.native, true
}

// Raw returns the raw JSON form, if any.
func (f *Filter) Raw() (json.RawMessage, bool) {
	if f == nil || len(f.raw) == 0 {
		return nil, false
	}
	return f.raw, true
}

// IsZero reports whether the filter is absent.
func (f *Filter) IsZero() bool {
	return f == nil || (f.native == nil && len(f.raw) == 0)
}

// MarshalJSON emits the raw form. Native filters are not serializable.
func (f *Filter) MarshalJSON() ([]byte, error) {
	if f == nil || len(f.raw) == 0 {
		if f != nil && f.native != nil {
			return nil, fmt.Errorf("native %T filter cannot be marshaled", f.native)
		}
		return []byte("null"), nil
	}
	return f.raw, nil
}

// UnmarshalJSON stores data as a raw filter.
func (f *Filter) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Filter{}
		return nil
	}
	f.native = nil
	f.raw = append(json.RawMessage(nil), data...)
	return nil
}

// NativeAs extracts a native filter of type T. ok is false when the filter is
// absent; an error is returned when it holds a native value of another type.
func NativeAs[T any](f *Filter) (v T, ok bool, err error) {
	n, present := f.Native()
	if !present {
		return v, false, nil
	}
	v, ok = n.(T)
	if !ok {
		return v, false, fmt.Errorf("unsupported native filter type %T", n)
	}
	return v, true, nil
}
