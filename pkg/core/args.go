// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeInput converts an action input into out. Accepted inputs are nil,
// maps, JSON bytes or strings, and any value that round-trips through JSON.
// A non-JSON string is stored under fallbackKey.
func DecodeInput(input any, fallbackKey string, out any) error {
	var raw []byte
	switch value := input.(type) {
	case nil:
		return nil
	case json.RawMessage:
		raw = value
	case []byte:
		raw = value
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil
		}
		if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
			raw = []byte(trimmed)
			break
		}
		if fallbackKey == "" {
			return fmt.Errorf("action input: expected JSON object, got plain string")
		}
		encoded, err := json.Marshal(map[string]any{fallbackKey: value})
		if err != nil {
			return fmt.Errorf("action input: %w", err)
		}
		raw = encoded
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("action input: unsupported type %T", input)
		}
		raw = encoded
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("action input: invalid JSON: %w", err)
	}
	return nil
}
