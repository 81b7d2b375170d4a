// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package core defines the host-facing types: documents, actions and the
// registry actions are published to.
package core

import "context"

// ActionKind distinguishes the capabilities an action provides.
type ActionKind string

const (
	KindIndexer   ActionKind = "indexer"
	KindRetriever ActionKind = "retriever"
)

// Action is a named capability callable by the host framework.
type Action interface {
	Name() string
	Kind() ActionKind
	Description() string
	Call(ctx context.Context, input any) (any, error)
}

// InputSchemer is implemented by actions that describe their input as a
// JSON Schema object.
type InputSchemer interface {
	InputSchema() map[string]any
}
