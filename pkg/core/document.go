// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "strings"

// Document is the unit of content exchanged with the host framework.
type Document struct {
	Content     string         `json:"content"`
	ContentType string         `json:"contentType,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewTextDocument builds a plain-text document with optional metadata.
func NewTextDocument(text string, metadata map[string]any) Document {
	return Document{
		Content:     text,
		ContentType: "text/plain",
		Metadata:    metadata,
	}
}

// IsEmpty reports whether the document carries no content.
func (d Document) IsEmpty() bool {
	return strings.TrimSpace(d.Content) == ""
}
