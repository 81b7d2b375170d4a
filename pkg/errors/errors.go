// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides the typed errors surfaced by the plugin.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies plugin errors for monitoring and callers.
type ErrorCode string

const (
	// CodeInternal indicates an internal error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates a malformed action input.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeConnection indicates the vector store connection could not be established.
	CodeConnection ErrorCode = "CONNECTION_ERROR"

	// CodeMisconfiguration indicates the plugin was set up with an invalid configuration.
	CodeMisconfiguration ErrorCode = "MISCONFIGURATION"

	// CodeStoreOperation indicates a vector store operation failed.
	CodeStoreOperation ErrorCode = "STORE_ERROR"

	// CodeEmbedding indicates the embedder failed.
	CodeEmbedding ErrorCode = "EMBEDDING_ERROR"

	// CodeSerialization indicates document metadata could not be encoded.
	CodeSerialization ErrorCode = "SERIALIZATION_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// PluginError is a typed error with context for observability.
// It unwraps to its cause, so errors.Is and errors.As reach the original error.
type PluginError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *PluginError) MarshalJSON() ([]byte, error) {
	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Err     string                 `json:"error,omitempty"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Err:     cause,
		Context: e.Context,
	})
}

// New creates a new PluginError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *PluginError {
	return &PluginError{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *PluginError) WithContext(key string, value interface{}) *PluginError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Connection wraps a dial or readiness failure.
func Connection(cause error) *PluginError {
	return New(CodeConnection, "vector store connection failed", cause)
}

// Misconfiguration reports an invalid setup.
func Misconfiguration(format string, args ...any) *PluginError {
	return New(CodeMisconfiguration, fmt.Sprintf(format, args...), nil)
}

// StoreOperation wraps a failed store round-trip. The operation name and
// collection end up in the message and the context.
func StoreOperation(op, collection string, cause error) *PluginError {
	msg := op
	if collection != "" {
		msg = fmt.Sprintf("%s %q", op, collection)
	}
	return New(CodeStoreOperation, msg, cause).
		WithContext("operation", op).
		WithContext("collection", collection)
}

// Embedding wraps an embedder failure.
func Embedding(msg string, cause error) *PluginError {
	return New(CodeEmbedding, msg, cause)
}

// Serialization wraps a metadata encoding failure.
func Serialization(msg string, cause error) *PluginError {
	return New(CodeSerialization, msg, cause)
}

// InvalidInput reports a malformed request.
func InvalidInput(msg string, cause error) *PluginError {
	return New(CodeInvalidInput, msg, cause)
}

// AsPluginError returns err as a *PluginError, wrapping it as internal otherwise.
func AsPluginError(err error) *PluginError {
	if err == nil {
		return nil
	}
	var pe *PluginError
	if stderrors.As(err, &pe) {
		return pe
	}
	return New(CodeInternal, "wrapped error", err)
}

// HasCode reports whether any PluginError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var pe *PluginError
		if !stderrors.As(err, &pe) {
			return false
		}
		if pe.Code == code {
			return true
		}
		err = pe.Err
	}
	return false
}

// CodeOf returns the code of the outermost PluginError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var pe *PluginError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}
