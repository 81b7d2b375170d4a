// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/jllopis/kairos-weaviate/pkg/errors"
)

// CLIError wraps a PluginError with a hint for the operator.
type CLIError struct {
	*errors.PluginError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(pe *errors.PluginError, hint string) *CLIError {
	return &CLIError{PluginError: pe, Hint: hint}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.PluginError == nil {
		return "unknown error"
	}
	msg := e.PluginError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// Unwrap exposes the PluginError.
func (e *CLIError) Unwrap() error {
	return e.PluginError
}

func unknownCollectionError(name string, known []string) *CLIError {
	pe := errors.New(errors.CodeNotFound, fmt.Sprintf("collection %q is not configured", name), nil).
		WithContext("collection", name)
	hint := "add it under collections: in the configuration file"
	if len(known) > 0 {
		hint = "configured collections: " + strings.Join(known, ", ")
	}
	return NewCLIError(pe, hint)
}

func confirmationError(collection string) *CLIError {
	pe := errors.InvalidInput(fmt.Sprintf("dropping %q deletes every object in it", collection), nil).
		WithContext("collection", collection)
	return NewCLIError(pe, "pass --yes to confirm")
}

// hintFor suggests a next step for the common failure classes.
func hintFor(code errors.ErrorCode) string {
	switch code {
	case errors.CodeConnection:
		return "check client_params (host, port, api_key) and that the vector store is running"
	case errors.CodeMisconfiguration:
		return "check the collections and embedders sections of the configuration"
	case errors.CodeEmbedding:
		return "check that the embedder is reachable and the model is available"
	case errors.CodeStoreOperation:
		return "the vector store rejected the request; see the cause above"
	default:
		return ""
	}
}

// printError writes err to w, as a JSON object when asJSON is set.
func printError(w io.Writer, err error, asJSON bool) {
	var cliErr *CLIError
	if !stderrors.As(err, &cliErr) {
		var pe *errors.PluginError
		if stderrors.As(err, &pe) {
			cliErr = NewCLIError(pe, hintFor(pe.Code))
		}
	}

	if asJSON {
		payload := map[string]any{"message": err.Error()}
		if cliErr != nil {
			payload = map[string]any{
				"code":    cliErr.Code,
				"message": cliErr.PluginError.Error(),
				"hint":    cliErr.Hint,
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"error": payload})
		return
	}

	if cliErr == nil {
		fmt.Fprintf(w, "Error: %s\n", err)
		return
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", cliErr.Code, cliErr.PluginError.Error())
	if cliErr.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", cliErr.Hint)
	}
}
