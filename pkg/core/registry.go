// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the actions published by plugins.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

func registryKey(kind ActionKind, name string) string {
	return string(kind) + "/" + name
}

// Register adds an action. Registering the same kind and name twice fails.
func (r *Registry) Register(action Action) error {
	if action == nil {
		return fmt.Errorf("registry: nil action")
	}
	if action.Name() == "" {
		return fmt.Errorf("registry: action name is required")
	}
	key := registryKey(action.Kind(), action.Name())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[key]; exists {
		return fmt.Errorf("registry: %s action %q already registered", action.Kind(), action.Name())
	}
	r.actions[key] = action
	return nil
}

// Lookup returns the action registered under kind and name.
func (r *Registry) Lookup(kind ActionKind, name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[registryKey(kind, name)]
	return action, ok
}

// Actions returns all registered actions sorted by kind, then name.
func (r *Registry) Actions() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Action, 0, len(r.actions))
	for _, action := range r.actions {
		out = append(out, action)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind() != out[j].Kind() {
			return out[i].Kind() < out[j].Kind()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}
