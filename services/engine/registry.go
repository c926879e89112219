// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/states"
)

// Registry maps jurisdiction codes to computation modules.
//
// # Description
//
//	Registration is static: modules are compiled in and the registry is
//	assembled once at startup. NewRegistry also merges the federal and
//	per-module label maps into one dictionary, failing on any key
//	collision so jurisdiction-label conflicts surface at build time
//	rather than render time.
//
// # Thread Safety
//
//	Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	modules map[string]states.Module
	labels  map[string]string
}

// NewRegistry builds a registry from the given modules.
//
// Outputs:
//
//	*Registry - nil when err is non-nil.
//	error - ErrDuplicateModule or ErrLabelCollision (wrapped with the
//	offending code or node id).
func NewRegistry(modules ...states.Module) (*Registry, error) {
	r := &Registry{
		modules: make(map[string]states.Module, len(modules)),
		labels:  make(map[string]string),
	}

	for id, label := range federal.Labels() {
		r.labels[id] = label
	}

	for _, m := range modules {
		code := m.Code()
		if _, exists := r.modules[code]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateModule, code)
		}
		r.modules[code] = m

		for id, label := range m.Labels() {
			if _, exists := r.labels[id]; exists {
				return nil, fmt.Errorf("%w: %q (module %s)", ErrLabelCollision, id, code)
			}
			r.labels[id] = label
		}
	}
	return r, nil
}

// DefaultRegistry returns the registry of all compiled-in jurisdiction
// modules. Panics on construction failure, which would indicate two
// modules shipping conflicting codes or labels.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(states.NewCalifornia(), states.NewNewYork())
	if err != nil {
		panic(fmt.Sprintf("engine: building default registry: %v", err))
	}
	return r
}

// Lookup returns the module registered for code, if any.
func (r *Registry) Lookup(code string) (states.Module, bool) {
	m, ok := r.modules[code]
	return m, ok
}

// Codes returns all registered jurisdiction codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.modules))
	for code := range r.modules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// LabelFor returns the display label registered for a node id, or
// ok=false when none is registered (document and user-entry leaves carry
// their own descriptions instead).
func (r *Registry) LabelFor(nodeID string) (string, bool) {
	label, ok := r.labels[nodeID]
	return label, ok
}

// labelMap returns a copy of the merged label dictionary for embedding
// into a Result.
func (r *Registry) labelMap() map[string]string {
	out := make(map[string]string, len(r.labels))
	for id, label := range r.labels {
		out[id] = label
	}
	return out
}
