// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

import (
	"fmt"
	"sort"
)

// Store maps node ids to traced values for one computation run.
//
// # Description
//
//	A Store is rebuilt in full on every orchestrator run. There are no
//	partial updates and no memoization across runs; correctness and
//	simplicity win over recomputation cost.
//
// # Thread Safety
//
//	Store is read-only after construction and safe for concurrent reads.
type Store struct {
	values map[string]TracedValue
}

// Entry is one (node id, traced value) pair. Transport layers serialize
// the Store as a list of entries because a map keyed by arbitrary strings
// does not survive JSON round-trips in a stable order.
type Entry struct {
	NodeID string
	Value  TracedValue
}

// Get looks up a node id. The second return is false when the id is
// absent; callers on display paths must substitute a zero-valued leaf.
func (s *Store) Get(id string) (TracedValue, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Len returns the number of stored nodes.
func (s *Store) Len() int {
	return len(s.values)
}

// IDs returns every stored node id in lexicographic order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.values))
	for id := range s.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns all (node id, value) pairs ordered by node id.
// The slice is freshly allocated; mutating it does not affect the Store.
func (s *Store) Entries() []Entry {
	entries := make([]Entry, 0, len(s.values))
	for _, id := range s.IDs() {
		entries = append(entries, Entry{NodeID: id, Value: s.values[id]})
	}
	return entries
}

// Builder constructs a Store with duplicate-id validation.
//
// # Description
//
//	Builder is the only way to create a Store. Put rejects duplicate and
//	empty node ids so that id collisions between modules surface at
//	collection time rather than silently merging.
//
// # Thread Safety
//
//	Builder is NOT safe for concurrent use. Build the store in a single
//	goroutine.
type Builder struct {
	values map[string]TracedValue
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]TracedValue)}
}

// Put inserts one traced value under id.
//
// Outputs:
//
//	error - ErrEmptyNodeID or ErrDuplicateNode (wrapped with the id);
//	nil on success.
func (b *Builder) Put(id string, v TracedValue) error {
	if id == "" {
		return ErrEmptyNodeID
	}
	if _, exists := b.values[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
	}
	b.values[id] = v
	return nil
}

// Len returns the number of values inserted so far.
func (b *Builder) Len() int {
	return len(b.values)
}

// Has reports whether id has already been inserted.
func (b *Builder) Has(id string) bool {
	_, ok := b.values[id]
	return ok
}

// MinConfidence returns the minimum confidence among the given input ids
// that exist in the builder, or 1 when none of them exist. Collectors use
// it to propagate capture confidence into computed nodes.
func (b *Builder) MinConfidence(inputs []string) float64 {
	minC := 1.0
	for _, id := range inputs {
		if v, ok := b.values[id]; ok && v.Confidence < minC {
			minC = v.Confidence
		}
	}
	return minC
}

// Build finalizes the Store. The Builder must not be used afterwards.
func (b *Builder) Build() *Store {
	s := &Store{values: b.values}
	b.values = nil
	return s
}
