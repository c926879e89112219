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
	"errors"
	"testing"
)

func TestBuilder_RejectsDuplicates(t *testing.T) {
	b := NewBuilder()

	if err := b.Put("1040.agi", Constant(100, "1040.agi")); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	err := b.Put("1040.agi", Constant(200, "1040.agi"))
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}

	// The original value must survive the rejected insert.
	s := b.Build()
	v, ok := s.Get("1040.agi")
	if !ok || v.Amount != 100 {
		t.Errorf("expected original value 100, got %v (ok=%v)", v.Amount, ok)
	}
}

func TestBuilder_RejectsEmptyID(t *testing.T) {
	b := NewBuilder()
	if err := b.Put("", Constant(1, "")); !errors.Is(err, ErrEmptyNodeID) {
		t.Fatalf("expected ErrEmptyNodeID, got %v", err)
	}
}

func TestBuilder_MinConfidence(t *testing.T) {
	b := NewBuilder()
	_ = b.Put("a", Document(100, "doc-1", "wages", "W-2 box 1", 0.95))
	_ = b.Put("b", Document(200, "doc-2", "wages", "W-2 box 1", 0.80))

	if got := b.MinConfidence([]string{"a", "b", "missing"}); got != 0.80 {
		t.Errorf("MinConfidence = %v, want 0.80", got)
	}
	// No stored inputs (explanatory constant): full confidence.
	if got := b.MinConfidence(nil); got != 1.0 {
		t.Errorf("MinConfidence(nil) = %v, want 1.0", got)
	}
}

func TestStore_EntriesSorted(t *testing.T) {
	b := NewBuilder()
	_ = b.Put("z.last", Constant(3, "z.last"))
	_ = b.Put("a.first", Constant(1, "a.first"))
	_ = b.Put("m.middle", Constant(2, "m.middle"))
	s := b.Build()

	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"a.first", "m.middle", "z.last"}
	for i, e := range entries {
		if e.NodeID != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.NodeID, want[i])
		}
	}
}

func TestSource_ClosedSum(t *testing.T) {
	sources := []Source{
		DocumentSource{DocumentID: "d", Field: "f"},
		ComputedSource{NodeID: "n"},
		UserEntrySource{Description: "typed"},
	}
	wantKinds := []SourceKind{KindDocument, KindComputed, KindUserEntry}

	for i, src := range sources {
		if src.Kind() != wantKinds[i] {
			t.Errorf("source %d kind = %q, want %q", i, src.Kind(), wantKinds[i])
		}
		// Exhaustive type switch over the closed set.
		switch src.(type) {
		case DocumentSource, ComputedSource, UserEntrySource:
		default:
			t.Errorf("unexpected source variant %T", src)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	if v := Document(1, "d", "f", "", 1.7); v.Confidence != 1 {
		t.Errorf("confidence not clamped high: %v", v.Confidence)
	}
	if v := Document(1, "d", "f", "", -0.2); v.Confidence != 0 {
		t.Errorf("confidence not clamped low: %v", v.Confidence)
	}
}
