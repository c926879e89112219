// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package provenance defines the traced-value model and the Store that maps
// node ids to traced values for one computation run.
//
// Every figure the engine touches is a TracedValue: an exact cent amount,
// a Source describing where it came from, and a confidence in [0, 1].
// Source is a closed sum type with exactly three variants:
//
//   - DocumentSource: reported directly on a source document (a W-2 box,
//     a 1099 field). Always a leaf in a derivation.
//   - ComputedSource: derived from other nodes; carries the ordered list
//     of node ids it was derived from.
//   - UserEntrySource: typed in by the taxpayer; a leaf.
//
// The closed set is enforced with an unexported marker method, so a switch
// over the three concrete types covers every possible source.
//
// # Node IDs
//
// Node ids are namespaced strings, unique within one run:
//
//	"1040.agi"              form line
//	"w2:emp-1:wages"        documentType:documentID:field
//	"entry:estimated_tax"   direct user entry
//
// A ComputedSource may reference input ids that were never stored (a
// zero-valued, omitted component). Consumers must treat a missing
// reference as a zero-valued leaf, never as an error.
//
// # Ownership Model
//
// A Store is immutable once built. Construction goes through Builder,
// which rejects duplicate node ids instead of silently overwriting them.
// After Build, the Store is safe for concurrent reads.
package provenance

import "github.com/AleutianAI/taxtrace/pkg/money"

// SourceKind discriminates the three Source variants for callers that
// want a tag (serialization, logging) rather than a type switch.
type SourceKind string

const (
	// KindDocument marks a value reported directly on a source document.
	KindDocument SourceKind = "document"

	// KindComputed marks a value derived from other nodes.
	KindComputed SourceKind = "computed"

	// KindUserEntry marks a value the taxpayer entered directly.
	KindUserEntry SourceKind = "user_entry"
)

// Source describes where a traced value came from. It is a closed sum:
// DocumentSource, ComputedSource, and UserEntrySource are the only
// implementations.
type Source interface {
	// Kind returns the variant tag.
	Kind() SourceKind

	// isSource seals the interface to this package.
	isSource()
}

// DocumentSource references a field on a captured source document.
// Document values are derivation leaves: the trace walk stops here and
// cites the document.
type DocumentSource struct {
	// DocumentID identifies the source document within the input aggregate.
	DocumentID string

	// Field names the reported field, e.g. "wages" or "box2_withheld".
	Field string

	// Description is a human-readable citation, e.g.
	// "W-2 box 1 (Acme Corp)".
	Description string
}

// Kind returns KindDocument.
func (DocumentSource) Kind() SourceKind { return KindDocument }
func (DocumentSource) isSource()        {}

// ComputedSource records a derivation: the owning node id and the ordered
// node ids the value was computed from. Inputs may be empty for
// explanatory constants (a standard deduction amount appears on no
// document but still deserves a node).
type ComputedSource struct {
	// NodeID is the id of the node this source belongs to.
	NodeID string

	// Inputs lists the node ids this value was derived from, in
	// presentation order. Entries may be absent from the Store.
	Inputs []string
}

// Kind returns KindComputed.
func (ComputedSource) Kind() SourceKind { return KindComputed }
func (ComputedSource) isSource()        {}

// UserEntrySource marks a value typed directly by the taxpayer, with no
// backing document and no further derivation.
type UserEntrySource struct {
	// Description explains what was entered, e.g. "Estimated tax payments".
	Description string
}

// Kind returns KindUserEntry.
func (UserEntrySource) Kind() SourceKind { return KindUserEntry }
func (UserEntrySource) isSource()        {}

// TracedValue is an amount paired with its derivation source and a
// confidence score in [0, 1]. Document values inherit the capture
// confidence of the document field; computed values carry the minimum
// confidence of their stored inputs; user entries are fully confident.
type TracedValue struct {
	Amount     money.Amount
	Source     Source
	Confidence float64
}

// Document builds a document-sourced TracedValue.
func Document(amount money.Amount, docID, field, description string, confidence float64) TracedValue {
	return TracedValue{
		Amount:     amount,
		Source:     DocumentSource{DocumentID: docID, Field: field, Description: description},
		Confidence: clampConfidence(confidence),
	}
}

// Computed builds a computed TracedValue owned by nodeID and derived from
// the given input ids.
func Computed(amount money.Amount, nodeID string, inputs []string, confidence float64) TracedValue {
	return TracedValue{
		Amount:     amount,
		Source:     ComputedSource{NodeID: nodeID, Inputs: inputs},
		Confidence: clampConfidence(confidence),
	}
}

// Constant builds a computed TracedValue with no inputs. Used for
// explanatory constants like a jurisdiction's standard allowance.
func Constant(amount money.Amount, nodeID string) TracedValue {
	return Computed(amount, nodeID, nil, 1)
}

// UserEntry builds a user-entered TracedValue.
func UserEntry(amount money.Amount, description string) TracedValue {
	return TracedValue{
		Amount:     amount,
		Source:     UserEntrySource{Description: description},
		Confidence: 1,
	}
}

// clampConfidence forces confidence into [0, 1]. Out-of-range capture
// scores degrade to the nearest bound instead of poisoning downstream
// minimum propagation.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
