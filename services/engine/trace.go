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
	"strings"

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

// ComputeTrace is one node of an explanation tree: the value a line
// resolved to, how it was sourced, and the traces of its inputs.
type ComputeTrace struct {
	NodeID     string
	Label      string
	Amount     money.Amount
	Confidence float64
	Source     provenance.Source
	Inputs     []*ComputeTrace
}

// BuildTrace resolves a node id into a full explanation tree.
//
// # Description
//
//	Document and user-entry sources become leaves. Computed sources
//	recurse into their inputs in declaration order. Lookups never
//	fail: an id absent from the store resolves to a zero-valued leaf
//	labeled as unknown, so a partially collected store still explains
//	every line it can.
//
// Inputs:
//
//	nodeID - The line to explain, e.g. "1040.taxable_income".
//
// Outputs:
//
//	*ComputeTrace - Never nil.
func (r *Result) BuildTrace(nodeID string) *ComputeTrace {
	return r.buildTrace(nodeID, make(map[string]bool))
}

func (r *Result) buildTrace(nodeID string, visiting map[string]bool) *ComputeTrace {
	v, ok := r.Values.Get(nodeID)
	if !ok {
		return &ComputeTrace{
			NodeID: nodeID,
			Label:  fmt.Sprintf("Unknown value (%s)", nodeID),
		}
	}

	trace := &ComputeTrace{
		NodeID:     nodeID,
		Label:      r.labelFor(nodeID, v),
		Amount:     v.Amount,
		Confidence: v.Confidence,
		Source:     v.Source,
	}

	src, computed := v.Source.(provenance.ComputedSource)
	if !computed {
		return trace
	}

	// A cycle here means the store is corrupt; the sorter reports it
	// loudly elsewhere. Breaking the recursion keeps Explain usable.
	if visiting[nodeID] {
		trace.Label = fmt.Sprintf("Unknown value (%s)", nodeID)
		trace.Inputs = nil
		return trace
	}
	visiting[nodeID] = true
	defer delete(visiting, nodeID)

	for _, input := range src.Inputs {
		trace.Inputs = append(trace.Inputs, r.buildTrace(input, visiting))
	}
	return trace
}

// labelFor prefers the registry's merged label table, then whatever
// description the source itself carries, then the raw node id.
func (r *Result) labelFor(nodeID string, v provenance.TracedValue) string {
	if label, ok := r.labels[nodeID]; ok {
		return label
	}
	switch src := v.Source.(type) {
	case provenance.DocumentSource:
		if src.Description != "" {
			return src.Description
		}
	case provenance.UserEntrySource:
		if src.Description != "" {
			return src.Description
		}
	}
	return nodeID
}

// ExplainLine renders a node's trace as an indented plain-text tree
// suitable for terminal output.
func (r *Result) ExplainLine(nodeID string) string {
	var sb strings.Builder
	renderTrace(&sb, r.BuildTrace(nodeID), 0)
	return sb.String()
}

func renderTrace(sb *strings.Builder, t *ComputeTrace, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(fmt.Sprintf("%s: %s", t.Label, t.Amount))
	switch src := t.Source.(type) {
	case provenance.DocumentSource:
		sb.WriteString(fmt.Sprintf(" [from %s:%s]", src.DocumentID, src.Field))
	case provenance.UserEntrySource:
		sb.WriteString(" [user entry]")
	case nil:
		// unknown leaf, nothing to cite
	}
	if t.Confidence > 0 && t.Confidence < 1 {
		sb.WriteString(fmt.Sprintf(" (confidence %.2f)", t.Confidence))
	}
	sb.WriteString("\n")
	for _, in := range t.Inputs {
		renderTrace(sb, in, depth+1)
	}
}
