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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

func TestBuildTrace_TaxableIncomeChain(t *testing.T) {
	res, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)

	trace := res.BuildTrace(federal.NodeTaxableIncome)
	require.NotNil(t, trace)
	assert.Equal(t, money.Amount(4_540_000), trace.Amount)
	assert.Equal(t, "Taxable income", trace.Label)

	// The chain bottoms out at the W-2 document leaf.
	var sawW2 bool
	var walk func(*ComputeTrace)
	walk = func(tr *ComputeTrace) {
		if src, ok := tr.Source.(provenance.DocumentSource); ok && src.DocumentID == "emp-1" {
			sawW2 = true
		}
		for _, in := range tr.Inputs {
			walk(in)
		}
	}
	walk(trace)
	assert.True(t, sawW2, "taxable income should trace back to the W-2")
}

func TestBuildTrace_UnknownNodeDegradesGracefully(t *testing.T) {
	res, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)

	trace := res.BuildTrace("no.such.line")
	require.NotNil(t, trace)
	assert.Equal(t, money.Zero, trace.Amount)
	assert.Contains(t, trace.Label, "Unknown")
	assert.Contains(t, trace.Label, "no.such.line")
	assert.Empty(t, trace.Inputs)
}

func TestBuildTrace_DanglingInputBecomesUnknownLeaf(t *testing.T) {
	b := provenance.NewBuilder()
	mustPut(t, b, "total", provenance.Computed(500, "total", []string{"missing_leaf"}, 1))

	res := &Result{Values: b.Build(), labels: map[string]string{}}
	trace := res.BuildTrace("total")
	require.Len(t, trace.Inputs, 1)
	leaf := trace.Inputs[0]
	assert.Equal(t, money.Zero, leaf.Amount)
	assert.Contains(t, leaf.Label, "Unknown")
	assert.Contains(t, leaf.Label, "missing_leaf")
}

func TestExplainLine_CitesDocuments(t *testing.T) {
	res, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)

	out := res.ExplainLine(federal.NodeAGI)
	assert.Contains(t, out, "Adjusted gross income")
	assert.Contains(t, out, "[from emp-1:wages]")
	assert.Contains(t, out, "$60,000.00")

	// Deeper lines are indented below their dependents.
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Greater(t, len(lines), 1)
	assert.False(t, strings.HasPrefix(lines[0], " "))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], " "))
}

func TestLabelFallback(t *testing.T) {
	b := provenance.NewBuilder()
	mustPut(t, b, "entry:thing", provenance.UserEntry(100, "Manually entered thing"))
	mustPut(t, b, "doc:1:f", provenance.Document(100, "1", "f", "Some form box", 1))
	mustPut(t, b, "bare", provenance.UserEntry(100, ""))

	res := &Result{Values: b.Build(), labels: map[string]string{}}
	assert.Equal(t, "Manually entered thing", res.BuildTrace("entry:thing").Label)
	assert.Equal(t, "Some form box", res.BuildTrace("doc:1:f").Label)
	assert.Equal(t, "bare", res.BuildTrace("bare").Label, "node id is the last resort")
}
