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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/taxtrace/pkg/logging"
	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

func caResidentReturn() *datatypes.Return {
	return &datatypes.Return{
		TaxYear: 2024,
		Filing:  datatypes.FilingSingle,
		Primary: datatypes.Person{Name: "Ada Example", TaxID: "000-00-0001"},
		W2s: []datatypes.W2{
			{
				ID: "emp-1", Employer: "Acme Corp",
				WagesCents: 6_000_000, FederalWithheldCents: 900_000,
				StateCode: "CA", StateWithheldCents: 200_000,
			},
		},
		Deductions: datatypes.Deductions{Election: datatypes.DeductStandard},
		States: []datatypes.StateConfig{
			{Code: "CA", Residency: datatypes.ResidencyResident},
		},
	}
}

func quietOpts(extra ...Option) []Option {
	opts := []Option{WithLogger(logging.Discard().Slog())}
	return append(opts, extra...)
}

func TestComputeAll_SingleWageCAResident(t *testing.T) {
	res, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"CA"}, res.ExecutedModules)

	assert.Equal(t, money.Amount(6_000_000), res.Federal.AGI)
	assert.Equal(t, money.Amount(521_600), res.Federal.Tax)
	assert.Equal(t, money.Amount(378_400), res.Federal.Overpayment)

	require.Len(t, res.States, 1)
	ca := res.States[0]
	assert.Equal(t, "CA", ca.Code)
	assert.Equal(t, money.Amount(6_000_000), ca.Base)
	assert.Equal(t, money.Amount(5_446_000), ca.Taxable)
	assert.Equal(t, money.Amount(169_616), ca.TaxAfterCredits)
	assert.Equal(t, money.Amount(200_000), ca.Withheld)

	// Gates run when a jurisdiction produced results, and this return
	// is internally consistent.
	require.NotNil(t, res.Gates)
	assert.True(t, res.Gates.Passed)
	assert.Empty(t, res.Gates.FailedFindings())

	// The store holds both the federal and the state lines.
	_, ok := res.Values.Get(federal.NodeAGI)
	assert.True(t, ok)
	_, ok = res.Values.Get("ca.tax")
	assert.True(t, ok)
	_, ok = res.Values.Get("w2:emp-1:state_withheld")
	assert.True(t, ok)
}

func TestComputeAll_Deterministic(t *testing.T) {
	first, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)
	second, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)

	assert.Equal(t, first.Federal, second.Federal)
	assert.Equal(t, first.States, second.States)
	if !reflect.DeepEqual(first.Values.Entries(), second.Values.Entries()) {
		t.Fatal("two runs over the same input produced different stores")
	}
}

func TestComputeAll_StoreIsTopologicallyValid(t *testing.T) {
	res, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)

	order, err := TopologicalSort(res.Values)
	require.NoError(t, err)
	require.Len(t, order, res.Values.Len())

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	for _, id := range order {
		v, _ := res.Values.Get(id)
		src, ok := v.Source.(provenance.ComputedSource)
		if !ok {
			continue
		}
		for _, input := range src.Inputs {
			if _, stored := res.Values.Get(input); !stored {
				continue
			}
			assert.Less(t, position[input], position[id],
				"input %s must precede %s", input, id)
		}
	}
}

func TestComputeAll_TraceRoundTrip(t *testing.T) {
	res, err := ComputeAll(context.Background(), caResidentReturn(), quietOpts()...)
	require.NoError(t, err)

	// Every stored id must be explainable without panics or nils, and
	// the root of its trace must carry the stored amount.
	for _, id := range res.Values.IDs() {
		trace := res.BuildTrace(id)
		require.NotNil(t, trace, id)
		v, _ := res.Values.Get(id)
		assert.Equal(t, v.Amount, trace.Amount, id)
		assert.NotEmpty(t, trace.Label, id)
	}
}

func TestComputeAll_UnknownJurisdictionSkipped(t *testing.T) {
	ret := caResidentReturn()
	ret.States = []datatypes.StateConfig{
		{Code: "ZZ", Residency: datatypes.ResidencyResident},
	}

	res, err := ComputeAll(context.Background(), ret, quietOpts()...)
	require.NoError(t, err)
	assert.Empty(t, res.States)
	assert.Empty(t, res.ExecutedModules)
	assert.Nil(t, res.Gates, "no jurisdiction results, no gates")

	// Federal still computed in full.
	assert.Equal(t, money.Amount(521_600), res.Federal.Tax)
}

func TestComputeAll_UnknownJurisdictionErrorPolicy(t *testing.T) {
	ret := caResidentReturn()
	ret.States = append(ret.States, datatypes.StateConfig{
		Code: "ZZ", Residency: datatypes.ResidencyResident,
	})

	_, err := ComputeAll(context.Background(), ret,
		quietOpts(WithUnknownJurisdictionPolicy(UnknownError))...)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownJurisdiction)
	assert.Contains(t, err.Error(), "ZZ")
}

func TestComputeAll_JurisdictionOrderPreserved(t *testing.T) {
	ret := caResidentReturn()
	ret.States = []datatypes.StateConfig{
		{Code: "NY", Residency: datatypes.ResidencyNonresident, InStateWagesCents: 1_200_000},
		{Code: "CA", Residency: datatypes.ResidencyResident},
	}

	res, err := ComputeAll(context.Background(), ret, quietOpts()...)
	require.NoError(t, err)
	require.Len(t, res.States, 2)
	assert.Equal(t, "NY", res.States[0].Code)
	assert.Equal(t, "CA", res.States[1].Code)
	assert.Equal(t, []string{"NY", "CA"}, res.ExecutedModules)
}

func TestComputeAll_NilInputs(t *testing.T) {
	_, err := ComputeAll(nil, caResidentReturn(), quietOpts()...) //nolint:staticcheck
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = ComputeAll(context.Background(), nil, quietOpts()...)
	assert.ErrorIs(t, err, ErrNilReturn)
}

func TestComputeAll_DuplicateDocumentIDsRejected(t *testing.T) {
	ret := caResidentReturn()
	ret.W2s = append(ret.W2s, datatypes.W2{
		ID: "emp-1", Employer: "Other Corp", WagesCents: 1_000_000,
	})

	// Provenance node ids derive from document ids, so a repeated id
	// must fail validation up front. Letting it through would abort
	// collection at the colliding leaf and drop every federal line
	// from the store.
	res, err := ComputeAll(context.Background(), ret, quietOpts()...)
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestComputeAll_InvalidReturnRejected(t *testing.T) {
	ret := caResidentReturn()
	ret.Filing = datatypes.FilingMarriedJoint // joint without a spouse

	_, err := ComputeAll(context.Background(), ret, quietOpts()...)
	require.Error(t, err)
}

func TestComputeAll_PartYearGateWarning(t *testing.T) {
	ret := caResidentReturn()
	ret.States = []datatypes.StateConfig{
		{Code: "CA", Residency: datatypes.ResidencyPartYear, MonthsResident: 0},
	}

	// Months resident was never supplied; the run completes but the
	// residency-config gate flags it.
	res, err := ComputeAll(context.Background(), ret, quietOpts()...)
	require.NoError(t, err)
	require.NotNil(t, res.Gates)
	assert.False(t, res.Gates.Passed)

	var found bool
	for _, f := range res.Gates.FailedFindings() {
		if f.Gate == "residency_config" {
			found = true
		}
	}
	assert.True(t, found, "expected a residency_config finding")
}
