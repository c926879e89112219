// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package states

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

func caWageReturn() *datatypes.Return {
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

func TestTables_LoadAndValidate(t *testing.T) {
	// The package-level tables loaded without panicking; spot-check them.
	assert.Equal(t, "CA", caTable.Code)
	assert.Equal(t, "NY", nyTable.Code)
	assert.Equal(t, int64(5540), caTable.StandardDeduction[datatypes.FilingSingle])
	assert.Equal(t, int64(8000), nyTable.StandardDeduction[datatypes.FilingSingle])
	require.NotNil(t, nyTable.HouseholdCredit)
	assert.Equal(t, int64(75), nyTable.HouseholdCredit.Amount)
}

func TestCalifornia_ResidentCompute(t *testing.T) {
	ret := caWageReturn()
	fed := federal.Compute(ret)

	res := NewCalifornia().Compute(ret, fed, ret.States[0])

	assert.Equal(t, "CA", res.Code)
	assert.Equal(t, fed.AGI, res.Base, "resident base equals federal AGI")
	assert.Equal(t, money.FromDollars(5540), res.Deduction)
	assert.Equal(t, money.Amount(5_446_000), res.Taxable)
	// Marginal spans: 1% + 2% + 4% + 6% over $54,460 = $1,845.16.
	assert.Equal(t, money.Amount(184_516), res.Tax)
	assert.Equal(t, money.FromDollars(149), res.Credits)
	assert.Equal(t, money.Amount(169_616), res.TaxAfterCredits)
	assert.Equal(t, money.Amount(200_000), res.Withheld)
	assert.Equal(t, money.Amount(200_000-169_616), res.Overpayment)
	assert.Equal(t, money.Zero, res.BalanceDue)
}

func TestCalifornia_RenterCredit(t *testing.T) {
	tests := []struct {
		name       string
		wagesCents int64
		renter     bool
		want       money.Amount
	}{
		{"not claimed", 5_000_000, false, 0},
		{"claimed under limit", 5_000_000, true, money.FromDollars(60)},
		{"claimed over limit", 6_000_000, true, 0}, // $60,000 base exceeds the single limit
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := caWageReturn()
			ret.W2s[0].WagesCents = tt.wagesCents
			ret.States[0].Renter = tt.renter
			fed := federal.Compute(ret)

			res := NewCalifornia().Compute(ret, fed, ret.States[0])
			assert.Equal(t, tt.want, res.Lines["renter_credit"])
			assert.Equal(t, res.Lines["exemption_credit"]+tt.want, res.Credits)
		})
	}
}

func TestApportionBase(t *testing.T) {
	ret := caWageReturn()
	fed := federal.Compute(ret)

	tests := []struct {
		name string
		cfg  datatypes.StateConfig
		want money.Amount
	}{
		{
			"resident full AGI",
			datatypes.StateConfig{Code: "CA", Residency: datatypes.ResidencyResident},
			fed.AGI,
		},
		{
			"part-year prorated",
			datatypes.StateConfig{Code: "CA", Residency: datatypes.ResidencyPartYear, MonthsResident: 6},
			fed.AGI.MulRatio(6, 12),
		},
		{
			"nonresident uses in-state wages",
			datatypes.StateConfig{Code: "CA", Residency: datatypes.ResidencyNonresident, InStateWagesCents: 1_000_000},
			money.Amount(1_000_000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apportionBase(fed, tt.cfg))
		})
	}
}

func TestNewYork_HouseholdCredit(t *testing.T) {
	ret := caWageReturn()
	ret.W2s[0].StateCode = "NY"
	ret.States = []datatypes.StateConfig{{Code: "NY", Residency: datatypes.ResidencyResident}}
	fed := federal.Compute(ret)
	ny := NewNewYork()

	// $60,000 base: above the $28,000 limit, no credit.
	res := ny.Compute(ret, fed, ret.States[0])
	assert.Equal(t, money.Zero, res.Credits)

	// Drop wages under the limit: flat $75 credit.
	ret.W2s[0].WagesCents = 2_500_000
	fed = federal.Compute(ret)
	res = ny.Compute(ret, fed, ret.States[0])
	assert.Equal(t, money.FromDollars(75), res.Credits)
}

func TestCalifornia_CollectValues(t *testing.T) {
	ret := caWageReturn()
	fed := federal.Compute(ret)
	ca := NewCalifornia()
	res := ca.Compute(ret, fed, ret.States[0])

	b := provenance.NewBuilder()
	require.NoError(t, federal.CollectValues(b, ret, fed))
	require.NoError(t, ca.CollectValues(b, ret, res))
	store := b.Build()

	base, ok := store.Get("ca.base_income")
	require.True(t, ok)
	src, ok := base.Source.(provenance.ComputedSource)
	require.True(t, ok)
	assert.Equal(t, []string{federal.NodeAGI}, src.Inputs, "resident base traces to federal AGI")

	// State withholding traces to the W-2 box 17 leaf the federal
	// collector inserted.
	withheld, ok := store.Get("ca.withholding")
	require.True(t, ok)
	wsrc := withheld.Source.(provenance.ComputedSource)
	assert.Equal(t, []string{federal.W2StateWithheldNode("emp-1")}, wsrc.Inputs)

	_, ok = store.Get(federal.W2StateWithheldNode("emp-1"))
	assert.True(t, ok)
}

func TestCalifornia_CollectValues_Nonresident(t *testing.T) {
	ret := caWageReturn()
	ret.States[0] = datatypes.StateConfig{
		Code: "CA", Residency: datatypes.ResidencyNonresident, InStateWagesCents: 1_000_000,
	}
	fed := federal.Compute(ret)
	ca := NewCalifornia()
	res := ca.Compute(ret, fed, ret.States[0])

	b := provenance.NewBuilder()
	require.NoError(t, federal.CollectValues(b, ret, fed))
	require.NoError(t, ca.CollectValues(b, ret, res))
	store := b.Build()

	base, _ := store.Get("ca.base_income")
	src := base.Source.(provenance.ComputedSource)
	assert.Equal(t, []string{"entry:ca_in_state_wages"}, src.Inputs)

	entry, ok := store.Get("entry:ca_in_state_wages")
	require.True(t, ok)
	assert.Equal(t, provenance.KindUserEntry, entry.Source.Kind())
	assert.Equal(t, money.Amount(1_000_000), entry.Amount)
}

func TestModules_LabelsCoverEnvelope(t *testing.T) {
	for _, m := range []Module{NewCalifornia(), NewNewYork()} {
		labels := m.Labels()
		for _, line := range []string{"base_income", "taxable_income", "tax", "balance_due"} {
			id := nodeID(m.Code(), line)
			assert.Contains(t, labels, id, "module %s missing label for %s", m.Code(), line)
		}
	}
}
