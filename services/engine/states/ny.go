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
	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

var nyTable = mustLoadTable("tables/ny.yaml")

// NewYorkState implements the NY jurisdiction module: progressive
// brackets over a residency-apportioned base, the state's own standard
// deduction, and a flat household credit below an income limit.
type NewYorkState struct{}

// NewNewYork returns the NY module.
func NewNewYork() *NewYorkState { return &NewYorkState{} }

// Code returns "NY".
func (*NewYorkState) Code() string { return nyTable.Code }

// Label returns "New York".
func (*NewYorkState) Label() string { return nyTable.Label }

// Compute runs the NY pipeline.
func (m *NewYorkState) Compute(ret *datatypes.Return, fed *federal.Result, cfg datatypes.StateConfig) Result {
	res := Result{
		Code:      nyTable.Code,
		Label:     nyTable.Label,
		Residency: cfg.Residency,
	}

	res.Base = apportionBase(fed, cfg)
	res.Deduction = nyTable.deduction(ret.Filing)
	res.Taxable = (res.Base - res.Deduction).FloorZero()
	res.Tax = federal.BracketTax(res.Taxable, nyTable.brackets(ret.Filing))

	res.Credits = m.householdCredit(res.Base, res.Tax)
	res.TaxAfterCredits = (res.Tax - res.Credits).FloorZero()

	res.Withheld, _ = stateWithheld(ret, nyTable.Code)
	settle(&res)

	res.Lines = map[string]money.Amount{
		"household_credit": res.Credits,
	}
	return res
}

// householdCredit grants the flat credit when base income is at or
// below the table's limit, capped at the computed tax.
func (m *NewYorkState) householdCredit(base, tax money.Amount) money.Amount {
	hc := nyTable.HouseholdCredit
	if hc == nil || base > money.FromDollars(hc.IncomeLimit) {
		return 0
	}
	return money.Min(money.FromDollars(hc.Amount), tax)
}

// Labels returns the NY node-id label map.
func (m *NewYorkState) Labels() map[string]string {
	labels := commonLabels(nyTable.Code, nyTable.Label)
	labels[nodeID(nyTable.Code, "household_credit")] = "New York household credit"
	return labels
}

// CollectValues emits NY traced values. The household credit depends on
// base income, so its node lists the base as an input rather than being
// a bare constant.
func (m *NewYorkState) CollectValues(b *provenance.Builder, ret *datatypes.Return, res Result) error {
	creditID := nodeID(nyTable.Code, "household_credit")
	baseID := nodeID(nyTable.Code, "base_income")
	if err := b.Put(creditID, provenance.Computed(res.Credits, creditID, []string{baseID}, 1)); err != nil {
		return err
	}
	return collectCommon(b, ret, res, []string{creditID})
}

var _ Module = (*NewYorkState)(nil)
