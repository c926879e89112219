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

var caTable = mustLoadTable("tables/ca.yaml")

// California implements the CA jurisdiction module: progressive brackets
// over a residency-apportioned base, the state's own standard deduction,
// a flat exemption credit by filing status, and a renter's credit below
// an income limit.
type California struct{}

// NewCalifornia returns the CA module.
func NewCalifornia() *California { return &California{} }

// Code returns "CA".
func (*California) Code() string { return caTable.Code }

// Label returns "California".
func (*California) Label() string { return caTable.Label }

// Compute runs the CA pipeline.
func (m *California) Compute(ret *datatypes.Return, fed *federal.Result, cfg datatypes.StateConfig) Result {
	res := Result{
		Code:      caTable.Code,
		Label:     caTable.Label,
		Residency: cfg.Residency,
	}

	res.Base = apportionBase(fed, cfg)
	res.Deduction = caTable.deduction(ret.Filing)
	res.Taxable = (res.Base - res.Deduction).FloorZero()
	res.Tax = federal.BracketTax(res.Taxable, caTable.brackets(ret.Filing))

	exemption := money.FromDollars(caTable.ExemptionCredit[ret.Filing])
	renter := m.renterCredit(ret.Filing, res.Base, cfg)
	res.Credits = money.Min(exemption+renter, res.Tax)
	res.TaxAfterCredits = (res.Tax - res.Credits).FloorZero()

	res.Withheld, _ = stateWithheld(ret, caTable.Code)
	settle(&res)

	res.Lines = map[string]money.Amount{
		"exemption_credit": money.Min(exemption, res.Tax),
		"renter_credit":    renter,
	}
	return res
}

// renterCredit grants the flat renter credit when claimed and base
// income is at or below the filing status's limit. Nonrefundable; the
// caller caps total credits at the computed tax.
func (m *California) renterCredit(fs datatypes.FilingStatus, base money.Amount, cfg datatypes.StateConfig) money.Amount {
	rc := caTable.RenterCredit
	if rc == nil || !cfg.Renter || base > money.FromDollars(rc.IncomeLimit[fs]) {
		return 0
	}
	return money.FromDollars(rc.Amount[fs])
}

// Labels returns the CA node-id label map.
func (m *California) Labels() map[string]string {
	labels := commonLabels(caTable.Code, caTable.Label)
	labels[nodeID(caTable.Code, "exemption_credit")] = "California exemption credit"
	labels[nodeID(caTable.Code, "renter_credit")] = "California renter's credit"
	return labels
}

// CollectValues emits CA traced values: the exemption credit as an
// explanatory constant, the renter's credit (income-limited, so its node
// lists base income as an input), then the shared envelope lines.
func (m *California) CollectValues(b *provenance.Builder, ret *datatypes.Return, res Result) error {
	exemptionID := nodeID(caTable.Code, "exemption_credit")
	if err := b.Put(exemptionID, provenance.Constant(res.Lines["exemption_credit"], exemptionID)); err != nil {
		return err
	}
	renterID := nodeID(caTable.Code, "renter_credit")
	baseID := nodeID(caTable.Code, "base_income")
	if err := b.Put(renterID, provenance.Computed(res.Lines["renter_credit"], renterID, []string{baseID}, 1)); err != nil {
		return err
	}
	return collectCommon(b, ret, res, []string{exemptionID, renterID})
}

var _ Module = (*California)(nil)
