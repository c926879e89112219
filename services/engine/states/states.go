// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package states implements jurisdiction computation modules.
//
// A Module is a fixed, compiled computation unit: pure Compute over the
// input aggregate plus the finished federal result, a label map for its
// node ids, and a provenance extraction function. Registration is static
// — extending the engine means adding a module implementation here and
// an entry in the engine registry, not loading external code.
//
// The per-state internals (brackets, deductions, credits) are opaque to
// the engine; only the standardized Result envelope is inspected by the
// quality gates and cross-jurisdiction comparisons. Rate tables live in
// embedded YAML under tables/ and are parsed once at package load,
// failing fast on any error.
package states

import (
	"strings"

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

// Module is one jurisdiction computation unit.
type Module interface {
	// Code returns the jurisdiction code, e.g. "CA".
	Code() string

	// Label returns the display label, e.g. "California".
	Label() string

	// Compute runs the jurisdiction pipeline. Pure: depends only on the
	// return, the finished federal result, and this jurisdiction's
	// config — never on sibling jurisdiction results.
	Compute(ret *datatypes.Return, fed *federal.Result, cfg datatypes.StateConfig) Result

	// Labels maps this module's node ids to display labels.
	Labels() map[string]string

	// CollectValues emits the module's traced values into the builder.
	// Document leaves shared with the federal module (W-2 state
	// withholding) are referenced by id, not re-inserted.
	CollectValues(b *provenance.Builder, ret *datatypes.Return, res Result) error
}

// Result is the standardized jurisdiction envelope consumed by the
// quality gates and cross-jurisdiction comparison, regardless of each
// state's internal detail.
type Result struct {
	Code      string
	Label     string
	Residency datatypes.Residency

	Base            money.Amount
	Deduction       money.Amount
	Taxable         money.Amount
	Tax             money.Amount
	Credits         money.Amount
	TaxAfterCredits money.Amount
	Withheld        money.Amount
	Overpayment     money.Amount
	BalanceDue      money.Amount

	// Lines carries module-defined detail the engine does not interpret.
	Lines map[string]money.Amount
}

// nodeID builds a namespaced node id for a state line, e.g. "ca.tax".
func nodeID(code, line string) string {
	return strings.ToLower(code) + "." + line
}

// inStateWagesEntry is the user-entry node id for a nonresident's
// in-state wage figure, e.g. "entry:ca_in_state_wages".
func inStateWagesEntry(code string) string {
	return "entry:" + strings.ToLower(code) + "_in_state_wages"
}

// apportionBase derives the jurisdiction's starting income from the
// federal AGI and the residency parameters:
//
//   - resident: the full federal AGI
//   - part_year: AGI prorated by months resident over twelve
//   - nonresident: the configured in-state wages only
func apportionBase(fed *federal.Result, cfg datatypes.StateConfig) money.Amount {
	switch cfg.Residency {
	case datatypes.ResidencyPartYear:
		return fed.AGI.MulRatio(int64(cfg.MonthsResident), 12)
	case datatypes.ResidencyNonresident:
		return money.Amount(cfg.InStateWagesCents)
	default:
		return fed.AGI
	}
}

// stateWithheld sums W-2 state withholding reported for this state and
// returns the matching document leaf ids for provenance.
func stateWithheld(ret *datatypes.Return, code string) (money.Amount, []string) {
	var total money.Amount
	var leaves []string
	for _, w2 := range ret.W2s {
		if w2.StateCode == code {
			total += money.Amount(w2.StateWithheldCents)
			leaves = append(leaves, federal.W2StateWithheldNode(w2.ID))
		}
	}
	return total, leaves
}

// collectCommon emits the envelope lines every state module shares:
// base income, deduction constant, taxable, tax, tax after credits,
// withholding, and the settlement pair. Module-specific credit nodes are
// inserted by the caller before this runs, so creditInputs can point at
// them.
func collectCommon(
	b *provenance.Builder,
	ret *datatypes.Return,
	res Result,
	creditInputs []string,
) error {
	code := res.Code
	baseID := nodeID(code, "base_income")
	dedID := nodeID(code, "deduction")
	taxableID := nodeID(code, "taxable_income")
	taxID := nodeID(code, "tax")
	afterID := nodeID(code, "tax_after_credits")
	withheldID := nodeID(code, "withholding")

	baseInputs := []string{federal.NodeAGI}
	if res.Residency == datatypes.ResidencyNonresident {
		entryID := inStateWagesEntry(code)
		if err := b.Put(entryID, provenance.UserEntry(res.Base, "In-state wages ("+code+")")); err != nil {
			return err
		}
		baseInputs = []string{entryID}
	}

	// res.Withheld already carries the summed amount; the leaves drive
	// the provenance inputs.
	_, withheldLeaves := stateWithheld(ret, code)

	put := func(id string, amount money.Amount, inputs []string) error {
		return b.Put(id, provenance.Computed(amount, id, inputs, b.MinConfidence(inputs)))
	}

	lines := []struct {
		id     string
		amount money.Amount
		inputs []string
	}{
		{baseID, res.Base, baseInputs},
		{dedID, res.Deduction, nil}, // explanatory constant
		{taxableID, res.Taxable, []string{baseID, dedID}},
		{taxID, res.Tax, []string{taxableID}},
		{afterID, res.TaxAfterCredits, append([]string{taxID}, creditInputs...)},
		{withheldID, res.Withheld, withheldLeaves},
		{nodeID(code, "overpayment"), res.Overpayment, []string{afterID, withheldID}},
		{nodeID(code, "balance_due"), res.BalanceDue, []string{afterID, withheldID}},
	}
	for _, line := range lines {
		if err := put(line.id, line.amount, line.inputs); err != nil {
			return err
		}
	}
	return nil
}

// commonLabels returns the label map for the shared envelope lines.
func commonLabels(code, label string) map[string]string {
	return map[string]string{
		nodeID(code, "base_income"):       label + " base income",
		nodeID(code, "deduction"):         label + " deduction",
		nodeID(code, "taxable_income"):    label + " taxable income",
		nodeID(code, "tax"):               label + " tax",
		nodeID(code, "tax_after_credits"): label + " tax after credits",
		nodeID(code, "withholding"):       label + " tax withheld",
		nodeID(code, "overpayment"):       label + " overpayment",
		nodeID(code, "balance_due"):       label + " balance due",
	}
}

// settle fills the envelope's settlement pair from tax after credits and
// withholding.
func settle(res *Result) {
	if res.Withheld > res.TaxAfterCredits {
		res.Overpayment = res.Withheld - res.TaxAfterCredits
	} else {
		res.BalanceDue = res.TaxAfterCredits - res.Withheld
	}
}
