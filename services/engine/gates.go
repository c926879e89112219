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

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/states"
)

// GateSeverity grades a finding. Gates are advisory: nothing here
// blocks a computation, findings are surfaced for review.
type GateSeverity string

const (
	SeverityInfo    GateSeverity = "info"
	SeverityWarning GateSeverity = "warning"
	SeverityError   GateSeverity = "error"
)

// GateFinding is one check's outcome for one jurisdiction or line.
type GateFinding struct {
	Gate     string
	Severity GateSeverity
	OK       bool
	Message  string
}

// GateReport aggregates every finding from a run. Passed is false when
// any finding with severity error failed.
type GateReport struct {
	Passed   bool
	Findings []GateFinding
}

func (r *GateReport) add(f GateFinding) {
	r.Findings = append(r.Findings, f)
	if !f.OK && f.Severity == SeverityError {
		r.Passed = false
	}
}

// FailedFindings returns only the findings whose check did not hold.
func (r *GateReport) FailedFindings() []GateFinding {
	var failed []GateFinding
	for _, f := range r.Findings {
		if !f.OK {
			failed = append(failed, f)
		}
	}
	return failed
}

// runGates evaluates consistency checks across federal and state
// results. Only invoked when at least one state module produced a
// result; a federal-only run has nothing to cross-check.
func runGates(ret *datatypes.Return, res *Result) *GateReport {
	report := &GateReport{Passed: true}

	ok := len(res.ExecutedModules) == len(res.States)
	msg := fmt.Sprintf("executed %d module(s), %d result(s)",
		len(res.ExecutedModules), len(res.States))
	severity := SeverityInfo // informational when counts line up
	if !ok {
		severity = SeverityError
	}
	report.add(GateFinding{Gate: "module_results", Severity: severity, OK: ok, Message: msg})

	for _, st := range res.States {
		cfg, ok := stateConfigFor(ret, st.Code)
		if !ok {
			report.add(GateFinding{
				Gate:     "jurisdiction_config",
				Severity: SeverityError,
				OK:       false,
				Message:  fmt.Sprintf("%s: result present without a matching jurisdiction config", st.Code),
			})
			continue
		}
		checkBaseIncome(report, res, st, cfg)
		checkResidencyConfig(report, st, cfg)
		checkNonNegative(report, st)
		checkSettlement(report, st)
	}
	return report
}

func stateConfigFor(ret *datatypes.Return, code string) (datatypes.StateConfig, bool) {
	for _, cfg := range ret.States {
		if cfg.Code == code {
			return cfg, true
		}
	}
	return datatypes.StateConfig{}, false
}

// checkBaseIncome verifies the state's starting income is either the
// federal AGI (resident) or an explainable apportionment of it.
func checkBaseIncome(report *GateReport, res *Result, st states.Result, cfg datatypes.StateConfig) {
	switch cfg.Residency {
	case datatypes.ResidencyResident:
		ok := st.Base == res.Federal.AGI
		msg := fmt.Sprintf("%s: resident base income %s matches federal AGI", st.Code, st.Base)
		if !ok {
			msg = fmt.Sprintf("%s: resident base income %s does not match federal AGI %s",
				st.Code, st.Base, res.Federal.AGI)
		}
		report.add(GateFinding{Gate: "base_income", Severity: SeverityError, OK: ok, Message: msg})
	case datatypes.ResidencyPartYear:
		ok := st.Base <= res.Federal.AGI || res.Federal.AGI < 0
		msg := fmt.Sprintf("%s: part-year base income %s within federal AGI %s",
			st.Code, st.Base, res.Federal.AGI)
		if !ok {
			msg = fmt.Sprintf("%s: part-year base income %s exceeds federal AGI %s",
				st.Code, st.Base, res.Federal.AGI)
		}
		report.add(GateFinding{Gate: "base_income", Severity: SeverityWarning, OK: ok, Message: msg})
	case datatypes.ResidencyNonresident:
		inState := money.Amount(cfg.InStateWagesCents)
		ok := st.Base == inState
		msg := fmt.Sprintf("%s: nonresident base income %s matches in-state wages", st.Code, st.Base)
		if !ok {
			msg = fmt.Sprintf("%s: nonresident base income %s does not match in-state wages %s",
				st.Code, st.Base, inState)
		}
		report.add(GateFinding{Gate: "base_income", Severity: SeverityError, OK: ok, Message: msg})
	}
}

// checkResidencyConfig verifies the fields a residency status depends
// on were actually supplied.
func checkResidencyConfig(report *GateReport, st states.Result, cfg datatypes.StateConfig) {
	switch cfg.Residency {
	case datatypes.ResidencyPartYear:
		ok := cfg.MonthsResident >= 1 && cfg.MonthsResident <= 12
		msg := fmt.Sprintf("%s: part-year months resident is %d", st.Code, cfg.MonthsResident)
		report.add(GateFinding{Gate: "residency_config", Severity: SeverityError, OK: ok, Message: msg})
	case datatypes.ResidencyNonresident:
		ok := cfg.InStateWagesCents > 0
		msg := fmt.Sprintf("%s: nonresident in-state wages is %s", st.Code, money.Amount(cfg.InStateWagesCents))
		severity := SeverityWarning // zero in-state wages is odd, not fatal
		report.add(GateFinding{Gate: "residency_config", Severity: severity, OK: ok, Message: msg})
	}
}

// checkNonNegative catches computed lines that should never go below
// zero. Negative values in these slots indicate a module defect.
func checkNonNegative(report *GateReport, st states.Result) {
	lines := []struct {
		name   string
		amount interface{ IsNegative() bool }
	}{
		{"taxable_income", st.Taxable},
		{"tax", st.Tax},
		{"credits", st.Credits},
		{"tax_after_credits", st.TaxAfterCredits},
		{"withholding", st.Withheld},
		{"overpayment", st.Overpayment},
		{"balance_due", st.BalanceDue},
	}
	for _, ln := range lines {
		ok := !ln.amount.IsNegative()
		msg := fmt.Sprintf("%s: %s is non-negative", st.Code, ln.name)
		if !ok {
			msg = fmt.Sprintf("%s: %s is negative", st.Code, ln.name)
		}
		report.add(GateFinding{Gate: "non_negative", Severity: SeverityError, OK: ok, Message: msg})
	}
}

// checkSettlement verifies overpayment and balance due are mutually
// exclusive and consistent with tax after credits vs. withholding.
func checkSettlement(report *GateReport, st states.Result) {
	ok := !(st.Overpayment > 0 && st.BalanceDue > 0) &&
		st.Withheld-st.TaxAfterCredits == st.Overpayment-st.BalanceDue
	msg := fmt.Sprintf("%s: settlement is consistent (overpayment %s, balance due %s)",
		st.Code, st.Overpayment, st.BalanceDue)
	if !ok {
		msg = fmt.Sprintf("%s: settlement inconsistent: withheld %s, tax after credits %s, overpayment %s, balance due %s",
			st.Code, st.Withheld, st.TaxAfterCredits, st.Overpayment, st.BalanceDue)
	}
	report.add(GateFinding{Gate: "settlement", Severity: SeverityError, OK: ok, Message: msg})
}
