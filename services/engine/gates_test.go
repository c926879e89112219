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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/states"
)

func gateFixture(residency datatypes.Residency, st states.Result, cfg datatypes.StateConfig) (*datatypes.Return, *Result) {
	cfg.Code = st.Code
	cfg.Residency = residency
	st.Residency = residency

	ret := caResidentReturn()
	ret.States = []datatypes.StateConfig{cfg}
	res := &Result{
		Federal:         &federal.Result{AGI: 6_000_000},
		States:          []states.Result{st},
		ExecutedModules: []string{st.Code},
	}
	return ret, res
}

func findGate(report *GateReport, gate string) []GateFinding {
	var out []GateFinding
	for _, f := range report.Findings {
		if f.Gate == gate {
			out = append(out, f)
		}
	}
	return out
}

func TestGates_ResidentBaseMustMatchAGI(t *testing.T) {
	ret, res := gateFixture(datatypes.ResidencyResident, states.Result{
		Code: "CA",
		Base: 5_000_000, // does not match federal AGI of 6,000,000
	}, datatypes.StateConfig{})

	report := runGates(ret, res)
	assert.False(t, report.Passed)

	findings := findGate(report, "base_income")
	require.Len(t, findings, 1)
	assert.False(t, findings[0].OK)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "does not match federal AGI")
}

func TestGates_NonresidentBaseMustMatchInStateWages(t *testing.T) {
	ret, res := gateFixture(datatypes.ResidencyNonresident, states.Result{
		Code: "NY",
		Base: 1_200_000,
	}, datatypes.StateConfig{InStateWagesCents: 1_200_000})

	report := runGates(ret, res)
	findings := findGate(report, "base_income")
	require.Len(t, findings, 1)
	assert.True(t, findings[0].OK)
}

func TestGates_PartYearMonthsRequired(t *testing.T) {
	ret, res := gateFixture(datatypes.ResidencyPartYear, states.Result{
		Code: "CA",
		Base: 3_000_000,
	}, datatypes.StateConfig{MonthsResident: 0})

	report := runGates(ret, res)
	assert.False(t, report.Passed)
	findings := findGate(report, "residency_config")
	require.Len(t, findings, 1)
	assert.False(t, findings[0].OK)
}

func TestGates_NegativeLineIsAModuleDefect(t *testing.T) {
	ret, res := gateFixture(datatypes.ResidencyResident, states.Result{
		Code:    "CA",
		Base:    6_000_000,
		Taxable: -100, // must never happen
	}, datatypes.StateConfig{})

	report := runGates(ret, res)
	assert.False(t, report.Passed)

	var flagged bool
	for _, f := range findGate(report, "non_negative") {
		if !f.OK {
			flagged = true
			assert.Contains(t, f.Message, "taxable_income")
		}
	}
	assert.True(t, flagged)
}

func TestGates_SettlementConsistency(t *testing.T) {
	consistent := states.Result{
		Code:            "CA",
		Base:            6_000_000,
		TaxAfterCredits: 169_616,
		Withheld:        200_000,
		Overpayment:     30_384,
	}
	ret, res := gateFixture(datatypes.ResidencyResident, consistent, datatypes.StateConfig{})
	report := runGates(ret, res)
	findings := findGate(report, "settlement")
	require.Len(t, findings, 1)
	assert.True(t, findings[0].OK)

	// Both overpayment and balance due set at once is inconsistent.
	broken := consistent
	broken.BalanceDue = money.Amount(1)
	ret, res = gateFixture(datatypes.ResidencyResident, broken, datatypes.StateConfig{})
	report = runGates(ret, res)
	findings = findGate(report, "settlement")
	require.Len(t, findings, 1)
	assert.False(t, findings[0].OK)
	assert.Equal(t, SeverityError, findings[0].Severity)
}

func TestGates_ModuleResultsCount(t *testing.T) {
	ret, res := gateFixture(datatypes.ResidencyResident, states.Result{
		Code: "CA",
		Base: 6_000_000,
	}, datatypes.StateConfig{})

	report := runGates(ret, res)
	findings := findGate(report, "module_results")
	require.Len(t, findings, 1)
	assert.True(t, findings[0].OK)
	assert.Equal(t, SeverityInfo, findings[0].Severity, "a passing count check is informational")

	// A result without a matching executed module is an engine defect.
	res.ExecutedModules = nil
	report = runGates(ret, res)
	findings = findGate(report, "module_results")
	require.Len(t, findings, 1)
	assert.False(t, findings[0].OK)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.False(t, report.Passed)
}

func TestGates_ResultWithoutConfigFlagged(t *testing.T) {
	ret := caResidentReturn()
	ret.States = nil
	res := &Result{
		Federal:         &federal.Result{AGI: 6_000_000},
		States:          []states.Result{{Code: "CA", Base: 6_000_000}},
		ExecutedModules: []string{"CA"},
	}

	report := runGates(ret, res)
	assert.False(t, report.Passed)
	findings := findGate(report, "jurisdiction_config")
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "without a matching jurisdiction config")
}
