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
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
)

//go:embed tables/*.yaml
var tableFS embed.FS

// Table is one jurisdiction's rate data, loaded from embedded YAML.
// Dollar figures in the YAML are whole dollars; rates are basis points.
type Table struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`

	// StandardDeduction maps filing status to whole dollars.
	StandardDeduction map[datatypes.FilingStatus]int64 `yaml:"standard_deduction"`

	// Brackets maps filing status to marginal spans. An up_to of zero
	// marks the unbounded top bracket.
	Brackets map[datatypes.FilingStatus][]TableBracket `yaml:"brackets"`

	// ExemptionCredit maps filing status to a flat credit in whole
	// dollars (CA-style). Optional.
	ExemptionCredit map[datatypes.FilingStatus]int64 `yaml:"exemption_credit,omitempty"`

	// HouseholdCredit is a flat credit granted below an income limit
	// (NY-style). Optional.
	HouseholdCredit *HouseholdCredit `yaml:"household_credit,omitempty"`

	// RenterCredit is a flat credit for renters below a per-status
	// income limit (CA-style). Optional.
	RenterCredit *RenterCredit `yaml:"renter_credit,omitempty"`
}

// RenterCredit is a flat renter credit with per-filing-status amounts
// and income ceilings, in whole dollars.
type RenterCredit struct {
	Amount      map[datatypes.FilingStatus]int64 `yaml:"amount"`
	IncomeLimit map[datatypes.FilingStatus]int64 `yaml:"income_limit"`
}

// HouseholdCredit is a flat credit with an income ceiling, in whole dollars.
type HouseholdCredit struct {
	Amount      int64 `yaml:"amount"`
	IncomeLimit int64 `yaml:"income_limit"`
}

// deduction returns the standard deduction for a filing status in cents.
func (t *Table) deduction(fs datatypes.FilingStatus) money.Amount {
	return money.FromDollars(t.StandardDeduction[fs])
}

// brackets converts the table's spans for a filing status into the
// shared bracket representation, in cents.
func (t *Table) brackets(fs datatypes.FilingStatus) []federal.Bracket {
	spans := t.Brackets[fs]
	out := make([]federal.Bracket, 0, len(spans))
	for _, s := range spans {
		out = append(out, federal.Bracket{
			UpTo:   money.FromDollars(s.UpTo),
			RateBp: s.RateBp,
		})
	}
	return out
}

// TableBracket is one YAML bracket span.
type TableBracket struct {
	UpTo   int64 `yaml:"up_to"`
	RateBp int64 `yaml:"rate_bp"`
}

// mustLoadTable parses one embedded table and validates the fields every
// module relies on. Panics on any problem: a bad embedded table is a
// build defect, not a runtime condition.
func mustLoadTable(name string) *Table {
	raw, err := tableFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("states: reading embedded table %s: %v", name, err))
	}
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		panic(fmt.Sprintf("states: parsing embedded table %s: %v", name, err))
	}
	if t.Code == "" || t.Label == "" {
		panic(fmt.Sprintf("states: table %s missing code or label", name))
	}
	statuses := []datatypes.FilingStatus{
		datatypes.FilingSingle,
		datatypes.FilingMarriedJoint,
		datatypes.FilingMarriedSeparate,
		datatypes.FilingHeadOfHousehold,
	}
	for _, fs := range statuses {
		if len(t.Brackets[fs]) == 0 {
			panic(fmt.Sprintf("states: table %s missing brackets for %s", name, fs))
		}
		if last := t.Brackets[fs][len(t.Brackets[fs])-1]; last.UpTo != 0 {
			panic(fmt.Sprintf("states: table %s top bracket for %s must be unbounded", name, fs))
		}
		if _, ok := t.StandardDeduction[fs]; !ok {
			panic(fmt.Sprintf("states: table %s missing standard deduction for %s", name, fs))
		}
	}
	return &t
}
