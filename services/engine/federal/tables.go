// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package federal

import (
	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
)

// Bracket is one marginal rate span. UpTo is the upper bound of the span
// in cents; zero means unbounded (top bracket). RateBp is the marginal
// rate in basis points (2200 = 22%), kept integral so bracket tax is
// exact integer arithmetic.
type Bracket struct {
	UpTo   money.Amount
	RateBp int64
}

// 2024 tax year constants, all in cents.
const (
	standardDeductionSingle   = 14_600_00
	standardDeductionJoint    = 29_200_00
	standardDeductionSeparate = 14_600_00
	standardDeductionHead     = 21_900_00

	saltCapCents            = 10_000_00
	capitalLossCapCents     = 3_000_00
	educatorExpenseCapCents = 300_00
	studentLoanCapCents     = 2_500_00

	childCreditPerChildCents    = 2_000_00
	childCreditPhaseoutSingle   = 200_000_00
	childCreditPhaseoutJoint    = 400_000_00
	childCreditStepCents        = 1_000_00 // reduction granularity of AGI excess
	childCreditReductionPerStep = 50_00

	educationTierOneCapCents = 2_000_00 // credited at 100%
	educationTierTwoCapCents = 2_000_00 // credited at 25%
)

// bracketsByStatus holds the 2024 marginal brackets per filing status.
var bracketsByStatus = map[datatypes.FilingStatus][]Bracket{
	datatypes.FilingSingle: {
		{UpTo: 11_600_00, RateBp: 1000},
		{UpTo: 47_150_00, RateBp: 1200},
		{UpTo: 100_525_00, RateBp: 2200},
		{UpTo: 191_950_00, RateBp: 2400},
		{UpTo: 243_725_00, RateBp: 3200},
		{UpTo: 609_350_00, RateBp: 3500},
		{UpTo: 0, RateBp: 3700},
	},
	datatypes.FilingMarriedJoint: {
		{UpTo: 23_200_00, RateBp: 1000},
		{UpTo: 94_300_00, RateBp: 1200},
		{UpTo: 201_050_00, RateBp: 2200},
		{UpTo: 383_900_00, RateBp: 2400},
		{UpTo: 487_450_00, RateBp: 3200},
		{UpTo: 731_200_00, RateBp: 3500},
		{UpTo: 0, RateBp: 3700},
	},
	datatypes.FilingMarriedSeparate: {
		{UpTo: 11_600_00, RateBp: 1000},
		{UpTo: 47_150_00, RateBp: 1200},
		{UpTo: 100_525_00, RateBp: 2200},
		{UpTo: 191_950_00, RateBp: 2400},
		{UpTo: 243_725_00, RateBp: 3200},
		{UpTo: 365_600_00, RateBp: 3500},
		{UpTo: 0, RateBp: 3700},
	},
	datatypes.FilingHeadOfHousehold: {
		{UpTo: 16_550_00, RateBp: 1000},
		{UpTo: 63_100_00, RateBp: 1200},
		{UpTo: 100_500_00, RateBp: 2200},
		{UpTo: 191_950_00, RateBp: 2400},
		{UpTo: 243_725_00, RateBp: 3200},
		{UpTo: 609_350_00, RateBp: 3500},
		{UpTo: 0, RateBp: 3700},
	},
}

// standardDeduction returns the standard deduction for a filing status.
// Unknown statuses fall back to single; shape validation upstream makes
// that unreachable in practice.
func standardDeduction(fs datatypes.FilingStatus) money.Amount {
	switch fs {
	case datatypes.FilingMarriedJoint:
		return standardDeductionJoint
	case datatypes.FilingMarriedSeparate:
		return standardDeductionSeparate
	case datatypes.FilingHeadOfHousehold:
		return standardDeductionHead
	default:
		return standardDeductionSingle
	}
}

// BracketTax computes marginal tax over taxable using the given brackets.
// Pure integer arithmetic: each span's portion is taxed at RateBp/10000,
// truncating toward zero per span.
func BracketTax(taxable money.Amount, brackets []Bracket) money.Amount {
	if taxable <= 0 || len(brackets) == 0 {
		return 0
	}

	var tax money.Amount
	var lower money.Amount
	for _, b := range brackets {
		upper := b.UpTo
		if upper == 0 || upper > taxable {
			upper = taxable
		}
		if upper > lower {
			span := upper - lower
			tax += span.MulRatio(b.RateBp, 10_000)
		}
		if b.UpTo == 0 || taxable <= b.UpTo {
			break
		}
		lower = b.UpTo
	}
	return tax
}
