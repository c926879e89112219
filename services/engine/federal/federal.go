// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package federal implements the base computation module: a Form
// 1040-shaped pipeline from source documents to balance due.
//
// Compute is a pure function over the input aggregate. It performs no
// I/O, touches no shared state, and is exact: all arithmetic is integer
// cents. Jurisdiction modules receive its Result as a read-only
// dependency (a state's base income starts from the federal AGI).
//
// CollectValues is the module's provenance extraction function: it emits
// one traced value per document field, user entry, and computed line so
// the trace builder can walk any figure all the way down to the document
// that reported it.
package federal

import (
	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
)

// Node ids for every computed federal line. The "1040." namespace keeps
// them disjoint from document leaves ("w2:<id>:<field>") and user entries
// ("entry:<name>").
const (
	NodeWages              = "1040.wages"
	NodeInterest           = "1040.interest"
	NodeOrdinaryDividends  = "1040.ordinary_dividends"
	NodeQualifiedDividends = "1040.qualified_dividends"
	NodeCapitalGain        = "1040.capital_gain"
	NodeCapitalLossCarry   = "1040.capital_loss_carryover"
	NodeOtherIncome        = "1040.other_income"
	NodeRentalIncome       = "1040.rental_income"
	NodeTotalIncome        = "1040.total_income"
	NodeAdjustments        = "1040.adjustments"
	NodeAGI                = "1040.agi"
	NodeDeduction          = "1040.deduction"
	NodeTaxableIncome      = "1040.taxable_income"
	NodeTax                = "1040.tax"
	NodeChildCredit        = "1040.child_tax_credit"
	NodeEducationCredit    = "1040.education_credit"
	NodeTotalCredits       = "1040.total_credits"
	NodeTaxAfterCredits    = "1040.tax_after_credits"
	NodeWithholding        = "1040.withholding"
	NodePayments           = "1040.total_payments"
	NodeOverpayment        = "1040.overpayment"
	NodeBalanceDue         = "1040.balance_due"
)

// User-entry node ids.
const (
	EntryEducatorExpenses  = "entry:educator_expenses"
	EntryStudentLoan       = "entry:student_loan_interest"
	EntryMortgageInterest  = "entry:mortgage_interest"
	EntryStateLocalTaxes   = "entry:state_local_taxes"
	EntryCharitable        = "entry:charitable"
	EntryEducationExpenses = "entry:education_expenses"
	EntryEstimatedTax      = "entry:estimated_tax"
)

// Result is the base module's output: every federal line in cents.
// Internally consistent by construction: TaxableIncome <= TotalIncome,
// and exactly one of Overpayment / BalanceDue is non-zero.
type Result struct {
	Wages              money.Amount
	Interest           money.Amount
	OrdinaryDividends  money.Amount
	QualifiedDividends money.Amount
	CapitalGain        money.Amount
	CapitalLossCarry   money.Amount
	OtherIncome        money.Amount
	RentalIncome       money.Amount
	TotalIncome        money.Amount

	Adjustments money.Amount
	AGI         money.Amount

	Deduction     money.Amount
	ItemizedUsed  bool
	TaxableIncome money.Amount

	Tax             money.Amount
	ChildCredit     money.Amount
	EducationCredit money.Amount
	TotalCredits    money.Amount
	TaxAfterCredits money.Amount

	Withholding money.Amount
	Payments    money.Amount
	Overpayment money.Amount
	BalanceDue  money.Amount
}

// Compute runs the full base pipeline over the return.
//
// # Description
//
//	Income aggregation -> adjustments -> AGI -> deduction -> taxable
//	income -> bracket tax -> credits -> payments -> balance. Pure and
//	deterministic; two calls with the same return yield identical
//	results.
func Compute(ret *datatypes.Return) *Result {
	r := &Result{}

	for _, w2 := range ret.W2s {
		r.Wages += money.Amount(w2.WagesCents)
		r.Withholding += money.Amount(w2.FederalWithheldCents)
	}
	for _, doc := range ret.Interest {
		r.Interest += money.Amount(doc.InterestCents)
		r.Withholding += money.Amount(doc.WithheldCents)
	}
	for _, doc := range ret.Dividends {
		r.OrdinaryDividends += money.Amount(doc.OrdinaryCents)
		r.QualifiedDividends += money.Amount(doc.QualifiedCents)
		r.Withholding += money.Amount(doc.WithheldCents)
	}
	for _, doc := range ret.Misc {
		r.OtherIncome += money.Amount(doc.IncomeCents)
		r.Withholding += money.Amount(doc.WithheldCents)
	}

	var rawGain money.Amount
	for _, sale := range ret.Sales {
		rawGain += money.Amount(sale.ProceedsCents) - money.Amount(sale.BasisCents)
	}
	r.CapitalGain = money.Max(rawGain, -capitalLossCapCents)
	if rawGain < -capitalLossCapCents {
		r.CapitalLossCarry = -rawGain - capitalLossCapCents
	}

	for _, rental := range ret.Rentals {
		// Net rental may be negative; losses offset other income in full
		// under this simplified treatment.
		r.RentalIncome += money.Amount(rental.RentsCents) - money.Amount(rental.ExpensesCents)
	}

	r.TotalIncome = money.Sum(
		r.Wages, r.Interest, r.OrdinaryDividends,
		r.CapitalGain, r.OtherIncome, r.RentalIncome,
	)

	educator := money.Min(money.Amount(ret.Adjustments.EducatorExpensesCents), educatorExpenseCapCents)
	studentLoan := money.Min(money.Amount(ret.Adjustments.StudentLoanInterestCents), studentLoanCapCents)
	r.Adjustments = educator + studentLoan
	r.AGI = r.TotalIncome - r.Adjustments

	r.Deduction, r.ItemizedUsed = deduction(ret)
	r.TaxableIncome = (r.AGI - r.Deduction).FloorZero()

	r.Tax = BracketTax(r.TaxableIncome, bracketsByStatus[ret.Filing])
	r.ChildCredit = childCredit(ret, r.AGI)
	r.EducationCredit = educationCredit(money.Amount(ret.Credits.EducationExpensesCents))
	r.TotalCredits = r.ChildCredit + r.EducationCredit
	r.TaxAfterCredits = (r.Tax - r.TotalCredits).FloorZero()

	r.Payments = r.Withholding + money.Amount(ret.Payments.EstimatedCents)
	if r.Payments > r.TaxAfterCredits {
		r.Overpayment = r.Payments - r.TaxAfterCredits
	} else {
		r.BalanceDue = r.TaxAfterCredits - r.Payments
	}

	return r
}

// deduction resolves the deduction election. Itemized applies the SALT
// cap; the second return reports whether itemized detail was used.
func deduction(ret *datatypes.Return) (money.Amount, bool) {
	if ret.Deductions.Election != datatypes.DeductItemized {
		return standardDeduction(ret.Filing), false
	}
	salt := money.Min(money.Amount(ret.Deductions.StateLocalTaxesCents), saltCapCents)
	itemized := money.Sum(
		money.Amount(ret.Deductions.MortgageInterestCents),
		salt,
		money.Amount(ret.Deductions.CharitableCents),
	)
	return itemized, true
}

// childCredit computes the child credit with AGI phase-out: the per-child
// base is reduced by a fixed step for each full or partial thousand of
// AGI above the filing-status threshold.
func childCredit(ret *datatypes.Return, agi money.Amount) money.Amount {
	children := ret.QualifyingChildren()
	if children == 0 {
		return 0
	}

	base := money.Amount(children) * childCreditPerChildCents

	threshold := money.Amount(childCreditPhaseoutSingle)
	if ret.Filing == datatypes.FilingMarriedJoint {
		threshold = childCreditPhaseoutJoint
	}
	excess := agi - threshold
	if excess <= 0 {
		return base
	}

	steps := (excess + childCreditStepCents - 1) / childCreditStepCents
	reduction := steps * childCreditReductionPerStep
	return (base - reduction).FloorZero()
}

// educationCredit applies the two-tier education credit: the first tier
// of qualified expenses at 100%, the second at 25%.
func educationCredit(expenses money.Amount) money.Amount {
	if expenses <= 0 {
		return 0
	}
	tierOne := money.Min(expenses, educationTierOneCapCents)
	tierTwo := money.Min((expenses - tierOne).FloorZero(), educationTierTwoCapCents)
	return tierOne + tierTwo.MulRatio(25, 100)
}
