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
	"fmt"

	"github.com/AleutianAI/taxtrace/pkg/money"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

// Document leaf id constructors. Ids follow "<docType>:<docID>:<field>".
// These are the interning convention for the whole engine; state modules
// reference W-2 leaves through them as well.

// W2WagesNode returns the node id for a W-2's reported wages.
func W2WagesNode(docID string) string { return "w2:" + docID + ":wages" }

// W2WithheldNode returns the node id for a W-2's federal withholding.
func W2WithheldNode(docID string) string { return "w2:" + docID + ":federal_withheld" }

// W2StateWithheldNode returns the node id for a W-2's state withholding.
func W2StateWithheldNode(docID string) string { return "w2:" + docID + ":state_withheld" }

func interestNode(docID string) string      { return "int1099:" + docID + ":interest" }
func interestWithheld(docID string) string  { return "int1099:" + docID + ":withheld" }
func dividendOrdinary(docID string) string  { return "div1099:" + docID + ":ordinary" }
func dividendQualified(docID string) string { return "div1099:" + docID + ":qualified" }
func dividendWithheld(docID string) string  { return "div1099:" + docID + ":withheld" }
func miscIncome(docID string) string        { return "misc1099:" + docID + ":income" }
func miscWithheld(docID string) string      { return "misc1099:" + docID + ":withheld" }
func saleProceeds(docID string) string      { return "b1099:" + docID + ":proceeds" }
func saleBasis(docID string) string         { return "b1099:" + docID + ":basis" }
func rentalRents(docID string) string       { return "rental:" + docID + ":rents" }
func rentalExpenses(docID string) string    { return "rental:" + docID + ":expenses" }

// Labels maps every computed federal node id to its display label.
// Document and user-entry leaves carry their own descriptions and are
// not listed here.
func Labels() map[string]string {
	return map[string]string{
		NodeWages:              "Wages",
		NodeInterest:           "Taxable interest",
		NodeOrdinaryDividends:  "Ordinary dividends",
		NodeQualifiedDividends: "Qualified dividends",
		NodeCapitalGain:        "Capital gain or (loss)",
		NodeCapitalLossCarry:   "Capital loss carryover",
		NodeOtherIncome:        "Other income",
		NodeRentalIncome:       "Rental income",
		NodeTotalIncome:        "Total income",
		NodeAdjustments:        "Adjustments to income",
		NodeAGI:                "Adjusted gross income",
		NodeDeduction:          "Deduction",
		NodeTaxableIncome:      "Taxable income",
		NodeTax:                "Tax",
		NodeChildCredit:        "Child tax credit",
		NodeEducationCredit:    "Education credit",
		NodeTotalCredits:       "Total credits",
		NodeTaxAfterCredits:    "Tax after credits",
		NodeWithholding:        "Federal tax withheld",
		NodePayments:           "Total payments",
		NodeOverpayment:        "Overpayment",
		NodeBalanceDue:         "Amount you owe",
	}
}

// CollectValues emits the module's traced values into the builder: one
// document leaf per reported field (zero amounts included, so every
// aggregate can cite all of its documents), one user-entry leaf per
// direct input, and one computed node per federal line with its explicit
// input list.
//
// Outputs:
//
//	error - The first duplicate-id error from the builder. A non-nil
//	error indicates a collector bug, not bad input.
func CollectValues(b *provenance.Builder, ret *datatypes.Return, res *Result) error {
	var wageLeaves, withheldLeaves []string
	var qualifiedLeaves, capitalLeaves, otherLeaves, rentalLeaves []string
	var interestLeaves, dividendLeaves []string

	for _, w2 := range ret.W2s {
		conf := datatypes.DocConfidence(w2.Confidence)
		id := W2WagesNode(w2.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(w2.WagesCents), w2.ID, "wages",
			fmt.Sprintf("W-2 box 1 (%s)", w2.Employer), conf)); err != nil {
			return err
		}
		wageLeaves = append(wageLeaves, id)

		id = W2WithheldNode(w2.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(w2.FederalWithheldCents), w2.ID, "federal_withheld",
			fmt.Sprintf("W-2 box 2 (%s)", w2.Employer), conf)); err != nil {
			return err
		}
		withheldLeaves = append(withheldLeaves, id)

		if w2.StateCode != "" {
			if err := b.Put(W2StateWithheldNode(w2.ID), provenance.Document(
				money.Amount(w2.StateWithheldCents), w2.ID, "state_withheld",
				fmt.Sprintf("W-2 box 17 (%s, %s)", w2.Employer, w2.StateCode), conf)); err != nil {
				return err
			}
		}
	}

	for _, doc := range ret.Interest {
		conf := datatypes.DocConfidence(doc.Confidence)
		id := interestNode(doc.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(doc.InterestCents), doc.ID, "interest",
			fmt.Sprintf("1099-INT box 1 (%s)", doc.Payer), conf)); err != nil {
			return err
		}
		interestLeaves = append(interestLeaves, id)

		id = interestWithheld(doc.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(doc.WithheldCents), doc.ID, "withheld",
			fmt.Sprintf("1099-INT box 4 (%s)", doc.Payer), conf)); err != nil {
			return err
		}
		withheldLeaves = append(withheldLeaves, id)
	}

	for _, doc := range ret.Dividends {
		conf := datatypes.DocConfidence(doc.Confidence)
		id := dividendOrdinary(doc.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(doc.OrdinaryCents), doc.ID, "ordinary",
			fmt.Sprintf("1099-DIV box 1a (%s)", doc.Payer), conf)); err != nil {
			return err
		}
		dividendLeaves = append(dividendLeaves, id)

		id = dividendQualified(doc.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(doc.QualifiedCents), doc.ID, "qualified",
			fmt.Sprintf("1099-DIV box 1b (%s)", doc.Payer), conf)); err != nil {
			return err
		}
		qualifiedLeaves = append(qualifiedLeaves, id)

		id = dividendWithheld(doc.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(doc.WithheldCents), doc.ID, "withheld",
			fmt.Sprintf("1099-DIV box 4 (%s)", doc.Payer), conf)); err != nil {
			return err
		}
		withheldLeaves = append(withheldLeaves, id)
	}

	for _, doc := range ret.Misc {
		conf := datatypes.DocConfidence(doc.Confidence)
		id := miscIncome(doc.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(doc.IncomeCents), doc.ID, "income",
			fmt.Sprintf("1099-MISC box 3 (%s)", doc.Payer), conf)); err != nil {
			return err
		}
		otherLeaves = append(otherLeaves, id)

		id = miscWithheld(doc.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(doc.WithheldCents), doc.ID, "withheld",
			fmt.Sprintf("1099-MISC box 4 (%s)", doc.Payer), conf)); err != nil {
			return err
		}
		withheldLeaves = append(withheldLeaves, id)
	}

	for _, sale := range ret.Sales {
		conf := datatypes.DocConfidence(sale.Confidence)
		term := "short-term"
		if sale.LongTerm {
			term = "long-term"
		}
		id := saleProceeds(sale.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(sale.ProceedsCents), sale.ID, "proceeds",
			fmt.Sprintf("1099-B proceeds, %s (%s)", term, sale.Description), conf)); err != nil {
			return err
		}
		capitalLeaves = append(capitalLeaves, id)

		id = saleBasis(sale.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(sale.BasisCents), sale.ID, "basis",
			fmt.Sprintf("1099-B cost basis, %s (%s)", term, sale.Description), conf)); err != nil {
			return err
		}
		capitalLeaves = append(capitalLeaves, id)
	}

	for _, rental := range ret.Rentals {
		conf := datatypes.DocConfidence(rental.Confidence)
		id := rentalRents(rental.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(rental.RentsCents), rental.ID, "rents",
			fmt.Sprintf("Rents received (%s)", rental.Address), conf)); err != nil {
			return err
		}
		rentalLeaves = append(rentalLeaves, id)

		id = rentalExpenses(rental.ID)
		if err := b.Put(id, provenance.Document(
			money.Amount(rental.ExpensesCents), rental.ID, "expenses",
			fmt.Sprintf("Rental expenses (%s)", rental.Address), conf)); err != nil {
			return err
		}
		rentalLeaves = append(rentalLeaves, id)
	}

	// User entries that always feed a computed node.
	type entryLeaf struct {
		id     string
		amount money.Amount
		desc   string
	}
	entries := []entryLeaf{
		{EntryEducatorExpenses, money.Amount(ret.Adjustments.EducatorExpensesCents), "Educator expenses"},
		{EntryStudentLoan, money.Amount(ret.Adjustments.StudentLoanInterestCents), "Student loan interest paid"},
		{EntryEducationExpenses, money.Amount(ret.Credits.EducationExpensesCents), "Qualified education expenses"},
		{EntryEstimatedTax, money.Amount(ret.Payments.EstimatedCents), "Estimated tax payments"},
	}
	if res.ItemizedUsed {
		entries = append(entries,
			entryLeaf{EntryMortgageInterest, money.Amount(ret.Deductions.MortgageInterestCents), "Mortgage interest paid"},
			entryLeaf{EntryStateLocalTaxes, money.Amount(ret.Deductions.StateLocalTaxesCents), "State and local taxes paid"},
			entryLeaf{EntryCharitable, money.Amount(ret.Deductions.CharitableCents), "Charitable contributions"},
		)
	}
	for _, e := range entries {
		if err := b.Put(e.id, provenance.UserEntry(e.amount, e.desc)); err != nil {
			return err
		}
	}

	// Computed lines. Input order is presentation order; confidence is
	// the minimum over stored inputs.
	put := func(id string, amount money.Amount, inputs []string) error {
		return b.Put(id, provenance.Computed(amount, id, inputs, b.MinConfidence(inputs)))
	}

	deductionInputs := []string(nil) // standard deduction is an explanatory constant
	if res.ItemizedUsed {
		deductionInputs = []string{EntryMortgageInterest, EntryStateLocalTaxes, EntryCharitable}
	}

	lines := []struct {
		id     string
		amount money.Amount
		inputs []string
	}{
		{NodeWages, res.Wages, wageLeaves},
		{NodeInterest, res.Interest, interestLeaves},
		{NodeOrdinaryDividends, res.OrdinaryDividends, dividendLeaves},
		{NodeQualifiedDividends, res.QualifiedDividends, qualifiedLeaves},
		{NodeCapitalGain, res.CapitalGain, capitalLeaves},
		{NodeCapitalLossCarry, res.CapitalLossCarry, capitalLeaves},
		{NodeOtherIncome, res.OtherIncome, otherLeaves},
		{NodeRentalIncome, res.RentalIncome, rentalLeaves},
		{NodeTotalIncome, res.TotalIncome, []string{
			NodeWages, NodeInterest, NodeOrdinaryDividends,
			NodeCapitalGain, NodeOtherIncome, NodeRentalIncome,
		}},
		{NodeAdjustments, res.Adjustments, []string{EntryEducatorExpenses, EntryStudentLoan}},
		{NodeAGI, res.AGI, []string{NodeTotalIncome, NodeAdjustments}},
		{NodeDeduction, res.Deduction, deductionInputs},
		{NodeTaxableIncome, res.TaxableIncome, []string{NodeAGI, NodeDeduction}},
		{NodeTax, res.Tax, []string{NodeTaxableIncome}},
		{NodeChildCredit, res.ChildCredit, []string{NodeAGI}},
		{NodeEducationCredit, res.EducationCredit, []string{EntryEducationExpenses}},
		{NodeTotalCredits, res.TotalCredits, []string{NodeChildCredit, NodeEducationCredit}},
		{NodeTaxAfterCredits, res.TaxAfterCredits, []string{NodeTax, NodeTotalCredits}},
		{NodeWithholding, res.Withholding, withheldLeaves},
		{NodePayments, res.Payments, []string{NodeWithholding, EntryEstimatedTax}},
		{NodeOverpayment, res.Overpayment, []string{NodeTaxAfterCredits, NodePayments}},
		{NodeBalanceDue, res.BalanceDue, []string{NodeTaxAfterCredits, NodePayments}},
	}
	for _, line := range lines {
		if err := put(line.id, line.amount, line.inputs); err != nil {
			return err
		}
	}
	return nil
}
