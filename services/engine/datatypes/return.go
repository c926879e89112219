// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the input aggregate for one computation run.
//
// A Return is the complete, caller-owned description of a taxpayer's
// situation: filing status, profiles, dependents, source documents,
// elections, and selected jurisdictions. The engine treats it as an
// immutable snapshot — it never mutates a Return, and callers must build
// a new Return and recompute to reflect a change.
//
// All money fields are int64 cents. No floating point is used for money
// anywhere in the model; the only float in this package is the optional
// capture-confidence score on document fields.
//
// # Validation
//
// Shape validation is the caller's responsibility (engine contract), but
// this package carries go-playground/validator tags plus a Validate()
// method so every caller validates the same way. The engine's quality
// gates separately check jurisdiction-config completeness as advisory
// findings.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FilingStatus enumerates the supported federal filing statuses.
type FilingStatus string

const (
	FilingSingle          FilingStatus = "single"
	FilingMarriedJoint    FilingStatus = "married_joint"
	FilingMarriedSeparate FilingStatus = "married_separate"
	FilingHeadOfHousehold FilingStatus = "head_of_household"
)

// Residency enumerates jurisdiction residency types.
type Residency string

const (
	ResidencyResident    Residency = "resident"
	ResidencyPartYear    Residency = "part_year"
	ResidencyNonresident Residency = "nonresident"
)

// DeductionElection selects standard vs itemized deduction.
type DeductionElection string

const (
	DeductStandard DeductionElection = "standard"
	DeductItemized DeductionElection = "itemized"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// returnValidate is the validator instance for return datatypes.
// Initialized in init() with struct-level validation registered.
var returnValidate *validator.Validate

func init() {
	returnValidate = validator.New()
	returnValidate.RegisterStructValidation(validateReturnStruct, Return{})
}

// validateReturnStruct enforces cross-field rules that tags cannot
// express: a joint return needs a spouse profile, a non-joint return must
// not carry one, and document ids must be unique within each document
// slice. Provenance node ids are derived from document ids, so a repeated
// id would collide in the value store.
func validateReturnStruct(sl validator.StructLevel) {
	r := sl.Current().Interface().(Return)
	if r.Filing == FilingMarriedJoint && r.Spouse == nil {
		sl.ReportError(r.Spouse, "Spouse", "Spouse", "required_for_joint", "")
	}
	if r.Filing != FilingMarriedJoint && r.Filing != FilingMarriedSeparate && r.Spouse != nil {
		sl.ReportError(r.Spouse, "Spouse", "Spouse", "excluded_for_status", "")
	}

	uniqueDocIDs(sl, "W2s", r.W2s, func(d W2) string { return d.ID })
	uniqueDocIDs(sl, "Interest", r.Interest, func(d Interest1099) string { return d.ID })
	uniqueDocIDs(sl, "Dividends", r.Dividends, func(d Dividend1099) string { return d.ID })
	uniqueDocIDs(sl, "Misc", r.Misc, func(d Misc1099) string { return d.ID })
	uniqueDocIDs(sl, "Sales", r.Sales, func(d BrokerageSale) string { return d.ID })
	uniqueDocIDs(sl, "Rentals", r.Rentals, func(d RentalProperty) string { return d.ID })
}

// uniqueDocIDs reports a validation error for every repeated document id
// within one document slice. Ids only need to be unique per document
// type; node ids carry a per-type prefix.
func uniqueDocIDs[D any](sl validator.StructLevel, field string, docs []D, id func(D) string) {
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[id(d)] {
			sl.ReportError(d, field, field, "unique_document_id", id(d))
		}
		seen[id(d)] = true
	}
}

// =============================================================================
// Profiles
// =============================================================================

// Person is one taxpayer profile.
type Person struct {
	Name  string `json:"name" validate:"required"`
	TaxID string `json:"tax_id" validate:"required"`
}

// Dependent is one claimed dependent.
type Dependent struct {
	Name string `json:"name" validate:"required"`
	Age  int    `json:"age" validate:"gte=0,lte=130"`

	// QualifiesChildCredit marks eligibility for the child credit.
	// Eligibility determination is the capture layer's job; the engine
	// only consumes the flag.
	QualifiesChildCredit bool `json:"qualifies_child_credit"`
}

// =============================================================================
// Source Documents
//
// Each document type carries an ID unique within the return, the reported
// cent amounts, and an optional capture Confidence in (0, 1]. A zero
// Confidence means "unscored" and is treated as fully confident.
// =============================================================================

// W2 is a wage statement.
type W2 struct {
	ID                   string  `json:"id" validate:"required"`
	Employer             string  `json:"employer"`
	WagesCents           int64   `json:"wages_cents" validate:"gte=0"`
	FederalWithheldCents int64   `json:"federal_withheld_cents" validate:"gte=0"`
	StateCode            string  `json:"state_code,omitempty" validate:"omitempty,len=2"`
	StateWithheldCents   int64   `json:"state_withheld_cents" validate:"gte=0"`
	Confidence           float64 `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// Interest1099 is an interest information return (1099-INT).
type Interest1099 struct {
	ID            string  `json:"id" validate:"required"`
	Payer         string  `json:"payer"`
	InterestCents int64   `json:"interest_cents" validate:"gte=0"`
	WithheldCents int64   `json:"withheld_cents" validate:"gte=0"`
	Confidence    float64 `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// Dividend1099 is a dividend information return (1099-DIV).
type Dividend1099 struct {
	ID             string  `json:"id" validate:"required"`
	Payer          string  `json:"payer"`
	OrdinaryCents  int64   `json:"ordinary_cents" validate:"gte=0"`
	QualifiedCents int64   `json:"qualified_cents" validate:"gte=0"`
	WithheldCents  int64   `json:"withheld_cents" validate:"gte=0"`
	Confidence     float64 `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// Misc1099 is a miscellaneous-income information return (1099-MISC).
type Misc1099 struct {
	ID            string  `json:"id" validate:"required"`
	Payer         string  `json:"payer"`
	IncomeCents   int64   `json:"income_cents" validate:"gte=0"`
	WithheldCents int64   `json:"withheld_cents" validate:"gte=0"`
	Confidence    float64 `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// BrokerageSale is one security sale from a brokerage record (1099-B).
// Proceeds and basis may produce a negative gain; the federal module caps
// recognized losses and reports the carryforward.
type BrokerageSale struct {
	ID            string `json:"id" validate:"required"`
	Description   string `json:"description"`
	ProceedsCents int64  `json:"proceeds_cents" validate:"gte=0"`
	BasisCents    int64  `json:"basis_cents" validate:"gte=0"`

	// LongTerm is the holding period as reported on the 1099-B. The
	// simplified gain treatment taxes both terms alike; the flag is
	// carried into the provenance citation.
	LongTerm bool `json:"long_term"`

	Confidence float64 `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// RentalProperty is one property-income record.
type RentalProperty struct {
	ID            string  `json:"id" validate:"required"`
	Address       string  `json:"address"`
	RentsCents    int64   `json:"rents_cents" validate:"gte=0"`
	ExpensesCents int64   `json:"expenses_cents" validate:"gte=0"`
	Confidence    float64 `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// =============================================================================
// Elections, Adjustments, Credits, Payments
// =============================================================================

// Deductions is the deduction election plus itemized detail. Itemized
// fields are ignored under the standard election but still validated.
type Deductions struct {
	Election              DeductionElection `json:"election" validate:"required,oneof=standard itemized"`
	MortgageInterestCents int64             `json:"mortgage_interest_cents" validate:"gte=0"`
	StateLocalTaxesCents  int64             `json:"state_local_taxes_cents" validate:"gte=0"`
	CharitableCents       int64             `json:"charitable_cents" validate:"gte=0"`
}

// Adjustments are above-the-line income adjustments entered directly by
// the taxpayer.
type Adjustments struct {
	EducatorExpensesCents    int64 `json:"educator_expenses_cents" validate:"gte=0"`
	StudentLoanInterestCents int64 `json:"student_loan_interest_cents" validate:"gte=0"`
}

// Credits holds credit-eligibility inputs.
type Credits struct {
	EducationExpensesCents int64 `json:"education_expenses_cents" validate:"gte=0"`
}

// Payments holds non-withholding payments.
type Payments struct {
	EstimatedCents int64 `json:"estimated_cents" validate:"gte=0"`
}

// =============================================================================
// Jurisdictions
// =============================================================================

// StateConfig selects one jurisdiction module and its residency
// parameters. MonthsResident matters only for part-year residency and
// InStateWagesCents only for nonresidency; the quality gates flag
// missing required fields as advisory findings rather than hard errors.
type StateConfig struct {
	Code              string    `json:"code" validate:"required,len=2,uppercase"`
	Residency         Residency `json:"residency" validate:"required,oneof=resident part_year nonresident"`
	MonthsResident    int       `json:"months_resident,omitempty" validate:"gte=0,lte=12"`
	InStateWagesCents int64     `json:"in_state_wages_cents,omitempty" validate:"gte=0"`

	// Renter claims a renter-style flat credit where the jurisdiction
	// offers one (CA). Ignored by modules without such a credit.
	Renter bool `json:"renter,omitempty"`
}

// =============================================================================
// Return (Input Aggregate)
// =============================================================================

// Return is the complete input aggregate for one computation run.
//
// # Ownership Model
//
// The caller owns the Return. The engine never mutates it and holds no
// reference to it after ComputeAll returns. Selected jurisdiction order
// is significant: jurisdiction results are emitted in State configuration
// order.
type Return struct {
	TaxYear    int          `json:"tax_year" validate:"required,gte=2020,lte=2035"`
	Filing     FilingStatus `json:"filing" validate:"required,oneof=single married_joint married_separate head_of_household"`
	Primary    Person       `json:"primary"`
	Spouse     *Person      `json:"spouse,omitempty"`
	Dependents []Dependent  `json:"dependents,omitempty" validate:"dive"`

	W2s       []W2             `json:"w2s,omitempty" validate:"dive"`
	Interest  []Interest1099   `json:"interest,omitempty" validate:"dive"`
	Dividends []Dividend1099   `json:"dividends,omitempty" validate:"dive"`
	Misc      []Misc1099       `json:"misc,omitempty" validate:"dive"`
	Sales     []BrokerageSale  `json:"sales,omitempty" validate:"dive"`
	Rentals   []RentalProperty `json:"rentals,omitempty" validate:"dive"`

	Deductions  Deductions  `json:"deductions"`
	Adjustments Adjustments `json:"adjustments"`
	Credits     Credits     `json:"credits"`
	Payments    Payments    `json:"payments"`

	States []StateConfig `json:"states,omitempty" validate:"dive"`
}

// Validate checks the Return against its validator tags and the
// struct-level cross-field rules.
//
// Outputs:
//
//	error - Non-nil if validation failed, naming the offending field.
func (r *Return) Validate() error {
	if err := returnValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid return: %w", err)
	}
	return nil
}

// QualifyingChildren counts dependents flagged for the child credit.
func (r *Return) QualifyingChildren() int {
	n := 0
	for _, d := range r.Dependents {
		if d.QualifiesChildCredit {
			n++
		}
	}
	return n
}

// DocConfidence normalizes a capture confidence score: zero means
// "unscored" and reads as fully confident.
func DocConfidence(c float64) float64 {
	if c == 0 {
		return 1
	}
	return c
}
