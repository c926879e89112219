// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/taxtrace/services/engine"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

var (
	computeJSON   bool
	unknownPolicy string

	computeCmd = &cobra.Command{
		Use:   "compute [return.json]",
		Short: "Compute a return and print the federal and state summaries",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompute,
	}
)

func runCompute(cmd *cobra.Command, args []string) error {
	ret, err := loadReturn(args[0])
	if err != nil {
		return err
	}

	policy, err := parseUnknownPolicy(unknownPolicy)
	if err != nil {
		return err
	}

	res, err := engine.ComputeAll(cmd.Context(), ret,
		engine.WithLogger(logger.Slog()),
		engine.WithUnknownJurisdictionPolicy(policy),
	)
	if err != nil {
		return err
	}

	if computeJSON {
		return printResultJSON(res)
	}
	printResultText(res)
	return nil
}

func parseUnknownPolicy(s string) (engine.UnknownJurisdictionPolicy, error) {
	switch s {
	case "skip":
		return engine.UnknownSkip, nil
	case "warn":
		return engine.UnknownWarn, nil
	case "error":
		return engine.UnknownError, nil
	default:
		return 0, fmt.Errorf("unknown-jurisdiction must be skip, warn, or error (got %q)", s)
	}
}

func printResultText(res *engine.Result) {
	fmt.Println("Federal")
	fmt.Printf("  Total income:      %s\n", res.Federal.TotalIncome)
	fmt.Printf("  AGI:               %s\n", res.Federal.AGI)
	fmt.Printf("  Deduction:         %s\n", res.Federal.Deduction)
	fmt.Printf("  Taxable income:    %s\n", res.Federal.TaxableIncome)
	fmt.Printf("  Tax:               %s\n", res.Federal.Tax)
	fmt.Printf("  Tax after credits: %s\n", res.Federal.TaxAfterCredits)
	fmt.Printf("  Payments:          %s\n", res.Federal.Payments)
	if res.Federal.BalanceDue > 0 {
		fmt.Printf("  Balance due:       %s\n", res.Federal.BalanceDue)
	} else {
		fmt.Printf("  Overpayment:       %s\n", res.Federal.Overpayment)
	}

	for _, st := range res.States {
		fmt.Printf("\n%s (%s, %s)\n", st.Label, st.Code, st.Residency)
		fmt.Printf("  Base income:       %s\n", st.Base)
		fmt.Printf("  Taxable income:    %s\n", st.Taxable)
		fmt.Printf("  Tax after credits: %s\n", st.TaxAfterCredits)
		fmt.Printf("  Withheld:          %s\n", st.Withheld)
		if st.BalanceDue > 0 {
			fmt.Printf("  Balance due:       %s\n", st.BalanceDue)
		} else {
			fmt.Printf("  Overpayment:       %s\n", st.Overpayment)
		}
	}

	if res.Gates != nil {
		if res.Gates.Passed {
			fmt.Printf("\nQuality gates: passed (%d checks)\n", len(res.Gates.Findings))
		} else {
			fmt.Println("\nQuality gates: FINDINGS")
			for _, f := range res.Gates.FailedFindings() {
				fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Gate, f.Message)
			}
		}
	}
}

// jsonValue flattens a traced value for machine output.
type jsonValue struct {
	NodeID     string   `json:"node_id"`
	Cents      int64    `json:"cents"`
	Kind       string   `json:"kind"`
	Confidence float64  `json:"confidence"`
	Inputs     []string `json:"inputs,omitempty"`
	Document   string   `json:"document,omitempty"`
	Field      string   `json:"field,omitempty"`
}

func printResultJSON(res *engine.Result) error {
	values := make([]jsonValue, 0, res.Values.Len())
	for _, entry := range res.Values.Entries() {
		jv := jsonValue{
			NodeID:     entry.NodeID,
			Cents:      entry.Value.Amount.Cents(),
			Kind:       string(entry.Value.Source.Kind()),
			Confidence: entry.Value.Confidence,
		}
		switch src := entry.Value.Source.(type) {
		case provenance.ComputedSource:
			jv.Inputs = src.Inputs
		case provenance.DocumentSource:
			jv.Document = src.DocumentID
			jv.Field = src.Field
		}
		values = append(values, jv)
	}

	out := struct {
		RunID           string             `json:"run_id"`
		ExecutedModules []string           `json:"executed_modules,omitempty"`
		Gates           *engine.GateReport `json:"gates,omitempty"`
		Values          []jsonValue        `json:"values"`
	}{
		RunID:           res.RunID,
		ExecutedModules: res.ExecutedModules,
		Gates:           res.Gates,
		Values:          values,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
