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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/taxtrace/services/engine"
)

var explainCmd = &cobra.Command{
	Use:   "explain [return.json] [node-id]",
	Short: "Explain one computed line down to its source documents",
	Long: `explain recomputes the return and prints the derivation tree
for a single node id, e.g. "1040.taxable_income" or "ca.tax".
Unknown ids resolve to a zero-valued leaf rather than an error, so
it is safe to probe.`,
	Args: cobra.ExactArgs(2),
	RunE: runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	ret, err := loadReturn(args[0])
	if err != nil {
		return err
	}

	res, err := engine.ComputeAll(cmd.Context(), ret, engine.WithLogger(logger.Slog()))
	if err != nil {
		return err
	}

	fmt.Print(res.ExplainLine(args[1]))
	return nil
}
