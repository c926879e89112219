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

var orderCmd = &cobra.Command{
	Use:   "order [return.json]",
	Short: "Print a valid evaluation order for every traced value",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrder,
}

var jurisdictionsCmd = &cobra.Command{
	Use:   "jurisdictions",
	Short: "List the jurisdiction modules compiled into this build",
	Run: func(cmd *cobra.Command, args []string) {
		reg := engine.DefaultRegistry()
		for _, code := range reg.Codes() {
			mod, _ := reg.Lookup(code)
			fmt.Printf("%s\t%s\n", code, mod.Label())
		}
	},
}

func runOrder(cmd *cobra.Command, args []string) error {
	ret, err := loadReturn(args[0])
	if err != nil {
		return err
	}

	res, err := engine.ComputeAll(cmd.Context(), ret, engine.WithLogger(logger.Slog()))
	if err != nil {
		return err
	}

	order, err := engine.TopologicalSort(res.Values)
	if err != nil {
		return err
	}
	for _, id := range order {
		v, _ := res.Values.Get(id)
		fmt.Printf("%-40s %s\n", id, v.Amount)
	}
	return nil
}
