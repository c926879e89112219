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
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/taxtrace/pkg/logging"
	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
)

var (
	logLevel string
	jsonLogs bool
	quiet    bool

	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "taxtrace",
		Short: "Compute a tax return with full provenance for every figure",
		Long: `taxtrace runs the federal pipeline and any selected state modules
over a return, records where every computed figure came from, and can
explain any line all the way down to the source documents.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(logging.Config{
				Level:   logging.ParseLevel(logLevel),
				Service: "taxtrace",
				JSON:    jsonLogs,
				Quiet:   quiet,
			})
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")

	computeCmd.Flags().BoolVar(&computeJSON, "json", false, "Emit the full result as JSON")
	computeCmd.Flags().StringVar(&unknownPolicy, "unknown-jurisdiction", "skip",
		"How to treat unrecognized state codes (skip, warn, error)")

	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(jurisdictionsCmd)
}

// loadReturn reads and validates a return from a JSON file.
func loadReturn(path string) (*datatypes.Return, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading return file: %w", err)
	}
	var ret datatypes.Return
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("parsing return file: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}
