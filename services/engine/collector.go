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
	"log/slog"

	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
	"github.com/AleutianAI/taxtrace/services/engine/states"
)

// collectAll assembles the provenance store for a completed run:
// federal values first, then each executed state module in input order.
//
// A collection failure (duplicate node id, empty id) is a module
// defect, not a data condition. It is logged loudly and collection
// continues so the rest of the store stays explainable.
func collectAll(logger *slog.Logger, ret *datatypes.Return, fed *federal.Result,
	modules []states.Module, stateResults []states.Result) *provenance.Store {

	b := provenance.NewBuilder()

	if err := federal.CollectValues(b, ret, fed); err != nil {
		logger.Error("federal provenance collection incomplete",
			slog.String("error", err.Error()),
		)
	}

	for i, mod := range modules {
		if err := mod.CollectValues(b, ret, stateResults[i]); err != nil {
			logger.Error("jurisdiction provenance collection incomplete",
				slog.String("jurisdiction", mod.Code()),
				slog.String("error", err.Error()),
			)
		}
	}

	return b.Build()
}
