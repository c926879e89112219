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
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/taxtrace/services/engine/provenance"
)

// CycleError reports a dependency cycle among stored nodes: every node
// id that could not be placed in a valid evaluation order. A cycle is a
// collector bug, not a data condition; treat this error as assert-like.
type CycleError struct {
	Remaining []string
}

// Error lists the implicated node ids.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among %d node(s): %s",
		len(e.Remaining), strings.Join(e.Remaining, ", "))
}

// TopologicalSort computes a valid evaluation order over the store's
// implicit dependency graph using Kahn's algorithm.
//
// # Description
//
//	An edge input -> node exists whenever node's computed source lists
//	input AND input exists in the store; dangling references are not
//	edges (they read as zero-valued leaves everywhere else, so they
//	constrain nothing here). The returned order is deterministic:
//	ties break lexicographically by node id.
//
// Outputs:
//
//	[]string - Every stored node id, inputs strictly before dependents.
//	error - *CycleError naming every unplaced node id, nil otherwise.
func TopologicalSort(store *provenance.Store) ([]string, error) {
	ids := store.IDs() // sorted, for deterministic tie-breaking

	inDegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string, len(ids))

	for _, id := range ids {
		if _, ok := inDegree[id]; !ok {
			inDegree[id] = 0
		}
		v, _ := store.Get(id)
		src, ok := v.Source.(provenance.ComputedSource)
		if !ok {
			continue
		}
		for _, input := range src.Inputs {
			if _, exists := store.Get(input); !exists {
				continue // dangling reference, not an edge
			}
			inDegree[id]++
			dependents[input] = append(dependents[input], id)
		}
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		// Sorted visit keeps the full order deterministic even though
		// dependents were appended in collection order.
		deps := dependents[id]
		sort.Strings(deps)
		for _, dep := range deps {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(ids) {
		placed := make(map[string]bool, len(order))
		for _, id := range order {
			placed[id] = true
		}
		var remaining []string
		for _, id := range ids {
			if !placed[id] {
				remaining = append(remaining, id)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}
	return order, nil
}
