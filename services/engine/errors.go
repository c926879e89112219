// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine orchestrates tax computation with full value
// provenance.
//
// One call to ComputeAll runs the federal base module and every selected
// jurisdiction module over an immutable input snapshot, records every
// intermediate and final figure in a provenance store, and returns a
// Result bundling the computed lines, the store, and advisory
// quality-gate findings. BuildTrace and ExplainLine reconstruct any
// figure's derivation on demand; TopologicalSort provides a valid
// evaluation order and doubles as the store's cycle integrity check.
//
// # Error Taxonomy
//
// Three distinct failure classes, handled three distinct ways:
//
//   - Graceful degradation: unknown node ids, dangling input
//     references, and (by default) unregistered jurisdiction codes are
//     resolved locally with zero values or omission, never errors.
//   - Integrity violations: a cycle among stored nodes is a collector
//     bug. TopologicalSort reports it loudly with every implicated
//     node id; it must not occur when the collector is correct.
//   - Advisory findings: quality-gate failures are data on the Result,
//     not control flow.
package engine

import "errors"

// Sentinel errors for the engine.
var (
	// ErrNilContext is returned when a run is started without a
	// context.
	ErrNilContext = errors.New("nil context")

	// ErrNilReturn is returned when ComputeAll receives a nil input
	// aggregate.
	ErrNilReturn = errors.New("nil return")

	// ErrUnknownJurisdiction is returned under UnknownError policy when
	// a selected jurisdiction code has no registered module. Under the
	// default policy the code is silently skipped instead.
	ErrUnknownJurisdiction = errors.New("unknown jurisdiction code")

	// ErrDuplicateModule is returned when a registry is built with two
	// modules claiming the same jurisdiction code.
	ErrDuplicateModule = errors.New("duplicate jurisdiction module")

	// ErrLabelCollision is returned when two modules register display
	// labels under the same node id. Surfaced at registry build so
	// label conflicts fail loudly at startup, not at render time.
	ErrLabelCollision = errors.New("label key collision")
)
