// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

import "errors"

// Sentinel errors for store construction.
var (
	// ErrDuplicateNode is returned when a Builder receives a node id that
	// was already inserted. Duplicate ids indicate a collector bug; the
	// Builder surfaces them instead of silently overwriting.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrEmptyNodeID is returned when a Builder receives an empty node id.
	ErrEmptyNodeID = errors.New("empty node id")
)
