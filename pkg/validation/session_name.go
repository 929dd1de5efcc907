// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// file paths or persisted artifacts. Using these validators prevents path
// traversal and filename collision attacks.
package validation

import (
	"fmt"
	"regexp"
)

// sessionNamePattern matches valid review session names.
// Allows: letters, digits, hyphens, underscores. Must start alphanumeric.
// Max length: 64 characters, since the name becomes part of a filename.
var sessionNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

// ValidateSessionName validates a session name before it is used as a
// results filename component.
//
// Valid names:
//   - 1-64 characters
//   - Letters, digits, hyphens, underscores
//   - First character alphanumeric
//
// Returns an error if the name is invalid.
//
// Example:
//
//	if err := validation.ValidateSessionName(name); err != nil {
//	    return nil, fmt.Errorf("invalid session name: %w", err)
//	}
//	// Safe to embed in a results file path
func ValidateSessionName(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if !sessionNamePattern.MatchString(name) {
		return fmt.Errorf("invalid session name: %q (must be 1-64 alphanumeric chars, hyphens, or underscores, starting alphanumeric)", name)
	}

	return nil
}
