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
// This package contains validators for caller-provided names that are
// forwarded to secondary time-series stores. Using these validators keeps
// hostile or malformed input out of tag values and queries (Flux injection,
// line-protocol separators, unbounded cardinality).
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches source and metric names that are safe to use
// as time-series tag values.
// Allows: letters, digits, then dots (disk.io), underscores (cpu_percent),
// hyphens (worker-3).
// Max length: 128 characters.
// A leading underscore is rejected: InfluxDB reserves _-prefixed names
// for system measurements and tags.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,127}$`)

// ValidateIdentifier validates a source or metric name before it is used
// as a tag value, preventing Flux injection.
//
// Valid identifiers:
//   - 1-128 characters
//   - Letters A-Z, a-z
//   - Digits 0-9
//   - Dots (.), underscores (_), and hyphens (-) after the first character
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateIdentifier(source); err != nil {
//	    return fmt.Errorf("invalid source: %w", err)
//	}
//	// Safe to use as a tag value
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q (must be 1-128 alphanumeric chars, dots, underscores, or hyphens)", name)
	}

	return nil
}

// ValidateIdentifiers validates multiple identifiers.
// Returns an error listing all invalid identifiers if any fail validation.
func ValidateIdentifiers(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateIdentifier(n); err != nil {
			invalid = append(invalid, n)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid identifiers: %v", invalid)
	}
	return nil
}

// SanitizeIdentifier trims and validates an identifier. Case is
// preserved: metric names are case-sensitive.
//
// Use this when accepting names from configuration or flags:
//
//	safeName, err := validation.SanitizeIdentifier(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeIdentifier(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := ValidateIdentifier(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
