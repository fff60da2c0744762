// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the observer's credential allow-list from the
// environment or a file, and hot-reloads the file form while the
// service runs.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ParseAPIKeys parses a comma-separated list of name:token pairs, the
// OBSERVER_API_KEYS environment form:
//
//	dashboard:s3cret,ingestor:t0ken
//
// Whitespace around names and tokens is trimmed. Malformed pairs are
// skipped with a warning rather than failing startup; a later pair with
// the same name wins. The result is never nil — an empty input yields
// an empty allow-list, which the auth provider treats as open mode.
func ParseAPIKeys(spec string) map[string]string {
	keys := make(map[string]string)
	if strings.TrimSpace(spec) == "" {
		return keys
	}

	for _, pair := range strings.Split(spec, ",") {
		name, token, ok := parseKeyPair(pair)
		if !ok {
			slog.Warn("skipping malformed api key pair", "pair", strings.TrimSpace(pair))
			continue
		}
		keys[name] = token
	}
	return keys
}

// LoadKeysFile reads an allow-list file holding one name:token pair per
// line. Blank lines and lines starting with '#' are ignored; malformed
// lines are skipped with a warning. The error is non-nil only when the
// file itself cannot be read.
func LoadKeysFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open api key file: %w", err)
	}
	defer f.Close()

	keys := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, token, ok := parseKeyPair(line)
		if !ok {
			slog.Warn("skipping malformed api key line", "path", path, "line", lineNo)
			continue
		}
		keys[name] = token
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read api key file: %w", err)
	}
	return keys, nil
}

// parseKeyPair splits "name:token" into its parts. The token may itself
// contain colons; only the first separates name from token.
func parseKeyPair(pair string) (name, token string, ok bool) {
	parts := strings.SplitN(pair, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name = strings.TrimSpace(parts[0])
	token = strings.TrimSpace(parts[1])
	if name == "" || token == "" {
		return "", "", false
	}
	return name, token, true
}
