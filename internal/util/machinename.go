// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides machine-name derivation and validation with Unicode
// normalization support, and helpers for nullable SQL columns.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxMachineNameLength is the longest accepted machine name.
const MaxMachineNameLength = 64

var (
	// machineNameRegex matches runs of characters a machine name cannot hold
	machineNameRegex = regexp.MustCompile(`[^a-z0-9_]+`)
	// multipleUnderscores matches multiple consecutive underscores
	multipleUnderscores = regexp.MustCompile(`_{2,}`)
)

// MachineName derives a machine name from a human-readable label.
// It converts to lowercase, removes accents, and replaces everything other
// than letters and digits with single underscores. The result may be empty.
func MachineName(s string) string {
	// Normalize unicode characters (decompose accents)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = machineNameRegex.ReplaceAllString(result, "_")
	result = multipleUnderscores.ReplaceAllString(result, "_")
	result = strings.Trim(result, "_")

	if len(result) > MaxMachineNameLength {
		result = strings.TrimRight(result[:MaxMachineNameLength], "_")
	}
	return result
}

// IsValidMachineName checks if a string holds only lower-case ASCII letters,
// digits and underscores, within MaxMachineNameLength.
func IsValidMachineName(s string) bool {
	if s == "" || len(s) > MaxMachineNameLength {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
