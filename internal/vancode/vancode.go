// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vancode converts sibling indexes to sortable base-36 digit groups
// and builds the dot-separated thread paths used to order comment trees.
//
// A thread path looks like "01.00.0a/": each group is one vancode, groups are
// joined by '.', and the path is terminated by '/'. Sorting paths with the
// trailing '/' stripped yields depth-first, sibling-ordered tree order as long
// as sibling groups stay within MinWidth digits.
package vancode

import (
	"errors"
	"math"
	"strings"
)

const (
	// Radix is the number base of a digit group.
	Radix = 36

	// MinWidth is the zero-padded minimum width of a digit group.
	MinWidth = 2

	// MaxFixedWidth is the largest value that still encodes in MinWidth digits.
	// Siblings beyond it get wider groups and no longer sort correctly as strings.
	MaxFixedWidth = Radix*Radix - 1

	// Separator joins digit groups inside a thread path.
	Separator = "."

	// Terminator ends every thread path.
	Terminator = "/"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ErrInvalidDigit is returned when a vancode contains a character outside 0-9a-z.
var ErrInvalidDigit = errors.New("vancode: invalid digit")

// ErrEmpty is returned when decoding an empty vancode.
var ErrEmpty = errors.New("vancode: empty input")

// ErrOverflow is returned when a vancode's value does not fit in a uint64.
var ErrOverflow = errors.New("vancode: value out of range")

// Encode converts n to a lower-case base-36 string padded to MinWidth.
func Encode(n uint64) string {
	var buf [16]byte
	i := len(buf)
	for {
		i--
		buf[i] = alphabet[n%Radix]
		n /= Radix
		if n == 0 {
			break
		}
	}
	for len(buf)-i < MinWidth {
		i--
		buf[i] = '0'
	}
	return string(buf[i:])
}

// Decode converts a vancode back to its integer value. Upper-case digits are accepted.
func Decode(s string) (uint64, error) {
	if s == "" {
		return 0, ErrEmpty
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		d, ok := digit(s[i])
		if !ok {
			return 0, ErrInvalidDigit
		}
		if n > (math.MaxUint64-d)/Radix {
			return 0, ErrOverflow
		}
		n = n*Radix + d
	}
	return n, nil
}

func digit(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 10, true
	case c >= 'A' && c <= 'Z':
		return uint64(c-'A') + 10, true
	default:
		return 0, false
	}
}

// Prefix strips the trailing terminator from a thread path.
func Prefix(path string) string {
	return strings.TrimSuffix(path, Terminator)
}

// Segments splits a thread path into its digit groups.
func Segments(path string) []string {
	p := Prefix(path)
	if p == "" {
		return nil
	}
	return strings.Split(p, Separator)
}

// Depth returns the zero-based nesting level of a thread path ("00/" is 0).
func Depth(path string) int {
	return strings.Count(Prefix(path), Separator)
}

// Root returns the path of a top-level item with sibling index n.
func Root(n uint64) string {
	return Encode(n) + Terminator
}

// Child returns the path of the n-th child under parentPath.
func Child(parentPath string, n uint64) string {
	return Prefix(parentPath) + Separator + Encode(n) + Terminator
}

// Parent returns the parent path of path, or "" for a top-level path.
func Parent(path string) string {
	p := Prefix(path)
	i := strings.LastIndex(p, Separator)
	if i < 0 {
		return ""
	}
	return p[:i] + Terminator
}

// SortKey returns the string that orders path in depth-first tree order.
func SortKey(path string) string {
	return Prefix(path)
}
