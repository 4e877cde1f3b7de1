// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/olegiv/ocms-content/internal/model"
)

// teaserSeparator ends the first paragraph of a body.
const teaserSeparator = "\n\n"

// subjectEllipsis marks a truncated subject.
const subjectEllipsis = "..."

// subjectPolicy strips all markup from a body before a subject is derived from it.
var subjectPolicy = bluemonday.StrictPolicy()

// TeaserExcerpt derives the teaser of a body: the first 600 characters, cut
// at the first blank line inside them if there is one.
func TeaserExcerpt(body string) string {
	excerpt := body
	if r := []rune(body); len(r) > model.TeaserMaxChars {
		excerpt = string(r[:model.TeaserMaxChars])
	}
	if i := strings.Index(excerpt, teaserSeparator); i >= 0 {
		excerpt = excerpt[:i]
	}
	return excerpt
}

// SubjectFromBody derives a comment subject from its body: markup removed,
// trimmed and shortened to 60 characters including a trailing "..." marker.
// Truncation counts characters, never bytes.
func SubjectFromBody(body string) string {
	clean := html.UnescapeString(subjectPolicy.Sanitize(body))
	return truncateSubject(clean)
}

// truncateSubject normalises and trims s, then shortens it to 60 characters
// with the "..." marker when it is longer.
func truncateSubject(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))

	r := []rune(s)
	if len(r) <= model.SubjectMaxChars {
		return s
	}
	keep := model.SubjectMaxChars - len(subjectEllipsis)
	return string(r[:keep]) + subjectEllipsis
}
