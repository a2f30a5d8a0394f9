package dor

import (
	"regexp"
	"strings"
)

// Placeholder tokens like [USER TYPE] or [BENEFIT] that survive from an
// unfilled template.
var placeholderToken = regexp.MustCompile(`\[[^\[\]]{1,40}\]`)

// Boilerplate skeletons that Jira projects pre-fill into fields. Matching is
// done against normalized text (lowercased, whitespace collapsed).
var templateSkeletons = []string{
	"as a i want so that",
	"as a i would like so that",
	"as a [user type] i want [feature] so that [benefit]",
	"as a [user type] i would like [feature] so that [benefit]",
	"please describe what the expected behavior is",
	"steps to reproduce 1. login 2. navigate to page 3. click stuff",
	"what actually happens",
}

// normalize lowercases text and collapses all whitespace runs to single
// spaces so template matching is layout-independent.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// IsTemplateText reports whether text is an unfilled template or placeholder
// skeleton rather than real content. Empty text is template by definition.
func IsTemplateText(text string) bool {
	norm := normalize(text)
	if norm == "" {
		return true
	}
	for _, skeleton := range templateSkeletons {
		if strings.Contains(norm, skeleton) {
			return true
		}
	}
	if placeholderToken.MatchString(norm) {
		return true
	}
	// A very short story skeleton with the connective words but nothing
	// substantial between them.
	if len(norm) < 30 && strings.Contains(norm, "as a") &&
		(strings.Contains(norm, "i want") || strings.Contains(norm, "i would like")) {
		return true
	}
	return false
}

// MeaningfulText reports whether text counts as real content for a presence
// check: non-empty after trimming and not a recognizable template skeleton.
func MeaningfulText(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return !IsTemplateText(text)
}
