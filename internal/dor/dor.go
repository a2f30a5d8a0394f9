// Package dor scores Jira issues against a Definition of Ready checklist.
//
// The checklist is loaded once from configuration and passed by value into
// Score, which is a pure function: identical inputs always produce an
// identical Result, including list ordering.
package dor

import (
	"fmt"
	"strings"
)

// CheckKind selects how a criterion's satisfaction predicate is evaluated.
type CheckKind string

const (
	// CheckPresence passes when the named field carries meaningful text,
	// i.e. non-empty and not an unfilled template.
	CheckPresence CheckKind = "presence"

	// CheckKeyword passes when the named free-text field mentions at least
	// one of the criterion's keywords (case-insensitive).
	CheckKeyword CheckKind = "keyword"
)

// Criterion is one weighted, independently evaluable checklist rule.
type Criterion struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`

	// AppliesTo restricts the criterion to the listed issue types
	// (case-insensitive). Empty means the criterion applies to every type.
	AppliesTo []string `yaml:"applies_to,omitempty"`

	// Optional criteria still count toward the score but are surfaced with
	// softer wording in reports.
	Optional bool `yaml:"optional,omitempty"`

	Check CheckKind `yaml:"check"`

	// Field is the logical field name the predicate reads, e.g. "summary",
	// "story_syntax", "description". Logical names are resolved to Jira
	// custom field IDs at the client boundary, not here.
	Field string `yaml:"field"`

	// Keywords are only used by CheckKeyword criteria.
	Keywords []string `yaml:"keywords,omitempty"`

	// Recommendation overrides the generated suggestion for a missing
	// criterion.
	Recommendation string `yaml:"recommendation,omitempty"`
}

// Applies reports whether the criterion counts for the given issue type.
func (c Criterion) Applies(issueType string) bool {
	if len(c.AppliesTo) == 0 {
		return true
	}
	for _, t := range c.AppliesTo {
		if strings.EqualFold(t, issueType) {
			return true
		}
	}
	return false
}

// Checklist is an ordered, immutable set of criteria. Order is significant:
// satisfied/missing lists in Result follow definition order.
type Checklist struct {
	Criteria []Criterion `yaml:"criteria"`
}

// Validate fails fast on malformed checklist definitions so that scoring
// never has to cope with a broken predicate mid-run.
func (cl Checklist) Validate() error {
	if len(cl.Criteria) == 0 {
		return fmt.Errorf("checklist has no criteria")
	}
	seen := make(map[string]bool, len(cl.Criteria))
	for i, c := range cl.Criteria {
		if c.ID == "" {
			return fmt.Errorf("criterion %d: missing id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("criterion %q: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if c.Weight <= 0 {
			return fmt.Errorf("criterion %q: weight must be positive, got %v", c.ID, c.Weight)
		}
		if c.Field == "" {
			return fmt.Errorf("criterion %q: missing field", c.ID)
		}
		switch c.Check {
		case CheckPresence:
		case CheckKeyword:
			if len(c.Keywords) == 0 {
				return fmt.Errorf("criterion %q: keyword check requires keywords", c.ID)
			}
		default:
			return fmt.Errorf("criterion %q: unknown check kind %q", c.ID, c.Check)
		}
	}
	return nil
}

// Fields is the read-only issue snapshot the scorer evaluates. Implementations
// must tolerate missing or oddly shaped fields by returning empty text; the
// scorer treats empty text as "criterion not satisfied", never as an error.
type Fields interface {
	// IssueType returns the issue type name, e.g. "Story", "Task", "Bug".
	IssueType() string

	// FieldText returns the plain-text content of the named logical field,
	// or "" when the field is absent or unreadable.
	FieldText(name string) string
}

// Level is a coarse human-readable readiness classification.
type Level string

const (
	LevelReady     Level = "Ready"
	LevelNearly    Level = "Nearly Ready"
	LevelPartially Level = "Partially Ready"
	LevelNotReady  Level = "Not Ready"
)

// LevelFor buckets a readiness percentage.
func LevelFor(percentage int) Level {
	switch {
	case percentage >= 90:
		return LevelReady
	case percentage >= 70:
		return LevelNearly
	case percentage >= 50:
		return LevelPartially
	default:
		return LevelNotReady
	}
}
