package dor

import (
	"fmt"
	"math"
	"strings"
)

// minKeywordFieldLen guards keyword checks against trivially short text: a
// ten-character description mentioning "cost" is not a cost analysis.
const minKeywordFieldLen = 50

// CriterionOutcome records how a single applicable criterion evaluated.
type CriterionOutcome struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Passed   bool    `json:"passed"`
	Optional bool    `json:"optional"`
	Weight   float64 `json:"weight"`
	Detail   string  `json:"detail"`
}

// Result is the outcome of scoring one issue against a checklist.
type Result struct {
	Earned     float64 `json:"earned_points"`
	Possible   float64 `json:"possible_points"`
	Percentage int     `json:"percentage"`

	// Satisfied and Missing hold criterion IDs in checklist definition
	// order. Every applicable criterion appears in exactly one of them, so
	// Earned plus the missing weights always equals Possible.
	Satisfied []string `json:"satisfied"`
	Missing   []string `json:"missing"`

	// Recommendations holds one suggestion per missing criterion, in the
	// same order as Missing.
	Recommendations []string `json:"recommendations"`

	Outcomes []CriterionOutcome `json:"checklist"`
}

// Level classifies the result's percentage.
func (r Result) Level() Level {
	return LevelFor(r.Percentage)
}

// Score evaluates an issue snapshot against the checklist. It is pure: no
// I/O, no mutation of its inputs, and deterministic output ordering.
//
// The checklist is assumed to have passed Validate at load time; Score itself
// never fails. Issues with unexpected field shapes degrade to unsatisfied
// criteria, since incomplete data is exactly what the score measures.
func Score(issue Fields, checklist Checklist) Result {
	res := Result{
		Satisfied:       []string{},
		Missing:         []string{},
		Recommendations: []string{},
	}
	issueType := issue.IssueType()

	for _, c := range checklist.Criteria {
		if !c.Applies(issueType) {
			// Inapplicable criteria contribute to neither earned nor
			// possible points.
			continue
		}
		res.Possible += c.Weight

		passed, detail := evaluate(c, issue)
		if passed {
			res.Earned += c.Weight
			res.Satisfied = append(res.Satisfied, c.ID)
		} else {
			res.Missing = append(res.Missing, c.ID)
			res.Recommendations = append(res.Recommendations, recommendation(c, detail))
		}

		res.Outcomes = append(res.Outcomes, CriterionOutcome{
			ID:       c.ID,
			Name:     c.Name,
			Passed:   passed,
			Optional: c.Optional,
			Weight:   c.Weight,
			Detail:   detail,
		})
	}

	if res.Possible > 0 {
		res.Percentage = int(math.Round(100 * res.Earned / res.Possible))
	}
	return res
}

func evaluate(c Criterion, issue Fields) (bool, string) {
	text := issue.FieldText(c.Field)

	switch c.Check {
	case CheckPresence:
		if MeaningfulText(text) {
			return true, fmt.Sprintf("populated (%d chars)", len(strings.TrimSpace(text)))
		}
		if strings.TrimSpace(text) == "" {
			return false, fmt.Sprintf("field %q is empty", c.Field)
		}
		return false, "contains only template/placeholder text"

	case CheckKeyword:
		lower := strings.ToLower(text)
		var found []string
		for _, kw := range c.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found = append(found, kw)
			}
		}
		if len(found) > 0 {
			if len(lower) > minKeywordFieldLen {
				return true, "mentioned: " + strings.Join(found, ", ")
			}
			return false, fmt.Sprintf("mentions %s but the field is too short to count (%d chars, need more than %d)",
				strings.Join(found, ", "), len(lower), minKeywordFieldLen)
		}
		preview := c.Keywords
		if len(preview) > 3 {
			preview = preview[:3]
		}
		return false, "not mentioned (expected one of: " + strings.Join(preview, ", ") + ")"

	default:
		// Unreachable for validated checklists.
		return false, fmt.Sprintf("unknown check kind %q", c.Check)
	}
}

func recommendation(c Criterion, detail string) string {
	if c.Recommendation != "" {
		return c.Recommendation
	}
	return fmt.Sprintf("%s: %s", c.Name, detail)
}
