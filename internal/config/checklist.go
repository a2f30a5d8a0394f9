package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/refinekit/refine/internal/dor"
)

// loadChecklistFile decodes the definition_of_ready section from the config
// file. Returns found=false when the section is absent so callers can keep
// the default checklist.
func loadChecklistFile(path string) (dor.Checklist, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dor.Checklist{}, false, fmt.Errorf("read checklist: %w", err)
	}

	var doc struct {
		DefinitionOfReady []dor.Criterion `yaml:"definition_of_ready"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return dor.Checklist{}, false, fmt.Errorf("parse checklist: %w", err)
	}
	if len(doc.DefinitionOfReady) == 0 {
		return dor.Checklist{}, false, nil
	}
	return dor.Checklist{Criteria: doc.DefinitionOfReady}, true, nil
}

// DefaultChecklist is the built-in Definition of Ready, matching the team's
// standard refinement checklist. Criterion order here is the display and
// report order.
func DefaultChecklist() dor.Checklist {
	return dor.Checklist{Criteria: []dor.Criterion{
		{
			ID: "title", Name: "Title completed", Weight: 3,
			Check: dor.CheckPresence, Field: "summary",
			Recommendation: "Write a short, specific title",
		},
		{
			ID: "story_syntax", Name: "Story syntax completed (As a... I want... So that...)",
			Weight: 2, Check: dor.CheckPresence, Field: "story_syntax",
			AppliesTo:      []string{"Story"},
			Recommendation: "Fill in the story syntax: As a [user type] I want [feature] So that [benefit]",
		},
		{
			ID: "acceptance_criteria", Name: "Acceptance Criteria in BDD/Gherkin syntax",
			Weight: 2, Check: dor.CheckPresence, Field: "acceptance_criteria",
			Recommendation: "Add acceptance criteria: Given [precondition] When [action] Then [outcome]",
		},
		{
			ID: "parent_epic", Name: "Linked to parent epic", Weight: 1,
			Check: dor.CheckPresence, Field: "parent", Optional: true,
			Recommendation: "Link the issue to its parent epic",
		},
		{
			ID: "account_code", Name: "Account code set", Weight: 1,
			Check: dor.CheckPresence, Field: "account_code",
			Recommendation: "Set the billing account code",
		},
		{
			ID: "story_points", Name: "Points estimated/assigned", Weight: 1,
			Check: dor.CheckPresence, Field: "story_points", Optional: true,
			Recommendation: "Estimate story points during refinement",
		},
		{
			ID: "environments", Name: "Environments defined (Staging/Pre-prod/Production)",
			Weight: 1, Check: dor.CheckKeyword, Field: "description",
			Keywords:       []string{"staging", "pre-prod", "pre-production", "production", "environment", "deploy"},
			Recommendation: "State which environments this will be deployed to",
		},
		{
			ID: "security", Name: "Security posture/implications/risks defined",
			Weight: 1, Check: dor.CheckKeyword, Field: "description",
			Keywords:       []string{"security", "threat", "risk", "authentication", "authorization", "vulnerability"},
			Recommendation: "Describe security implications and risks",
		},
		{
			ID: "documentation", Name: "Relevant documentation identified",
			Weight: 1, Check: dor.CheckKeyword, Field: "description",
			Keywords:       []string{"documentation", "docs", "wiki", "readme", "confluence"},
			Recommendation: "Link to relevant documentation",
		},
		{
			ID: "demo", Name: "What to demo has been defined",
			Weight: 1, Check: dor.CheckKeyword, Field: "description",
			Keywords:       []string{"demo", "demonstrate", "show", "presentation"},
			Recommendation: "Define what will be demonstrated on completion",
		},
		{
			ID: "cost", Name: "Cost implications considered",
			Weight: 1, Check: dor.CheckKeyword, Field: "description",
			Keywords:       []string{"cost", "price", "budget", "expense", "billing"},
			Recommendation: "Note cost implications (infrastructure, licensing)",
		},
		{
			ID: "telemetry", Name: "Telemetry considered - metrics and alerts defined",
			Weight: 1, Check: dor.CheckKeyword, Field: "description",
			Keywords:       []string{"telemetry", "metrics", "monitoring", "alert", "observability", "logging"},
			Recommendation: "Specify metrics, alerts, and dashboards",
		},
	}}
}
