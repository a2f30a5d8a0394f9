// Package draft assembles well-structured Jira issue drafts: story syntax,
// Gherkin acceptance criteria, and the description sections a refinement
// session expects to find filled in.
package draft

import (
	"fmt"
	"strings"

	"github.com/refinekit/refine/internal/adf"
)

// sectionPlaceholder marks description sections left for refinement.
const sectionPlaceholder = "_To be defined during refinement_"

// Scenario is one Gherkin scenario of the acceptance criteria.
type Scenario struct {
	Name  string
	Given string
	When  string
	Then  string
}

// Draft accumulates the pieces of an issue before creation. It is passed
// explicitly through the gathering steps; nothing about it is ambient.
type Draft struct {
	IssueType string
	Summary   string
	EpicKey   string

	// Story syntax parts, only meaningful for stories.
	UserType   string
	Capability string
	Value      string

	Description string
	Feature     string
	Scenarios   []Scenario

	// Deployment targets, in the order they were offered.
	Environments []string

	// Optional description sections. Empty sections render as refinement
	// placeholders so the checklist still sees the heading.
	Security      string
	Cost          string
	Telemetry     string
	Documentation string
	Demo          string
}

// IsStory reports whether the draft is a user story.
func (d *Draft) IsStory() bool {
	return strings.EqualFold(d.IssueType, "Story")
}

// StorySyntax renders the "As a / I want / So that" block, or "" when the
// draft is not a story.
func (d *Draft) StorySyntax() string {
	if !d.IsStory() || d.Capability == "" {
		return ""
	}
	user := d.UserType
	if user == "" {
		user = "user"
	}
	return fmt.Sprintf("As a %s\nI want %s\nSo that %s", user, d.Capability, d.Value)
}

// AcceptanceCriteria renders the scenarios as a Gherkin feature.
func (d *Draft) AcceptanceCriteria() string {
	if len(d.Scenarios) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Feature: %s\n", d.Feature)
	for _, s := range d.Scenarios {
		fmt.Fprintf(&b, "\nScenario: %s\n", s.Name)
		fmt.Fprintf(&b, "  Given %s\n", s.Given)
		fmt.Fprintf(&b, "  When %s\n", s.When)
		fmt.Fprintf(&b, "  Then %s\n", s.Then)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FullDescription renders the description plus the consideration sections.
// Sections the author skipped get a placeholder so reviewers see what is
// still open.
func (d *Draft) FullDescription() string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(d.Description, "\n"))

	b.WriteString("\n\n## Environments\n")
	if len(d.Environments) > 0 {
		b.WriteString("This will be deployed to: " + strings.Join(d.Environments, ", "))
	} else {
		b.WriteString("Environments to be determined")
	}

	section := func(heading, content string) {
		b.WriteString("\n\n## " + heading + "\n")
		if strings.TrimSpace(content) == "" {
			b.WriteString(sectionPlaceholder)
		} else {
			b.WriteString(strings.TrimSpace(content))
		}
	}
	section("Security Considerations", d.Security)
	section("Cost Implications", d.Cost)
	section("Telemetry & Monitoring", d.Telemetry)
	section("Documentation", d.Documentation)
	section("What to Demo", d.Demo)

	return b.String()
}

// BuildFields turns the draft into a Jira create payload. Custom fields map
// logical names to customfield IDs; unknown logical names are skipped rather
// than sent under a bogus key.
func (d *Draft) BuildFields(projectKey string, issueTypes, customFields map[string]string) (map[string]any, error) {
	if strings.TrimSpace(d.Summary) == "" {
		return nil, fmt.Errorf("draft: summary is required")
	}
	typeID := issueTypes[strings.ToLower(d.IssueType)]
	if typeID == "" {
		return nil, fmt.Errorf("draft: unknown issue type %q", d.IssueType)
	}

	fields := map[string]any{
		"project":     map[string]any{"key": projectKey},
		"issuetype":   map[string]any{"id": typeID},
		"summary":     d.Summary,
		"description": adf.FromText(d.FullDescription()),
	}

	if syntax := d.StorySyntax(); syntax != "" {
		if id := customFields["story_syntax"]; id != "" {
			fields[id] = adf.FromText(syntax)
		}
	}
	if ac := d.AcceptanceCriteria(); ac != "" {
		if id := customFields["acceptance_criteria"]; id != "" {
			fields[id] = adf.FromText(ac)
		}
	}
	if d.EpicKey != "" {
		fields["parent"] = map[string]any{"key": d.EpicKey}
	}
	return fields, nil
}
