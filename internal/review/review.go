// Package review builds quality-review requests for the free-text fields a
// deterministic checklist can only check for presence, and optionally runs
// them through an LLM for a pass/fail judgement.
package review

import (
	"github.com/refinekit/refine/internal/jira"
)

// Request is one field the agent should judge: the criterion being assessed,
// the field's current text, and the evaluation prompt.
type Request struct {
	Field     string `json:"field"`
	Criterion string `json:"criterion"`
	Content   string `json:"content"`
	Prompt    string `json:"prompt"`
}

// Minimum text lengths below which a quality review is pointless; the
// deterministic presence check already covers those.
const (
	minFieldLen       = 10
	minDescriptionLen = 20
)

// descriptionAngles are the concerns a description review covers. Each one
// reads the same description text with a different evaluation prompt.
var descriptionAngles = []struct {
	field     string
	criterion string
	prompt    string
}{
	{
		field:     "environments",
		criterion: "Environments defined (Staging/Pre-prod/Production)",
		prompt:    "Does this description mention or discuss deployment to different environments like staging, pre-production, and production? Look for environment-specific concerns or deployment strategies.",
	},
	{
		field:     "security",
		criterion: "Security posture/implications/risks defined",
		prompt:    "Does this description address security considerations, risks, threats, authentication, authorization, data protection, or compliance requirements?",
	},
	{
		field:     "documentation",
		criterion: "Relevant documentation identified",
		prompt:    "Does this description reference or link to relevant documentation, wikis, Confluence pages, ADRs, or other knowledge base articles?",
	},
	{
		field:     "demo",
		criterion: "What to demo has been defined",
		prompt:    "Does this description specify what will be demonstrated or shown to stakeholders upon completion?",
	},
	{
		field:     "cost",
		criterion: "Cost implications considered",
		prompt:    "Does this description discuss cost implications, infrastructure expenses, licensing fees, or budget considerations?",
	},
	{
		field:     "telemetry",
		criterion: "Telemetry considered - metrics and alerts defined",
		prompt:    "Does this description define metrics, alerts, dashboards, or monitoring requirements for this work?",
	},
}

// BuildRequests extracts the issue content that needs a quality judgement
// rather than a presence check. Fields that are empty or trivially short are
// skipped; the deterministic score already flags those.
func BuildRequests(issue *jira.Issue) []Request {
	var reqs []Request

	if syntax := issue.FieldText("story_syntax"); len(syntax) > minFieldLen {
		reqs = append(reqs, Request{
			Field:     "story_syntax",
			Criterion: "Story syntax quality (As a... I want... So that...)",
			Content:   syntax,
			Prompt:    "Evaluate if this story syntax follows the format \"As a [user type] I want [feature] So that [benefit]\" and provides meaningful context. Is it complete and valuable, or just template text?",
		})
	}

	if ac := issue.FieldText("acceptance_criteria"); len(ac) > minFieldLen {
		reqs = append(reqs, Request{
			Field:     "acceptance_criteria",
			Criterion: "Acceptance criteria quality (BDD/Gherkin)",
			Content:   ac,
			Prompt:    "Evaluate if these acceptance criteria use proper BDD/Gherkin format (Given/When/Then or Feature/Scenario format) and define testable, specific outcomes. Are they meaningful and complete, or just boilerplate?",
		})
	}

	if desc := issue.FieldText("description"); len(desc) > minDescriptionLen {
		for _, angle := range descriptionAngles {
			reqs = append(reqs, Request{
				Field:     angle.field,
				Criterion: angle.criterion,
				Content:   desc,
				Prompt:    angle.prompt,
			})
		}
	}

	return reqs
}
