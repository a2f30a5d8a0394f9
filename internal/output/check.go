package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/refinekit/refine/internal/dor"
	"github.com/refinekit/refine/internal/review"
)

// CheckReport is the readiness report for a single issue.
type CheckReport struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Type    string `json:"issue_type"`
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`

	Result dor.Result `json:"result"`
	Level  string     `json:"level"`

	// Review holds the agent session when --agent ran.
	Review *review.Session `json:"review,omitempty"`
}

func levelIcon(level string) string {
	switch dor.Level(level) {
	case dor.LevelReady:
		return good("✅ " + level)
	case dor.LevelNearly:
		return warn("⚠️  " + level)
	case dor.LevelPartially:
		return warn("🔸 " + level)
	default:
		return bad("❌ " + level)
	}
}

func (r *CheckReport) renderQuiet(w io.Writer) {
	fmt.Fprintf(w, "%s %d%% %s\n", r.Key, r.Result.Percentage, r.Level)
}

func (r *CheckReport) renderStandard(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", header("Definition of Ready:"), keytext(r.Key))
	fmt.Fprintf(w, "%s [%s, %s]\n", r.Summary, r.Type, r.Status)
	if r.URL != "" {
		fmt.Fprintln(w, faint(r.URL))
	}
	rule(w)

	c := scoreColor(r.Result.Percentage)
	fmt.Fprintf(w, "Score: %s (%.1f/%.1f points)  %s\n\n",
		c(fmt.Sprintf("%d%%", r.Result.Percentage)),
		r.Result.Earned, r.Result.Possible,
		levelIcon(r.Level),
	)

	for _, item := range r.Result.Outcomes {
		mark := good("✓")
		if !item.Passed {
			mark = bad("✗")
			if item.Optional {
				mark = warn("○")
			}
		}
		fmt.Fprintf(w, "  %s %s %s\n", mark, item.Name, faint("("+item.Detail+")"))
	}

	if len(r.Result.Missing) > 0 {
		fmt.Fprintf(w, "\n%s\n", header("Recommendations:"))
		for _, rec := range r.Result.Recommendations {
			fmt.Fprintf(w, "  • %s\n", rec)
		}
		writeTips(w, r.Result.Missing)
	}

	if r.Review != nil {
		renderReview(w, r.Review)
	}
}

// writeTips prints format templates for the two fields teams most often
// leave as boilerplate.
func writeTips(w io.Writer, missing []string) {
	for _, id := range missing {
		switch id {
		case "story_syntax":
			fmt.Fprintf(w, "\n%s\n", warn("💡 Tip: use the story syntax template:"))
			fmt.Fprintln(w, "   As a [USER TYPE]")
			fmt.Fprintln(w, "   I want [FEATURE]")
			fmt.Fprintln(w, "   So that [BENEFIT]")
		case "acceptance_criteria":
			fmt.Fprintf(w, "\n%s\n", warn("💡 Tip: use BDD/Gherkin format:"))
			fmt.Fprintln(w, "   Given [precondition]")
			fmt.Fprintln(w, "   When [action]")
			fmt.Fprintln(w, "   Then [expected outcome]")
		}
	}
}

func renderReview(w io.Writer, s *review.Session) {
	fmt.Fprintf(w, "\n%s %s\n", header("Agent review:"), faint("session "+s.ID))
	for _, v := range s.Verdicts {
		mark := good("PASS")
		if !v.Pass {
			mark = bad("FAIL")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, v.Criterion)
		if v.Reasoning != "" {
			fmt.Fprintf(w, "       %s\n", faint(v.Reasoning))
		}
	}
	fmt.Fprintf(w, "  %d/%d fields passed quality review\n", s.Passed(), len(s.Verdicts))
}

// CommentText renders the report as the plain-text Jira comment posted by
// check --comment.
func (r *CheckReport) CommentText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Definition of Ready: %d%% (%s)\n\n", r.Result.Percentage, r.Level)
	if len(r.Result.Missing) == 0 {
		b.WriteString("All applicable criteria are satisfied.\n")
		return b.String()
	}
	b.WriteString("Missing items:\n")
	for _, rec := range r.Result.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	return b.String()
}
