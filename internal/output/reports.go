package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/refinekit/refine/internal/cull"
	"github.com/refinekit/refine/internal/prep"
	"github.com/refinekit/refine/internal/tempo"
)

// PrepReport is the refinement preparation report.
type PrepReport struct {
	Project string       `json:"project"`
	Items   []prep.Item  `json:"items"`
	Summary prep.Summary `json:"summary"`

	// Threshold is the score at which an item counts as ready.
	Threshold int `json:"threshold"`
}

func (r *PrepReport) renderQuiet(w io.Writer) {
	fmt.Fprintf(w, "%d items, %d ready, avg %d%%\n", r.Summary.Total, r.Summary.Ready, r.Summary.AvgScore)
}

func (r *PrepReport) renderStandard(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", header("Refinement prep:"), r.Project)
	rule(w)

	if len(r.Items) == 0 {
		fmt.Fprintln(w, "No issues waiting for refinement.")
		return
	}

	for _, item := range r.Items {
		c := scoreColor(item.Score)
		fmt.Fprintf(w, "%2d. %s %s %s\n", item.Position, keytext(item.Key), c(fmt.Sprintf("%3d%%", item.Score)), item.Summary)
		meta := fmt.Sprintf("    %s · %s", item.IssueType, item.Assignee)
		if item.Sprint != "" {
			meta += " · " + item.Sprint
		}
		fmt.Fprintln(w, faint(meta))
		if len(item.Missing) > 0 {
			fmt.Fprintf(w, "    missing: %s\n", warn(strings.Join(item.Missing, ", ")))
		}
	}

	rule(w)
	fmt.Fprintf(w, "%d items · %d at or above %d%% · average score %d%%\n",
		r.Summary.Total, r.Summary.Ready, r.Threshold, r.Summary.AvgScore)
}

// CullReport is the stale backlog report.
type CullReport struct {
	Project    string           `json:"project"`
	Candidates []cull.Candidate `json:"candidates"`
	Summary    cull.Summary     `json:"summary"`
	Thresholds cull.Thresholds  `json:"thresholds"`
}

func (r *CullReport) renderQuiet(w io.Writer) {
	fmt.Fprintf(w, "%d cull candidates, avg staleness %d\n", r.Summary.Total, r.Summary.AvgStaleness)
}

func (r *CullReport) renderStandard(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", header("Backlog cull candidates:"), r.Project)
	fmt.Fprintln(w, faint(fmt.Sprintf("older than %d days, inactive %d+ days, refinement below %d%%",
		r.Thresholds.AgeDays, r.Thresholds.InactivityDays, r.Thresholds.RefinementPct)))
	rule(w)

	if len(r.Candidates) == 0 {
		fmt.Fprintln(w, good("No cull candidates. The backlog is in good shape."))
		return
	}

	for _, c := range r.Candidates {
		fmt.Fprintf(w, "%s staleness %s  %s\n", keytext(c.Key), bad(fmt.Sprintf("%d", c.StalenessScore)), c.Summary)
		fmt.Fprintln(w, faint(fmt.Sprintf("    %s · %s · created %s · %d days old · inactive %d days · refinement %d%%",
			c.IssueType, c.Assignee, c.Created, c.AgeDays, c.InactivityDays, c.RefinementPct)))
	}

	rule(w)
	fmt.Fprintf(w, "%d candidates · average age %d days · average staleness %d · %d unassigned\n",
		r.Summary.Total, r.Summary.AvgAgeDays, r.Summary.AvgStaleness, r.Summary.Unassigned)
}

// TempoReport wraps the reconciled timesheet week.
type TempoReport struct {
	*tempo.Report

	// BrowseURL renders issue links; nil leaves keys bare.
	BrowseURL func(key string) string `json:"-"`
}

func (r *TempoReport) renderQuiet(w io.Writer) {
	fmt.Fprintf(w, "%d/%d submitted, %d missing account codes\n",
		len(r.Submitted), len(r.Submitted)+len(r.Missing), len(r.MissingAccounts))
}

func (r *TempoReport) renderStandard(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", header("Tempo timesheets:"), r.TeamName)
	fmt.Fprintln(w, faint(fmt.Sprintf("week %s to %s",
		r.WeekStart.Format("Jan 2, 2006"), r.WeekEnd.Format("Jan 2, 2006"))))
	rule(w)

	total := len(r.Submitted) + len(r.Missing)
	fmt.Fprintf(w, "Submission status: %d/%d submitted\n\n", len(r.Submitted), total)

	if len(r.Missing) > 0 {
		fmt.Fprintln(w, warn(fmt.Sprintf("%d team member(s) still need to submit:", len(r.Missing))))
		for _, m := range r.Missing {
			fmt.Fprintf(w, "  %s %s %s\n", bad("✗"), m.Name, faint("<"+m.Email+">"))
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, good("All timesheets are in."))
		fmt.Fprintln(w)
	}

	for _, mr := range r.Submitted {
		fmt.Fprintf(w, "%s %s\n", keytext(mr.Member.Name), faint("<"+mr.Member.Email+">"))
		if mr.TotalSeconds == 0 {
			fmt.Fprintln(w, faint("    no time logged this week"))
			continue
		}
		fmt.Fprintf(w, "    total %s\n", tempo.FormatDuration(mr.TotalSeconds))
		for _, issue := range mr.Issues {
			account := issue.Account
			if issue.MissingAccount {
				account = bad("MISSING ACCOUNT CODE")
			}
			link := issue.IssueKey
			if r.BrowseURL != nil {
				link = r.BrowseURL(issue.IssueKey)
			}
			fmt.Fprintf(w, "    %s %s (%.1f%%) · %s\n", keytext(issue.IssueKey), tempo.FormatDuration(issue.Seconds), issue.PercentOfWeek, account)
			fmt.Fprintln(w, faint("        "+issue.Summary+" · "+link))
		}
	}

	if len(r.MissingAccounts) > 0 {
		rule(w)
		fmt.Fprintln(w, warn("Cards missing account codes:"))
		names := make([]string, 0, len(r.MissingAccounts))
		for name := range r.MissingAccounts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(r.MissingAccounts[name], ", "))
		}
		fmt.Fprintln(w, "Update the Account field in Jira for the cards above.")
	}
}
