package tempo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/refinekit/refine/internal/jira"
)

// memberLookupConcurrency bounds parallel Jira user lookups.
const memberLookupConcurrency = 4

// Directory is the slice of the Jira client the reconciler needs.
type Directory interface {
	GetUser(ctx context.Context, accountID string) (jira.User, error)
	GetIssueAccount(ctx context.Context, idOrKey string) (jira.IssueAccount, error)
}

// Member is one Tempo team member resolved against Jira.
type Member struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// IssueTime is time logged against one issue by one member, with the
// issue's billing account code joined in.
type IssueTime struct {
	IssueKey       string  `json:"issue_key"`
	Summary        string  `json:"summary"`
	Account        string  `json:"account"`
	Seconds        int     `json:"seconds"`
	PercentOfWeek  float64 `json:"percent_of_week"`
	MissingAccount bool    `json:"missing_account"`
}

// MemberReport is the week's time breakdown for one submitted member.
type MemberReport struct {
	Member       Member      `json:"member"`
	TotalSeconds int         `json:"total_seconds"`
	Issues       []IssueTime `json:"issues"`
}

// Report is the reconciled week: who submitted, who did not, and where the
// submitted time went.
type Report struct {
	TeamName  string         `json:"team_name"`
	WeekStart time.Time      `json:"week_start"`
	WeekEnd   time.Time      `json:"week_end"`
	Submitted []MemberReport `json:"submitted"`
	Missing   []Member       `json:"missing"`

	// MissingAccounts maps member name to the issue keys they logged time
	// on that lack a billing account code.
	MissingAccounts map[string][]string `json:"missing_accounts,omitempty"`
}

// WeekWindow returns the Monday-to-Sunday span of the week the given number
// of weeks before now. weeksAgo 1 is last week; 0 is the current, possibly
// partial, week.
func WeekWindow(now time.Time, weeksAgo int) (time.Time, time.Time) {
	// time.Weekday counts Sunday as 0; shift so Monday is 0.
	offset := (int(now.Weekday()) + 6) % 7
	start := now.AddDate(0, 0, -(offset + 7*weeksAgo))
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	return start, start.AddDate(0, 0, 6)
}

// FormatDuration renders seconds as "3h 45m".
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%dh %dm", seconds/3600, seconds%3600/60)
}

// Reconciler joins Tempo timesheet data with Jira issue data.
type Reconciler struct {
	tempo    *Client
	jira     Directory
	teamName string
	logger   *slog.Logger
}

// NewReconciler builds a reconciler for the named Tempo team.
func NewReconciler(tempo *Client, dir Directory, teamName string) *Reconciler {
	return &Reconciler{
		tempo:    tempo,
		jira:     dir,
		teamName: teamName,
		logger:   slog.Default().With("component", "tempo"),
	}
}

// Run produces the timesheet report for the given week.
func (r *Reconciler) Run(ctx context.Context, weekStart, weekEnd time.Time) (*Report, error) {
	team, err := r.tempo.FindTeam(ctx, r.teamName)
	if err != nil {
		return nil, err
	}

	ids, err := r.tempo.GetTeamMemberIDs(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("tempo: team %q has no members", r.teamName)
	}

	members, err := r.resolveMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TeamName:        r.teamName,
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
		MissingAccounts: map[string][]string{},
	}

	for _, m := range members {
		status, err := r.tempo.GetTimesheetStatus(ctx, m.AccountID, weekStart, weekEnd)
		if err != nil {
			r.logger.Warn("could not check timesheet status", "member", m.Name, "error", err)
			continue
		}
		switch status {
		case StatusOpen:
			report.Missing = append(report.Missing, m)
		case StatusInReview, StatusApproved:
			mr, err := r.memberBreakdown(ctx, m, weekStart, weekEnd)
			if err != nil {
				return nil, err
			}
			report.Submitted = append(report.Submitted, mr)
			for _, issue := range mr.Issues {
				if issue.MissingAccount {
					report.MissingAccounts[m.Name] = append(report.MissingAccounts[m.Name], issue.IssueKey)
				}
			}
		default:
			r.logger.Warn("unexpected timesheet status", "member", m.Name, "status", status)
		}
	}

	if len(report.MissingAccounts) == 0 {
		report.MissingAccounts = nil
	}
	return report, nil
}

// resolveMembers looks up each account ID in Jira, in parallel. Members that
// cannot be resolved are skipped with a warning; the report should not die
// because one account left the company.
func (r *Reconciler) resolveMembers(ctx context.Context, ids []string) ([]Member, error) {
	members := make([]Member, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(memberLookupConcurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			user, err := r.jira.GetUser(ctx, id)
			if err != nil {
				r.logger.Warn("could not resolve team member", "account_id", id, "error", err)
				return nil
			}
			members[i] = Member{
				AccountID: id,
				Name:      user.DisplayName,
				Email:     user.EmailAddress,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := members[:0]
	for _, m := range members {
		if m.AccountID != "" {
			resolved = append(resolved, m)
		}
	}
	return resolved, nil
}

func (r *Reconciler) memberBreakdown(ctx context.Context, m Member, from, to time.Time) (MemberReport, error) {
	mr := MemberReport{Member: m}

	worklogs, err := r.tempo.GetUserWorklogs(ctx, m.AccountID, from, to)
	if err != nil {
		return MemberReport{}, err
	}

	byIssue := map[string]int{}
	for _, w := range worklogs {
		byIssue[w.IssueID] += w.TimeSpentSeconds
		mr.TotalSeconds += w.TimeSpentSeconds
	}
	if mr.TotalSeconds == 0 {
		return mr, nil
	}

	for issueID, seconds := range byIssue {
		it := IssueTime{
			Seconds:       seconds,
			PercentOfWeek: 100 * float64(seconds) / float64(mr.TotalSeconds),
		}
		details, err := r.jira.GetIssueAccount(ctx, issueID)
		if err != nil {
			r.logger.Warn("could not fetch issue details", "issue_id", issueID, "error", err)
			it.IssueKey = "UNKNOWN"
			it.Summary = "Unable to fetch"
			it.Account = "N/A"
		} else {
			it.IssueKey = details.Key
			it.Summary = details.Summary
			it.Account = details.Account
		}
		it.MissingAccount = it.Account == "" || it.Account == "N/A"
		mr.Issues = append(mr.Issues, it)
	}

	// Largest chunks of time first; ties by key for stable output.
	sort.SliceStable(mr.Issues, func(i, j int) bool {
		if mr.Issues[i].Seconds != mr.Issues[j].Seconds {
			return mr.Issues[i].Seconds > mr.Issues[j].Seconds
		}
		return mr.Issues[i].IssueKey < mr.Issues[j].IssueKey
	})
	return mr, nil
}
