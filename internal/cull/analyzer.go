package cull

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/refinekit/refine/internal/config"
	"github.com/refinekit/refine/internal/dor"
	"github.com/refinekit/refine/internal/jira"
)

// Searcher is the slice of the Jira client the analyzer needs.
type Searcher interface {
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]jira.Issue, error)
}

// Thresholds controls which issues are fetched and which count as
// candidates. Zero values fall back to configuration.
type Thresholds struct {
	AgeDays        int
	InactivityDays int
	RefinementPct  int
}

// Candidate is one stale backlog issue with the evidence behind its score.
type Candidate struct {
	Key            string `json:"key"`
	Summary        string `json:"summary"`
	IssueType      string `json:"issue_type"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	Assignee       string `json:"assignee"`
	AgeDays        int    `json:"age_days"`
	InactivityDays int    `json:"inactivity_days"`
	RefinementPct  int    `json:"refinement_pct"`
	StalenessScore int    `json:"staleness_score"`
	Comments       int    `json:"comments"`
	Watchers       int    `json:"watchers"`
	Created        string `json:"created"`
	Updated        string `json:"updated"`
}

// Summary aggregates a cull run for the report footer.
type Summary struct {
	Total        int `json:"total"`
	AvgAgeDays   int `json:"avg_age_days"`
	AvgStaleness int `json:"avg_staleness"`
	Unassigned   int `json:"unassigned"`
}

// Analyzer fetches old unresolved issues and scores their staleness.
type Analyzer struct {
	client     Searcher
	checklist  dor.Checklist
	cfg        config.CullConfig
	projectKey string
	now        func() time.Time
	logger     *slog.Logger
}

// NewAnalyzer builds an analyzer over the given client and checklist.
func NewAnalyzer(client Searcher, checklist dor.Checklist, cfg config.CullConfig, projectKey string) *Analyzer {
	return &Analyzer{
		client:     client,
		checklist:  checklist,
		cfg:        cfg,
		projectKey: projectKey,
		now:        time.Now,
		logger:     slog.Default().With("component", "cull"),
	}
}

// Run fetches issues older than the age threshold and returns cull
// candidates sorted by staleness, most stale first. Sorting breaks ties by
// key so output is reproducible.
func (a *Analyzer) Run(ctx context.Context, t Thresholds) ([]Candidate, Summary, error) {
	if t.AgeDays <= 0 {
		t.AgeDays = a.cfg.AgeThresholdDays
	}
	if t.InactivityDays <= 0 {
		t.InactivityDays = a.cfg.NoActivityDays
	}
	if t.RefinementPct <= 0 {
		t.RefinementPct = a.cfg.MinRefinementScore
	}

	now := a.now()
	cutoff := now.AddDate(0, 0, -t.AgeDays).Format("2006-01-02")
	jql := fmt.Sprintf(
		`project = %s AND resolution IS EMPTY AND created < "%s" ORDER BY created ASC`,
		a.projectKey, cutoff,
	)

	issues, err := a.client.SearchIssues(ctx, jql, 100)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("fetch old issues: %w", err)
	}
	a.logger.Debug("fetched old issues", "count", len(issues))

	var candidates []Candidate
	for _, issue := range issues {
		c := a.analyze(issue, now)
		if c.InactivityDays >= t.InactivityDays && c.RefinementPct < t.RefinementPct {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].StalenessScore != candidates[j].StalenessScore {
			return candidates[i].StalenessScore > candidates[j].StalenessScore
		}
		return candidates[i].Key < candidates[j].Key
	})

	return candidates, summarize(candidates), nil
}

func (a *Analyzer) analyze(issue jira.Issue, now time.Time) Candidate {
	score := dor.Score(issue, a.checklist)

	c := Candidate{
		Key:            issue.Key,
		Summary:        issue.Summary,
		IssueType:      issue.Type,
		Status:         issue.Status,
		Priority:       issue.Priority,
		Assignee:       issue.Assignee,
		AgeDays:        issue.AgeDays(now),
		InactivityDays: issue.InactivityDays(now),
		RefinementPct:  score.Percentage,
		Comments:       issue.Comments,
		Watchers:       issue.Watchers,
	}
	if c.Assignee == "" {
		c.Assignee = "Unassigned"
	}
	if !issue.Created.IsZero() {
		c.Created = issue.Created.Format("2006-01-02")
	}
	if !issue.Updated.IsZero() {
		c.Updated = issue.Updated.Format("2006-01-02")
	}
	c.StalenessScore = Staleness(c.AgeDays, c.InactivityDays, c.RefinementPct, a.cfg.Staleness)
	return c
}

func summarize(candidates []Candidate) Summary {
	s := Summary{Total: len(candidates)}
	if s.Total == 0 {
		return s
	}
	var ageSum, staleSum int
	for _, c := range candidates {
		ageSum += c.AgeDays
		staleSum += c.StalenessScore
		if c.Assignee == "Unassigned" {
			s.Unassigned++
		}
	}
	s.AvgAgeDays = ageSum / s.Total
	s.AvgStaleness = staleSum / s.Total
	return s
}
