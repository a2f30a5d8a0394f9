// Package prep prepares a refinement session: it pulls the top of the
// backlog in board order, scores each issue against the Definition of
// Ready, and reports what is missing before the team meets.
package prep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/refinekit/refine/internal/config"
	"github.com/refinekit/refine/internal/dor"
	"github.com/refinekit/refine/internal/jira"
)

// Searcher is the slice of the Jira client the preparer needs.
type Searcher interface {
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]jira.Issue, error)
}

// Item is one backlog issue with its readiness evaluation. Items keep the
// backlog's board order; Position is 1-based.
type Item struct {
	Position  int      `json:"position"`
	Key       string   `json:"key"`
	Summary   string   `json:"summary"`
	IssueType string   `json:"issue_type"`
	Status    string   `json:"status"`
	Assignee  string   `json:"assignee"`
	Sprint    string   `json:"sprint,omitempty"`
	Score     int      `json:"score"`
	Level     string   `json:"level"`
	Missing   []string `json:"missing,omitempty"`
}

// Summary aggregates one prep run.
type Summary struct {
	Total    int `json:"total"`
	Ready    int `json:"ready"`
	AvgScore int `json:"avg_score"`
}

// Preparer fetches and scores the top of the backlog.
type Preparer struct {
	client      Searcher
	checklist   dor.Checklist
	cfg         config.PrepConfig
	projectName string
	notReady    string
	logger      *slog.Logger
}

// NewPreparer builds a preparer over the given client and checklist. The
// project name and not-ready status parameterize the backlog query.
func NewPreparer(client Searcher, checklist dor.Checklist, cfg config.PrepConfig, projectName, notReady string) *Preparer {
	return &Preparer{
		client:      client,
		checklist:   checklist,
		cfg:         cfg,
		projectName: projectName,
		notReady:    notReady,
		logger:      slog.Default().With("component", "prep"),
	}
}

// Run fetches the top unrefined backlog issues and scores each one. The
// returned items preserve the backlog's board order so the report reads
// top-down the way the team will refine. A non-positive limit falls back to
// the configured top-items count.
func (p *Preparer) Run(ctx context.Context, limit int) ([]Item, Summary, error) {
	if limit <= 0 {
		limit = p.cfg.BacklogTopItems
	}

	jql := fmt.Sprintf(
		`project = "%s" AND status = "%s" AND type != Sub-task ORDER BY Sprint ASC, RANK`,
		p.projectName, p.notReady,
	)

	start := time.Now()
	issues, err := p.client.SearchIssues(ctx, jql, limit)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("fetch backlog: %w", err)
	}
	p.logger.Debug("fetched backlog", "count", len(issues), "elapsed", time.Since(start))

	items := make([]Item, 0, len(issues))
	for i, issue := range issues {
		result := dor.Score(issue, p.checklist)
		item := Item{
			Position:  i + 1,
			Key:       issue.Key,
			Summary:   issue.Summary,
			IssueType: issue.Type,
			Status:    issue.Status,
			Assignee:  issue.Assignee,
			Sprint:    issue.Sprint,
			Score:     result.Percentage,
			Level:     string(result.Level()),
			Missing:   result.Missing,
		}
		if item.Assignee == "" {
			item.Assignee = "Unassigned"
		}
		items = append(items, item)
	}

	return items, p.summarize(items), nil
}

func (p *Preparer) summarize(items []Item) Summary {
	s := Summary{Total: len(items)}
	if s.Total == 0 {
		return s
	}
	var sum int
	for _, item := range items {
		sum += item.Score
		if item.Score >= p.cfg.MinReadinessScore {
			s.Ready++
		}
	}
	s.AvgScore = sum / s.Total
	return s
}
