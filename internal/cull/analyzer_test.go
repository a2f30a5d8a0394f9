package cull

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refinekit/refine/internal/config"
	"github.com/refinekit/refine/internal/dor"
	"github.com/refinekit/refine/internal/jira"
)

type fakeSearcher struct {
	jql    string
	max    int
	issues []jira.Issue
	err    error
}

func (f *fakeSearcher) SearchIssues(_ context.Context, jql string, maxResults int) ([]jira.Issue, error) {
	f.jql = jql
	f.max = maxResults
	return f.issues, f.err
}

func testChecklist(t *testing.T) dor.Checklist {
	t.Helper()
	cl := dor.Checklist{Criteria: []dor.Criterion{
		{ID: "title", Name: "Title", Weight: 1, Check: dor.CheckPresence, Field: "summary"},
		{ID: "acceptance_criteria", Name: "Acceptance criteria", Weight: 1, Check: dor.CheckPresence, Field: "acceptance_criteria"},
	}}
	require.NoError(t, cl.Validate())
	return cl
}

func backlogIssue(key, summary string, created, updated time.Time) jira.Issue {
	fields := map[string]any{
		"summary":   summary,
		"issuetype": map[string]any{"name": "Story"},
		"status":    map[string]any{"name": "Open"},
		"created":   created.Format("2006-01-02T15:04:05.000-0700"),
		"updated":   updated.Format("2006-01-02T15:04:05.000-0700"),
	}
	return jira.NewIssue(key, fields, nil)
}

func testAnalyzer(client Searcher, checklist dor.Checklist, now time.Time) *Analyzer {
	a := NewAnalyzer(client, checklist, config.Default().Cull, "PROJ")
	a.now = func() time.Time { return now }
	return a
}

func TestRunBuildsCutoffJQL(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeSearcher{}
	a := testAnalyzer(client, testChecklist(t), now)

	_, _, err := a.Run(context.Background(), Thresholds{AgeDays: 180})
	require.NoError(t, err)

	assert.Equal(t, `project = PROJ AND resolution IS EMPTY AND created < "2025-12-03" ORDER BY created ASC`, client.jql)
	assert.Equal(t, 100, client.max)
}

func TestRunFiltersByInactivityAndRefinement(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(-1, 0, 0)

	stale := backlogIssue("PROJ-1", "Old and forgotten", old, now.AddDate(0, 0, -120))
	active := backlogIssue("PROJ-2", "Old but active", old, now.AddDate(0, 0, -3))

	// Old and inactive but fully refined, so not a candidate.
	refined := jira.NewIssue("PROJ-3", map[string]any{
		"summary":           "Old but ready",
		"issuetype":         map[string]any{"name": "Story"},
		"status":            map[string]any{"name": "Open"},
		"created":           old.Format("2006-01-02T15:04:05.000-0700"),
		"updated":           now.AddDate(0, 0, -120).Format("2006-01-02T15:04:05.000-0700"),
		"customfield_11874": "Given the backlog is groomed, when scored, then this passes.",
	}, map[string]string{"acceptance_criteria": "customfield_11874"})

	client := &fakeSearcher{issues: []jira.Issue{stale, active, refined}}
	a := testAnalyzer(client, testChecklist(t), now)

	candidates, summary, err := a.Run(context.Background(), Thresholds{
		AgeDays:        180,
		InactivityDays: 90,
		RefinementPct:  80,
	})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "PROJ-1", candidates[0].Key)
	assert.Equal(t, 50, candidates[0].RefinementPct)
	assert.Equal(t, "Unassigned", candidates[0].Assignee)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Unassigned)
}

func TestRunSortsMostStaleFirst(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	older := backlogIssue("PROJ-9", "ancient", now.AddDate(-3, 0, 0), now.AddDate(0, 0, -500))
	newer := backlogIssue("PROJ-4", "merely old", now.AddDate(0, -8, 0), now.AddDate(0, 0, -100))

	client := &fakeSearcher{issues: []jira.Issue{newer, older}}
	a := testAnalyzer(client, testChecklist(t), now)

	candidates, _, err := a.Run(context.Background(), Thresholds{
		AgeDays:        180,
		InactivityDays: 90,
		RefinementPct:  80,
	})
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "PROJ-9", candidates[0].Key)
	assert.Equal(t, "PROJ-4", candidates[1].Key)
	assert.GreaterOrEqual(t, candidates[0].StalenessScore, candidates[1].StalenessScore)
}

func TestRunBreaksTiesByKey(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	created := now.AddDate(-2, 0, 0)
	updated := now.AddDate(0, 0, -200)

	var issues []jira.Issue
	for _, key := range []string{"PROJ-30", "PROJ-12", "PROJ-25"} {
		issues = append(issues, backlogIssue(key, "identical twin", created, updated))
	}
	client := &fakeSearcher{issues: issues}
	a := testAnalyzer(client, testChecklist(t), now)

	candidates, _, err := a.Run(context.Background(), Thresholds{
		AgeDays:        180,
		InactivityDays: 90,
		RefinementPct:  80,
	})
	require.NoError(t, err)

	var keys []string
	for _, c := range candidates {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"PROJ-12", "PROJ-25", "PROJ-30"}, keys)
}

func TestRunZeroThresholdsFallBackToConfig(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeSearcher{}
	a := testAnalyzer(client, testChecklist(t), now)

	_, _, err := a.Run(context.Background(), Thresholds{})
	require.NoError(t, err)

	// Default age threshold is 180 days.
	cutoff := now.AddDate(0, 0, -config.Default().Cull.AgeThresholdDays).Format("2006-01-02")
	assert.Contains(t, client.jql, fmt.Sprintf("created < %q", cutoff))
}

func TestRunPropagatesSearchError(t *testing.T) {
	client := &fakeSearcher{err: fmt.Errorf("boom")}
	a := testAnalyzer(client, testChecklist(t), time.Now())

	_, _, err := a.Run(context.Background(), Thresholds{AgeDays: 180})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "fetch old issues"))
}
