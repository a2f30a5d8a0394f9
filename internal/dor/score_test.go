package dor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIssue implements Fields from a plain map for tests.
type fakeIssue struct {
	issueType string
	fields    map[string]string
}

func (f fakeIssue) IssueType() string { return f.issueType }

func (f fakeIssue) FieldText(name string) string { return f.fields[name] }

func twoItemChecklist() Checklist {
	return Checklist{Criteria: []Criterion{
		{ID: "title", Name: "Title completed", Weight: 1, Check: CheckPresence, Field: "summary"},
		{ID: "story_syntax", Name: "Story syntax completed", Weight: 2, Check: CheckPresence,
			Field: "story_syntax", AppliesTo: []string{"Story"}},
	}}
}

func fullChecklist() Checklist {
	return Checklist{Criteria: []Criterion{
		{ID: "title", Name: "Title completed", Weight: 1, Check: CheckPresence, Field: "summary"},
		{ID: "story_syntax", Name: "Story syntax completed", Weight: 2, Check: CheckPresence,
			Field: "story_syntax", AppliesTo: []string{"Story"}},
		{ID: "acceptance_criteria", Name: "Acceptance criteria in BDD/Gherkin syntax", Weight: 2,
			Check: CheckPresence, Field: "acceptance_criteria"},
		{ID: "security", Name: "Security posture defined", Weight: 1, Check: CheckKeyword,
			Field: "description", Keywords: []string{"security", "auth", "encrypt", "risk"}},
	}}
}

func TestScoreTaskSkipsStoryCriteria(t *testing.T) {
	// Task type: story_syntax is inapplicable and must be excluded from the
	// denominator, not merely marked failed.
	issue := fakeIssue{issueType: "Task", fields: map[string]string{
		"summary":      "Fix login bug",
		"story_syntax": "",
	}}

	res := Score(issue, twoItemChecklist())

	assert.Equal(t, 1.0, res.Possible)
	assert.Equal(t, 1.0, res.Earned)
	assert.Equal(t, 100, res.Percentage)
	assert.Equal(t, []string{"title"}, res.Satisfied)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Recommendations)
}

func TestScoreStoryWithTemplateText(t *testing.T) {
	// Placeholder tokens must not count as satisfying.
	issue := fakeIssue{issueType: "Story", fields: map[string]string{
		"summary":      "",
		"story_syntax": "As a [USER] I want [X]",
	}}

	res := Score(issue, twoItemChecklist())

	assert.Equal(t, 3.0, res.Possible)
	assert.Equal(t, 0.0, res.Earned)
	assert.Equal(t, 0, res.Percentage)
	assert.Equal(t, []string{"title", "story_syntax"}, res.Missing)
	assert.Len(t, res.Recommendations, 2)
}

func TestScoreKeywordCheck(t *testing.T) {
	longDesc := "This change touches the login flow. Security review done: " +
		"auth tokens rotate hourly and sessions are revoked on logout."

	tests := []struct {
		name        string
		description string
		passed      bool
	}{
		{"Keyword present in long text", longDesc, true},
		{"Keyword present but text too short", "security", false},
		{"No keyword", strings.Repeat("nothing relevant here. ", 5), false},
		{"Empty description", "", false},
	}

	cl := Checklist{Criteria: []Criterion{
		{ID: "security", Name: "Security posture defined", Weight: 1, Check: CheckKeyword,
			Field: "description", Keywords: []string{"security", "auth"}},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := fakeIssue{issueType: "Story", fields: map[string]string{"description": tt.description}}
			res := Score(issue, cl)
			if tt.passed {
				assert.Equal(t, []string{"security"}, res.Satisfied)
			} else {
				assert.Equal(t, []string{"security"}, res.Missing)
			}
		})
	}
}

func TestScoreKeywordFoundButShortDetail(t *testing.T) {
	cl := Checklist{Criteria: []Criterion{
		{ID: "security", Name: "Security posture defined", Weight: 1, Check: CheckKeyword,
			Field: "description", Keywords: []string{"security", "auth"}},
	}}

	issue := fakeIssue{issueType: "Story", fields: map[string]string{"description": "security"}}
	res := Score(issue, cl)

	require.Len(t, res.Outcomes, 1)
	assert.False(t, res.Outcomes[0].Passed)
	assert.Contains(t, res.Outcomes[0].Detail, "too short")
	assert.NotContains(t, res.Outcomes[0].Detail, "not mentioned")

	// A field without any keyword still reports what was expected.
	issue.fields["description"] = strings.Repeat("nothing relevant here. ", 5)
	res = Score(issue, cl)
	require.Len(t, res.Outcomes, 1)
	assert.Contains(t, res.Outcomes[0].Detail, "not mentioned")
}

func TestScoreNoApplicableCriteria(t *testing.T) {
	cl := Checklist{Criteria: []Criterion{
		{ID: "story_syntax", Name: "Story syntax", Weight: 2, Check: CheckPresence,
			Field: "story_syntax", AppliesTo: []string{"Story"}},
	}}
	issue := fakeIssue{issueType: "Bug", fields: map[string]string{}}

	res := Score(issue, cl)

	assert.Equal(t, 0.0, res.Possible)
	assert.Equal(t, 0, res.Percentage)
	assert.Empty(t, res.Satisfied)
	assert.Empty(t, res.Missing)
}

func TestScoreAccounting(t *testing.T) {
	// earned + sum(weights of missing) == possible, for a mixed outcome.
	issue := fakeIssue{issueType: "Story", fields: map[string]string{
		"summary":             "Harden session handling",
		"story_syntax":        "As a customer I want persistent sessions So that I stay logged in",
		"acceptance_criteria": "",
		"description":         "short",
	}}
	cl := fullChecklist()

	res := Score(issue, cl)

	var missingWeight float64
	for _, id := range res.Missing {
		for _, c := range cl.Criteria {
			if c.ID == id {
				missingWeight += c.Weight
			}
		}
	}
	assert.Equal(t, res.Possible, res.Earned+missingWeight)
	assert.GreaterOrEqual(t, res.Percentage, 0)
	assert.LessOrEqual(t, res.Percentage, 100)
	assert.Len(t, res.Recommendations, len(res.Missing))
}

func TestScoreDeterministic(t *testing.T) {
	issue := fakeIssue{issueType: "Story", fields: map[string]string{
		"summary":     "Ship the thing",
		"description": "todo",
	}}
	cl := fullChecklist()

	first := Score(issue, cl)
	second := Score(issue, cl)

	assert.Equal(t, first, second)
}

func TestChecklistValidate(t *testing.T) {
	tests := []struct {
		name    string
		cl      Checklist
		wantErr string
	}{
		{"Empty checklist", Checklist{}, "no criteria"},
		{"Missing id", Checklist{Criteria: []Criterion{
			{Name: "x", Weight: 1, Check: CheckPresence, Field: "summary"},
		}}, "missing id"},
		{"Duplicate id", Checklist{Criteria: []Criterion{
			{ID: "a", Weight: 1, Check: CheckPresence, Field: "summary"},
			{ID: "a", Weight: 1, Check: CheckPresence, Field: "summary"},
		}}, "duplicate id"},
		{"Zero weight", Checklist{Criteria: []Criterion{
			{ID: "a", Weight: 0, Check: CheckPresence, Field: "summary"},
		}}, "weight must be positive"},
		{"Keyword check without keywords", Checklist{Criteria: []Criterion{
			{ID: "a", Weight: 1, Check: CheckKeyword, Field: "description"},
		}}, "requires keywords"},
		{"Unknown check kind", Checklist{Criteria: []Criterion{
			{ID: "a", Weight: 1, Check: "regex", Field: "summary"},
		}}, "unknown check kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cl.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	require.NoError(t, fullChecklist().Validate())
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		percentage int
		expected   Level
	}{
		{100, LevelReady},
		{90, LevelReady},
		{89, LevelNearly},
		{70, LevelNearly},
		{69, LevelPartially},
		{50, LevelPartially},
		{49, LevelNotReady},
		{0, LevelNotReady},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.percentage); got != tt.expected {
			t.Errorf("LevelFor(%d) = %v, want %v", tt.percentage, got, tt.expected)
		}
	}
}
