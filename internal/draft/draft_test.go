package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refinekit/refine/internal/adf"
)

func TestStorySyntax(t *testing.T) {
	d := &Draft{
		IssueType:  "Story",
		UserType:   "billing admin",
		Capability: "to export invoices as CSV",
		Value:      "I can reconcile them in the ledger",
	}
	want := "As a billing admin\nI want to export invoices as CSV\nSo that I can reconcile them in the ledger"
	assert.Equal(t, want, d.StorySyntax())
}

func TestStorySyntaxOnlyForStories(t *testing.T) {
	d := &Draft{IssueType: "Task", Capability: "something"}
	assert.Empty(t, d.StorySyntax())

	d = &Draft{IssueType: "story", Capability: "something", Value: "reasons"}
	assert.Contains(t, d.StorySyntax(), "As a user")
}

func TestAcceptanceCriteriaGherkin(t *testing.T) {
	d := &Draft{
		Feature: "Invoice export",
		Scenarios: []Scenario{
			{Name: "Happy path", Given: "an invoice exists", When: "I export it", Then: "a CSV downloads"},
			{Name: "Empty period", Given: "no invoices exist", When: "I export", Then: "I see an empty-state message"},
		},
	}
	got := d.AcceptanceCriteria()

	assert.True(t, strings.HasPrefix(got, "Feature: Invoice export\n"))
	assert.Contains(t, got, "Scenario: Happy path\n  Given an invoice exists\n  When I export it\n  Then a CSV downloads")
	assert.Contains(t, got, "Scenario: Empty period")
	assert.False(t, strings.HasSuffix(got, "\n"))
}

func TestAcceptanceCriteriaEmptyWithoutScenarios(t *testing.T) {
	d := &Draft{Feature: "Orphan feature"}
	assert.Empty(t, d.AcceptanceCriteria())
}

func TestFullDescriptionSections(t *testing.T) {
	d := &Draft{
		Description:  "Exports the invoice table.",
		Environments: []string{"Staging", "Production"},
		Security:     "CSV injection must be escaped.",
	}
	got := d.FullDescription()

	assert.Contains(t, got, "## Environments\nThis will be deployed to: Staging, Production")
	assert.Contains(t, got, "## Security Considerations\nCSV injection must be escaped.")
	// Skipped sections still render with a placeholder.
	assert.Contains(t, got, "## Cost Implications\n"+sectionPlaceholder)
	assert.Contains(t, got, "## Telemetry & Monitoring\n"+sectionPlaceholder)
	assert.Contains(t, got, "## Documentation\n"+sectionPlaceholder)
	assert.Contains(t, got, "## What to Demo\n"+sectionPlaceholder)
}

func TestFullDescriptionNoEnvironments(t *testing.T) {
	d := &Draft{Description: "A thing."}
	assert.Contains(t, d.FullDescription(), "Environments to be determined")
}

func TestBuildFields(t *testing.T) {
	d := &Draft{
		IssueType:  "Story",
		Summary:    "Export invoices as CSV",
		EpicKey:    "PROJ-100",
		UserType:   "billing admin",
		Capability: "to export invoices",
		Value:      "reconciliation is possible",
		Feature:    "Invoice export",
		Scenarios: []Scenario{
			{Name: "Happy path", Given: "an invoice", When: "exported", Then: "CSV appears"},
		},
		Description:  "Exports the invoice table.",
		Environments: []string{"Production"},
	}

	issueTypes := map[string]string{"story": "10001", "task": "10002"}
	customFields := map[string]string{
		"story_syntax":        "customfield_12015",
		"acceptance_criteria": "customfield_11874",
	}

	fields, err := d.BuildFields("PROJ", issueTypes, customFields)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"key": "PROJ"}, fields["project"])
	assert.Equal(t, map[string]any{"id": "10001"}, fields["issuetype"])
	assert.Equal(t, "Export invoices as CSV", fields["summary"])
	assert.Equal(t, map[string]any{"key": "PROJ-100"}, fields["parent"])

	syntax, ok := fields["customfield_12015"].(adf.Doc)
	require.True(t, ok)
	assert.Contains(t, syntax.PlainText(), "As a billing admin")

	ac, ok := fields["customfield_11874"].(adf.Doc)
	require.True(t, ok)
	assert.Contains(t, ac.PlainText(), "Scenario: Happy path")

	desc, ok := fields["description"].(adf.Doc)
	require.True(t, ok)
	assert.Contains(t, desc.PlainText(), "Exports the invoice table.")
}

func TestBuildFieldsValidation(t *testing.T) {
	issueTypes := map[string]string{"story": "10001"}

	_, err := (&Draft{IssueType: "Story"}).BuildFields("PROJ", issueTypes, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")

	_, err = (&Draft{IssueType: "Epic", Summary: "x"}).BuildFields("PROJ", issueTypes, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown issue type")
}

func TestBuildFieldsSkipsUnmappedCustomFields(t *testing.T) {
	d := &Draft{
		IssueType:  "Story",
		Summary:    "No custom field IDs configured",
		Capability: "something",
		Value:      "value",
	}
	fields, err := d.BuildFields("PROJ", map[string]string{"story": "10001"}, map[string]string{})
	require.NoError(t, err)

	for key := range fields {
		assert.False(t, strings.HasPrefix(key, "customfield_"), "unexpected custom field %s", key)
	}
}
