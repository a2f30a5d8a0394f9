package jira

import (
	"strconv"
	"strings"
	"time"

	"github.com/refinekit/refine/internal/adf"
)

// Issue is a read-only snapshot of a Jira issue, built once at the API
// boundary from the loosely typed wire representation. Downstream code (the
// scorer, the reports) only ever sees typed accessors; shape surprises in the
// raw payload degrade to zero values here and nowhere else.
type Issue struct {
	Key      string
	Type     string
	Status   string
	Summary  string
	Priority string
	Assignee string
	Parent   string
	Sprint   string
	Labels   []string
	Created  time.Time
	Updated  time.Time
	Comments int
	Watchers int

	// Text holds plain-text content per logical field name, extracted from
	// strings or ADF documents at construction time.
	Text map[string]string
}

// NewIssue decodes a wire fields map into a typed snapshot. customFields maps
// logical names to customfield_NNNNN IDs; each configured custom field is
// text-extracted under its logical name.
func NewIssue(key string, fields map[string]any, customFields map[string]string) Issue {
	issue := Issue{
		Key:  key,
		Text: make(map[string]string, len(customFields)+2),
	}
	if fields == nil {
		return issue
	}

	issue.Summary, _ = fields["summary"].(string)
	issue.Type = nestedName(fields["issuetype"])
	issue.Status = nestedName(fields["status"])
	issue.Priority = nestedName(fields["priority"])
	issue.Created = parseJiraTime(fields["created"])
	issue.Updated = parseJiraTime(fields["updated"])

	if assignee, ok := fields["assignee"].(map[string]any); ok {
		issue.Assignee, _ = assignee["displayName"].(string)
	}
	if parent, ok := fields["parent"].(map[string]any); ok {
		issue.Parent, _ = parent["key"].(string)
	}
	if labels, ok := fields["labels"].([]any); ok {
		for _, l := range labels {
			if s, ok := l.(string); ok {
				issue.Labels = append(issue.Labels, s)
			}
		}
	}
	if comment, ok := fields["comment"].(map[string]any); ok {
		issue.Comments = intField(comment["total"])
	}
	if watches, ok := fields["watches"].(map[string]any); ok {
		issue.Watchers = intField(watches["watchCount"])
	}

	// Sprint fields arrive as a list of sprint objects; the first one is the
	// currently relevant assignment.
	if sprintID, ok := customFields["sprint"]; ok {
		if sprints, ok := fields[sprintID].([]any); ok && len(sprints) > 0 {
			if sprint, ok := sprints[0].(map[string]any); ok {
				issue.Sprint = nestedString(sprint, "name")
			}
		}
	}

	issue.Text["summary"] = issue.Summary
	issue.Text["description"] = adf.ExtractText(fields["description"])
	issue.Text["parent"] = issue.Parent
	for logical, fieldID := range customFields {
		if logical == "sprint" {
			continue
		}
		issue.Text[logical] = fieldToText(fields[fieldID])
	}
	return issue
}

// fieldToText flattens any custom field value to plain text: rich-text fields
// go through ADF extraction, select fields yield their option value, numbers
// are formatted, lists join their members. Anything else is empty.
func fieldToText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]any:
		if option, ok := val["value"].(string); ok {
			return option
		}
		return adf.ExtractText(val)
	case []any:
		var parts []string
		for _, item := range val {
			if s := fieldToText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// IssueType implements dor.Fields.
func (i Issue) IssueType() string { return i.Type }

// FieldText implements dor.Fields. Unknown fields return "".
func (i Issue) FieldText(name string) string { return i.Text[name] }

// AgeDays is the whole number of days since the issue was created.
func (i Issue) AgeDays(now time.Time) int {
	if i.Created.IsZero() {
		return 0
	}
	return int(now.Sub(i.Created).Hours() / 24)
}

// InactivityDays is the whole number of days since the last update.
func (i Issue) InactivityDays(now time.Time) int {
	if i.Updated.IsZero() {
		return 0
	}
	return int(now.Sub(i.Updated).Hours() / 24)
}

func nestedName(v any) string {
	if m, ok := v.(map[string]any); ok {
		return nestedString(m, "name")
	}
	return ""
}

func nestedString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

// parseJiraTime handles Jira's timestamp format (RFC 3339 with numeric zone
// and no colon). Unparseable values yield the zero time.
func parseJiraTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.000-0700",
		time.RFC3339,
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
