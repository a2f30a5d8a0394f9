package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{
		BaseURL:      srv.URL,
		SiteURL:      "https://example.atlassian.net",
		Email:        "po@example.com",
		APIToken:     "token",
		ProjectKey:   "DD",
		CustomFields: testCustomFields,
		RateLimit:    100,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{CloudID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")

	_, err = NewClient(Options{Email: "a@b.c", APIToken: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud_id")
}

func TestGetIssue(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issue/DD-123", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "po@example.com", user)
		assert.Contains(t, r.URL.Query().Get("fields"), "summary")

		var fields map[string]any
		require.NoError(t, json.Unmarshal([]byte(issueFixture), &fields))
		json.NewEncoder(w).Encode(map[string]any{"key": "DD-123", "fields": fields})
	}))

	issue, err := client.GetIssue(context.Background(), "DD-123")
	require.NoError(t, err)
	assert.Equal(t, "DD-123", issue.Key)
	assert.Equal(t, "Story", issue.Type)
}

func TestSearchIssues(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/jql", r.URL.Path)
		assert.Equal(t, "project = DD", r.URL.Query().Get("jql"))
		assert.Equal(t, "25", r.URL.Query().Get("maxResults"))

		json.NewEncoder(w).Encode(map[string]any{
			"issues": []map[string]any{
				{"key": "DD-1", "fields": map[string]any{"summary": "First"}},
				{"key": "DD-2", "fields": map[string]any{"summary": "Second"}},
			},
		})
	}))

	issues, err := client.SearchIssues(context.Background(), "project = DD", 25)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "DD-1", issues[0].Key)
	assert.Equal(t, "Second", issues[1].Summary)
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"key": "DD-1", "fields": map[string]any{}})
	}))

	_, err := client.GetIssue(context.Background(), "DD-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetIssue(context.Background(), "DD-404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoUnauthorized(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GetIssue(context.Background(), "DD-1")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestAddCommentSendsADF(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/issue/DD-5/comment", r.URL.Path)

		var payload struct {
			Body struct {
				Type    string `json:"type"`
				Version int    `json:"version"`
			} `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "doc", payload.Body.Type)
		assert.Equal(t, 1, payload.Body.Version)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("{}"))
	}))

	require.NoError(t, client.AddComment(context.Background(), "DD-5", "DoR score: 83%"))
}

func TestGetIssueAccount(t *testing.T) {
	tests := []struct {
		name     string
		field    any
		expected string
	}{
		{"Select field", map[string]any{"value": "CDP Feature Development"}, "CDP Feature Development"},
		{"Plain string", "Maintenance", "Maintenance"},
		{"Missing", nil, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fields := map[string]any{"summary": "Billing work"}
				if tt.field != nil {
					fields["customfield_11850"] = tt.field
				}
				json.NewEncoder(w).Encode(map[string]any{"key": "DD-7", "fields": fields})
			}))

			ia, err := client.GetIssueAccount(context.Background(), "10001")
			require.NoError(t, err)
			assert.Equal(t, "DD-7", ia.Key)
			assert.Equal(t, "Billing work", ia.Summary)
			assert.Equal(t, tt.expected, ia.Account)
		})
	}
}

func TestBrowseURL(t *testing.T) {
	client := testClient(t, http.NewServeMux())
	assert.Equal(t, "https://example.atlassian.net/browse/DD-9", client.BrowseURL("DD-9"))
}
