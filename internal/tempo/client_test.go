package tempo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL:   server.URL,
		APIToken:  "test-token",
		RateLimit: 100,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEMPO_API_TOKEN")
}

func TestFindTeam(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"results":[{"id":7,"name":"Platform"},{"id":9,"name":"Delivery"}]}`)
	}))

	team, err := client.FindTeam(context.Background(), "Delivery")
	require.NoError(t, err)
	assert.Equal(t, 9, team.ID)

	_, err = client.FindTeam(context.Background(), "Nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTeamNotFound))
}

func TestGetTeamMemberIDs(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams/9/members", r.URL.Path)
		fmt.Fprint(w, `{"results":[
			{"member":{"accountId":"acc-1"}},
			{"member":{"accountId":"acc-2"}},
			{"member":{}}
		]}`)
	}))

	ids, err := client.GetTeamMemberIDs(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-1", "acc-2"}, ids)
}

func TestGetTimesheetStatus(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timesheet-approvals/user/acc-1", r.URL.Path)
		assert.Equal(t, "2026-06-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-06-07", r.URL.Query().Get("to"))
		fmt.Fprint(w, `{"status":{"key":"IN_REVIEW"}}`)
	}))

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	status, err := client.GetTimesheetStatus(context.Background(), "acc-1", from, from.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, StatusInReview, status)
}

func TestGetUserWorklogs(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/worklogs/user/acc-1", r.URL.Path)
		fmt.Fprint(w, `{"results":[
			{"issue":{"id":10001},"timeSpentSeconds":3600},
			{"issue":{"id":10002},"timeSpentSeconds":1800}
		]}`)
	}))

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	logs, err := client.GetUserWorklogs(context.Background(), "acc-1", from, from.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, Worklog{IssueID: "10001", TimeSpentSeconds: 3600}, logs[0])
	assert.Equal(t, Worklog{IssueID: "10002", TimeSpentSeconds: 1800}, logs[1])
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"results":[]}`)
	}))

	_, err := client.FindTeam(context.Background(), "any")
	require.Error(t, err) // empty results, team not found
	assert.True(t, errors.Is(err, ErrTeamNotFound))
	assert.Equal(t, 3, calls)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.GetTeamMemberIDs(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
