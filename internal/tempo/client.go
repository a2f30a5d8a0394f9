// Package tempo is a client for the Tempo Timesheets v4 REST API plus the
// reconciliation that joins Tempo worklogs with Jira issue data.
package tempo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// ErrTeamNotFound is returned when the configured team name matches no
// Tempo team.
var ErrTeamNotFound = errors.New("tempo: team not found")

// Timesheet approval states as the Tempo API reports them.
const (
	StatusOpen     = "OPEN"
	StatusInReview = "IN_REVIEW"
	StatusApproved = "APPROVED"
)

// Options configures a Client.
type Options struct {
	// BaseURL overrides the production API endpoint, mainly for tests.
	BaseURL  string
	APIToken string

	// RateLimit is requests per second against the API. Zero means 5.
	RateLimit int
}

// Client wraps the Tempo REST API with rate limiting and retry.
type Client struct {
	base    string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient validates the token and builds a client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIToken == "" {
		return nil, fmt.Errorf("tempo: missing API token (set TEMPO_API_TOKEN)")
	}
	base := opts.BaseURL
	if base == "" {
		base = "https://api.tempo.io/4"
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 5
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		token:   opts.APIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		logger:  slog.Default().With("component", "tempo"),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.base + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err // network errors are retryable
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Warn("retrying tempo request", "status", resp.StatusCode, "path", path)
			return fmt.Errorf("tempo: HTTP %d on GET %s", resp.StatusCode, path)
		case resp.StatusCode >= 400:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return backoff.Permanent(fmt.Errorf("tempo: HTTP %d on GET %s: %s",
				resp.StatusCode, path, strings.TrimSpace(string(msg))))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

// Team is a Tempo team.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FindTeam resolves a team by exact name.
func (c *Client) FindTeam(ctx context.Context, name string) (Team, error) {
	var out struct {
		Results []Team `json:"results"`
	}
	if err := c.get(ctx, "teams", nil, &out); err != nil {
		return Team{}, fmt.Errorf("list teams: %w", err)
	}
	for _, t := range out.Results {
		if t.Name == name {
			return t, nil
		}
	}
	return Team{}, fmt.Errorf("%w: %q", ErrTeamNotFound, name)
}

// GetTeamMemberIDs returns the Jira account IDs of a team's members.
func (c *Client) GetTeamMemberIDs(ctx context.Context, teamID int) ([]string, error) {
	var out struct {
		Results []struct {
			Member struct {
				AccountID string `json:"accountId"`
			} `json:"member"`
		} `json:"results"`
	}
	if err := c.get(ctx, fmt.Sprintf("teams/%d/members", teamID), nil, &out); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	ids := make([]string, 0, len(out.Results))
	for _, r := range out.Results {
		if r.Member.AccountID != "" {
			ids = append(ids, r.Member.AccountID)
		}
	}
	return ids, nil
}

// GetTimesheetStatus returns the approval status key (OPEN, IN_REVIEW,
// APPROVED) for a user's timesheet over the given period.
func (c *Client) GetTimesheetStatus(ctx context.Context, accountID string, from, to time.Time) (string, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	var out struct {
		Status struct {
			Key string `json:"key"`
		} `json:"status"`
	}
	if err := c.get(ctx, "timesheet-approvals/user/"+accountID, params, &out); err != nil {
		return "", fmt.Errorf("timesheet status for %s: %w", accountID, err)
	}
	if out.Status.Key == "" {
		return "UNKNOWN", nil
	}
	return out.Status.Key, nil
}

// Worklog is one logged block of time against a Jira issue.
type Worklog struct {
	IssueID          string
	TimeSpentSeconds int
}

// GetUserWorklogs returns a user's worklogs over the given period.
func (c *Client) GetUserWorklogs(ctx context.Context, accountID string, from, to time.Time) ([]Worklog, error) {
	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	var out struct {
		Results []struct {
			Issue struct {
				ID json.Number `json:"id"`
			} `json:"issue"`
			TimeSpentSeconds int `json:"timeSpentSeconds"`
		} `json:"results"`
	}
	if err := c.get(ctx, "worklogs/user/"+accountID, params, &out); err != nil {
		return nil, fmt.Errorf("worklogs for %s: %w", accountID, err)
	}

	logs := make([]Worklog, 0, len(out.Results))
	for _, r := range out.Results {
		logs = append(logs, Worklog{
			IssueID:          r.Issue.ID.String(),
			TimeSpentSeconds: r.TimeSpentSeconds,
		})
	}
	return logs, nil
}
