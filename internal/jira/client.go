// Package jira is a thin client for the Jira Cloud REST v3 API, covering the
// handful of operations the backlog tools need.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/refinekit/refine/internal/adf"
)

// Sentinel errors callers branch on.
var (
	ErrNotFound     = errors.New("jira: not found")
	ErrUnauthorized = errors.New("jira: unauthorized")
)

// Options configures a Client.
type Options struct {
	// CloudID selects the site behind api.atlassian.com. BaseURL overrides
	// the derived URL, mainly for tests.
	CloudID string
	BaseURL string

	// SiteURL is the browsable Jira site, e.g. https://example.atlassian.net.
	SiteURL string

	Email    string
	APIToken string

	ProjectKey string

	// CustomFields maps logical field names (story_syntax, account_code, ...)
	// to Jira custom field IDs (customfield_NNNNN).
	CustomFields map[string]string

	// RateLimit is requests per second against the API. Zero means 5.
	RateLimit int
}

// Client wraps the Jira REST API with rate limiting and retry.
type Client struct {
	base         string
	siteURL      string
	email        string
	token        string
	projectKey   string
	customFields map[string]string
	http         *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient validates credentials and builds a client. Missing credentials
// are a configuration error and fail immediately.
func NewClient(opts Options) (*Client, error) {
	if opts.Email == "" || opts.APIToken == "" {
		return nil, fmt.Errorf("jira: missing credentials (set JIRA_EMAIL and JIRA_API_TOKEN)")
	}
	base := opts.BaseURL
	if base == "" {
		if opts.CloudID == "" {
			return nil, fmt.Errorf("jira: missing cloud_id in project configuration")
		}
		base = fmt.Sprintf("https://api.atlassian.com/ex/jira/%s/rest/api/3", opts.CloudID)
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 5
	}
	return &Client{
		base:         strings.TrimRight(base, "/"),
		siteURL:      strings.TrimRight(opts.SiteURL, "/"),
		email:        opts.Email,
		token:        opts.APIToken,
		projectKey:   opts.ProjectKey,
		customFields: opts.CustomFields,
		http:         &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(limit), 1),
		logger:       slog.Default().With("component", "jira"),
	}, nil
}

// ProjectKey returns the configured project key.
func (c *Client) ProjectKey() string { return c.projectKey }

// BrowseURL returns the human-facing URL for an issue key.
func (c *Client) BrowseURL(key string) string {
	if c.siteURL == "" {
		return key
	}
	return c.siteURL + "/browse/" + key
}

// do performs one authenticated request, retrying 429s and 5xx responses
// with exponential backoff. Other HTTP errors are permanent.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

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

		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.SetBasicAuth(c.email, c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err // network errors are retryable
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s %s", ErrNotFound, method, path))
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Warn("retrying jira request", "status", resp.StatusCode, "path", path)
			return fmt.Errorf("jira: HTTP %d on %s %s", resp.StatusCode, method, path)
		case resp.StatusCode >= 400:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return backoff.Permanent(fmt.Errorf("jira: HTTP %d on %s %s: %s",
				resp.StatusCode, method, path, strings.TrimSpace(string(msg))))
		}

		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

// GetIssue fetches a single issue with the default field set.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	params := url.Values{}
	params.Set("fields", strings.Join(c.defaultFields(), ","))

	var raw struct {
		Key    string         `json:"key"`
		Fields map[string]any `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "issue/"+key, params, nil, &raw); err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	issue := NewIssue(raw.Key, raw.Fields, c.customFields)
	return &issue, nil
}

// SearchIssues runs a JQL query via the search/jql endpoint and returns the
// decoded issues with the default field set.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("fields", strings.Join(c.defaultFields(), ","))

	var raw struct {
		Issues []struct {
			Key    string         `json:"key"`
			Fields map[string]any `json:"fields"`
		} `json:"issues"`
	}
	if err := c.do(ctx, http.MethodGet, "search/jql", params, nil, &raw); err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	issues := make([]Issue, 0, len(raw.Issues))
	for _, ri := range raw.Issues {
		issues = append(issues, NewIssue(ri.Key, ri.Fields, c.customFields))
	}
	return issues, nil
}

// CreateIssue posts a new issue and returns its key.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	payload := map[string]any{"fields": fields}
	if err := c.do(ctx, http.MethodPost, "issue", nil, payload, &resp); err != nil {
		return "", fmt.Errorf("create issue: %w", err)
	}
	return resp.Key, nil
}

// UpdateIssue replaces the given fields on an existing issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	payload := map[string]any{"fields": fields}
	if err := c.do(ctx, http.MethodPut, "issue/"+key, nil, payload, nil); err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// Transition is one available workflow transition for an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		Name string `json:"name"`
	} `json:"to"`
}

// GetTransitions lists the transitions currently available for an issue.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	var raw struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := c.do(ctx, http.MethodGet, "issue/"+key+"/transitions", nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("get transitions for %s: %w", key, err)
	}
	return raw.Transitions, nil
}

// TransitionIssue moves an issue through the named transition ID.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	payload := map[string]any{"transition": map[string]string{"id": transitionID}}
	if err := c.do(ctx, http.MethodPost, "issue/"+key+"/transitions", nil, payload, nil); err != nil {
		return fmt.Errorf("transition issue %s: %w", key, err)
	}
	return nil
}

// AddComment appends a plain-text comment, encoded as an ADF document.
func (c *Client) AddComment(ctx context.Context, key, text string) error {
	payload := map[string]any{"body": adf.FromText(text)}
	if err := c.do(ctx, http.MethodPost, "issue/"+key+"/comment", nil, payload, nil); err != nil {
		return fmt.Errorf("add comment to %s: %w", key, err)
	}
	return nil
}

// User is the subset of Jira user data the tools need.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// GetUser resolves a user by account ID.
func (c *Client) GetUser(ctx context.Context, accountID string) (User, error) {
	params := url.Values{}
	params.Set("accountId", accountID)
	var user User
	if err := c.do(ctx, http.MethodGet, "user", params, nil, &user); err != nil {
		return User{}, fmt.Errorf("get user %s: %w", accountID, err)
	}
	return user, nil
}

// IssueAccount is the key/summary/account-code triple the timesheet report
// joins against worklogs.
type IssueAccount struct {
	Key     string
	Summary string
	Account string
}

// GetIssueAccount fetches an issue by ID or key with just enough fields to
// report its billing account code. A missing account code is reported as
// "N/A", not an error.
func (c *Client) GetIssueAccount(ctx context.Context, idOrKey string) (IssueAccount, error) {
	accountField := c.customFields["account_code"]
	fields := []string{"summary"}
	if accountField != "" {
		fields = append(fields, accountField)
	}
	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))

	var raw struct {
		Key    string         `json:"key"`
		Fields map[string]any `json:"fields"`
	}
	if err := c.do(ctx, http.MethodGet, "issue/"+idOrKey, params, nil, &raw); err != nil {
		return IssueAccount{}, fmt.Errorf("get issue account %s: %w", idOrKey, err)
	}

	ia := IssueAccount{Key: raw.Key, Account: "N/A"}
	if s, ok := raw.Fields["summary"].(string); ok {
		ia.Summary = s
	}
	if accountField != "" {
		switch v := raw.Fields[accountField].(type) {
		case map[string]any:
			if val, ok := v["value"].(string); ok && val != "" {
				ia.Account = val
			}
		case string:
			if v != "" {
				ia.Account = v
			}
		}
	}
	return ia, nil
}

// Project is basic project metadata, used by the status command as a
// connectivity check.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// GetProject fetches project metadata.
func (c *Client) GetProject(ctx context.Context, key string) (Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodGet, "project/"+key, nil, nil, &p); err != nil {
		return Project{}, fmt.Errorf("get project %s: %w", key, err)
	}
	return p, nil
}

// defaultFields is the field set every fetch requests: everything the scorer
// and the reports read, plus the configured custom fields.
func (c *Client) defaultFields() []string {
	fields := []string{
		"summary", "status", "issuetype", "priority", "created", "updated",
		"description", "parent", "assignee", "labels", "comment", "watches",
	}
	custom := make([]string, 0, len(c.customFields))
	for _, id := range c.customFields {
		custom = append(custom, id)
	}
	sort.Strings(custom)
	return append(fields, custom...)
}
