// Package client talks to the draft API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/dawgbowl/internal/adapters/standings"
	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/domain/model"
)

const (
	defaultTimeout    = 30 * time.Second
	adminSecretHeader = "X-Admin-Secret"
)

// Client is a thin JSON client for one API base URL.
type Client struct {
	base   string
	secret string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithAdminSecret sends secret on admin requests.
func WithAdminSecret(secret string) Option {
	return func(c *Client) { c.secret = secret }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New creates a client for baseURL, e.g. http://localhost:9080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one request. A non-2xx answer becomes an *APIError; otherwise the
// body is decoded into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, admin bool, in, out any) (*http.Response, []byte, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set(adminSecretHeader, c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, raw, newAPIError(resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, raw, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp, raw, nil
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/healthz", false, nil, nil)
	return err
}

// Contestants lists the pool and returns the salary cap alongside it.
func (c *Client) Contestants(ctx context.Context, query, sortBy string) (int, []model.Contestant, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if sortBy != "" {
		q.Set("sort", sortBy)
	}
	path := "/v1/contestants"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		SalaryCap   int                `json:"salary_cap"`
		Contestants []model.Contestant `json:"contestants"`
	}
	if _, _, err := c.do(ctx, http.MethodGet, path, false, nil, &resp); err != nil {
		return 0, nil, err
	}
	return resp.SalaryCap, resp.Contestants, nil
}

// CreateDraft opens a draft session.
func (c *Client) CreateDraft(ctx context.Context) (service.DraftView, error) {
	var v service.DraftView
	_, _, err := c.do(ctx, http.MethodPost, "/v1/drafts", false, nil, &v)
	return v, err
}

// Draft returns a session's draft.
func (c *Client) Draft(ctx context.Context, session string) (service.DraftView, error) {
	var v service.DraftView
	_, _, err := c.do(ctx, http.MethodGet, "/v1/drafts/"+url.PathEscape(session), false, nil, &v)
	return v, err
}

type memberRequest struct {
	ContestantID model.ContestantID `json:"contestant_id"`
}

// AddFlex adds a Flex member.
func (c *Client) AddFlex(ctx context.Context, session string, id model.ContestantID) (service.DraftView, error) {
	var v service.DraftView
	_, _, err := c.do(ctx, http.MethodPost, "/v1/drafts/"+url.PathEscape(session)+"/flex", false, memberRequest{id}, &v)
	return v, err
}

// AddCaptain adds the Captain.
func (c *Client) AddCaptain(ctx context.Context, session string, id model.ContestantID) (service.DraftView, error) {
	var v service.DraftView
	_, _, err := c.do(ctx, http.MethodPost, "/v1/drafts/"+url.PathEscape(session)+"/captain", false, memberRequest{id}, &v)
	return v, err
}

// Submit stores the session's lineup under username.
func (c *Client) Submit(ctx context.Context, session, username string) (model.SubmittedLineup, error) {
	var l model.SubmittedLineup
	body := map[string]string{"username": username}
	_, _, err := c.do(ctx, http.MethodPost, "/v1/drafts/"+url.PathEscape(session)+"/submit", false, body, &l)
	return l, err
}

// Lineups lists every stored lineup.
func (c *Client) Lineups(ctx context.Context) (service.AdminListing, error) {
	var listing service.AdminListing
	_, _, err := c.do(ctx, http.MethodGet, "/v1/admin/lineups", true, nil, &listing)
	return listing, err
}

// DeleteLineup removes a user's lineup.
func (c *Client) DeleteLineup(ctx context.Context, username string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/v1/admin/lineups/"+url.PathEscape(username), true, nil, nil)
	return err
}

// Export downloads all lineups as csv or xlsx and returns the server's file
// name with the content.
func (c *Client) Export(ctx context.Context, format string) (string, []byte, error) {
	resp, raw, err := c.do(ctx, http.MethodGet, "/v1/admin/export?format="+url.QueryEscape(format), true, nil, nil)
	if err != nil {
		return "", nil, err
	}
	name := "lineups." + format
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, raw, nil
}

type outcomeRequest struct {
	ContestantID model.ContestantID `json:"contestant_id"`
	model.Outcome
}

// PostResults sends official outcomes and starts a scoring round.
func (c *Client) PostResults(ctx context.Context, outcomes model.Outcomes) (service.Round, error) {
	ids := make([]model.ContestantID, 0, len(outcomes))
	for id := range outcomes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	body := struct {
		Outcomes []outcomeRequest `json:"outcomes"`
	}{Outcomes: make([]outcomeRequest, len(ids))}
	for i, id := range ids {
		body.Outcomes[i] = outcomeRequest{ContestantID: id, Outcome: outcomes[id]}
	}

	var r service.Round
	_, _, err := c.do(ctx, http.MethodPost, "/v1/admin/results", true, body, &r)
	return r, err
}

// Simulate starts a round scored against simulated outcomes.
func (c *Client) Simulate(ctx context.Context, req service.SimulateRequest) (service.Round, error) {
	var r service.Round
	_, _, err := c.do(ctx, http.MethodPost, "/v1/admin/results/simulate", true, req, &r)
	return r, err
}

// Round returns the latest round's progress.
func (c *Client) Round(ctx context.Context) (service.Round, error) {
	var r service.Round
	_, _, err := c.do(ctx, http.MethodGet, "/v1/results", false, nil, &r)
	return r, err
}

// WaitForRound polls until the latest round has accounted for every lineup.
func (c *Client) WaitForRound(ctx context.Context, every time.Duration) (service.Round, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		r, err := c.Round(ctx)
		if err != nil {
			return r, err
		}
		if r.Done() {
			return r, nil
		}
		select {
		case <-ctx.Done():
			return r, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Standings returns the top limit entries.
func (c *Client) Standings(ctx context.Context, limit int) ([]standings.Entry, error) {
	var resp struct {
		Entries []standings.Entry `json:"entries"`
	}
	_, _, err := c.do(ctx, http.MethodGet, "/v1/standings?limit="+strconv.Itoa(limit), false, nil, &resp)
	return resp.Entries, err
}

// Standing returns one user's entry.
func (c *Client) Standing(ctx context.Context, username string) (standings.Entry, error) {
	var e standings.Entry
	_, _, err := c.do(ctx, http.MethodGet, "/v1/standings/"+url.PathEscape(username), false, nil, &e)
	return e, err
}
