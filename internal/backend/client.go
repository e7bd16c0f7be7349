// Package backend provides a client for the finlens analytics and advice API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/pipeline"
)

const (
	maxBodySize = 1 << 20 // 1 MB
	userAgent   = "finlens-cli/1.0"

	pathFuzzySummary    = "/api/analytics/fuzzy-summary"
	pathBehaviorSummary = "/api/analytics/behavior-summary"
	pathAgentRespond    = "/api/agent/respond"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindBadResponse
)

func (k ErrorKind) String() string {
	if k == KindBadResponse {
		return "BadResponse"
	}
	return "Transport"
}

// AgentError is returned for every failed call to the analytics or advice
// endpoints.
type AgentError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *AgentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend: %s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend: %s: %v", e.Endpoint, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// Client talks to the finlens API.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FuzzySummary fetches the fuzzy spending insights. month is YYYY-MM or
// empty for the current month.
func (c *Client) FuzzySummary(ctx context.Context, month string) (*model.FuzzySummary, error) {
	var s model.FuzzySummary
	if err := c.getJSON(ctx, pathFuzzySummary, monthQuery(month), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// BehaviorSummary fetches the behavior-pattern insights.
func (c *Client) BehaviorSummary(ctx context.Context, month string) (*model.BehaviorSummary, error) {
	var s model.BehaviorSummary
	if err := c.getJSON(ctx, pathBehaviorSummary, monthQuery(month), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Insights holds both insight summaries. Either may be nil when its request
// failed; Error holds the first failure.
type Insights struct {
	Fuzzy     *model.FuzzySummary
	Behavior  *model.BehaviorSummary
	FetchedAt time.Time
	Error     error
}

// Metrics returns the classified metrics of whichever summaries were fetched.
func (in *Insights) Metrics() []model.InsightMetric {
	var out []model.InsightMetric
	if in.Fuzzy != nil {
		out = append(out, pipeline.FuzzyMetrics(*in.Fuzzy)...)
	}
	if in.Behavior != nil {
		out = append(out, pipeline.BehaviorMetrics(*in.Behavior)...)
	}
	return out
}

// FetchInsights fetches both summaries concurrently. Partial data is returned
// even if one request fails.
func (c *Client) FetchInsights(ctx context.Context, month string) *Insights {
	result := &Insights{FetchedAt: time.Now()}

	var g errgroup.Group
	var fuzzyErr, behaviorErr error
	g.Go(func() error {
		result.Fuzzy, fuzzyErr = c.FuzzySummary(ctx, month)
		return nil
	})
	g.Go(func() error {
		result.Behavior, behaviorErr = c.BehaviorSummary(ctx, month)
		return nil
	})
	_ = g.Wait()

	if fuzzyErr != nil {
		result.Error = fuzzyErr
	} else if behaviorErr != nil {
		result.Error = behaviorErr
	}
	return result
}

// Respond asks the advice agent about q.
func (c *Client) Respond(ctx context.Context, q string) (*model.AgentReply, error) {
	var reply model.AgentReply
	if err := c.getJSON(ctx, pathAgentRespond, url.Values{"q": {q}}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Suggest returns only the agent's suggestions.
func (c *Client) Suggest(ctx context.Context, q string) ([]string, error) {
	reply, err := c.Respond(ctx, q)
	if err != nil {
		return nil, err
	}
	return reply.Suggestions, nil
}

func monthQuery(month string) url.Values {
	if month == "" {
		return nil
	}
	return url.Values{"month": {month}}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &AgentError{Kind: KindBadResponse, Endpoint: path, Err: fmt.Errorf("parsing response: %w", err)}
	}
	return nil
}

// get performs a GET request and returns the response body. Any non-2xx
// status is a failure.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &AgentError{Kind: KindTransport, Endpoint: path, Err: fmt.Errorf("creating request: %w", err)}
	}

	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", path).Str("request_id", reqID).Msg("request failed")
		return nil, &AgentError{Kind: KindTransport, Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("endpoint", path).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &AgentError{Kind: KindBadResponse, Endpoint: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &AgentError{Kind: KindTransport, Endpoint: path, Err: fmt.Errorf("reading response: %w", err)}
	}
	return body, nil
}

// IsTransport reports whether err is a connection-level failure rather than
// a bad response.
func IsTransport(err error) bool {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Kind == KindTransport
	}
	var ne net.Error
	return errors.As(err, &ne)
}
