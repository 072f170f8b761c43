// Package srcom is the speedrun.com API adapter. It fetches pending runs,
// moderator lists and API-key profiles, and normalises runs into store.PendingRun.
// Requests are never retried here; callers decide what a failure means.
package srcom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"srcbook/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the public speedrun.com REST API root.
const DefaultBaseURL = "https://www.speedrun.com/api/v1"

// PageSize is the max number of runs requested per leaderboard.
const PageSize = 200

const maxBodyBytes = 16 << 20

var (
	// ErrUpstream wraps network, timeout and non-2xx failures.
	ErrUpstream = errors.New("upstream request failed")

	// ErrDecode wraps responses whose JSON shape is not what we expect.
	ErrDecode = errors.New("upstream response malformed")
)

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// Unauthorized reports whether upstream rejected the credential.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration // per request; default 10s
	DecodePolicy DecodePolicy
	HTTPClient   *http.Client
}

// Client talks to the speedrun.com API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	policy     DecodePolicy
	httpClient *http.Client

	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// New creates a client. Metrics and spans go to the global otel providers.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.DecodePolicy == "" {
		cfg.DecodePolicy = DecodeSkip
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	meter := otel.Meter("srcbook/srcom")
	requests, _ := meter.Int64Counter("srcbook.upstream.requests",
		metric.WithDescription("Requests sent to speedrun.com"))
	latency, _ := meter.Float64Histogram("srcbook.upstream.duration",
		metric.WithDescription("Latency of speedrun.com requests"),
		metric.WithUnit("s"))

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		policy:     cfg.DecodePolicy,
		httpClient: cfg.HTTPClient,
		tracer:     otel.Tracer("srcbook/srcom"),
		requests:   requests,
		latency:    latency,
	}
}

// Batch is the decoded pending-run set of one leaderboard.
// Skipped holds records excluded under DecodeSkip.
type Batch struct {
	GameID  string
	Runs    []store.PendingRun
	Skipped []*RecordError
}

// FetchPending returns the unreviewed runs of one leaderboard.
func (c *Client) FetchPending(ctx context.Context, gameID string) (*Batch, error) {
	ctx, span := c.tracer.Start(ctx, "srcom.FetchPending",
		trace.WithAttributes(attribute.String("game.id", gameID)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	q := url.Values{}
	q.Set("game", gameID)
	q.Set("embed", "players,category")
	q.Set("status", "new")
	q.Set("max", fmt.Sprint(PageSize))

	var res runsResource
	if err := c.get(ctx, "runs", "/runs?"+q.Encode(), nil, &res); err != nil {
		span.RecordError(err)
		return nil, err
	}

	runs, skipped, err := decodeRuns(gameID, res.Data, c.policy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("runs.count", len(runs)), attribute.Int("runs.skipped", len(skipped)))
	return &Batch{GameID: gameID, Runs: runs, Skipped: skipped}, nil
}

// FetchPendingAll fetches every leaderboard concurrently and waits for all of them.
// If any fetch fails the first error is returned and every result is discarded.
// A failing fetch does not cancel its siblings.
func (c *Client) FetchPendingAll(ctx context.Context, gameIDs []string) (map[string]*Batch, error) {
	batches := make([]*Batch, len(gameIDs))

	var g errgroup.Group
	for i, id := range gameIDs {
		g.Go(func() error {
			b, err := c.FetchPending(ctx, id)
			if err != nil {
				return fmt.Errorf("game %s: %w", id, err)
			}
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Batch, len(batches))
	for _, b := range batches {
		out[b.GameID] = b
	}
	return out, nil
}

// FetchModerators returns the international names of a game's moderators.
func (c *Client) FetchModerators(ctx context.Context, gameID string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "srcom.FetchModerators",
		trace.WithAttributes(attribute.String("game.id", gameID)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	var res modsResource
	if err := c.get(ctx, "games", "/games/"+url.PathEscape(gameID)+"?embed=moderators", nil, &res); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return res.moderatorNames(), nil
}

// FetchProfile resolves an API key to the international name of its owner.
func (c *Client) FetchProfile(ctx context.Context, apiKey string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "srcom.FetchProfile", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	header := http.Header{}
	header.Set("X-API-Key", apiKey)

	var res profileResource
	if err := c.get(ctx, "profile", "/profile", header, &res); err != nil {
		span.RecordError(err)
		return "", err
	}
	if res.Data.Names.International == "" {
		return "", fmt.Errorf("%w: profile has no name", ErrDecode)
	}
	return res.Data.Names.International, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, header http.Header, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	// Pending runs must be current, never CDN or browser cached.
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "srcbook/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.record(ctx, endpoint, status, time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUpstream, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrUpstream, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, endpoint, err)
	}
	return nil
}

func (c *Client) record(ctx context.Context, endpoint string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	)
	c.requests.Add(ctx, 1, attrs)
	c.latency.Record(ctx, d.Seconds(), attrs)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
