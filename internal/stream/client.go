// Package stream implements the resilient client for the gateway's
// notification feed: a Server-Sent-Events consumer with reconnect,
// backoff, and a degraded-mode polling fallback. It is independent of
// any HTTP handler so the state machine can be tested without a real
// network.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Feed payload kinds and patch operations, as emitted by the gateway.
const (
	kindSnapshot = "snapshot"
	kindEvent    = "event"

	opUpsert = "upsert"
	opDelete = "delete"
)

// DefaultDebounce coalesces event bursts before the dependent counter
// refresh fires, bounding the refetch rate.
const DefaultDebounce = 300 * time.Millisecond

// envelope is the JSON frame carried in each SSE data payload and, for
// polling, in the list response.
type envelope struct {
	Kind  string            `json:"kind"`
	Seq   int64             `json:"seq"`
	Op    string            `json:"op,omitempty"`
	ID    string            `json:"id,omitempty"`
	Item  json.RawMessage   `json:"item,omitempty"`
	Items []json.RawMessage `json:"items,omitempty"`
}

// ClientOptions groups construction parameters for Client.
type ClientOptions struct {
	// BaseURL is the gateway base URL (trailing slash tolerated).
	BaseURL string
	// FeedPath is the SSE feed path relative to BaseURL.
	FeedPath string
	// ListPath is the REST listing path used in polling mode.
	ListPath string
	// CountersPath is the aggregate counters path; empty disables
	// counter refreshes.
	CountersPath string
	// Filters are the domain filter parameters sent on every request.
	Filters url.Values
	// Limit is the page-size hint.
	Limit int
	// HeartbeatSeconds is the heartbeat interval hint sent on open.
	HeartbeatSeconds int
	// PollInterval is the refetch cadence in polling mode.
	PollInterval time.Duration
	// FailureThreshold, PromoteEvery, BackoffBase, BackoffCap tune the
	// state machine; zero values use the package defaults.
	FailureThreshold int
	PromoteEvery     int
	BackoffBase      time.Duration
	BackoffCap       time.Duration
	// Debounce is the burst-coalescing delay for counter refreshes.
	Debounce time.Duration
	// Headers are attached to every upstream request (trust headers,
	// bearer token).
	Headers http.Header
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Logger is an optional structured logger.
	Logger *slog.Logger
}

// Status is the externally visible health of the feed client.
type Status struct {
	Mode     State `json:"mode"`
	SinceSeq int64 `json:"since_seq"`
	Failures int   `json:"failures"`
}

// Client maintains a live view of the gateway's notification feed.
// Create with NewClient, drive with Run, read with Snapshot, Counters,
// and Status.
type Client struct {
	opts   ClientOptions
	httpc  *http.Client
	logger *slog.Logger
	store  *Store

	mu       sync.Mutex
	machine  *machine
	counters json.RawMessage
}

// NewClient constructs a feed client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("stream: BaseURL is required")
	}
	if opts.FeedPath == "" {
		return nil, errors.New("stream: FeedPath is required")
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Second
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:   opts,
		httpc:  httpc,
		logger: logger.With("component", "stream_client"),
		store:  NewStore(),
		machine: newMachine(
			opts.FailureThreshold,
			opts.PromoteEvery,
			opts.BackoffBase,
			opts.BackoffCap,
		),
	}, nil
}

// Snapshot returns the current visible item list, newest first.
func (c *Client) Snapshot() []Item {
	return c.store.Snapshot()
}

// Counters returns the last fetched aggregate counters payload, or nil.
func (c *Client) Counters() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

// Status reports the client's current mode, cursor, and failure count.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Mode:     c.machine.State(),
		SinceSeq: c.store.SinceSeq(),
		Failures: c.machine.Failures(),
	}
}

// Run drives the client until ctx is cancelled. Every connection,
// timer, and pending debounce is torn down before it returns.
func (c *Client) Run(ctx context.Context) error {
	debounce := newDebouncer(c.opts.Debounce)
	defer debounce.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch c.currentState() {
		case StateConnecting, StateReconnecting:
			err := c.consumeStream(ctx, debounce)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			_, delay := c.recordError(err)
			if delay > 0 && !sleepCtx(ctx, delay) {
				return ctx.Err()
			}

		case StatePolling:
			c.pollOnce(ctx)
			if !sleepCtx(ctx, c.opts.PollInterval) {
				return ctx.Err()
			}
			c.mu.Lock()
			promoted := c.machine.Tick()
			c.mu.Unlock()
			if promoted {
				c.logger.InfoContext(ctx, "attempting stream promotion")
			}

		case StateLive:
			// consumeStream owns the live phase; reaching here means
			// the stream just ended without an error transition.
			c.recordError(errors.New("stream closed"))
		}
	}
}

// consumeStream opens the SSE feed and pumps messages until the stream
// ends or fails. Returns the terminal error (never nil: a cleanly
// closed stream is still a disconnect to recover from).
func (c *Client) consumeStream(ctx context.Context, debounce *debouncer) error {
	feedURL := c.buildURL(c.opts.FeedPath, func(q url.Values) {
		q.Set("since_seq", strconv.FormatInt(c.store.SinceSeq(), 10))
		if c.opts.Limit > 0 {
			q.Set("limit", strconv.Itoa(c.opts.Limit))
		}
		if c.opts.HeartbeatSeconds > 0 {
			q.Set("heartbeat_seconds", strconv.Itoa(c.opts.HeartbeatSeconds))
		}
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	c.applyHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType != "text/event-stream" {
		return fmt.Errorf("open stream: unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	c.mu.Lock()
	c.machine.Opened()
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "stream live", "since_seq", c.store.SinceSeq())

	scanner := NewScanner(resp.Body)
	for scanner.Next() {
		c.handleMessage(ctx, scanner.EventData().Data, debounce)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return errors.New("stream closed by upstream")
}

// handleMessage ingests one SSE payload. Malformed payloads are dropped
// without terminating the stream.
func (c *Client) handleMessage(ctx context.Context, data string, debounce *debouncer) {
	if strings.TrimSpace(data) == "" {
		return
	}

	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		c.logger.DebugContext(ctx, "dropping malformed stream payload", "error", err)
		return
	}
	if env.Seq > 0 {
		c.store.ObserveSeq(env.Seq)
	}

	switch env.Kind {
	case kindSnapshot:
		c.store.ReplaceAll(parseItems(env.Items))

	case kindEvent:
		switch env.Op {
		case opDelete:
			id := env.ID
			if id == "" {
				if item, ok := ParseItem(env.Item); ok {
					id = item.ID
				}
			}
			if id != "" {
				c.store.Delete(id)
			}
		case opUpsert:
			if item, ok := ParseItem(env.Item); ok {
				c.store.Upsert(item)
			}
		default:
			c.logger.DebugContext(ctx, "dropping stream event with unknown op", "op", env.Op)
			return
		}
		// Coalesce bursts before refreshing the dependent counters.
		if c.opts.CountersPath != "" {
			debounce.trigger(func() {
				c.refreshCounters(ctx)
			})
		}

	default:
		c.logger.DebugContext(ctx, "dropping stream payload with unknown kind", "kind", env.Kind)
	}
}

// pollOnce refetches the full filtered list and the aggregate counters
// concurrently. Poll failures are logged, not fatal: the next tick
// retries.
func (c *Client) pollOnce(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.refreshList(gctx)
	})
	if c.opts.CountersPath != "" {
		g.Go(func() error {
			c.refreshCounters(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		c.logger.WarnContext(ctx, "poll refresh failed", "error", err)
	}
}

func (c *Client) refreshList(ctx context.Context) error {
	listURL := c.buildURL(c.opts.ListPath, func(q url.Values) {
		if c.opts.Limit > 0 {
			q.Set("limit", strconv.Itoa(c.opts.Limit))
		}
	})
	body, err := c.fetchJSON(ctx, listURL)
	if err != nil {
		return fmt.Errorf("refresh list: %w", err)
	}

	// The listing endpoint returns either an envelope with items or a
	// bare array.
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Items != nil {
		if env.Seq > 0 {
			c.store.ObserveSeq(env.Seq)
		}
		c.store.ReplaceAll(parseItems(env.Items))
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("refresh list: unexpected response shape: %w", err)
	}
	c.store.ReplaceAll(parseItems(raw))
	return nil
}

func (c *Client) refreshCounters(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	countersURL := c.buildURL(c.opts.CountersPath, nil)
	body, err := c.fetchJSON(ctx, countersURL)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.WarnContext(ctx, "counter refresh failed", "error", err)
		}
		return
	}
	c.mu.Lock()
	c.counters = body
	c.mu.Unlock()
}

func (c *Client) fetchJSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("response is not valid JSON")
	}
	return body, nil
}

// buildURL joins a path onto the base URL, copying the configured
// filters and applying extra query mutations.
func (c *Client) buildURL(path string, mutate func(url.Values)) string {
	q := url.Values{}
	for key, values := range c.opts.Filters {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	if mutate != nil {
		mutate(q)
	}
	full := c.opts.BaseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := q.Encode(); encoded != "" {
		full += "?" + encoded
	}
	return full
}

func (c *Client) applyHeaders(req *http.Request) {
	for key, values := range c.opts.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

func (c *Client) currentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

func (c *Client) recordError(err error) (State, time.Duration) {
	c.mu.Lock()
	next, delay := c.machine.Errored()
	failures := c.machine.Failures()
	c.mu.Unlock()

	if next == StatePolling {
		c.logger.Warn("stream abandoned, falling back to polling", "error", err)
	} else {
		c.logger.Warn("stream disconnected, will reconnect",
			"error", err, "failures", failures, "delay", delay)
	}
	return next, delay
}

func parseItems(raw []json.RawMessage) []Item {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		if item, ok := ParseItem(r); ok {
			items = append(items, item)
		}
	}
	return items
}

// sleepCtx waits for d or context cancellation. Returns false when the
// context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// debouncer coalesces rapid triggers into one delayed invocation.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// trigger schedules fn after the debounce delay, resetting any pending
// invocation.
func (d *debouncer) trigger(fn func()) {
	if d.delay <= 0 {
		fn()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending invocation.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
