// Package source fetches activity records: from the local MineContext debug
// API, from the SQLite cache, or from the bundled sample file.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/HendryAvila/mcagent/internal/activity"
	"github.com/HendryAvila/mcagent/internal/logging"
)

// MineContext debug API sections.
const (
	SectionReports    = "reports"
	SectionTodos      = "todos"
	SectionActivities = "activities"
	SectionTips       = "tips"
)

// Sections lists every section FetchLatest retrieves, in report order.
var Sections = []string{SectionReports, SectionTodos, SectionActivities, SectionTips}

// Defaults for Config.
const (
	DefaultBaseURL    = "http://127.0.0.1:1733"
	DefaultTimeout    = 30 * time.Second
	DefaultFetchLimit = 1000
)

// Config configures a Client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	FetchLimit        int
	RequestsPerSecond float64
	Retries           int
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// SectionData holds the raw records of one section.
type SectionData struct {
	Records []json.RawMessage `json:"records"`
}

// RawContext is the combined snapshot of every section.
type RawContext struct {
	Timestamp string                 `json:"timestamp"`
	Data      map[string]SectionData `json:"data"`
}

// Records returns the raw records of section, or nil.
func (r *RawContext) Records(section string) []json.RawMessage {
	if r == nil {
		return nil
	}
	return r.Data[section].Records
}

// envelope is the MineContext response wrapper: {"code":0,"status":"ok","data":...}.
type envelope struct {
	Code *int            `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Client talks to the MineContext debug API.
type Client struct {
	baseURL    string
	fetchLimit int
	retries    int
	http       *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a Client. Zero config values take the defaults; a
// non-positive RequestsPerSecond disables pacing.
func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		fetchLimit: cfg.FetchLimit,
		retries:    cfg.Retries,
		http:       httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logging.OrDiscard(logger),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchSection returns the records of one section. Failures are returned as
// *Error with a Kind set.
func (c *Client) FetchSection(ctx context.Context, section string, limit int) ([]json.RawMessage, error) {
	records, err := retryWithContext(ctx, c.retries+1, func(ctx context.Context) ([]json.RawMessage, error) {
		return c.fetchOnce(ctx, section, limit)
	})
	if err != nil {
		return nil, &Error{Kind: Classify(err), Section: section, Err: err}
	}
	return records, nil
}

func (c *Client) fetchOnce(ctx context.Context, section string, limit int) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + "/api/debug/" + url.PathEscape(section) + "?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Code == nil || *env.Code != 0 || len(env.Data) == 0 {
		c.logger.Warn("minecontext returned no data", "section", section)
		return nil, nil
	}
	return sectionRecords(section, env.Data), nil
}

// sectionRecords extracts the record list from a data payload. The list
// normally lives under data.<section>; a bare list, or any other value, is
// accepted as the records themselves.
func sectionRecords(section string, data json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if inner, ok := obj[section]; ok {
				return asList(inner)
			}
		}
		return []json.RawMessage{trimmed}
	}
	return asList(trimmed)
}

func asList(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// FetchLatest retrieves every section concurrently. A failed section is
// logged and left empty; the call fails only when every section fails, and
// then returns the first section's error.
func (c *Client) FetchLatest(ctx context.Context, limit int) (*RawContext, error) {
	if limit <= 0 {
		limit = c.fetchLimit
	}

	results := make([][]json.RawMessage, len(Sections))
	errs := make([]error, len(Sections))

	var g errgroup.Group
	for i, section := range Sections {
		g.Go(func() error {
			results[i], errs[i] = c.FetchSection(ctx, section, limit)
			return nil
		})
	}
	_ = g.Wait()

	raw := &RawContext{
		Timestamp: timeNow().UTC().Format("2006-01-02T15:04:05.000000"),
		Data:      make(map[string]SectionData, len(Sections)),
	}
	failed := 0
	for i, section := range Sections {
		if errs[i] != nil {
			failed++
			c.logger.Warn("fetch section failed", "section", section, "err", errs[i])
		}
		raw.Data[section] = SectionData{Records: results[i]}
	}
	if failed == len(Sections) {
		return nil, errs[0]
	}
	return raw, nil
}

// Activities fetches activities whose end (else start) time lies within the
// last days days, newest first. Records without a parseable time are skipped.
func (c *Client) Activities(ctx context.Context, days int) ([]activity.Activity, error) {
	records, err := c.FetchSection(ctx, SectionActivities, c.fetchLimit)
	if err != nil {
		return nil, err
	}
	acts := FilterWindow(activity.FromRaw(records), days, timeNow())
	c.logger.Debug("fetched activities", "records", len(records), "in_window", len(acts), "days", days)
	return acts, nil
}

// FilterWindow keeps activities whose LatestAt lies in [now-days, now] and
// orders them newest first. Zone-less timestamps are read as local time.
func FilterWindow(acts []activity.Activity, days int, now time.Time) []activity.Activity {
	start := now.Add(-time.Duration(days) * 24 * time.Hour)

	type dated struct {
		act activity.Activity
		at  time.Time
	}
	var kept []dated
	for _, a := range acts {
		at, ok := activity.ParseTimeIn(a.LatestAt(), time.Local)
		if !ok {
			continue
		}
		if at.Before(start) || at.After(now) {
			continue
		}
		kept = append(kept, dated{act: a, at: at})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.After(kept[j].at) })

	out := make([]activity.Activity, len(kept))
	for i, d := range kept {
		out[i] = d.act
	}
	return out
}

// Ping checks the API is reachable by fetching a single activity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchSection(ctx, SectionActivities, 1)
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.baseURL, err)
	}
	return nil
}

