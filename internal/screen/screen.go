// Package screen condenses a MineContext snapshot (todos, activities, tips)
// into the short "what is the user doing right now" summary handed to agents.
package screen

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/HendryAvila/mcagent/internal/activity"
	"github.com/HendryAvila/mcagent/internal/source"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Summary statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// CompressionError is reported when a snapshot cannot be condensed.
const CompressionError = "CompressionError"

// Task types and detail levels accepted by Summarize.
var (
	TaskTypes    = []string{"debug_error", "implement_feature", "refactor", "unknown"}
	DetailLevels = []string{"low", "medium", "high"}
)

const (
	maxTodos          = 3
	maxTips           = 2
	activitySummaryLn = 220
	tipSummaryLn      = 200
	confidence        = 0.85
	// DefaultLimit is the per-section record limit used for snapshots.
	DefaultLimit = 50
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Todo is one prioritised task.
type Todo struct {
	ID      any     `json:"id"`
	Content string  `json:"content"`
	EndTime *string `json:"end_time"`
	Urgency *int    `json:"urgency"`
	Status  string  `json:"status"`
}

// Intent is the natural-language reading of the user's current goals.
type Intent struct {
	NaturalLanguage string   `json:"natural_language"`
	TopTodos        []Todo   `json:"top_todos"`
	Evidence        []string `json:"evidence"`
	Confidence      float64  `json:"confidence"`
}

// Span is a start/end pair copied from a record.
type Span struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// RecentActivity describes the latest activity.
type RecentActivity struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	TimeRange       Span     `json:"time_range"`
	FocusAreas      []string `json:"focus_areas"`
	KeyEntities     []string `json:"key_entities"`
	ScreenshotPaths []string `json:"screenshot_paths"`
}

// Tip is a shortened MineContext tip.
type Tip struct {
	CreatedAt *string `json:"created_at"`
	Summary   string  `json:"summary"`
}

// FetchError is the structured failure carried by an error summary.
type FetchError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Hint    string `json:"hint"`
}

func (e *FetchError) Error() string { return e.Type + ": " + e.Message }

// Meta echoes the request parameters.
type Meta struct {
	TaskType    string `json:"task_type,omitempty"`
	DetailLevel string `json:"detail_level,omitempty"`
}

// Summary is the condensed context. On failure Status is "error", Error is
// set, and the content sections are nil.
type Summary struct {
	Status            string          `json:"status"`
	Source            string          `json:"source"`
	Timestamp         string          `json:"timestamp"`
	Error             *FetchError     `json:"error,omitempty"`
	UserIntentSummary *Intent         `json:"user_intent_summary"`
	RecentActivity    *RecentActivity `json:"recent_activity"`
	TipsSummary       []Tip           `json:"tips_summary"`
	Meta              Meta            `json:"meta"`
}

// Fetcher returns a MineContext snapshot.
type Fetcher interface {
	FetchLatest(ctx context.Context, limit int) (*source.RawContext, error)
}

// ─── Summarize ───────────────────────────────────────────────────────────────

// Summarize fetches a snapshot and condenses it. It never returns an error:
// failures are reported through Summary.Status and Summary.Error.
func Summarize(ctx context.Context, f Fetcher, baseURL, taskType, detailLevel string) *Summary {
	taskType = normalize(taskType, TaskTypes, "unknown")
	detailLevel = normalize(detailLevel, DetailLevels, "medium")

	raw, err := f.FetchLatest(ctx, DefaultLimit)
	if err != nil {
		return errorSummary(fetchError(err, baseURL))
	}

	summary, err := Compress(raw)
	if err != nil {
		return errorSummary(&FetchError{
			Type:    CompressionError,
			Message: fmt.Sprintf("compressing MineContext context failed: %v", err),
			Hint:    "Check the shape of the MineContext debug API responses.",
		})
	}
	summary.Meta = Meta{TaskType: taskType, DetailLevel: detailLevel}
	return summary
}

func fetchError(err error, baseURL string) *FetchError {
	kind := source.Classify(err)
	fe := &FetchError{Type: string(kind)}
	switch kind {
	case source.KindUnavailable:
		fe.Message = fmt.Sprintf("cannot connect to the local MineContext service: %v", err)
		fe.Hint = fmt.Sprintf("Make sure MineContext is running and listening on %s.", baseURL)
	case source.KindTimeout:
		fe.Message = fmt.Sprintf("request to MineContext timed out: %v", err)
		fe.Hint = "Retry later, or call less frequently."
	case source.KindInvalidJSON:
		fe.Message = fmt.Sprintf("MineContext returned data that is not valid JSON: %v", err)
		fe.Hint = "Check the MineContext version, or retry later."
	default:
		fe.Message = fmt.Sprintf("request to MineContext failed: %v", err)
		fe.Hint = "Check the MineContext service status and the local network."
	}
	return fe
}

func errorSummary(fe *FetchError) *Summary {
	return &Summary{
		Status:    StatusError,
		Source:    "MineContext",
		Timestamp: nowStamp(),
		Error:     fe,
	}
}

func normalize(v string, allowed []string, fallback string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

func nowStamp() string {
	return timeNow().UTC().Format("2006-01-02T15:04:05.000000")
}

// ─── Compress ────────────────────────────────────────────────────────────────

// Compress condenses raw into a Summary with status "ok".
func Compress(raw *source.RawContext) (*Summary, error) {
	if raw == nil {
		return nil, fmt.Errorf("no snapshot to compress")
	}

	todos := topTodos(raw.Records(source.SectionTodos))
	recent := recentActivity(raw.Records(source.SectionActivities))
	tips := latestTips(raw.Records(source.SectionTips))

	intent := &Intent{TopTodos: todos, Evidence: []string{}, Confidence: confidence}
	var texts []string
	for _, t := range todos {
		if t.Content != "" {
			texts = append(texts, t.Content)
		}
	}
	if len(todos) > 0 {
		intent.NaturalLanguage = "Current top-priority tasks: " + strings.Join(texts, "; ")
		intent.Evidence = append(intent.Evidence, fmt.Sprintf("Identified %d high-priority tasks from todos.", len(todos)))
	} else {
		intent.NaturalLanguage = "No explicit todo detected."
	}
	if recent != nil {
		intent.Evidence = append(intent.Evidence, fmt.Sprintf("Recent activity: %s.", recent.Title))
	}

	ts := raw.Timestamp
	if ts == "" {
		ts = nowStamp()
	}
	return &Summary{
		Status:            StatusOK,
		Source:            "MineContext",
		Timestamp:         ts,
		UserIntentSummary: intent,
		RecentActivity:    recent,
		TipsSummary:       tips,
	}, nil
}

// topTodos orders todos by urgency (descending) then deadline (ascending)
// and keeps the first three.
func topTodos(records []json.RawMessage) []Todo {
	type ranked struct {
		todo    Todo
		urgency int
		end     string
	}
	var all []ranked
	for _, rec := range records {
		m := object(rec)
		if m == nil {
			continue
		}
		t := Todo{
			ID:      m["id"],
			Content: str(m["content"]),
			EndTime: optStr(m["end_time"]),
			Status:  "pending",
		}
		urgency, ok := integer(m["urgency"])
		if ok {
			t.Urgency = &urgency
		}
		if status, ok := integer(m["status"]); ok && status == 1 {
			t.Status = "done"
		}
		all = append(all, ranked{todo: t, urgency: urgency, end: str(m["end_time"])})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].urgency != all[j].urgency {
			return all[i].urgency > all[j].urgency
		}
		return all[i].end < all[j].end
	})

	out := []Todo{}
	for i := 0; i < len(all) && i < maxTodos; i++ {
		out = append(out, all[i].todo)
	}
	return out
}

// recentActivity describes the activity with the latest end time.
func recentActivity(records []json.RawMessage) *RecentActivity {
	acts := activity.FromRaw(records)
	if len(acts) == 0 {
		return nil
	}
	latest := acts[0]
	for _, a := range acts[1:] {
		if a.EndTime >= latest.EndTime {
			latest = a
		}
	}

	return &RecentActivity{
		Title:           latest.Title,
		Summary:         clip(latest.Content, activitySummaryLn),
		TimeRange:       Span{Start: nonEmpty(latest.StartTime), End: nonEmpty(latest.EndTime)},
		FocusAreas:      orEmpty(latest.FocusAreas()),
		KeyEntities:     orEmpty(latest.KeyEntities()),
		ScreenshotPaths: orEmpty(latest.ScreenshotPaths()),
	}
}

// latestTips keeps the two most recently created tips, oldest first.
func latestTips(records []json.RawMessage) []Tip {
	type dated struct {
		created string
		content string
	}
	var all []dated
	for _, rec := range records {
		m := object(rec)
		if m == nil {
			continue
		}
		all = append(all, dated{created: str(m["created_at"]), content: str(m["content"])})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].created < all[j].created })
	if len(all) > maxTips {
		all = all[len(all)-maxTips:]
	}

	out := []Tip{}
	for _, d := range all {
		out = append(out, Tip{CreatedAt: nonEmpty(d.created), Summary: clip(d.content, tipSummaryLn)})
	}
	return out
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func object(raw json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func str(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func optStr(v any) *string {
	return nonEmpty(str(v))
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func integer(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

// clip cuts s to n characters, appending "..." when it was longer.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
