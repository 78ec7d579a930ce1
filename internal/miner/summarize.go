package miner

import (
	"math"
	"sort"
	"strings"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// MixedTitle is used when a cluster has neither titles nor keywords.
const MixedTitle = "Mixed Activities"

// TimeRange is the span covered by a cluster. Start and End are nil when no
// member carries a timestamp.
type TimeRange struct {
	Start        *string `json:"start"`
	End          *string `json:"end"`
	DurationDays int     `json:"duration_days"`
}

// Title names a cluster: the most frequent non-empty member title, else the
// three most frequent content keywords joined with " | ", else MixedTitle.
// Ties go to whichever value appears first in members.
func (e *Extractor) Title(members []activity.Activity) string {
	titles := make([]string, 0, len(members))
	for _, m := range members {
		if m.Title != "" {
			titles = append(titles, m.Title)
		}
	}
	if top := mostCommon(titles, 1); len(top) > 0 {
		return top[0]
	}

	var keywords []string
	for _, m := range members {
		keywords = append(keywords, e.Extract(m.Content)...)
	}
	if top := mostCommon(keywords, 3); len(top) > 0 {
		return strings.Join(top, " | ")
	}
	return MixedTitle
}

// mostCommon returns up to n values ordered by count descending, ties broken
// by first occurrence.
func mostCommon(values []string, n int) []string {
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// SpanOf computes the time range of members: earliest start (falling back to
// end values when no member has a start), latest end (falling back likewise),
// and inclusive whole days between them. Unparseable bounds give a duration
// of 1 day.
func SpanOf(members []activity.Activity) TimeRange {
	var starts, ends []string
	for _, m := range members {
		if m.StartTime != "" {
			starts = append(starts, m.StartTime)
		}
		if m.EndTime != "" {
			ends = append(ends, m.EndTime)
		}
	}
	if len(starts) == 0 && len(ends) == 0 {
		return TimeRange{}
	}
	if len(starts) == 0 {
		starts = ends
	}
	if len(ends) == 0 {
		ends = starts
	}

	start, end := earliest(starts), latest(ends)
	return TimeRange{Start: &start, End: &end, DurationDays: durationDays(start, end)}
}

func durationDays(start, end string) int {
	s, ok1 := activity.ParseTime(start)
	e, ok2 := activity.ParseTime(end)
	if !ok1 || !ok2 {
		return 1
	}
	return int(math.Floor(e.Sub(s).Hours()/24)) + 1
}

// compareTimestamps is a total order over timestamps: values that parse
// compare chronologically and rank above every value that does not; values
// that do not parse compare lexically among themselves.
func compareTimestamps(a, b string) int {
	ta, okA := activity.ParseTime(a)
	tb, okB := activity.ParseTime(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(a, b)
}

// earliest returns the chronologically first value, preferring values that
// parse over values that do not.
func earliest(vals []string) string {
	best := vals[0]
	_, bestOK := activity.ParseTime(best)
	for _, v := range vals[1:] {
		_, ok := activity.ParseTime(v)
		if (ok && !bestOK) || (ok == bestOK && compareTimestamps(v, best) < 0) {
			best, bestOK = v, ok
		}
	}
	return best
}

// latest returns the chronologically last value. Values that parse win.
func latest(vals []string) string {
	best := vals[0]
	for _, v := range vals[1:] {
		if compareTimestamps(v, best) > 0 {
			best = v
		}
	}
	return best
}
