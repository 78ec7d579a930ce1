package evidence

import (
	"sort"
	"strings"
	"time"

	"github.com/HendryAvila/mcagent/internal/activity"
	"github.com/HendryAvila/mcagent/internal/miner"
)

// farFuture sorts activities without a usable timestamp last.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// Match returns the activities in pool that support c: first those whose id
// is one of c's sample ids, then, when that yields fewer than minExamples,
// those whose title contains or is contained in c's title (case-insensitive).
// Pool order is kept and no activity appears twice.
func Match(c miner.Candidate, pool []activity.Activity, minExamples int) []activity.Activity {
	sampled := make(map[string]struct{}, len(c.SampleActivityIDs))
	for _, id := range c.SampleActivityIDs {
		sampled[id] = struct{}{}
	}

	taken := make(map[int]struct{})
	var out []activity.Activity
	for i, a := range pool {
		if a.ID == "" {
			continue
		}
		if _, ok := sampled[a.ID]; ok {
			taken[i] = struct{}{}
			out = append(out, a)
		}
	}

	want := strings.ToLower(c.Title)
	if len(out) >= minExamples || want == "" {
		return out
	}
	for i, a := range pool {
		if _, dup := taken[i]; dup {
			continue
		}
		title := strings.ToLower(a.Title)
		if title == "" {
			continue
		}
		if strings.Contains(title, want) || strings.Contains(want, title) {
			taken[i] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// SelectDiverse picks up to minExamples activities spread across time. When
// there are more candidates than slots it always keeps the earliest and the
// latest and fills the rest at evenly spaced positions; positions that land
// on an already chosen activity are skipped, so the result can be short.
// The result is in chronological order.
func SelectDiverse(acts []activity.Activity, minExamples int) []activity.Activity {
	if len(acts) == 0 {
		return []activity.Activity{}
	}

	sorted := chronological(acts)
	total := len(sorted)
	if total <= minExamples {
		return sorted
	}

	picked := []int{0, total - 1}
	chosen := map[int]bool{0: true, total - 1: true}
	if remaining := minExamples - len(picked); remaining > 0 {
		step := total / (remaining + 1)
		for i := 1; i <= remaining; i++ {
			idx := step * i
			if idx < total && !chosen[idx] {
				chosen[idx] = true
				picked = append(picked, idx)
			}
		}
	}
	sort.Ints(picked)

	out := make([]activity.Activity, len(picked))
	for i, idx := range picked {
		out[i] = sorted[idx]
	}
	return out
}

// chronological returns a copy of acts sorted by OccurredAt ascending.
func chronological(acts []activity.Activity) []activity.Activity {
	sorted := make([]activity.Activity, len(acts))
	copy(sorted, acts)
	keys := make(map[string]time.Time, len(sorted))
	key := func(a activity.Activity) time.Time {
		s := a.OccurredAt()
		if t, ok := keys[s]; ok {
			return t
		}
		t, ok := activity.ParseTime(s)
		if !ok {
			t = farFuture
		}
		keys[s] = t
		return t
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]).Before(key(sorted[j]))
	})
	return sorted
}
