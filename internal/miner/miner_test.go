package miner

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// ─── Helpers ─────────────────────────────────────────────────────────────────

func act(id, title, content, start, end string) activity.Activity {
	return activity.Activity{ID: id, Title: title, Content: content, StartTime: start, EndTime: end}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func sizes(clusters []Cluster) []int {
	out := make([]int, len(clusters))
	for i, c := range clusters {
		out[i] = len(c.Members)
	}
	return out
}

// mixedFixture is a batch with a spread of title/keyword overlaps.
func mixedFixture() []activity.Activity {
	return []activity.Activity{
		act("1", "Fix bug in parser", "Debugging ParserModule in Cursor", "2025-01-01T09:00:00", ""),
		act("2", "Fix bug in lexer", "Debugging LexerModule in Cursor", "2025-01-02T09:00:00", ""),
		act("3", "Write docs", "Editing pages in Notion", "2025-01-03T09:00:00", ""),
		act("4", "Write docs for api", "Editing pages in Notion", "2025-01-04T09:00:00", ""),
		act("5", "Standup meeting", "Call in Teams", "2025-01-05T09:00:00", ""),
		act("6", "Fix bug in parser", "", "2025-01-06T09:00:00", ""),
		act("7", "", "Debugging ParserModule in Cursor", "2025-01-07T09:00:00", ""),
		act("8", "Review PR", "https://github.com/org/repo/pull/1 in Chrome", "2025-01-08T09:00:00", ""),
	}
}

// ─── Similarity ──────────────────────────────────────────────────────────────

func TestSimilarity(t *testing.T) {
	ex := NewExtractor(DefaultVocabulary(), DefaultTopK)

	tests := []struct {
		name string
		a, b activity.Activity
		want float64
	}{
		{"equal titles no keywords", act("", "Fix bug in parser", "", "", ""), act("", "fix BUG in parser", "parser", "", ""), 0.6},
		{"equal titles equal keywords", act("", "Deploy", "Using Docker", "", ""), act("", "Deploy", "Using Docker", "", ""), 1.0},
		{"substring title", act("", "Write docs", "", "", ""), act("", "Write docs for api", "", "", ""), 0.48},
		{"shared token", act("", "deploy api", "", "", ""), act("", "api review", "", "", ""), 0.36},
		{"partial keyword overlap", act("", "Deploy", "Docker and Slack", "", ""), act("", "Deploy", "Docker only", "", ""), 0.6 + 0.4*0.5},
		{"disjoint titles", act("", "alpha", "Docker", "", ""), act("", "beta", "Docker", "", ""), 0.4},
		{"empty title gate", act("", "", "Docker", "", ""), act("", "Deploy", "Docker", "", ""), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Similarity(tt.a, tt.b)
			if !approx(got, tt.want) {
				t.Errorf("Similarity = %v, want %v", got, tt.want)
			}
			if back := ex.Similarity(tt.b, tt.a); !approx(back, got) {
				t.Errorf("Similarity not symmetric: %v vs %v", got, back)
			}
		})
	}
}

// ─── Clustering ──────────────────────────────────────────────────────────────

func TestClusterActivities_ThresholdBoundary(t *testing.T) {
	acts := []activity.Activity{
		act("a", "Fix bug in parser", "", "", ""),
		act("b", "Fix bug in parser", "parser", "", ""),
	}

	if got := sizes(ClusterActivities(acts, 0.6)); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("threshold 0.6: sizes = %v, want [2]", got)
	}
	if got := sizes(ClusterActivities(acts, 0.61)); !reflect.DeepEqual(got, []int{1, 1}) {
		t.Errorf("threshold 0.61: sizes = %v, want [1 1]", got)
	}
}

func TestClusterActivities_Empty(t *testing.T) {
	if got := ClusterActivities(nil, 0.6); len(got) != 0 {
		t.Errorf("expected no clusters, got %d", len(got))
	}
}

func TestClusterActivities_Single(t *testing.T) {
	got := ClusterActivities([]activity.Activity{act("a", "Solo", "", "", "")}, 0.6)
	if len(got) != 1 || got[0].Seed != 0 || len(got[0].Members) != 1 {
		t.Errorf("unexpected clusters: %+v", got)
	}
}

func TestClusterActivities_TitleGate(t *testing.T) {
	content := "Working in Docker on KubernetesOperator"
	acts := []activity.Activity{act("a", "", content, "", ""), act("b", "", content, "", "")}
	for _, th := range []float64{0.01, 0.6, 1.0} {
		if got := ClusterActivities(acts, th); len(got) != 2 {
			t.Errorf("threshold %v: empty-titled activities merged into %d clusters", th, len(got))
		}
	}
}

func TestClusterActivities_SeedAndMergeOrder(t *testing.T) {
	acts := []activity.Activity{
		act("x", "Alpha", "", "", ""),
		act("y", "Beta", "", "", ""),
		act("z", "Gamma", "", "", ""),
		act("w", "Beta", "", "", ""),
	}
	got := ClusterActivities(acts, 0.6)
	if len(got) != 3 {
		t.Fatalf("clusters = %d, want 3", len(got))
	}
	if got[1].Seed != 1 || len(got[1].Members) != 2 {
		t.Fatalf("second cluster = %+v, want seed 1 with 2 members", got[1])
	}
	if got[1].Members[0].ID != "y" || got[1].Members[1].ID != "w" {
		t.Errorf("members should keep merge order, got %s,%s", got[1].Members[0].ID, got[1].Members[1].ID)
	}
	if got[2].Seed != 2 {
		t.Errorf("third cluster seed = %d, want 2", got[2].Seed)
	}
}

func TestClusterActivities_Transitive(t *testing.T) {
	// a~b and b~c merge into one even though a and c share nothing.
	acts := []activity.Activity{
		act("a", "deploy api", "", "", ""),
		act("b", "api review", "", "", ""),
		act("c", "review notes", "", "", ""),
	}
	got := ClusterActivities(acts, 0.3)
	if len(got) != 1 || len(got[0].Members) != 3 {
		t.Errorf("sizes = %v, want [3]", sizes(got))
	}
}

func TestClusterActivities_Deterministic(t *testing.T) {
	m := New(DefaultConfig(), nil)
	first := m.Mine(mixedFixture())
	second := m.Mine(mixedFixture())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("mining is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestClusterActivities_ThresholdMonotonic(t *testing.T) {
	acts := mixedFixture()
	prev := 0
	for step := 0; step <= 20; step++ {
		th := float64(step) / 20
		n := len(ClusterActivities(acts, th))
		if n < prev {
			t.Fatalf("threshold %.2f gave %d clusters, fewer than %d at a lower threshold", th, n, prev)
		}
		prev = n
	}
}

// ─── Summaries ───────────────────────────────────────────────────────────────

func TestTitle(t *testing.T) {
	ex := NewExtractor(DefaultVocabulary(), DefaultTopK)

	tests := []struct {
		name    string
		members []activity.Activity
		want    string
	}{
		{
			name:    "mode wins",
			members: []activity.Activity{
				act("", "B", "", "", ""), act("", "A", "", "", ""), act("", "A", "", "", ""),
				act("", "", "", "", ""), act("", "", "", "", ""), act("", "", "", "", ""),
			},
			want: "A",
		},
		{
			name:    "tie goes to first",
			members: []activity.Activity{act("", "B", "", "", ""), act("", "A", "", "", "")},
			want:    "B",
		},
		{
			name:    "keyword fallback",
			members: []activity.Activity{
				act("", "", "Working in Docker", "", ""),
				act("", "", "Docker compose with Kubernetes", "", ""),
			},
			want: "Docker | Working | Kubernetes",
		},
		{
			name:    "placeholder",
			members: []activity.Activity{act("", "", "a b", "", "")},
			want:    MixedTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ex.Title(tt.members); got != tt.want {
				t.Errorf("Title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpanOf(t *testing.T) {
	t.Run("no timestamps", func(t *testing.T) {
		got := SpanOf([]activity.Activity{act("a", "t", "", "", "")})
		if got.Start != nil || got.End != nil || got.DurationDays != 0 {
			t.Errorf("SpanOf = %+v, want zero range", got)
		}
	})

	t.Run("end only", func(t *testing.T) {
		got := SpanOf([]activity.Activity{
			act("a", "t", "", "", "2025-03-02T10:00:00"),
			act("b", "t", "", "", "2025-03-01T10:00:00"),
		})
		if *got.Start != "2025-03-01T10:00:00" || *got.End != "2025-03-02T10:00:00" {
			t.Errorf("range = %s..%s", *got.Start, *got.End)
		}
		if got.DurationDays != 2 {
			t.Errorf("DurationDays = %d, want 2", got.DurationDays)
		}
	})

	t.Run("same day", func(t *testing.T) {
		got := SpanOf([]activity.Activity{act("a", "t", "", "2025-03-01T09:00:00", "2025-03-01T17:00:00")})
		if got.DurationDays != 1 {
			t.Errorf("DurationDays = %d, want 1", got.DurationDays)
		}
	})

	t.Run("unparseable", func(t *testing.T) {
		got := SpanOf([]activity.Activity{act("a", "t", "", "yesterday", "today")})
		if got.Start == nil || *got.Start != "yesterday" || got.DurationDays != 1 {
			t.Errorf("SpanOf = %+v, want start=yesterday duration=1", got)
		}
	})

	t.Run("parsed bounds win over unparseable ones", func(t *testing.T) {
		got := SpanOf([]activity.Activity{
			act("a", "t", "", "2025-03-02T10:00:00", "soon"),
			act("b", "t", "", "whenever", "2025-03-03T10:00:00"),
		})
		if *got.Start != "2025-03-02T10:00:00" || *got.End != "2025-03-03T10:00:00" || got.DurationDays != 2 {
			t.Errorf("SpanOf = %s..%s (%d days)", *got.Start, *got.End, got.DurationDays)
		}
	})

	t.Run("mixed offsets compare chronologically", func(t *testing.T) {
		got := SpanOf([]activity.Activity{
			act("a", "t", "", "2025-03-01T08:00:00+08:00", ""),
			act("b", "t", "", "2025-03-01T01:00:00Z", ""),
		})
		if *got.Start != "2025-03-01T08:00:00+08:00" {
			t.Errorf("Start = %s, want the +08:00 value (00:00Z)", *got.Start)
		}
	})
}

// ─── Ranking ─────────────────────────────────────────────────────────────────

func TestMine_SevenSameTitle(t *testing.T) {
	days := []int{1, 2, 3, 5, 7, 9, 10}
	var acts []activity.Activity
	for i, d := range days {
		acts = append(acts, act(
			fmt.Sprintf("a%d", i+1),
			"Review pull requests",
			"",
			fmt.Sprintf("2025-01-%02dT09:00:00", d),
			fmt.Sprintf("2025-01-%02dT10:00:00", d),
		))
	}

	m := New(Config{SimilarityThreshold: 0.6, TopN: 1}, nil)
	got := m.Mine(acts)
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1", len(got))
	}
	c := got[0]
	if c.Freq != 7 {
		t.Errorf("Freq = %d, want 7", c.Freq)
	}
	if c.TimeRange.DurationDays != 10 {
		t.Errorf("DurationDays = %d, want 10", c.TimeRange.DurationDays)
	}
	if c.CandidateID != "candidate_0" {
		t.Errorf("CandidateID = %q, want candidate_0", c.CandidateID)
	}
	if !reflect.DeepEqual(c.SampleActivityIDs, []string{"a7", "a6"}) {
		t.Errorf("SampleActivityIDs = %v, want [a7 a6]", c.SampleActivityIDs)
	}
}

func TestRank_OrderAndIDs(t *testing.T) {
	acts := []activity.Activity{
		act("x", "Alpha", "", "2025-01-01T00:00:00", ""),
		act("y", "Beta", "", "2025-01-02T00:00:00", ""),
		act("", "Beta", "", "2025-01-03T00:00:00", ""),
		act("z", "Gamma", "", "2025-01-04T00:00:00", ""),
	}
	m := New(DefaultConfig(), nil)
	got := m.Mine(acts)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.CandidateID
	}
	want := []string{"candidate_1", "candidate_0", "candidate_3"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
	// The newest Beta has no id, so only "y" is sampled.
	if !reflect.DeepEqual(got[0].SampleActivityIDs, []string{"y"}) {
		t.Errorf("SampleActivityIDs = %v, want [y]", got[0].SampleActivityIDs)
	}
}

func TestByRecency_UndatedLastWhateverTheInputOrder(t *testing.T) {
	members := []activity.Activity{
		act("u1", "t", "", "", "zzz"),
		act("d1", "t", "", "", "2025-01-02T00:00:00"),
		act("u2", "t", "", "", "aaa"),
		act("d2", "t", "", "", "2025-01-03T00:00:00"),
		act("d3", "t", "", "", "2025-01-01T00:00:00"),
	}
	want := []string{"d2", "d1", "d3", "u1", "u2"}

	for shift := range members {
		in := append(append([]activity.Activity{}, members[shift:]...), members[:shift]...)
		got := byRecency(in)
		ids := make([]string, len(got))
		for i, m := range got {
			ids[i] = m.ID
		}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("rotation %d: order = %v, want %v", shift, ids, want)
		}
	}
}

func TestRank_TopNNonPositiveKeepsAll(t *testing.T) {
	clusters := ClusterActivities(mixedFixture(), 0.6)
	got := defaultExtractor.Rank(clusters, 0)
	if len(got) != len(clusters) {
		t.Errorf("candidates = %d, want %d", len(got), len(clusters))
	}
}

func TestMine_Empty(t *testing.T) {
	got := New(DefaultConfig(), nil).Mine(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Mine(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := []Config{
		{SimilarityThreshold: -0.1, TopN: 5},
		{SimilarityThreshold: 1.1, TopN: 5},
		{SimilarityThreshold: 0.5, TopN: -1},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}
