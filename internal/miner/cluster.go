package miner

import (
	"math"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// DefaultSimilarityThreshold is the minimum score for two clusters to merge.
const DefaultSimilarityThreshold = 0.6

// Cluster is a group of activities judged to be one recurring behavior.
// Seed is the input position of the activity that founded the cluster;
// Members keeps merge order (seed first).
type Cluster struct {
	Seed    int
	Members []activity.Activity
}

// ClusterActivities partitions acts with the default extractor.
func ClusterActivities(acts []activity.Activity, threshold float64) []Cluster {
	return defaultExtractor.Cluster(acts, threshold)
}

var defaultExtractor = NewExtractor(DefaultVocabulary(), DefaultTopK)

// Cluster greedily merges activities whose best pairwise similarity reaches
// threshold. Live clusters are scanned pairwise in discovery order; the first
// pair that qualifies is merged (second into first) and the scan restarts.
// This is first-found, not best-pair-first: under borderline thresholds the
// partition depends on input order. Empty input yields no clusters.
func (e *Extractor) Cluster(acts []activity.Activity, threshold float64) []Cluster {
	if len(acts) == 0 {
		return nil
	}

	feats := make([]features, len(acts))
	for i, a := range acts {
		feats[i] = e.features(a)
	}
	scores := newScoreCache(len(acts))
	score := func(i, j int) float64 {
		if s, ok := scores.get(i, j); ok {
			return s
		}
		s := similarity(feats[i], feats[j])
		scores.put(i, j, s)
		return s
	}

	// Each live group is a list of input indexes, seed first.
	groups := make([][]int, len(acts))
	for i := range acts {
		groups[i] = []int{i}
	}

	for merged := true; merged && len(groups) > 1; {
		merged = false
	scan:
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if !reaches(groups[i], groups[j], threshold, score) {
					continue
				}
				groups[i] = append(groups[i], groups[j]...)
				groups = append(groups[:j], groups[j+1:]...)
				merged = true
				break scan
			}
		}
	}

	clusters := make([]Cluster, len(groups))
	for k, g := range groups {
		members := make([]activity.Activity, len(g))
		for m, idx := range g {
			members[m] = acts[idx]
		}
		clusters[k] = Cluster{Seed: g[0], Members: members}
	}
	return clusters
}

// reaches reports whether the maximum member-pair similarity between a and b
// is at least threshold.
func reaches(a, b []int, threshold float64, score func(i, j int) float64) bool {
	for _, i := range a {
		for _, j := range b {
			if score(i, j) >= threshold {
				return true
			}
		}
	}
	return false
}

// scoreCache memoizes pairwise scores in a triangular matrix. Clustering
// rescans the same pairs after every merge.
type scoreCache struct {
	n    int
	vals []float64
}

func newScoreCache(n int) *scoreCache {
	vals := make([]float64, n*(n-1)/2)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return &scoreCache{n: n, vals: vals}
}

func (c *scoreCache) index(i, j int) int {
	if i > j {
		i, j = j, i
	}
	// Row i starts after rows 0..i-1, each of length n-1-r.
	return i*(2*c.n-i-1)/2 + (j - i - 1)
}

func (c *scoreCache) get(i, j int) (float64, bool) {
	v := c.vals[c.index(i, j)]
	return v, !math.IsNaN(v)
}

func (c *scoreCache) put(i, j int, v float64) {
	c.vals[c.index(i, j)] = v
}
