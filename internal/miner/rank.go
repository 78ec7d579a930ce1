package miner

import (
	"sort"
	"strconv"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// sampleSize is how many recent activity ids a candidate carries.
const sampleSize = 2

// Candidate is a ranked recurring behavior. Its id is derived from the
// cluster's seed position in the mined input, so it is only meaningful
// within the result of one mining run.
type Candidate struct {
	CandidateID       string    `json:"candidate_id"`
	Title             string    `json:"title"`
	Freq              int       `json:"freq"`
	TimeRange         TimeRange `json:"time_range"`
	SampleActivityIDs []string  `json:"sample_activity_ids"`
}

// CandidateID formats the run-scoped id of the cluster founded by the
// activity at position seed.
func CandidateID(seed int) string {
	return "candidate_" + strconv.Itoa(seed)
}

// Rank summarises clusters and orders them by frequency, most frequent
// first. Equal frequencies keep cluster discovery order. topN <= 0 keeps
// every cluster.
func (e *Extractor) Rank(clusters []Cluster, topN int) []Candidate {
	out := make([]Candidate, 0, len(clusters))
	for _, c := range clusters {
		members := byRecency(c.Members)
		out = append(out, Candidate{
			CandidateID:       CandidateID(c.Seed),
			Title:             e.Title(members),
			Freq:              len(members),
			TimeRange:         SpanOf(members),
			SampleActivityIDs: sampleIDs(members),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Freq > out[j].Freq
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// byRecency returns a copy of members sorted by LatestAt, newest first.
// Members whose timestamp does not parse sort after every dated member.
func byRecency(members []activity.Activity) []activity.Activity {
	sorted := make([]activity.Activity, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareTimestamps(sorted[i].LatestAt(), sorted[j].LatestAt()) > 0
	})
	return sorted
}

func sampleIDs(recent []activity.Activity) []string {
	ids := []string{}
	for i := 0; i < len(recent) && i < sampleSize; i++ {
		if recent[i].ID != "" {
			ids = append(ids, recent[i].ID)
		}
	}
	return ids
}
