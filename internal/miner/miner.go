// Package miner derives recurring behavior candidates from activity records.
//
// The pipeline is deliberately heuristic and explainable: keywords come from
// URLs, a fixed application vocabulary and CamelCase tokens; similarity is a
// weighted mix of title and keyword overlap; clustering is a greedy
// agglomerative merge. Every merge decision can be traced back to the text
// that caused it.
package miner

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/mcagent/internal/activity"
	"github.com/HendryAvila/mcagent/internal/logging"
)

// DefaultTopN is the number of candidates returned by Mine.
const DefaultTopN = 5

// Config holds the mining parameters.
type Config struct {
	SimilarityThreshold float64
	TopN                int
	// Vocabulary overrides the application/tool table. Empty means
	// DefaultVocabulary.
	Vocabulary []string
}

// DefaultConfig returns the stock mining parameters.
func DefaultConfig() Config {
	return Config{SimilarityThreshold: DefaultSimilarityThreshold, TopN: DefaultTopN}
}

// Validate checks the parameters are usable.
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be within [0, 1], got %v", c.SimilarityThreshold)
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must not be negative, got %d", c.TopN)
	}
	return nil
}

// Miner runs cluster + summarise + rank over an activity batch.
type Miner struct {
	cfg       Config
	extractor *Extractor
	logger    *log.Logger
}

// New creates a Miner. A nil logger discards output.
func New(cfg Config, logger *log.Logger) *Miner {
	vocab := cfg.Vocabulary
	if len(vocab) == 0 {
		vocab = DefaultVocabulary()
	}
	return &Miner{
		cfg:       cfg,
		extractor: NewExtractor(vocab, DefaultTopK),
		logger:    logging.OrDiscard(logger),
	}
}

// Mine returns the top candidates for acts using the configured top_n.
func (m *Miner) Mine(acts []activity.Activity) []Candidate {
	return m.MineTop(acts, m.cfg.TopN)
}

// MineTop is Mine with an explicit top_n. An empty batch yields an empty,
// non-nil slice.
func (m *Miner) MineTop(acts []activity.Activity, topN int) []Candidate {
	if len(acts) == 0 {
		m.logger.Warn("no activities to mine")
		return []Candidate{}
	}

	clusters := m.extractor.Cluster(acts, m.cfg.SimilarityThreshold)
	m.logger.Info("clustered activities",
		"activities", len(acts),
		"clusters", len(clusters),
		"threshold", m.cfg.SimilarityThreshold)

	candidates := m.extractor.Rank(clusters, topN)
	for _, c := range candidates {
		m.logger.Debug("candidate", "id", c.CandidateID, "title", c.Title, "freq", c.Freq)
	}
	return candidates
}
