// Package evidence builds evidence packs for behavior candidates: a small,
// time-diverse sample of supporting activities plus an explicit list of what
// the data cannot prove.
package evidence

import (
	"github.com/charmbracelet/log"

	"github.com/HendryAvila/mcagent/internal/activity"
	"github.com/HendryAvila/mcagent/internal/logging"
	"github.com/HendryAvila/mcagent/internal/miner"
)

// Defaults for Options.
const (
	DefaultMinExamples   = 3
	DefaultExcerptLength = 200
	DataSource           = "MineContext Activities"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Example is one supporting activity reference.
type Example struct {
	OccurredAt string `json:"occurred_at"`
	SourceRef  string `json:"source_ref"`
	Excerpt    string `json:"excerpt"`
}

// Summary counts matched activities against emitted examples.
type Summary struct {
	TotalActivities   int `json:"total_activities"`
	GeneratedExamples int `json:"generated_examples"`
}

// Metadata describes how a pack was produced.
type Metadata struct {
	GeneratedAt string `json:"generated_at"`
	DataSource  string `json:"data_source"`
}

// Pack is the evidence bundle for one candidate. Packs are built fresh on
// every call and never mutated afterwards.
type Pack struct {
	CandidateID     string      `json:"candidate_id"`
	CandidateTitle  string      `json:"candidate_title"`
	EvidenceSummary Summary     `json:"evidence_summary"`
	Examples        []Example   `json:"examples"`
	Uncertainty     Uncertainty `json:"uncertainty"`
	Metadata        Metadata    `json:"metadata"`
}

// Options configures a Builder.
type Options struct {
	MinExamples   int
	ExcerptLength int
}

// ─── Builder ─────────────────────────────────────────────────────────────────

// Builder assembles evidence packs.
type Builder struct {
	opts   Options
	logger *log.Logger
}

// NewBuilder creates a Builder. Zero option values take the defaults.
func NewBuilder(opts Options, logger *log.Logger) *Builder {
	if opts.MinExamples <= 0 {
		opts.MinExamples = DefaultMinExamples
	}
	if opts.ExcerptLength <= 0 {
		opts.ExcerptLength = DefaultExcerptLength
	}
	return &Builder{opts: opts, logger: logging.OrDiscard(logger)}
}

// Build produces the evidence pack for c drawn from pool. minExamples <= 0
// uses the builder's default.
//
// Matching is best-effort: beyond the candidate's sample ids it falls back to
// title substring matching, which can under- or over-match generic titles.
func (b *Builder) Build(c miner.Candidate, pool []activity.Activity, minExamples int) *Pack {
	if minExamples <= 0 {
		minExamples = b.opts.MinExamples
	}

	matched := Match(c, pool, minExamples)
	selected := SelectDiverse(matched, minExamples)

	examples := make([]Example, 0, len(selected))
	for _, a := range selected {
		examples = append(examples, Example{
			OccurredAt: a.OccurredAt(),
			SourceRef:  a.ID,
			Excerpt:    Excerpt(a, b.opts.ExcerptLength),
		})
	}

	b.logger.Debug("built evidence pack",
		"candidate", c.CandidateID,
		"matched", len(matched),
		"examples", len(examples))

	return &Pack{
		CandidateID:    c.CandidateID,
		CandidateTitle: c.Title,
		EvidenceSummary: Summary{
			TotalActivities:   len(matched),
			GeneratedExamples: len(examples),
		},
		Examples:    examples,
		Uncertainty: AssessUncertainty(c),
		Metadata: Metadata{
			GeneratedAt: timeNow().Format("2006-01-02T15:04:05.000000"),
			DataSource:  DataSource,
		},
	}
}
