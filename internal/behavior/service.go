// Package behavior wires activity loading, mining, evidence and export into
// the operations exposed by the MCP server, the HTTP service and the CLI.
package behavior

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/mcagent/internal/cache"
	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/export"
	"github.com/HendryAvila/mcagent/internal/logging"
	"github.com/HendryAvila/mcagent/internal/miner"
	"github.com/HendryAvila/mcagent/internal/screen"
	"github.com/HendryAvila/mcagent/internal/source"
	"github.com/HendryAvila/mcagent/internal/templates"
)

const (
	// DefaultDays is the lookback window used when none is configured.
	DefaultDays = 7
	// DefaultLookupTopN bounds the re-mine that resolves a candidate id.
	DefaultLookupTopN = 50

	maxAvailableIDs = 10
)

// ErrNoCandidates is returned when mining yields nothing to act on.
var ErrNoCandidates = errors.New("no behavior candidates found")

// ErrCacheDisabled is returned by cache operations when no cache is configured.
var ErrCacheDisabled = errors.New("activity cache is disabled")

// NotFoundError reports an unknown candidate id. Available holds up to ten
// ids from the same mining run.
type NotFoundError struct {
	ID        string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("candidate %q not found: no candidates available", e.ID)
	}
	return fmt.Sprintf("candidate %q not found, available: %s", e.ID, strings.Join(e.Available, ", "))
}

// Unwrap lets errors.Is(err, ErrNoCandidates) match an empty mining run.
func (e *NotFoundError) Unwrap() error {
	if len(e.Available) == 0 {
		return ErrNoCandidates
	}
	return nil
}

// ─── Dependencies ────────────────────────────────────────────────────────────

// ActivityLoader resolves activities for a window.
type ActivityLoader interface {
	Load(ctx context.Context, opts source.Options) source.Batch
}

// Pinger checks the MineContext API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheAdmin manages cached activity batches.
type CacheAdmin interface {
	List() ([]cache.EntryInfo, error)
	Clear() (int, error)
}

// Defaults are used when a call leaves a parameter at zero.
type Defaults struct {
	Days        int
	TopN        int
	MinExamples int
	LookupTopN  int
	ExportDir   string
}

// Deps bundles the collaborators of a Service. Pinger and Cache may be nil.
type Deps struct {
	Loader   ActivityLoader
	Snapshot screen.Fetcher
	Pinger   Pinger
	Cache    CacheAdmin
	Miner    *miner.Miner
	Builder  *evidence.Builder
	Exporter *export.Exporter
	BaseURL  string
	Defaults Defaults
}

// Service implements the behavior-mining operations.
type Service struct {
	deps   Deps
	logger *log.Logger
}

// NewService creates a Service. Zero defaults are filled in.
func NewService(deps Deps, logger *log.Logger) *Service {
	d := &deps.Defaults
	if d.Days <= 0 {
		d.Days = DefaultDays
	}
	if d.TopN <= 0 {
		d.TopN = miner.DefaultTopN
	}
	if d.MinExamples <= 0 {
		d.MinExamples = evidence.DefaultMinExamples
	}
	if d.LookupTopN <= 0 {
		d.LookupTopN = DefaultLookupTopN
	}
	if d.ExportDir == "" {
		d.ExportDir = "exports"
	}
	return &Service{deps: deps, logger: logging.OrDiscard(logger)}
}

// Defaults returns the effective defaults.
func (s *Service) Defaults() Defaults { return s.deps.Defaults }

// ─── Candidates ──────────────────────────────────────────────────────────────

// ListOptions controls ListCandidates.
type ListOptions struct {
	Days     int
	TopN     int
	UseCache bool
}

// Listing is a ranked candidate list with the batch it was mined from.
type Listing struct {
	Candidates      []miner.Candidate `json:"candidates"`
	TotalActivities int               `json:"total_activities"`
	Origin          string            `json:"origin"`
	Days            int               `json:"days"`
	TopN            int               `json:"top_n"`
}

// ListCandidates loads activities for the window and mines them.
func (s *Service) ListCandidates(ctx context.Context, opts ListOptions) (*Listing, error) {
	days := s.days(opts.Days)
	topN := opts.TopN
	if topN <= 0 {
		topN = s.deps.Defaults.TopN
	}

	batch := s.deps.Loader.Load(ctx, source.Options{Days: days, UseCache: opts.UseCache})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	candidates := s.deps.Miner.MineTop(batch.Activities, topN)
	s.logger.Info("mined candidates",
		"days", days,
		"origin", batch.Origin,
		"activities", len(batch.Activities),
		"candidates", len(candidates))

	return &Listing{
		Candidates:      candidates,
		TotalActivities: len(batch.Activities),
		Origin:          batch.Origin,
		Days:            days,
		TopN:            topN,
	}, nil
}

// resolved is a candidate together with the batch it was mined from.
type resolved struct {
	candidate miner.Candidate
	batch     source.Batch
}

// resolve re-mines the window and looks up id. Candidate ids are only stable
// for identical input, so the lookup mines a wider top_n than listings.
func (s *Service) resolve(ctx context.Context, id string, days int) (*resolved, error) {
	batch := s.deps.Loader.Load(ctx, source.Options{Days: days, UseCache: true})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	candidates := s.deps.Miner.MineTop(batch.Activities, s.deps.Defaults.LookupTopN)
	available := make([]string, 0, maxAvailableIDs)
	for _, c := range candidates {
		if c.CandidateID == id {
			return &resolved{candidate: c, batch: batch}, nil
		}
		if len(available) < maxAvailableIDs {
			available = append(available, c.CandidateID)
		}
	}
	return nil, &NotFoundError{ID: id, Available: available}
}

// ─── Evidence ────────────────────────────────────────────────────────────────

// EvidenceOptions controls Evidence.
type EvidenceOptions struct {
	Days        int
	MinExamples int
}

// EvidenceResult is a candidate with its evidence pack.
type EvidenceResult struct {
	Candidate    miner.Candidate `json:"candidate"`
	EvidencePack *evidence.Pack  `json:"evidence_pack"`
	Days         int             `json:"days"`
	MinExamples  int             `json:"min_examples"`
}

// Evidence builds the evidence pack for candidate id.
func (s *Service) Evidence(ctx context.Context, id string, opts EvidenceOptions) (*EvidenceResult, error) {
	days := s.days(opts.Days)
	minExamples := opts.MinExamples
	if minExamples <= 0 {
		minExamples = s.deps.Defaults.MinExamples
	}

	r, err := s.resolve(ctx, id, days)
	if err != nil {
		return nil, err
	}
	return &EvidenceResult{
		Candidate:    r.candidate,
		EvidencePack: s.deps.Builder.Build(r.candidate, r.batch.Activities, minExamples),
		Days:         days,
		MinExamples:  minExamples,
	}, nil
}

// ─── Export ──────────────────────────────────────────────────────────────────

// ExportBundle writes the PRD, spec and evidence files for candidate id.
// An empty dir uses the default export directory.
func (s *Service) ExportBundle(ctx context.Context, id, dir string, days int) (*export.Bundle, error) {
	r, err := s.resolveForExport(ctx, id, days)
	if err != nil {
		return nil, err
	}
	pack := s.deps.Builder.Build(r.candidate, r.batch.Activities, s.deps.Defaults.MinExamples)
	return s.deps.Exporter.Export(r.candidate, pack, s.dir(dir))
}

// ExportPRD writes a single PRD document for candidate id in format.
func (s *Service) ExportPRD(ctx context.Context, id, dir string, format templates.Format, days int) (string, error) {
	r, err := s.resolveForExport(ctx, id, days)
	if err != nil {
		return "", err
	}
	pack := s.deps.Builder.Build(r.candidate, r.batch.Activities, s.deps.Defaults.MinExamples)
	return s.deps.Exporter.ExportPRD(r.candidate, pack, s.dir(dir), format)
}

// ExportAll exports a bundle for each of the top candidates. A candidate
// that fails to export is logged and skipped.
func (s *Service) ExportAll(ctx context.Context, dir string, days, topN int) ([]*export.Bundle, error) {
	days = s.days(days)
	if topN <= 0 {
		topN = s.deps.Defaults.TopN
	}

	batch := s.deps.Loader.Load(ctx, source.Options{Days: days, UseCache: true})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	candidates := s.deps.Miner.MineTop(batch.Activities, topN)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	bundles := []*export.Bundle{}
	for _, c := range candidates {
		pack := s.deps.Builder.Build(c, batch.Activities, s.deps.Defaults.MinExamples)
		b, err := s.deps.Exporter.Export(c, pack, s.dir(dir))
		if err != nil {
			s.logger.Warn("skipping candidate", "candidate", c.CandidateID, "err", err)
			continue
		}
		bundles = append(bundles, b)
	}
	s.logger.Info("exported candidates", "exported", len(bundles), "candidates", len(candidates))
	return bundles, nil
}

func (s *Service) resolveForExport(ctx context.Context, id string, days int) (*resolved, error) {
	r, err := s.resolve(ctx, id, s.days(days))
	if errors.Is(err, ErrNoCandidates) {
		return nil, ErrNoCandidates
	}
	return r, err
}

// ─── Screen context and cache ────────────────────────────────────────────────

// ErrNoPinger is returned by Ping when no MineContext client is configured.
var ErrNoPinger = errors.New("no MineContext client configured")

// Ping reports whether the MineContext API answers.
func (s *Service) Ping(ctx context.Context) error {
	if s.deps.Pinger == nil {
		return ErrNoPinger
	}
	return s.deps.Pinger.Ping(ctx)
}

// ScreenContext summarises what the user is currently doing. Failures are
// reported inside the summary.
func (s *Service) ScreenContext(ctx context.Context, taskType, detailLevel string) *screen.Summary {
	return screen.Summarize(ctx, s.deps.Snapshot, s.deps.BaseURL, taskType, detailLevel)
}

// CacheEntries lists cached batches, newest first.
func (s *Service) CacheEntries() ([]cache.EntryInfo, error) {
	if s.deps.Cache == nil {
		return nil, ErrCacheDisabled
	}
	return s.deps.Cache.List()
}

// ClearCache removes every cached batch and returns how many were removed.
func (s *Service) ClearCache() (int, error) {
	if s.deps.Cache == nil {
		return 0, ErrCacheDisabled
	}
	n, err := s.deps.Cache.Clear()
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	s.logger.Info("cleared activity cache", "entries", n)
	return n, nil
}

func (s *Service) days(d int) int {
	if d <= 0 {
		return s.deps.Defaults.Days
	}
	return d
}

func (s *Service) dir(d string) string {
	if d == "" {
		return s.deps.Defaults.ExportDir
	}
	return d
}
