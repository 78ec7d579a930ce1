package source

import (
	"context"
	"errors"
	"io/fs"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/mcagent/internal/activity"
	"github.com/HendryAvila/mcagent/internal/cache"
	"github.com/HendryAvila/mcagent/internal/logging"
)

// Origins reported by Loader.Load.
const (
	OriginCache       = "cache"
	OriginMineContext = "minecontext"
	OriginStaleCache  = "stale-cache"
	OriginSamples     = "samples"
	OriginNone        = "none"
)

// ActivityFetcher fetches live activities for a lookback window.
type ActivityFetcher interface {
	Activities(ctx context.Context, days int) ([]activity.Activity, error)
}

// Cache is the subset of the activity cache the loader needs.
type Cache interface {
	Get(day string, days int) (*cache.Entry, error)
	LatestForDay(day string) (*cache.Entry, error)
	Put(days int, source string, acts []activity.Activity) error
}

// Options controls one Load call.
type Options struct {
	Days     int
	UseCache bool
}

// Batch is the result of a load.
type Batch struct {
	Activities []activity.Activity
	Origin     string
}

// Loader resolves activities through the fallback chain:
// fresh cache, live API, any batch cached today, the samples file, nothing.
type Loader struct {
	fetcher     ActivityFetcher
	cache       Cache
	samplesPath string
	logger      *log.Logger
}

// NewLoader creates a Loader. c may be nil to run without a cache.
func NewLoader(fetcher ActivityFetcher, c Cache, samplesPath string, logger *log.Logger) *Loader {
	return &Loader{
		fetcher:     fetcher,
		cache:       c,
		samplesPath: samplesPath,
		logger:      logging.OrDiscard(logger),
	}
}

// Load returns activities for opts.Days. It never fails: each stage's error
// is logged and the next stage is tried. An exhausted chain yields an empty
// batch with OriginNone.
func (l *Loader) Load(ctx context.Context, opts Options) Batch {
	today := cache.Today()

	if opts.UseCache && l.cache != nil {
		entry, err := l.cache.Get(today, opts.Days)
		switch {
		case err != nil:
			l.logger.Warn("read cache failed, refetching", "err", err)
		case entry != nil && entry.FreshWithin(opts.Days):
			l.logger.Info("using cache", "day", entry.Day, "days", entry.Days, "source", entry.Source)
			return Batch{Activities: entry.Activities, Origin: OriginCache}
		}
	}

	if l.fetcher != nil {
		acts, err := l.fetcher.Activities(ctx, opts.Days)
		switch {
		case err != nil:
			l.logger.Warn("fetch from minecontext failed, falling back", "err", err)
		case len(acts) == 0:
			l.logger.Warn("minecontext returned no activities in window", "days", opts.Days)
		default:
			if opts.UseCache {
				l.store(opts.Days, cache.SourceMineContext, acts)
			}
			return Batch{Activities: acts, Origin: OriginMineContext}
		}
	}

	// A batch cached earlier today is better than samples, even when the
	// caller asked to bypass the fresh-cache check.
	if l.cache != nil {
		entry, err := l.cache.LatestForDay(today)
		switch {
		case err != nil:
			l.logger.Warn("read stale cache failed", "err", err)
		case entry != nil && len(entry.Activities) > 0:
			l.logger.Info("using stale cache", "day", entry.Day, "activities", len(entry.Activities))
			return Batch{Activities: entry.Activities, Origin: OriginStaleCache}
		}
	}

	if l.samplesPath != "" {
		acts, err := LoadSamples(l.samplesPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Warn("samples file does not exist", "path", l.samplesPath)
		case err != nil:
			l.logger.Warn("load samples failed", "err", err)
		case len(acts) > 0:
			l.logger.Info("loaded samples", "path", l.samplesPath, "activities", len(acts))
			if opts.UseCache {
				l.store(opts.Days, cache.SourceSamples, acts)
			}
			return Batch{Activities: acts, Origin: OriginSamples}
		}
	}

	return Batch{Activities: []activity.Activity{}, Origin: OriginNone}
}

func (l *Loader) store(days int, src string, acts []activity.Activity) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Put(days, src, acts); err != nil {
		l.logger.Warn("save cache failed", "err", err)
	}
}
