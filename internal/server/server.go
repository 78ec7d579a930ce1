// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete MineContext client,
// cache, miner and exporter and injects them into the behavior service that
// the tools, prompts and resources depend on. No business logic lives here.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/cache"
	"github.com/HendryAvila/mcagent/internal/config"
	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/export"
	"github.com/HendryAvila/mcagent/internal/logging"
	"github.com/HendryAvila/mcagent/internal/miner"
	"github.com/HendryAvila/mcagent/internal/prompts"
	"github.com/HendryAvila/mcagent/internal/resources"
	"github.com/HendryAvila/mcagent/internal/source"
	"github.com/HendryAvila/mcagent/internal/templates"
	"github.com/HendryAvila/mcagent/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// startupPingTimeout bounds the MineContext reachability check in New.
const startupPingTimeout = 3 * time.Second

// NewService builds the behavior service from cfg. It is shared by the MCP
// server, the HTTP service and the CLI.
//
// The returned cleanup function closes the cache database and must be called
// on shutdown. It is always non-nil and safe to call even if the cache is
// disabled or failed to open.
func NewService(cfg *config.Config, logger *log.Logger) (*behavior.Service, func(), error) {
	logger = logging.OrDiscard(logger)

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	client := source.NewClient(source.Config{
		BaseURL:           cfg.MineContext.BaseURL,
		Timeout:           cfg.MineContext.Timeout,
		FetchLimit:        cfg.MineContext.FetchLimit,
		RequestsPerSecond: cfg.MineContext.RequestsPerSecond,
		Retries:           cfg.MineContext.Retries,
	}, logger.WithPrefix("minecontext"))

	// The cache is optional: if it cannot be opened, mining still works
	// against the live API and the samples file.
	cleanup := noop
	var (
		loaderCache source.Cache
		adminCache  behavior.CacheAdmin
	)
	if cfg.Cache.Enabled {
		store, err := cache.New(cache.Config{Path: cfg.CachePath()})
		if err != nil {
			logger.Warn("activity cache disabled", "err", err)
		} else {
			loaderCache, adminCache = store, store
			cleanup = func() {
				if err := store.Close(); err != nil {
					logger.Warn("closing activity cache", "err", err)
				}
			}
		}
	}

	svc := behavior.NewService(behavior.Deps{
		Loader:   source.NewLoader(client, loaderCache, cfg.SamplesPath, logger.WithPrefix("loader")),
		Snapshot: client,
		Pinger:   client,
		Cache:    adminCache,
		Miner: miner.New(miner.Config{
			SimilarityThreshold: cfg.Mining.SimilarityThreshold,
			TopN:                cfg.Mining.TopN,
			Vocabulary:          cfg.Mining.Vocabulary,
		}, logger.WithPrefix("miner")),
		Builder: evidence.NewBuilder(evidence.Options{
			MinExamples:   cfg.Evidence.MinExamples,
			ExcerptLength: cfg.Evidence.ExcerptLength,
		}, logger),
		Exporter: export.New(renderer, logger),
		BaseURL:  client.BaseURL(),
		Defaults: behavior.Defaults{
			Days:        cfg.Mining.Days,
			TopN:        cfg.Mining.TopN,
			MinExamples: cfg.Evidence.MinExamples,
			LookupTopN:  cfg.Mining.LookupTopN,
			ExportDir:   cfg.ExportDir,
		},
	}, logger)

	return svc, cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function must be called on shutdown (typically via
// defer). It is always non-nil.
func New(cfg *config.Config, logger *log.Logger) (*server.MCPServer, func(), error) {
	svc, cleanup, err := NewService(cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	checkMineContext(svc, logger)

	s := server.NewMCPServer(
		"mcagent",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)
	Register(s, svc)
	return s, cleanup, nil
}

// Register adds every tool, prompt and resource backed by svc to s.
func Register(s *server.MCPServer, svc *behavior.Service) {
	// --- Tools ---

	screenTool := tools.NewScreenContextTool(svc)
	s.AddTool(screenTool.Definition(), screenTool.Handle)

	listTool := tools.NewListCandidatesTool(svc)
	s.AddTool(listTool.Definition(), listTool.Handle)

	evidenceTool := tools.NewEvidenceTool(svc)
	s.AddTool(evidenceTool.Definition(), evidenceTool.Handle)

	exportTool := tools.NewExportTool(svc)
	s.AddTool(exportTool.Definition(), exportTool.Handle)

	clearTool := tools.NewClearCacheTool(svc)
	s.AddTool(clearTool.Definition(), clearTool.Handle)

	// --- Prompts ---

	minePrompt := prompts.NewMinePrompt(svc.Defaults().Days)
	s.AddPrompt(minePrompt.Definition(), minePrompt.Handle)

	// --- Resources ---

	h := resources.NewHandler(svc)
	s.AddResource(h.CandidatesResource(), h.HandleCandidates)
	s.AddResource(h.CacheResource(), h.HandleCache)
}

// checkMineContext logs whether the MineContext API answers. An unreachable
// API is not fatal: mining falls back to the cache and the samples file.
func checkMineContext(svc *behavior.Service, logger *log.Logger) {
	logger = logging.OrDiscard(logger)
	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		logger.Warn("MineContext is not reachable, using cache and samples", "err", err)
		return
	}
	logger.Info("MineContext is reachable")
}

// noop is the cleanup function used when there is nothing to release.
func noop() {}

// serverInstructions tells the AI how to use mcagent.
func serverInstructions() string {
	return `You have access to mcagent, a MineContext behavior-mining MCP server.

MineContext records what the user does on their machine (activities, todos,
tips). mcagent turns that record into two things:

1. A compressed "what is the user doing right now" summary
   (minecontext_screen_context). Call it at the start of a task when the
   user's current focus would change your answer, e.g. before debugging or
   when the request is vague.

2. Recurring behavior candidates: repeated tasks that might be worth
   automating. The workflow is:
   - list_behavior_candidates(days, top_n) to see the patterns
   - get_behavior_evidence(candidate_id, days) to inspect dated examples
   - export_behavior_bundle(candidate_id) to write a PRD, spec and evidence pack

## Rules
- Candidate ids (candidate_0, candidate_1, ...) are only valid for the same
  data window. Always pass the same days value you used to list them.
- Evidence is best-effort. Read the uncertainty section and repeat its
  limitations to the user instead of overstating a pattern.
- When MineContext is unreachable, results carry status "error" with a hint.
  Relay the hint; do not retry in a loop.
- clear_activity_cache forces the next listing to refetch live data.`
}
