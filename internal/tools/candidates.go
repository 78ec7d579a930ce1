package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/miner"
)

// ListCandidatesTool handles the list_behavior_candidates MCP tool.
type ListCandidatesTool struct {
	svc *behavior.Service
}

// NewListCandidatesTool creates a ListCandidatesTool.
func NewListCandidatesTool(svc *behavior.Service) *ListCandidatesTool {
	return &ListCandidatesTool{svc: svc}
}

// Definition returns the MCP tool definition for list_behavior_candidates.
func (t *ListCandidatesTool) Definition() mcp.Tool {
	d := t.svc.Defaults()
	return mcp.NewTool("list_behavior_candidates",
		mcp.WithDescription(
			"Mine MineContext activities for recurring behavior patterns and list the top candidates, "+
				"most frequent first. Candidate ids are only valid for the same data window.",
		),
		mcp.WithNumber("days",
			mcp.Description(fmt.Sprintf("Lookback window in days (default: %d)", d.Days)),
			mcp.DefaultNumber(float64(d.Days)),
		),
		mcp.WithNumber("top_n",
			mcp.Description(fmt.Sprintf("Maximum number of candidates (default: %d)", d.TopN)),
			mcp.DefaultNumber(float64(d.TopN)),
		),
		mcp.WithBoolean("use_cache",
			mcp.Description("Reuse cached activities when fresh (default: true)"),
			mcp.DefaultBool(true),
		),
	)
}

type listMetadata struct {
	Days            int    `json:"days"`
	TopN            int    `json:"top_n"`
	UseCache        bool   `json:"use_cache"`
	TotalCandidates *int   `json:"total_candidates,omitempty"`
	TotalActivities *int   `json:"total_activities,omitempty"`
	Origin          string `json:"origin,omitempty"`
}

type listResult struct {
	Status     string            `json:"status"`
	Error      *toolError        `json:"error,omitempty"`
	Metadata   listMetadata      `json:"metadata"`
	Candidates []miner.Candidate `json:"candidates"`
}

// Handle processes the list_behavior_candidates tool call.
func (t *ListCandidatesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := t.svc.Defaults()
	opts := behavior.ListOptions{
		Days:     intArg(req, "days", d.Days),
		TopN:     intArg(req, "top_n", d.TopN),
		UseCache: boolArg(req, "use_cache", true),
	}
	if opts.Days <= 0 || opts.TopN <= 0 {
		return mcp.NewToolResultError("'days' and 'top_n' must be positive"), nil
	}

	meta := listMetadata{Days: opts.Days, TopN: opts.TopN, UseCache: opts.UseCache}
	listing, err := t.svc.ListCandidates(ctx, opts)
	if err != nil {
		return jsonResult(listResult{
			Status:     statusError,
			Error:      &toolError{Type: errBehaviorMining, Message: err.Error()},
			Metadata:   meta,
			Candidates: []miner.Candidate{},
		}, true)
	}

	total, acts := len(listing.Candidates), listing.TotalActivities
	meta.TotalCandidates = &total
	meta.TotalActivities = &acts
	meta.Origin = listing.Origin
	return jsonResult(listResult{
		Status:     statusOK,
		Metadata:   meta,
		Candidates: listing.Candidates,
	}, false)
}
