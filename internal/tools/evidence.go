package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/evidence"
	"github.com/HendryAvila/mcagent/internal/miner"
)

// EvidenceTool handles the get_behavior_evidence MCP tool.
type EvidenceTool struct {
	svc *behavior.Service
}

// NewEvidenceTool creates an EvidenceTool.
func NewEvidenceTool(svc *behavior.Service) *EvidenceTool {
	return &EvidenceTool{svc: svc}
}

// Definition returns the MCP tool definition for get_behavior_evidence.
func (t *EvidenceTool) Definition() mcp.Tool {
	d := t.svc.Defaults()
	return mcp.NewTool("get_behavior_evidence",
		mcp.WithDescription(
			"Build the evidence pack for one behavior candidate: time-diverse example activities, "+
				"excerpts, and an explicit statement of what the evidence cannot prove.",
		),
		mcp.WithString("candidate_id",
			mcp.Required(),
			mcp.Description("Candidate id from list_behavior_candidates (e.g. 'candidate_0')"),
		),
		mcp.WithNumber("days",
			mcp.Description(fmt.Sprintf("Lookback window in days; use the same value as the listing (default: %d)", d.Days)),
			mcp.DefaultNumber(float64(d.Days)),
		),
		mcp.WithNumber("min_examples",
			mcp.Description(fmt.Sprintf("Number of examples to sample (default: %d)", d.MinExamples)),
			mcp.DefaultNumber(float64(d.MinExamples)),
		),
	)
}

type evidenceMetadata struct {
	Days        int `json:"days"`
	MinExamples int `json:"min_examples"`
}

type evidenceResult struct {
	Status       string            `json:"status"`
	Error        *toolError        `json:"error,omitempty"`
	EvidencePack *evidence.Pack    `json:"evidence_pack"`
	Candidate    *miner.Candidate  `json:"candidate"`
	Metadata     *evidenceMetadata `json:"metadata,omitempty"`
}

// Handle processes the get_behavior_evidence tool call.
func (t *EvidenceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("candidate_id", "")
	if id == "" {
		return mcp.NewToolResultError("'candidate_id' is required"), nil
	}

	d := t.svc.Defaults()
	opts := behavior.EvidenceOptions{
		Days:        intArg(req, "days", d.Days),
		MinExamples: intArg(req, "min_examples", d.MinExamples),
	}

	res, err := t.svc.Evidence(ctx, id, opts)
	if err != nil {
		te := &toolError{Type: errEvidenceGeneration, Message: err.Error()}
		var nf *behavior.NotFoundError
		if errors.As(err, &nf) {
			te.Type = errCandidateNotFound
			te.Message = fmt.Sprintf("candidate_id not found: %s", id)
			te.AvailableIDs = nf.Available
		}
		return jsonResult(evidenceResult{Status: statusError, Error: te}, true)
	}

	return jsonResult(evidenceResult{
		Status:       statusOK,
		EvidencePack: res.EvidencePack,
		Candidate:    &res.Candidate,
		Metadata:     &evidenceMetadata{Days: res.Days, MinExamples: res.MinExamples},
	}, false)
}
