package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcagent/internal/behavior"
)

// ExportTool handles the export_behavior_bundle MCP tool.
type ExportTool struct {
	svc *behavior.Service
}

// NewExportTool creates an ExportTool.
func NewExportTool(svc *behavior.Service) *ExportTool {
	return &ExportTool{svc: svc}
}

// Definition returns the MCP tool definition for export_behavior_bundle.
func (t *ExportTool) Definition() mcp.Tool {
	d := t.svc.Defaults()
	return mcp.NewTool("export_behavior_bundle",
		mcp.WithDescription(
			"Export one behavior candidate as a three-file bundle: a PRD, a spec embedding the "+
				"candidate and its evidence, and the evidence pack on its own.",
		),
		mcp.WithString("candidate_id",
			mcp.Required(),
			mcp.Description("Candidate id from list_behavior_candidates (e.g. 'candidate_0')"),
		),
		mcp.WithString("output_dir",
			mcp.Description(fmt.Sprintf("Directory to write into (default: %s)", d.ExportDir)),
			mcp.DefaultString(d.ExportDir),
		),
		mcp.WithNumber("days",
			mcp.Description(fmt.Sprintf("Lookback window in days (default: %d)", d.Days)),
			mcp.DefaultNumber(float64(d.Days)),
		),
	)
}

type exportedFiles struct {
	PRD      string `json:"prd"`
	Spec     string `json:"spec"`
	Evidence string `json:"evidence"`
}

type exportMetadata struct {
	CandidateID string `json:"candidate_id"`
	BundleID    string `json:"bundle_id"`
	OutputDir   string `json:"output_dir"`
	Days        int    `json:"days"`
}

type exportResult struct {
	Status        string          `json:"status"`
	Error         *toolError      `json:"error,omitempty"`
	ExportedFiles *exportedFiles  `json:"exported_files"`
	Metadata      *exportMetadata `json:"metadata,omitempty"`
}

// Handle processes the export_behavior_bundle tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("candidate_id", "")
	if id == "" {
		return mcp.NewToolResultError("'candidate_id' is required"), nil
	}

	d := t.svc.Defaults()
	dir := req.GetString("output_dir", d.ExportDir)
	days := intArg(req, "days", d.Days)

	b, err := t.svc.ExportBundle(ctx, id, dir, days)
	if err != nil {
		return jsonResult(exportResult{
			Status: statusError,
			Error:  &toolError{Type: errExport, Message: err.Error()},
		}, true)
	}

	return jsonResult(exportResult{
		Status:        statusOK,
		ExportedFiles: &exportedFiles{PRD: b.PRD, Spec: b.Spec, Evidence: b.Evidence},
		Metadata: &exportMetadata{
			CandidateID: id,
			BundleID:    b.BundleID,
			OutputDir:   dir,
			Days:        days,
		},
	}, false)
}
