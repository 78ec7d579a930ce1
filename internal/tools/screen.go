package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/screen"
)

// ScreenContextTool handles the minecontext_screen_context MCP tool.
type ScreenContextTool struct {
	svc *behavior.Service
}

// NewScreenContextTool creates a ScreenContextTool.
func NewScreenContextTool(svc *behavior.Service) *ScreenContextTool {
	return &ScreenContextTool{svc: svc}
}

// Definition returns the MCP tool definition for minecontext_screen_context.
func (t *ScreenContextTool) Definition() mcp.Tool {
	return mcp.NewTool("minecontext_screen_context",
		mcp.WithDescription(
			"Return a compressed summary of what the user is doing right now, built from MineContext "+
				"todos, activities and tips. If MineContext is unreachable the result has status \"error\" "+
				"with a typed error and a hint.",
		),
		mcp.WithString("task_type",
			mcp.Description("What the agent is about to do"),
			mcp.Enum(screen.TaskTypes...),
			mcp.DefaultString("unknown"),
		),
		mcp.WithString("detail_level",
			mcp.Description("How much detail the caller wants"),
			mcp.Enum(screen.DetailLevels...),
			mcp.DefaultString("medium"),
		),
	)
}

// Handle processes the minecontext_screen_context tool call.
func (t *ScreenContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := t.svc.ScreenContext(ctx,
		req.GetString("task_type", "unknown"),
		req.GetString("detail_level", "medium"))
	return jsonResult(summary, summary.Status != screen.StatusOK)
}
