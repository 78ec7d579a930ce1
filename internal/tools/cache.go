package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcagent/internal/behavior"
)

// ClearCacheTool handles the clear_activity_cache MCP tool.
type ClearCacheTool struct {
	svc *behavior.Service
}

// NewClearCacheTool creates a ClearCacheTool.
func NewClearCacheTool(svc *behavior.Service) *ClearCacheTool {
	return &ClearCacheTool{svc: svc}
}

// Definition returns the MCP tool definition for clear_activity_cache.
func (t *ClearCacheTool) Definition() mcp.Tool {
	return mcp.NewTool("clear_activity_cache",
		mcp.WithDescription(
			"Drop every cached activity batch so the next listing fetches fresh data from MineContext.",
		),
	)
}

type clearResult struct {
	Status  string     `json:"status"`
	Error   *toolError `json:"error,omitempty"`
	Removed int        `json:"removed"`
}

// Handle processes the clear_activity_cache tool call.
func (t *ClearCacheTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := t.svc.ClearCache()
	if err != nil {
		return jsonResult(clearResult{
			Status: statusError,
			Error:  &toolError{Type: errCache, Message: err.Error()},
		}, true)
	}
	return jsonResult(clearResult{Status: statusOK, Removed: n}, false)
}
