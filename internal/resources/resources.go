// Package resources implements MCP resource handlers for behavior mining.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (mcagent://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcagent/internal/behavior"
)

// Resource URIs.
const (
	CandidatesURI = "mcagent://candidates/latest"
	CacheURI      = "mcagent://cache/entries"
)

// Handler manages mcagent resource endpoints.
type Handler struct {
	svc *behavior.Service
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(svc *behavior.Service) *Handler {
	return &Handler{svc: svc}
}

// CandidatesResource returns the MCP resource definition for the latest
// candidate list.
func (h *Handler) CandidatesResource() mcp.Resource {
	return mcp.NewResource(
		CandidatesURI,
		"Latest Behavior Candidates",
		mcp.WithResourceDescription("Top behavior candidates for the default window, mined from cached or live activities"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCandidates mines the default window and returns the listing as JSON.
func (h *Handler) HandleCandidates(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	listing, err := h.svc.ListCandidates(ctx, behavior.ListOptions{UseCache: true})
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, listing)
}

// CacheResource returns the MCP resource definition for cached batches.
func (h *Handler) CacheResource() mcp.Resource {
	return mcp.NewResource(
		CacheURI,
		"Activity Cache Entries",
		mcp.WithResourceDescription("Cached activity batches, newest first, without their payloads"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleCache lists cached batches as JSON.
func (h *Handler) HandleCache(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := h.svc.CacheEntries()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, entries)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
