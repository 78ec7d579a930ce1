// Package tools implements the MCP tool handlers for behavior mining.
//
// Each tool is a struct holding its dependencies, with Definition returning
// the mcp.Tool schema and Handle serving the call. Results are JSON documents
// carrying a "status" of "ok" or "error"; failures also set IsError so hosts
// can tell them apart without parsing.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Status values and error types reported in tool results.
const (
	statusOK    = "ok"
	statusError = "error"

	errBehaviorMining     = "BehaviorMiningError"
	errCandidateNotFound  = "CandidateNotFound"
	errEvidenceGeneration = "EvidenceGenerationError"
	errExport             = "ExportError"
	errCache              = "CacheError"
)

// toolError is the "error" member of a failed result.
type toolError struct {
	Type         string   `json:"type"`
	Message      string   `json:"message"`
	AvailableIDs []string `json:"available_ids,omitempty"`
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any, isError bool) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling tool result: %w", err)
	}
	if isError {
		return mcp.NewToolResultError(string(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
