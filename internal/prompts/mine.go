// Package prompts implements MCP prompt handlers for behavior mining.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence of tool calls.
package prompts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// MinePrompt handles the mine-behaviors MCP prompt.
// It walks the AI through listing candidates, reviewing evidence and
// exporting the ones the user picks.
type MinePrompt struct {
	defaultDays int
}

// NewMinePrompt creates a MinePrompt. defaultDays is used when the user
// gives no window.
func NewMinePrompt(defaultDays int) *MinePrompt {
	return &MinePrompt{defaultDays: defaultDays}
}

// Definition returns the MCP prompt definition for registration.
func (p *MinePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("mine-behaviors",
		mcp.WithPromptDescription(
			"Find recurring behaviors in your MineContext activity, review the evidence "+
				"for each, and export the ones worth automating.",
		),
		mcp.WithArgument("days",
			mcp.ArgumentDescription(fmt.Sprintf("Lookback window in days. Default: %d", p.defaultDays)),
		),
	)
}

// Handle processes the mine-behaviors prompt request.
func (p *MinePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	days := p.defaultDays
	if raw, ok := req.Params.Arguments["days"]; ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Mine behaviors from the last %d days", days),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Look for recurring behaviors in my MineContext activity from the last %d days.\n\n"+
						"Please:\n"+
						"1. Run `list_behavior_candidates` with days=%d and show me the candidates as a table (id, title, frequency, time range)\n"+
						"2. For the top three, run `get_behavior_evidence` with the same days and summarise the examples\n"+
						"3. Quote the 'what_we_cannot_prove' items so I can judge each pattern honestly\n"+
						"4. Ask me which candidates to export, then run `export_behavior_bundle` for each one I pick\n\n"+
						"Candidate ids are only valid for the same window, so always pass days=%d.",
					days, days, days,
				)),
			},
		},
	}, nil
}
