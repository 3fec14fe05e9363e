package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/app"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/chat"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
)

type TeamArgs struct {
	TeamID  int  `json:"team_id" jsonschema:"FPL entry id (required)"`
	Refresh bool `json:"refresh,omitempty" jsonschema:"Bypass the raw cache"`
}

type ValidateAnswerArgs struct {
	TeamID   int    `json:"team_id" jsonschema:"FPL entry id (required)"`
	Answer   string `json:"answer" jsonschema:"Answer text to check (required)"`
	Question string `json:"question,omitempty" jsonschema:"Question the answer responds to"`
}

type ChatArgs struct {
	TeamID    int    `json:"team_id" jsonschema:"FPL entry id (required)"`
	Message   string `json:"message" jsonschema:"Question about the squad (required)"`
	SessionID string `json:"session_id,omitempty" jsonschema:"Conversation id (generated when empty)"`
}

type PlayerLookupArgs struct {
	ElementID int `json:"element_id" jsonschema:"Player element id (required)"`
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newMCPServer(a *app.App) (*mcp.Server, []toolInfo) {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fpl-chips-optimizer",
			Version: "0.3.0",
		},
		nil,
	)
	registry := make([]toolInfo, 0, 5)

	addTool(server, &registry, &mcp.Tool{
		Name:        "squad_analysis",
		Description: "Bank, team value, affordability, bench upgrades, starter targets and risk for a squad",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TeamArgs) (*mcp.CallToolResult, any, error) {
		if args.TeamID <= 0 {
			return toolError(fmt.Errorf("team_id is required")), nil, nil
		}
		rep, err := a.Chat.Analyze(ctx, strconv.Itoa(args.TeamID), args.Refresh)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(json.MarshalIndent(map[string]any{
			"kind":   rep.Outcome.Kind,
			"result": rep.Outcome.Result,
			"meta":   rep.Meta,
			"window": rep.Window,
		}, "", "  "))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "validate_answer",
		Description: "Check an answer against the squad analysis (players, gameweeks, season, currency)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ValidateAnswerArgs) (*mcp.CallToolResult, any, error) {
		if args.TeamID <= 0 {
			return toolError(fmt.Errorf("team_id is required")), nil, nil
		}
		if args.Answer == "" {
			return toolError(fmt.Errorf("answer is required")), nil, nil
		}
		verdict, err := a.Chat.Validate(ctx, strconv.Itoa(args.TeamID), args.Answer, args.Question)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(json.MarshalIndent(verdict, "", "  "))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "chat",
		Description: "Grounded answer to a question about the squad",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ChatArgs) (*mcp.CallToolResult, any, error) {
		if args.TeamID <= 0 {
			return toolError(fmt.Errorf("team_id is required")), nil, nil
		}
		resp := a.Chat.Answer(ctx, chat.Request{
			Message:   args.Message,
			TeamID:    strconv.Itoa(args.TeamID),
			SessionID: args.SessionID,
		})
		if !resp.Success {
			return toolError(resp.Err()), nil, nil
		}
		return toolJSON(json.MarshalIndent(resp, "", "  "))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "player_lookup",
		Description: "Lookup player by element id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerLookupArgs) (*mcp.CallToolResult, any, error) {
		if args.ElementID <= 0 {
			return toolError(fmt.Errorf("element_id is required")), nil, nil
		}
		return toolJSON(lookupPlayer(ctx, a, args.ElementID))
	})

	addTool(server, &registry, &mcp.Tool{
		Name:        "fixture_difficulty",
		Description: "Clubs ranked by the average difficulty of their upcoming fixtures",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FixtureDifficultyArgs) (*mcp.CallToolResult, any, error) {
		out, err := buildFixtureDifficulty(ctx, a, args)
		if err != nil {
			return toolError(err), nil, nil
		}
		logger.Debugf("[mcp] fixture_difficulty: %s", out)
		return toolJSON(json.MarshalIndent(out, "", "  "))
	})

	return server, registry
}

func addTool[T any](server *mcp.Server, registry *[]toolInfo, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	*registry = append(*registry, toolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(server, tool, handler)
}

func lookupPlayer(ctx context.Context, a *app.App, elementID int) ([]byte, error) {
	cat, _, err := a.Source.Catalog(ctx, false)
	if err != nil {
		return nil, err
	}
	p, ok := cat.Lookup(elementID)
	if !ok {
		return nil, fmt.Errorf("player not found: %d", elementID)
	}
	out := map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"full_name":     p.FullName(),
		"team_id":       p.ClubID,
		"team_short":    p.ClubShort,
		"position":      p.Position.Label(),
		"position_type": int(p.Position),
		"price":         p.Price,
		"status":        p.Status,
		"form":          p.Form,
		"fixtures":      p.Fixtures,
	}
	return json.MarshalIndent(out, "", "  ")
}

func toolJSON(res []byte, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSONBytes(res), nil, nil
}

func toolJSONBytes(res []byte) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(res)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
