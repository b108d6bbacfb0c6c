// Package mcpserver exposes the farm tools to MCP clients over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"slices"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/krishi-boot/language"
	"github.com/SaiNageswarS/krishi-boot/prompts"
	"github.com/SaiNageswarS/krishi-boot/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	ServerName    = "krishi-boot-mcp"
	ServerVersion = "2.0.0"

	FarmAdvisoryPrompt = "farm_advisory"
)

// New builds an MCP server with one tool per registry entry and the farm
// advisory prompt.
func New(registry *tools.Registry, languages *language.Resolver) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	for _, spec := range registry.List() {
		s.AddTool(toMCPTool(spec), toolHandler(registry, spec.Name()))
	}

	advisory := mcp.NewPrompt(
		FarmAdvisoryPrompt,
		mcp.WithPromptDescription("Answer a farmer's question in their language using the farm tools"),
		mcp.WithArgument("question",
			mcp.ArgumentDescription("The farmer's question"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("language",
			mcp.ArgumentDescription("Response language code such as hi, pa or en. Detected from the question when omitted"),
		),
	)
	s.AddPrompt(advisory, advisoryHandler(registry, languages))

	return s
}

// Serve blocks serving s over stdin and stdout.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// toMCPTool mirrors the registry schema. Every farm tool parameter is a string.
func toMCPTool(spec tools.ToolSpec) mcp.Tool {
	params := spec.Function.Parameters

	names := make([]string, 0, len(params.Properties))
	for name := range params.Properties {
		names = append(names, name)
	}
	slices.Sort(names)

	opts := []mcp.ToolOption{mcp.WithDescription(spec.Function.Description)}
	for _, name := range names {
		prop := params.Properties[name]

		propOpts := []mcp.PropertyOption{mcp.Description(prop.Description)}
		if slices.Contains(params.Required, name) {
			propOpts = append(propOpts, mcp.Required())
		}
		if len(prop.Enum) > 0 {
			values := make([]string, len(prop.Enum))
			for i, v := range prop.Enum {
				values[i] = fmt.Sprint(v)
			}
			propOpts = append(propOpts, mcp.Enum(values...))
		}
		opts = append(opts, mcp.WithString(name, propOpts...))
	}

	return mcp.NewTool(spec.Name(), opts...)
}

func toolHandler(registry *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		if err := registry.Validate(name, args); err != nil {
			logger.Error("Rejected MCP tool call", zap.String("tool", name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(registry.Invoke(ctx, name, args)), nil
	}
}

func advisoryHandler(registry *tools.Registry, languages *language.Resolver) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		question := req.Params.Arguments["question"]
		if question == "" {
			return nil, fmt.Errorf("question is required")
		}

		profile := languages.Resolve(languages.ResolveRequested(req.Params.Arguments["language"], question))

		directive, err := prompts.RenderLanguageDirective(profile.Name, profile.Code)
		if err != nil {
			return nil, err
		}
		system, err := prompts.RenderAgentSystemPrompt(prompts.AgentSystemPromptData{
			LanguageDirective: directive,
			Tools:             registry.Names(),
		})
		if err != nil {
			return nil, err
		}
		text, err := prompts.RenderFarmAdvisoryPrompt(system, question, profile.Name)
		if err != nil {
			return nil, err
		}

		return &mcp.GetPromptResult{
			Description: "Farm advisory for a farmer question",
			Messages: []mcp.PromptMessage{
				{
					Role: mcp.RoleUser,
					Content: mcp.TextContent{
						Type: "text",
						Text: text,
					},
				},
			},
		}, nil
	}
}
