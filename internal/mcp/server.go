// Package mcp exposes the challenge engine as Model Context Protocol
// tools so AI game-master agents can drive sessions over stdio.
package mcp

import (
	"context"

	"github.com/louisbranch/crucible/internal/challenge/service"
	apperrors "github.com/louisbranch/crucible/internal/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName = "crucible"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Server binds challenge tools to an MCP server instance.
type Server struct {
	mcpServer *mcp.Server
	engine    *service.Engine
}

// NewServer creates the MCP server and registers all challenge tools.
func NewServer(engine *service.Engine) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerChallengeTools(mcpServer, engine)
	return &Server{mcpServer: mcpServer, engine: engine}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func registerChallengeTools(server *mcp.Server, engine *service.Engine) {
	mcp.AddTool(server, ChallengeStartTool(), withStatus(ChallengeStartHandler(engine)))
	mcp.AddTool(server, ChoiceSubmitTool(), withStatus(ChoiceSubmitHandler(engine)))
	mcp.AddTool(server, SolutionSubmitTool(), withStatus(SolutionSubmitHandler(engine)))
	mcp.AddTool(server, RollSubmitTool(), withStatus(RollSubmitHandler(engine)))
	mcp.AddTool(server, RetryOptionsTool(), withStatus(RetryOptionsHandler(engine)))
	mcp.AddTool(server, ChallengeGetTool(), withStatus(ChallengeGetHandler(engine)))
	mcp.AddTool(server, ChallengeHistoryTool(), withStatus(ChallengeHistoryHandler(engine)))
}

// withStatus maps domain errors crossing the tool boundary to stable
// status codes, so GM agents branch on the code instead of parsing
// message text.
func withStatus[In, Out any](handler mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		result, output, err := handler(ctx, req, input)
		return result, output, apperrors.HandleError(err)
	}
}
