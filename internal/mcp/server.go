package mcp

import (
	"context"

	"github.com/adamavenir/gram/internal/app"
	"github.com/adamavenir/gram/internal/core"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "gram"

// Server exposes gram's reads and mutations as MCP tools over stdio.
type Server struct {
	session *app.Session
	log     *core.Logger
	server  *mcp.Server
}

// NewServer registers the tools against an opened session.
func NewServer(session *app.Session, version string) *Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	RegisterTools(server, &ToolContext{Session: session})
	return &Server{session: session, log: session.Log, server: server}
}

// Run serves on stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.log.Debugf("serving MCP on stdio as @%s", s.session.Me().Username)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
