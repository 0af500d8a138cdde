// Package mcpserver exposes the read-only public queries as MCP tools over
// streamable HTTP, next to the regular HTTP API.
package mcpserver

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"dicehall/internal/app/public"
)

type Server struct {
	publicSvc *public.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(publicSvc *public.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"dicehall",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s := &Server{
		publicSvc:  publicSvc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerTools()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}
