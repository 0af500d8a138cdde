package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_rooms",
			mcp.WithDescription("List live rooms with their seats and phase"),
		),
		s.handleListRooms,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_room_summary",
			mcp.WithDescription("Get one room's capacity, phase, and seats"),
			mcp.WithString("room_id", mcp.Required(), mcp.Description("Room id")),
		),
		s.handleGetRoomSummary,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_history",
			mcp.WithDescription("Query finished matches by participant names"),
			mcp.WithArray("players", mcp.Description("Participant names to filter by")),
			mcp.WithString("mode", mcp.Description("Name matching: exact|contains, default exact")),
			mcp.WithNumber("limit", mcp.Description("Max entries, default 50, max 500")),
		),
		s.handleGetHistory,
	)
}

func (s *Server) handleListRooms(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.publicSvc.Rooms()), nil
}

func (s *Server) handleGetRoomSummary(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID := request.GetString("room_id", "")
	resp, err := s.publicSvc.Summary(roomID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	players := request.GetStringSlice("players", nil)
	mode := request.GetString("mode", "exact")
	limit := request.GetInt("limit", defaultHistoryLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	resp, err := s.publicSvc.History(players, limit, mode)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}
