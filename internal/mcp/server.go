package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"StudyBoard/internal/config"
	"StudyBoard/internal/export"
	"StudyBoard/internal/notes"
	"StudyBoard/internal/session"
)

// Server exposes the active study session as MCP tools
type Server struct {
	config    *config.Config
	session   *session.Session
	load      session.Loader
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server over s. load opens note sources for
// the open_note tool.
func NewServer(cfg *config.Config, s *session.Session, load session.Loader) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		"studyboard",
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	srv := &Server{
		config:    cfg,
		session:   s,
		load:      load,
		mcpServer: mcpServer,
	}
	srv.registerTools()
	return srv, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"list_notes",
		mcp.WithDescription("List saved notes, newest first"),
		mcp.WithString("folder",
			mcp.Description("Folder id, 'all' (default) or 'trash'"),
		),
	), s.handleListNotes)

	s.mcpServer.AddTool(mcp.NewTool(
		"open_note",
		mcp.WithDescription("Open a saved note as the active session"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Note id from list_notes"),
		),
	), s.handleOpenNote)

	s.mcpServer.AddTool(mcp.NewTool(
		"page_strokes",
		mcp.WithDescription("Return the ink strokes drawn on a page of the active note as JSON"),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("1-based page number"),
		),
	), s.handlePageStrokes)

	s.mcpServer.AddTool(mcp.NewTool(
		"render_page",
		mcp.WithDescription("Render a page of the active note with its ink as a PNG image"),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("1-based page number"),
		),
	), s.handleRenderPage)

	s.mcpServer.AddTool(mcp.NewTool(
		"session_status",
		mcp.WithDescription("Describe the active note, current page, tool and a listing of its strokes"),
	), s.handleSessionStatus)

	s.registerLibraryTools()
}

func (s *Server) handleListNotes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	selection := notes.SelectAll
	if folder, ok := request.GetArguments()["folder"].(string); ok && strings.TrimSpace(folder) != "" {
		selection = strings.TrimSpace(folder)
	}

	list := store.List(selection)
	for i := range list {
		list[i].Preview = ""
	}
	return jsonResult(list)
}

func (s *Server) handleOpenNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.load == nil {
		return mcp.NewToolResultError("opening notes is not supported"), nil
	}

	note, err := s.session.OpenNote(id, s.load)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Opened %s (%d pages), resuming at page %d",
		note.Name, s.session.Document().TotalPages(), s.session.Viewport().CurrentPage())), nil
}

func (s *Server) handlePageStrokes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.requirePage(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.session.StrokeLog().OnPage(page))
}

func (s *Server) handleRenderPage(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.requirePage(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	frame, err := s.session.Frame(page)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", page, err)
	}
	if s.config.IsDebug() {
		log.Printf("[MCP] Rendered page %d (%d bytes)", page, buf.Len())
	}

	caption := fmt.Sprintf("Page %d of %s", page, s.session.Document().Name())
	return mcp.NewToolResultImage(caption, base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png"), nil
}

func (s *Server) handleSessionStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.session.Document()
	if doc == nil {
		return mcp.NewToolResultText("No note is open."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Note: %s\n", s.session.Note().Name)
	fmt.Fprintf(&b, "Page: %d of %d\n", s.session.Viewport().CurrentPage(), doc.TotalPages())
	fmt.Fprintf(&b, "Tool: %s\n", s.session.Tool())
	fmt.Fprintf(&b, "Tutor busy: %t\n", s.session.Busy())
	if err := s.session.LastError(); err != nil {
		fmt.Fprintf(&b, "Last error: %v\n", err)
	}
	b.WriteString("\n")
	if err := export.WriteSummary(&b, doc.Name(), s.session.Strokes()); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) requirePage(request mcp.CallToolRequest) (int, error) {
	raw, ok := request.GetArguments()["page"].(float64)
	if !ok {
		return 0, errors.New("page is required")
	}
	doc := s.session.Document()
	if doc == nil {
		return 0, session.ErrNoDocument
	}
	page := int(raw)
	if float64(page) != raw || page < 1 || page > doc.TotalPages() {
		return 0, fmt.Errorf("page must be between 1 and %d", doc.TotalPages())
	}
	return page, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Run serves the tools over standard I/O until the client disconnects
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("[MCP] Starting StudyBoard MCP server in stdio mode")
	}
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
