package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"StudyBoard/internal/notes"
)

// registerLibraryTools registers the tools that organize saved notes:
// folders, renaming, the trash and permanent deletion.
func (s *Server) registerLibraryTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"list_folders",
		mcp.WithDescription("List note folders with their ids and colors"),
	), s.handleListFolders)

	s.mcpServer.AddTool(mcp.NewTool(
		"rename_note",
		mcp.WithDescription("Rename a saved note"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
	), s.handleRenameNote)

	s.mcpServer.AddTool(mcp.NewTool(
		"trash_note",
		mcp.WithDescription("Move a note into the trash, or restore it when it is already there"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.handleTrashNote)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_note",
		mcp.WithDescription("Permanently delete a note that is in the trash"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.handleDeleteNote)

	s.mcpServer.AddTool(mcp.NewTool(
		"move_note",
		mcp.WithDescription("File a note into a folder"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("folder", mcp.Description("Folder id; empty to unfile")),
	), s.handleMoveNote)

	s.mcpServer.AddTool(mcp.NewTool(
		"create_folder",
		mcp.WithDescription("Create a note folder"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Folder name")),
	), s.handleCreateFolder)

	s.mcpServer.AddTool(mcp.NewTool(
		"rename_folder",
		mcp.WithDescription("Rename a note folder"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Folder id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New name")),
	), s.handleRenameFolder)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_folder",
		mcp.WithDescription("Delete a folder; its notes become unfiled"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Folder id")),
	), s.handleDeleteFolder)
}

var errNoStore = errors.New("no note store configured")

func (s *Server) store() (*notes.Store, error) {
	if store := s.session.Notes(); store != nil {
		return store, nil
	}
	return nil, errNoStore
}

func (s *Server) handleListFolders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(store.Folders())
}

func (s *Server) handleRenameNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := store.RenameNote(id, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note %s is now named %q", id, note.Name)), nil
}

func (s *Server) handleTrashNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == s.session.Note().ID && s.session.Document() != nil {
		return mcp.NewToolResultError("the open note cannot be moved to the trash"), nil
	}

	if err := store.ToggleTrash(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if note.Deleted {
		return mcp.NewToolResultText(fmt.Sprintf("Moved %s to the trash", note.Name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Restored %s", note.Name)), nil
}

func (s *Server) handleDeleteNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !note.Deleted {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not in the trash", note.Name)), nil
	}
	if err := store.DeletePermanently(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %s", note.Name)), nil
}

func (s *Server) handleMoveNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder, _ := request.GetArguments()["folder"].(string)

	if err := store.MoveToFolder(id, folder); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if folder == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Note %s is unfiled", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved note %s to folder %s", id, folder)), nil
}

func (s *Server) handleCreateFolder(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	folder, err := store.CreateFolder(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(folder)
}

func (s *Server) handleRenameFolder(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := store.RenameFolder(id, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Renamed folder %s", id)), nil
}

func (s *Server) handleDeleteFolder(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := s.store()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := store.DeleteFolder(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted folder %s", id)), nil
}
