package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StudyBoard/internal/config"
	"StudyBoard/internal/document"
	"StudyBoard/internal/mcp"
	"StudyBoard/internal/net"
	"StudyBoard/internal/notes"
	"StudyBoard/internal/session"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tutor"
	"StudyBoard/internal/ui"
)

var version = "dev" // set by build flags

// setupLogging keeps stdout clean for the protocol in mcp mode.
func setupLogging(cfg *config.Config) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.IsMCP() {
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	}
}

func loadDocument(path string) (document.Provider, error) {
	return document.Open(path, document.Fallback(document.VectorPages, document.WhitePages))
}

func newTutor(ctx context.Context, cfg *config.Config) tutor.Tutor {
	if cfg.APIKey == "" {
		log.Println("[TUTOR] No API key, tutor disabled")
		return tutor.Noop{}
	}
	t, err := tutor.NewGemini(ctx, cfg.APIKey, cfg.ChatModel, cfg.ReportModel)
	if err != nil {
		log.Printf("[TUTOR] Failed to create Gemini client, tutor disabled: %v", err)
		return tutor.Noop{}
	}
	return t
}

func newSession(ctx context.Context, cfg *config.Config) (*session.Session, error) {
	store, err := notes.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open note store: %w", err)
	}
	return session.New(session.Options{
		Tutor:    newTutor(ctx, cfg),
		Notes:    store,
		Settings: state.NewSettingsStore(cfg.ToolSettings()),
	}), nil
}

// openInitial opens the configured document, or the most recent note.
func openInitial(cfg *config.Config, s *session.Session) error {
	if cfg.Document != "" {
		_, err := s.OpenPath(cfg.Document, loadDocument, notes.SelectAll)
		return err
	}
	if list := s.Notes().List(notes.SelectAll); len(list) > 0 {
		_, err := s.OpenNote(list[0].ID, loadDocument)
		return err
	}
	return nil
}

// startRemote serves the remote canvas and advertises it until ctx is done.
func startRemote(ctx context.Context, cfg *config.Config, s *session.Session) string {
	remote := net.NewRemoteServer(s)
	go func() {
		if err := remote.ListenAndServe(ctx, cfg.Address()); err != nil {
			log.Printf("[REMOTE] Server stopped: %v", err)
		}
	}()

	if cfg.Advertise {
		name := "StudyBoard"
		if doc := s.Document(); doc != nil {
			name = doc.Name()
		}
		server, err := net.Advertise(cfg.Port, name)
		if err != nil {
			log.Printf("[REMOTE] mDNS advertisement failed: %v", err)
		} else {
			go func() {
				<-ctx.Done()
				server.Shutdown()
			}()
		}
	}

	share := net.ShareURL(cfg.Port)
	log.Printf("[REMOTE] Remote canvas at %s", share)
	return share
}

func runDesktop(ctx context.Context, cfg *config.Config, s *session.Session) {
	share := startRemote(ctx, cfg, s)
	ui.RunApp(cfg, s, loadDocument, share)
}

func runServe(ctx context.Context, cfg *config.Config, s *session.Session) {
	if err := openInitial(cfg, s); err != nil {
		log.Fatalf("Failed to open document: %v", err)
	}
	if s.Document() == nil {
		log.Fatal("Nothing to serve: pass a document or open one in desktop mode first")
	}
	share := startRemote(ctx, cfg, s)
	fmt.Printf("Open %s on your tablet\n", share)

	<-ctx.Done()
	if err := s.Close(); err != nil {
		log.Printf("[SESSION] %v", err)
	}
}

func runMCP(ctx context.Context, cfg *config.Config, s *session.Session) {
	if err := openInitial(cfg, s); err != nil {
		log.Printf("[MCP] No document opened: %v", err)
	}
	server, err := mcp.NewServer(cfg, s, loadDocument)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer s.Close()
	if err := server.Run(ctx); err != nil {
		log.Printf("[MCP] %v", err)
		os.Exit(1)
	}
}

func runDiscover() {
	fmt.Println("Looking for boards on the local network...")
	seen := 0
	err := net.Browse(3*time.Second, func(addr, name string) {
		seen++
		fmt.Printf("  %s  http://%s/\n", name, addr)
	})
	if err != nil {
		log.Fatalf("Discovery failed: %v", err)
	}
	if seen == 0 {
		fmt.Println("No boards found.")
	}
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		fmt.Printf("StudyBoard %s\n", version)
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if version != "dev" {
		cfg.Version = version
	}
	setupLogging(cfg)
	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	if cfg.Mode == config.ModeDiscover {
		runDiscover()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	switch cfg.Mode {
	case config.ModeServe:
		runServe(ctx, cfg, s)
	case config.ModeMCP:
		runMCP(ctx, cfg, s)
	default:
		runDesktop(ctx, cfg, s)
	}
}
