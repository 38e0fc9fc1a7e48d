// ABOUTME: Server wiring: HTTP routes, WebSocket upgrades, and component lifecycle
// ABOUTME: Builds store, registry, generator, finalizer and orchestrator from config

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/2389/parley/internal/chat"
	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/generator"
	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/store"
	"github.com/2389/parley/internal/summary"
	"github.com/2389/parley/internal/tools"
)

// Version is the reported service version. Overridable at build time.
var Version = "1.0.0"

// Server owns the HTTP surface and the chat components behind it.
type Server struct {
	config       *config.Config
	store        store.Store
	writer       *store.Writer
	registry     *session.Registry
	orchestrator *chat.Orchestrator
	httpServer   *http.Server
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// New builds a Server and all its components from config.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbPath := cfg.Database.Path
	if envPath := os.Getenv("PARLEY_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	writer := store.NewWriter(st, cfg.Database.WriterWorkers, cfg.Database.WriterQueue, logger)
	registry := session.NewRegistry(logger)
	toolRegistry := tools.NewRegistry(logger)
	gen := generator.New(toolRegistry, cfg.Generator.TokenDelay, logger)
	finalizer := summary.NewFinalizer(st, logger)
	orchestrator := chat.NewOrchestrator(registry, writer, gen, finalizer, logger)

	s := &Server{
		config:       cfg,
		store:        st,
		writer:       writer,
		registry:     registry,
		orchestrator: orchestrator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS layer; the upgrade
			// accepts any origin, matching the allowed_origins default.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws/session/", s.handleWebSocket)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	s.httpServer = &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: corsMiddleware.Handler(mux),
	}

	return s, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases the writer and store.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("server listening",
		"http_addr", s.config.Server.HTTPAddr,
		"websocket_endpoint", "/ws/session/{session_id}",
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownGrace)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()

	// Drain pending background writes before closing the store so
	// last-moment events still land.
	s.writer.Close()
	if closeErr := s.store.Close(); closeErr != nil {
		s.logger.Error("closing store failed", "error", closeErr)
	}

	s.logger.Info("server stopped")
	return err
}
