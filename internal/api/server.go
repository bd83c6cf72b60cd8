// Package api exposes the chain graph over HTTP for the UI shell: reading
// the graph, applying edits and starting runs.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/editor"
	"github.com/vk/chaingrid/internal/executor"
	"github.com/vk/chaingrid/internal/graph"
)

// Server is the HTTP surface over one graph.
type Server struct {
	app      *fiber.App
	graph    graph.Graph
	editor   *editor.Editor
	executor *executor.Executor
	logger   *slog.Logger
}

// New builds the server and registers its routes.
func New(logger *slog.Logger, g graph.Graph, ed *editor.Editor, ex *executor.Executor) *Server {
	s := &Server{
		graph:    g,
		editor:   ed,
		executor: ex,
		logger:   logger,
	}
	s.app = fiber.New(fiber.Config{
		AppName:      "chaingrid",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: s.handleError,
	})
	s.app.Use(recoverer.New())
	s.app.Use(cors.New())
	s.app.Use(s.withLogger)
	s.routes()
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is done.
func (s *Server) Listen(ctx context.Context, addr string) error {
	s.logger.Info("🌐 API server starting.", "address", fmt.Sprintf("http://%s", addr))
	err := s.app.Listen(addr, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
		ShutdownTimeout:       5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	s.logger.Info("API server stopped.")
	return nil
}

// withLogger puts the server logger, tagged with the request, into the
// request context.
func (s *Server) withLogger(c fiber.Ctx) error {
	logger := s.logger.With("method", c.Method(), "path", c.Path())
	c.SetContext(ctxlog.WithLogger(c.Context(), logger))
	logger.Debug("Handling request.")
	return c.Next()
}
