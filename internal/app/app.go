package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	resolver *datasource.Resolver
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// With no modules it registers the core node kinds.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	resolver, err := datasource.NewResolver(cfg.APIURL)
	if err != nil {
		// A bad base URL is a fatal startup error.
		panic(fmt.Errorf("failed to configure data sources: %w", err))
	}
	logger.Debug("Data source resolver configured.", "base", resolver.Base())

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(cfg)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateRegistry(ctx); err != nil {
		// A node kind without a handler is a programmer error, so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		resolver: resolver,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
