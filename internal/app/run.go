package app

import (
	"context"
	"fmt"

	"github.com/vk/chaingrid/internal/api"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/editor"
	"github.com/vk/chaingrid/internal/events"
	"github.com/vk/chaingrid/internal/executor"
	"github.com/vk/chaingrid/internal/graph"
)

// Run executes the main application logic in the configured mode. It
// returns when the run completes (run mode) or when ctx is done (serve mode).
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)

	pub, err := a.connectPublishers(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			a.logger.Warn("Failed to close event publishers.", "error", err)
		}
	}()

	g, vars, err := a.loadGraph(ctx)
	if err != nil {
		return err
	}
	exec := executor.New(g, a.registry, pub, executor.Config{
		Vars:    vars,
		Timeout: a.config.RunTimeout,
	})

	if a.config.Mode == ModeRun {
		err = a.runChain(ctx, g, exec)
	} else {
		err = a.serve(ctx, g, pub, exec)
	}

	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) runChain(ctx context.Context, g graph.Graph, exec *executor.Executor) error {
	start := a.config.Start
	if start == "" {
		start = g.StartNode(ctx).ID
	}

	report, err := exec.Run(ctx, start)
	if report != nil {
		if perr := printReport(a.outW, report); perr != nil {
			a.logger.Warn("Failed to print run report.", "error", perr)
		}
	}
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	return nil
}

func (a *App) serve(ctx context.Context, g graph.Graph, pub events.Publisher, exec *executor.Executor) error {
	ed := editor.New(g, a.resolver, pub, exec)
	srv := api.New(a.logger, g, ed, exec)
	return srv.Listen(ctx, a.config.Addr)
}
