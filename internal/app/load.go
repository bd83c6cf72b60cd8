package app

import (
	"context"
	"fmt"
	"maps"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/editor"
	"github.com/vk/chaingrid/internal/graph"
	"github.com/vk/chaingrid/internal/gridfile"
	"github.com/vk/chaingrid/internal/inmemorystore"
	"github.com/vk/chaingrid/internal/inmemorytopology"
	"github.com/vk/chaingrid/internal/topologystore"
)

// loadGraph builds the working graph: the grid at GridPath when one is
// configured, otherwise a graph holding only the default start node. The
// returned vars are the grid's vars overridden by the configured ones.
func (a *App) loadGraph(ctx context.Context) (graph.Graph, map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	vars := make(map[string]any)

	var (
		topology topologystore.Store
		grid     *gridfile.Grid
		err      error
	)
	if a.config.GridPath == "" {
		logger.Info("No grid given, starting from an empty chain.")
		topology, err = inmemorytopology.New(editor.DefaultStart())
	} else {
		logger.Debug("Loading grid...", "grid_path", a.config.GridPath)
		grid, err = gridfile.Load(ctx, a.config.GridPath, a.resolver)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load grid: %w", err)
		}
		maps.Copy(vars, grid.Vars)
		topology, err = inmemorytopology.NewFromSnapshot(grid.Snapshot)
		logger.Info("Grid loaded successfully.", "nodes", len(grid.Snapshot.Nodes), "edges", len(grid.Snapshot.Edges))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build graph: %w", err)
	}

	maps.Copy(vars, a.config.Vars)
	if grid != nil {
		warnUnbound(ctx, grid, vars)
	}
	return graph.New(topology, inmemorystore.New()), vars, nil
}

// warnUnbound logs every condition that refers to a variable missing from
// vars. Such a condition fails when it is evaluated.
func warnUnbound(ctx context.Context, grid *gridfile.Grid, vars map[string]any) {
	logger := ctxlog.FromContext(ctx)
	for _, n := range grid.Snapshot.Nodes {
		a, ok := grid.Conditions[n.ID]
		if !ok {
			continue
		}
		if unbound := a.Unbound(vars); len(unbound) > 0 {
			logger.Warn("Condition refers to unset variables.", "nodeID", n.ID, "references", unbound)
		}
	}
}
