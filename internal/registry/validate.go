package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/node"
)

// ValidateRegistry performs a parity check between the supported node kinds
// and the registered handlers.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range node.Kinds {
		if _, ok := r.handlers[kind]; !ok {
			errs = append(errs, fmt.Sprintf("node kind '%s' has no registered handler", kind))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validated.", "kinds", len(r.handlers))
	return nil
}
