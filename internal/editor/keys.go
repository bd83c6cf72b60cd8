package editor

import (
	"context"

	"github.com/vk/chaingrid/internal/ctxlog"
)

// Focus names the kind of element holding keyboard focus when a key is
// pressed.
type Focus string

const (
	FocusNone            Focus = ""
	FocusCanvas          Focus = "canvas"
	FocusInput           Focus = "input"
	FocusTextarea        Focus = "textarea"
	FocusContentEditable Focus = "contenteditable"
)

// Editing reports whether f is a text-editing control, where Delete and
// Backspace edit text instead of the graph.
func (f Focus) Editing() bool {
	switch f {
	case FocusInput, FocusTextarea, FocusContentEditable:
		return true
	}
	return false
}

// Select replaces the current selection.
func (e *Editor) Select(ctx context.Context, ids []string) error {
	return e.graph.Overlay().SetSelected(ctx, ids)
}

// HandleKey reacts to a key press on the canvas. Delete and Backspace delete
// the selected nodes, with the same reconnection as DeleteNodes, unless
// focus is in a text-editing control. handled reports whether the key
// triggered a deletion attempt.
func (e *Editor) HandleKey(ctx context.Context, key string, focus Focus) (handled bool, err error) {
	if key != "Delete" && key != "Backspace" {
		return false, nil
	}
	if focus.Editing() {
		return false, nil
	}

	logger := ctxlog.FromContext(ctx)
	selected, err := e.graph.Overlay().Selected(ctx)
	if err != nil {
		return false, err
	}
	if len(selected) == 0 {
		logger.Debug("Delete key pressed with an empty selection.")
		return true, nil
	}

	if _, err := e.DeleteNodes(ctx, selected); err != nil {
		return true, err
	}
	if err := e.graph.Overlay().SetSelected(ctx, nil); err != nil {
		logger.Warn("Failed to clear selection.", "error", err)
	}
	return true, nil
}
