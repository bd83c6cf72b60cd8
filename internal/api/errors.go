package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/editor"
	"github.com/vk/chaingrid/internal/executor"
	"github.com/vk/chaingrid/internal/node"
)

func notFound(what, id string) error {
	return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s '%s' not found", what, id))
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, editor.ErrProtectedNode), errors.Is(err, executor.ErrRunInProgress):
		return fiber.StatusConflict
	case errors.Is(err, datasource.ErrUnknownCategory), node.IsStructural(err):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError renders every error returned by a handler as {"error": msg}.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := statusFor(err)
	msg := err.Error()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg = fe.Message
	}

	logger := ctxlog.FromContext(c.Context())
	if code >= fiber.StatusInternalServerError {
		logger.Error("Request failed.", "status", code, "error", err)
	} else {
		logger.Warn("Request rejected.", "status", code, "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
