package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/vk/chaingrid/internal/ctxlog"
	"github.com/vk/chaingrid/internal/editor"
	"github.com/vk/chaingrid/internal/executor"
	"github.com/vk/chaingrid/internal/expr"
	"github.com/vk/chaingrid/internal/graph"
	"github.com/vk/chaingrid/internal/node"
	"github.com/vk/chaingrid/internal/template"
)

// DropRequest is the body of POST /graph/nodes.
type DropRequest struct {
	TransferType string        `json:"transfer_type"`
	Payload      string        `json:"payload"`
	Position     node.Position `json:"position"`
}

// DataSourceRequest is the body of PUT /graph/nodes/:id/datasource.
type DataSourceRequest struct {
	Category string `json:"dataSourceCategory"`
	Ticker   string `json:"ticker"`
}

// IDsRequest is the body of POST /graph/delete and PUT /graph/selection.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// KeyRequest is the body of POST /graph/keys.
type KeyRequest struct {
	Key   string       `json:"key"`
	Focus editor.Focus `json:"focus"`
}

// RunRequest is the body of POST /runs. Both fields are optional.
type RunRequest struct {
	Start string         `json:"start"`
	Vars  map[string]any `json:"vars"`
}

func (s *Server) health(c fiber.Ctx) error {
	return c.SendString("OK")
}

func (s *Server) listTemplates(c fiber.Ctx) error {
	return c.JSON(template.Catalog())
}

func (s *Server) listConditionFunctions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"functions": expr.Functions()})
}

func (s *Server) getGraph(c fiber.Ctx) error {
	return c.JSON(s.graph.View(c.Context()))
}

func (s *Server) getMermaid(c fiber.Ctx) error {
	c.Type("txt")
	return c.SendString(graph.DrawMermaid(c.Context(), s.graph))
}

func (s *Server) dropNode(c fiber.Ctx) error {
	var req DropRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(err)
	}
	b, ok := s.editor.Drop(c.Context(), req.TransferType, req.Payload, req.Position)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

func (s *Server) updateNode(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.graph.Node(c.Context(), id); !ok {
		return notFound("node", id)
	}
	partial := make(map[string]any)
	if err := c.Bind().JSON(&partial); err != nil {
		return badRequest(err)
	}
	n, err := s.editor.UpdateNodeData(c.Context(), id, partial)
	if err != nil {
		return err
	}
	return c.JSON(s.editor.Bind(n))
}

func (s *Server) setDataSource(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.graph.Node(c.Context(), id); !ok {
		return notFound("node", id)
	}
	var req DataSourceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(err)
	}
	n, err := s.editor.SetDataSource(c.Context(), id, req.Category, req.Ticker)
	if err != nil {
		return err
	}
	return c.JSON(s.editor.Bind(n))
}

func (s *Server) runNode(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.graph.Node(c.Context(), id); !ok {
		return notFound("node", id)
	}
	outcome, err := s.executor.RunNode(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(outcome)
}

func (s *Server) connect(c fiber.Ctx) error {
	var req editor.Connection
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(err)
	}
	edge, ok := s.editor.Connect(c.Context(), req)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(edge)
}

func (s *Server) removeEdge(c fiber.Ctx) error {
	id := c.Params("id")
	if !s.editor.RemoveEdge(c.Context(), id) {
		return notFound("edge", id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) deleteNodes(c fiber.Ctx) error {
	var req IDsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(err)
	}
	snap, err := s.editor.DeleteNodes(c.Context(), req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (s *Server) setSelection(c fiber.Ctx) error {
	var req IDsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(err)
	}
	if err := s.editor.Select(c.Context(), req.IDs); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleKey(c fiber.Ctx) error {
	var req KeyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(err)
	}
	handled, err := s.editor.HandleKey(c.Context(), req.Key, req.Focus)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"handled": handled})
}

func (s *Server) startRun(c fiber.Ctx) error {
	var req RunRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(err)
		}
	}
	if req.Start == "" {
		req.Start = s.graph.StartNode(c.Context()).ID
	}

	report, err := s.executor.Run(c.Context(), req.Start, executor.WithVars(req.Vars))
	if err != nil && report == nil {
		return err
	}
	if err != nil {
		ctxlog.FromContext(c.Context()).Warn("Run ended early.", "runID", report.RunID, "error", err)
	}
	return c.JSON(report)
}
