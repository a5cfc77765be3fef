// Package web exposes registered nodes over HTTP.
package web

import (
	"errors"
	"log/slog"

	"github.com/dukex/operion-mongo/pkg/models"
	"github.com/dukex/operion-mongo/pkg/protocol"
	"github.com/dukex/operion-mongo/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type APIHandlers struct {
	registry  *registry.Registry
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(
	registry *registry.Registry,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		registry:  registry,
		validator: validator,
		logger:    logger,
	}
}

func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	factories := h.registry.NodeFactories()

	nodes := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		nodes = append(nodes, toNodeTypeResponse(factory))
	}

	return c.JSON(nodes)
}

func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	nodeType := c.Params("type")

	factory, ok := h.registry.GetNodeFactory(nodeType)
	if !ok {
		return notFound(c, "Node type not found")
	}

	return c.JSON(toNodeTypeResponse(factory))
}

// ExecuteNode creates a node from the request config and runs it over the
// request items.
func (h *APIHandlers) ExecuteNode(c fiber.Ctx) error {
	nodeType := c.Params("type")

	var req ExecuteNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.NodeID == "" {
		req.NodeID = nodeType
	}

	node, err := h.registry.CreateNode(c.Context(), nodeType, req.NodeID, req.Config)
	if err != nil {
		var validationErr *registry.ConfigValidationError
		if errors.Is(err, registry.ErrNodeTypeNotRegistered) || errors.As(err, &validationErr) {
			return handleNodeError(c, err)
		}

		return badRequest(c, err.Error())
	}

	executionCtx := models.ExecutionContext{
		ID:          req.Execution.ID,
		WorkflowID:  req.Execution.WorkflowID,
		Variables:   req.Execution.Variables,
		Metadata:    req.Execution.Metadata,
		Credentials: req.Credentials,
	}

	if executionCtx.ID == "" {
		executionCtx.ID = uuid.NewString()
	}

	items := req.Items
	if items == nil {
		items = []models.Item{}
	}

	output, err := node.Execute(c.Context(), executionCtx, items)
	if err != nil {
		h.logger.WarnContext(c.Context(), "Node execution failed",
			"node_type", nodeType,
			"execution_id", executionCtx.ID,
			"error", err,
		)

		return handleNodeError(c, err)
	}

	return c.JSON(ExecuteNodeResponse{
		ExecutionID: executionCtx.ID,
		NodeID:      node.ID(),
		Items:       output,
	})
}

func (h *APIHandlers) TestCredentials(c fiber.Ctx) error {
	var req TestCredentialsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	tester, ok := h.registry.CredentialTester(req.Type)
	if !ok {
		return notFound(c, "No node tests credentials of type '"+req.Type+"'")
	}

	return c.JSON(tester.TestCredentials(c.Context(), req.Data))
}

func toNodeTypeResponse(factory protocol.NodeFactory) NodeTypeResponse {
	response := NodeTypeResponse{
		ID:          factory.ID(),
		Name:        factory.Name(),
		Description: factory.Description(),
		Schema:      factory.Schema(),
	}

	if tester, ok := factory.(protocol.CredentialTester); ok {
		response.CredentialType = tester.CredentialType()
	}

	return response
}
