// Package web provides HTTP handlers and REST API endpoints for workflow
// management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowdeck/flowdeck/pkg/commands"
	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/queries"
	"github.com/flowdeck/flowdeck/pkg/registry"
)

type APIHandlers struct {
	commands    *commands.Handlers
	queries     *queries.Handlers
	validator   *validator.Validate
	registry    *registry.Registry
	persistence persistence.Persistence
}

func NewAPIHandlers(
	commandHandlers *commands.Handlers,
	queryHandlers *queries.Handlers,
	validate *validator.Validate,
	executorRegistry *registry.Registry,
	store persistence.Persistence,
) *APIHandlers {
	return &APIHandlers{
		commands:    commandHandlers,
		queries:     queryHandlers,
		validator:   validate,
		registry:    executorRegistry,
		persistence: store,
	}
}

// Register mounts every route on the app.
func (h *APIHandlers) Register(app *fiber.App) {
	workflows := app.Group("/workflows")
	workflows.Get("/", h.GetWorkflows)
	workflows.Post("/", h.CreateWorkflow)
	workflows.Get("/recent", h.GetRecentWorkflows)
	workflows.Get("/stats", h.GetWorkflowStats)
	workflows.Get("/search", h.SearchWorkflows)
	workflows.Get("/:id", h.GetWorkflow)
	workflows.Patch("/:id", h.UpdateWorkflow)
	workflows.Delete("/:id", h.DeleteWorkflow)
	workflows.Post("/:id/activate", h.ActivateWorkflow)
	workflows.Post("/:id/pause", h.PauseWorkflow)
	workflows.Post("/:id/execute", h.ExecuteWorkflow)
	workflows.Post("/:id/clone", h.CloneWorkflow)
	workflows.Get("/:id/validate", h.ValidateWorkflow)

	app.Post("/templates/:id/use", h.CreateFromTemplate)

	apps := app.Group("/apps")
	apps.Post("/:id/connect", h.ConnectApp)
	apps.Post("/:id/disconnect", h.DisconnectApp)

	app.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	userID, err := queryUserID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	workflows, err := h.queries.GetWorkflowsByUser(c.Context(), userID)
	if err != nil {
		return handleQueryError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "count": len(workflows)})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflowID, err := paramWorkflowID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	userID, err := queryUserID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	wf, err := h.queries.GetWorkflow(c.Context(), workflowID, userID)
	if err != nil {
		return handleQueryError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) GetRecentWorkflows(c fiber.Ctx) error {
	userID, err := queryUserID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	limit := 5
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
	}

	workflows, err := h.queries.GetRecentWorkflows(c.Context(), userID, limit)
	if err != nil {
		return handleQueryError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "count": len(workflows)})
}

func (h *APIHandlers) GetWorkflowStats(c fiber.Ctx) error {
	userID, err := queryUserID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	stats, err := h.queries.GetWorkflowStats(c.Context(), userID)
	if err != nil {
		return handleQueryError(c, err)
	}

	return c.JSON(stats)
}

func (h *APIHandlers) SearchWorkflows(c fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return badRequest(c, "q is required")
	}

	var owner *identity.UserID

	if userStr := c.Query("user_id"); userStr != "" {
		userID, err := parseUserID(userStr)
		if err != nil {
			return badRequest(c, err.Error())
		}

		owner = &userID
	}

	workflows, err := h.queries.SearchWorkflows(c.Context(), query, owner)
	if err != nil {
		return handleQueryError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "count": len(workflows)})
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	cmd := commands.CreateWorkflowCommand{
		UserID:      identity.UserID(req.UserID),
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		IconColor:   req.IconColor,
	}
	if req.Config != nil {
		cmd.Config = *req.Config
	}

	result := h.commands.CreateWorkflow(c.Context(), cmd)
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	workflowID, err := paramWorkflowID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.commands.UpdateWorkflow(c.Context(), commands.UpdateWorkflowCommand{
		WorkflowID:  workflowID,
		UserID:      identity.UserID(req.UserID),
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		IconColor:   req.IconColor,
		Config:      req.Config,
	})
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	workflowID, err := paramWorkflowID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	userID, err := queryUserID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result := h.commands.DeleteWorkflow(c.Context(), commands.DeleteWorkflowCommand{
		WorkflowID: workflowID,
		UserID:     userID,
	})
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	return h.transition(c, func(workflowID identity.WorkflowID, userID identity.UserID) commands.Result {
		return h.commands.ActivateWorkflow(c.Context(), commands.ActivateWorkflowCommand{
			WorkflowID: workflowID,
			UserID:     userID,
		})
	})
}

func (h *APIHandlers) PauseWorkflow(c fiber.Ctx) error {
	return h.transition(c, func(workflowID identity.WorkflowID, userID identity.UserID) commands.Result {
		return h.commands.PauseWorkflow(c.Context(), commands.PauseWorkflowCommand{
			WorkflowID: workflowID,
			UserID:     userID,
		})
	})
}

// transition factors the shared shape of status-change endpoints: path id,
// user id in body or query, command call, envelope.
func (h *APIHandlers) transition(c fiber.Ctx, run func(identity.WorkflowID, identity.UserID) commands.Result) error {
	workflowID, err := paramWorkflowID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	userID, err := bodyOrQueryUserID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result := run(workflowID, userID)
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	workflowID, err := paramWorkflowID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req ExecuteWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.commands.ExecuteWorkflow(c.Context(), commands.ExecuteWorkflowCommand{
		WorkflowID:  workflowID,
		UserID:      identity.UserID(req.UserID),
		IPAddress:   c.IP(),
		TriggerData: req.TriggerData,
	})

	// A run that started and failed is still a well-formed outcome; only
	// runs that never started map to error statuses.
	if !result.Success && result.ExecutionID == "" {
		return commandStatus(c, result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) CloneWorkflow(c fiber.Ctx) error {
	workflowID, err := paramWorkflowID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req CloneWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.commands.CloneWorkflow(c.Context(), commands.CloneWorkflowCommand{
		WorkflowID: workflowID,
		UserID:     identity.UserID(req.UserID),
		NewName:    req.NewName,
	})
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	workflowID, err := paramWorkflowID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	validation, err := h.queries.ValidateWorkflow(c.Context(), workflowID)
	if err != nil {
		return handleQueryError(c, err)
	}

	return c.JSON(validation)
}

func (h *APIHandlers) CreateFromTemplate(c fiber.Ctx) error {
	templateID, err := identity.ParseTemplateID(c.Params("id"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req CreateFromTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.commands.CreateFromTemplate(c.Context(), commands.CreateFromTemplateCommand{
		TemplateID: templateID,
		UserID:     identity.UserID(req.UserID),
		Name:       req.Name,
	})
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) ConnectApp(c fiber.Ctx) error {
	appID, err := identity.ParseConnectedAppID(c.Params("id"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req ConnectAppRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.commands.ConnectApp(c.Context(), commands.ConnectAppCommand{
		AppID:        appID,
		UserID:       identity.UserID(req.UserID),
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenExpiry:  req.TokenExpiry,
	})
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) DisconnectApp(c fiber.Ctx) error {
	appID, err := identity.ParseConnectedAppID(c.Params("id"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req DisconnectAppRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.commands.DisconnectApp(c.Context(), commands.DisconnectAppCommand{
		AppID:  appID,
		UserID: identity.UserID(req.UserID),
	})
	if !result.Success {
		return commandStatus(c, result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	repositoryCheck := "ok"
	repOk := true

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		repositoryCheck = err.Error()
		repOk = false
	}

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func paramWorkflowID(c fiber.Ctx) (identity.WorkflowID, error) {
	return identity.ParseWorkflowID(c.Params("id"))
}

func parseUserID(raw string) (identity.UserID, error) {
	return identity.ParseUserID(raw)
}

func queryUserID(c fiber.Ctx) (identity.UserID, error) {
	return parseUserID(c.Query("user_id"))
}

// bodyOrQueryUserID accepts the user either as a JSON body field or a query
// parameter, so state transitions work from plain forms too.
func bodyOrQueryUserID(c fiber.Ctx) (identity.UserID, error) {
	var body struct {
		UserID int64 `json:"user_id"`
	}

	if err := c.Bind().JSON(&body); err == nil && body.UserID > 0 {
		return identity.UserID(body.UserID), nil
	}

	return queryUserID(c)
}
