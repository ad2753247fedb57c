package web

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flowdeck/flowdeck/pkg/commands"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func forbidden(c fiber.Ctx) error {
	problem := problems.NewStatusProblem(403).
		WithInstance(c.Path()).
		WithType("unauthorized").
		WithDetail("you do not have access to this resource")

	return c.Status(fiber.StatusForbidden).JSON(problem)
}

func unprocessable(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("precondition_violation").
		WithDetail(detail)

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleQueryError provides typed error handling for query handler errors.
func handleQueryError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrUnauthorized):
		return forbidden(c)

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow not found")

	case persistence.IsAppNotFound(err):
		return notFound(c, "app not found")

	case persistence.IsTemplateNotFound(err):
		return notFound(c, "template not found")

	default:
		return internalError(c, err)
	}
}

// commandStatus maps a failed command envelope to an HTTP response. The
// envelope's message is the only signal handlers get, so matching stays
// coarse on purpose.
func commandStatus(c fiber.Ctx, result commands.Result) error {
	message := result.ErrorMessage

	switch {
	case message == workflow.ErrUnauthorized.Error():
		return forbidden(c)

	case strings.Contains(message, "not found"):
		return notFound(c, message)

	default:
		return unprocessable(c, message)
	}
}
