package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"yqhp/automation-engine/internal/parser"
	"yqhp/automation-engine/pkg/engine"
	"yqhp/automation-engine/pkg/logger"
	"yqhp/automation-engine/pkg/types"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok"})
}

// resolveWorkflow extracts the workflow from a request, parsing the YAML form
// when present.
func resolveWorkflow(req *WorkflowRequest) (*types.Workflow, error) {
	if req.WorkflowYAML != "" {
		return parser.Parse([]byte(req.WorkflowYAML))
	}
	if req.Workflow != nil {
		return req.Workflow, nil
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "workflow or workflow_yaml is required")
}

func (s *Server) validateWorkflow(c *fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	wf, err := resolveWorkflow(&req)
	if err != nil {
		if parser.IsParseError(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
				Error:   "parse_error",
				Message: err.Error(),
			})
		}
		return err
	}

	vr := s.engine.Validate(wf)
	return c.JSON(ValidateResponse{
		Valid:    vr.IsValid(),
		Errors:   vr.Errors,
		Warnings: vr.Warnings,
	})
}

func (s *Server) planWorkflow(c *fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	wf, err := resolveWorkflow(&req)
	if err != nil {
		return err
	}

	execPlan, err := s.engine.Plan(wf)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:   "plan_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(PlanResponse{
		Stages: execPlan.Stages,
		Steps:  execPlan.StepCount(),
	})
}

func (s *Server) executeWorkflow(c *fiber.Ctx) error {
	var req ExecuteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	wf, err := resolveWorkflow(&req.WorkflowRequest)
	if err != nil {
		return err
	}

	opts := engine.ExecuteOptions{DryRun: req.DryRun}

	if req.Async {
		opts.RunID = uuid.NewString()
		go func() {
			if _, err := s.engine.Execute(context.Background(), wf, req.Inputs, opts); err != nil {
				logger.Error("async run rejected",
					zap.String("run_id", opts.RunID), zap.Error(err))
			}
		}()
		return c.Status(fiber.StatusAccepted).JSON(ExecuteAcceptedResponse{RunID: opts.RunID})
	}

	result, err := s.engine.Execute(c.Context(), wf, req.Inputs, opts)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:   "run_rejected",
			Message: err.Error(),
		})
	}
	return c.JSON(result)
}

func (s *Server) runResult(c *fiber.Ctx) error {
	result, err := s.engine.Result(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	}
	return c.JSON(result)
}

func (s *Server) runStatus(c *fiber.Ctx) error {
	runID := c.Params("id")
	status, err := s.engine.Status(c.Context(), runID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	}
	return c.JSON(StatusResponse{RunID: runID, Status: string(status)})
}

func (s *Server) cancelRun(c *fiber.Ctx) error {
	if err := s.engine.Cancel(c.Params("id")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
