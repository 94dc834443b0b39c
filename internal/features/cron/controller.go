package cron_feature

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CronController struct {
	Service CronService
}

func NewCronController(service CronService) *CronController {
	return &CronController{
		Service: service,
	}
}

// CreateRefreshJob godoc
// @Summary Create refresh job
// @Description Schedule a recurring dashboard refresh
// @Tags cron
// @Accept json
// @Produce json
// @Param job body RefreshJob true "Refresh Job"
// @Success 201 {object} RefreshJob
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/refresh-jobs [post]
func (c *CronController) CreateRefreshJob(ctx *fiber.Ctx) error {
	var job RefreshJob
	if err := ctx.BodyParser(&job); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctxt, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Service.CreateRefreshJob(ctxt, &job); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(job)
}

// ListRefreshJobs godoc
// @Summary List refresh jobs
// @Description List scheduled dashboard refreshes with optional filtering
// @Tags cron
// @Produce json
// @Param active query boolean false "Filter by active status"
// @Param dashboard_id query string false "Filter by dashboard ID"
// @Success 200 {array} RefreshJob
// @Failure 500 {object} map[string]interface{}
// @Router /api/refresh-jobs [get]
func (c *CronController) ListRefreshJobs(ctx *fiber.Ctx) error {
	filter := make(map[string]interface{})

	if active := ctx.Query("active"); active != "" {
		filter["active"] = active == "true"
	}

	if dashboardID := ctx.Query("dashboard_id"); dashboardID != "" {
		filter["dashboard_id"] = dashboardID
	}

	ctxt, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs, err := c.Service.ListRefreshJobs(ctxt, filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(jobs)
}

// GetRefreshJob godoc
// @Summary Get refresh job
// @Description Get a refresh job by ID
// @Tags cron
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} RefreshJob
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/refresh-jobs/{id} [get]
func (c *CronController) GetRefreshJob(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	ctxt, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job, err := c.Service.GetRefreshJob(ctxt, id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if job == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Refresh job not found"})
	}

	return ctx.JSON(job)
}

// UpdateRefreshJob godoc
// @Summary Update refresh job
// @Description Update an existing refresh job
// @Tags cron
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param job body RefreshJob true "Refresh Job"
// @Success 200 {object} RefreshJob
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/refresh-jobs/{id} [put]
func (c *CronController) UpdateRefreshJob(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	var job RefreshJob
	if err := ctx.BodyParser(&job); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid job ID"})
	}
	job.ID = oid

	ctxt, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Service.UpdateRefreshJob(ctxt, &job); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(job)
}

// DeleteRefreshJob godoc
// @Summary Delete refresh job
// @Description Delete a refresh job
// @Tags cron
// @Param id path string true "Job ID"
// @Success 204 {object} nil
// @Failure 500 {object} map[string]interface{}
// @Router /api/refresh-jobs/{id} [delete]
func (c *CronController) DeleteRefreshJob(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	ctxt, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Service.DeleteRefreshJob(ctxt, id); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// ExecuteRefreshJob godoc
// @Summary Execute refresh job
// @Description Run a refresh job immediately
// @Tags cron
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/refresh-jobs/{id}/execute [post]
func (c *CronController) ExecuteRefreshJob(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	ctxt, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Service.ExecuteRefreshJob(ctxt, id); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "ok"})
}

// GetRefreshJobLogs godoc
// @Summary Get refresh job logs
// @Description Execution history of a refresh job, newest first
// @Tags cron
// @Produce json
// @Param id path string true "Job ID"
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {array} RefreshJobLog
// @Failure 500 {object} map[string]interface{}
// @Router /api/refresh-jobs/{id}/logs [get]
func (c *CronController) GetRefreshJobLogs(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))

	ctxt, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logs, err := c.Service.GetRefreshJobLogs(ctxt, id, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(logs)
}
