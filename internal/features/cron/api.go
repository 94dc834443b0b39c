package cron_feature

import (
	"go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CronApi struct {
	cronController *CronController
	config         *config.Config
}

func NewCronApi(
	cronController *CronController,
	config *config.Config,
) api.Route {
	return &CronApi{
		cronController: cronController,
		config:         config,
	}
}

func (h *CronApi) Setup(app *fiber.App) {
	jobs := app.Group("/api/refresh-jobs", middleware.AuthMiddleware(h.config.SkipAuth))

	jobs.Post("/", h.cronController.CreateRefreshJob)
	jobs.Get("/", h.cronController.ListRefreshJobs)
	jobs.Get("/:id", h.cronController.GetRefreshJob)
	jobs.Put("/:id", h.cronController.UpdateRefreshJob)
	jobs.Delete("/:id", h.cronController.DeleteRefreshJob)

	jobs.Post("/:id/execute", h.cronController.ExecuteRefreshJob)
	jobs.Get("/:id/logs", h.cronController.GetRefreshJobLogs)
}
