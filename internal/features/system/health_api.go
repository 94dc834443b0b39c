package system

import (
	"context"
	"time"

	"go-insight/internal/common/api"
	"go-insight/internal/connectors"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	Executor connectors.QueryExecutor
}

func NewHealthApi(executor connectors.QueryExecutor) api.Route {
	return &HealthApi{Executor: executor}
}

// HealthCheck godoc
// @Summary Health check
// @Description Service liveness plus executor reachability
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/health [get]
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		executor := "ok"
		if err := h.Executor.Ping(ctx); err != nil {
			executor = err.Error()
		}

		return c.JSON(fiber.Map{
			"status":   "ok",
			"executor": executor,
		})
	})
}
