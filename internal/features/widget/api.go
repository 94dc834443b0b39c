package widget

import (
	"go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WidgetApi struct {
	WidgetController *WidgetController
	Config           *config.Config
}

func NewWidgetApi(widgetController *WidgetController, cfg *config.Config) api.Route {
	return &WidgetApi{
		WidgetController: widgetController,
		Config:           cfg,
	}
}

func (api *WidgetApi) Setup(app *fiber.App) {
	group := app.Group("/api/widgets", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/", api.WidgetController.Create)
	group.Get("/", api.WidgetController.List)
	group.Post("/preview", api.WidgetController.Preview)
	group.Get("/:id", api.WidgetController.Get)
	group.Put("/:id", api.WidgetController.Update)
	group.Delete("/:id", api.WidgetController.Delete)
	group.Post("/:id/clone", api.WidgetController.Clone)
	group.Get("/:id/data", api.WidgetController.GetData)
}
