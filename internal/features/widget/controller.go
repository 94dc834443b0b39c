package widget

import (
	"time"

	"go-insight/internal/features/query"

	"github.com/gofiber/fiber/v2"
)

type WidgetController struct {
	WidgetService WidgetService
}

func NewWidgetController(widgetService WidgetService) *WidgetController {
	return &WidgetController{WidgetService: widgetService}
}

// parseTimeRange reads from/to query params (RFC3339), defaulting to the
// trailing 7 days.
func parseTimeRange(ctx *fiber.Ctx) query.TimeRange {
	now := time.Now().UTC()
	tr := query.TimeRange{From: now.AddDate(0, 0, -7), To: now}

	if v := ctx.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			tr.From = t
		}
	}
	if v := ctx.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			tr.To = t
		}
	}
	return tr
}

// Create godoc
// Create godoc
// @Summary Create widget
// @Description Create a new widget definition
// @Tags widgets
// @Accept json
// @Produce json
// @Param widget body Widget true "Widget Definition"
// @Success 201 {object} Widget
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/widgets [post]
func (c *WidgetController) Create(ctx *fiber.Ctx) error {
	var w Widget
	if err := ctx.BodyParser(&w); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.WidgetService.CreateWidget(ctx.UserContext(), &w); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(w)
}

// List godoc
// List godoc
// @Summary List widgets
// @Description List stored widgets merged with trace-derived entries
// @Tags widgets
// @Produce json
// @Success 200 {array} ListedWidget
// @Failure 500 {object} map[string]interface{}
// @Router /api/widgets [get]
func (c *WidgetController) List(ctx *fiber.Ctx) error {
	widgets, err := c.WidgetService.ListWidgets(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(widgets)
}

// Get godoc
// Get godoc
// @Summary Get widget
// @Description Get a widget definition by ID
// @Tags widgets
// @Produce json
// @Param id path string true "Widget ID"
// @Success 200 {object} Widget
// @Failure 404 {object} map[string]interface{}
// @Router /api/widgets/{id} [get]
func (c *WidgetController) Get(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	w, err := c.WidgetService.GetWidget(ctx.UserContext(), id)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Widget not found"})
	}
	return ctx.JSON(w)
}

// Update godoc
// Update godoc
// @Summary Update widget
// @Description Update an existing widget definition
// @Tags widgets
// @Accept json
// @Produce json
// @Param id path string true "Widget ID"
// @Param widget body Widget true "Widget Definition"
// @Success 200 {object} Widget
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/widgets/{id} [put]
func (c *WidgetController) Update(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	var w Widget
	if err := ctx.BodyParser(&w); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.WidgetService.UpdateWidget(ctx.UserContext(), id, &w); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(w)
}

// Delete godoc
// Delete godoc
// @Summary Delete widget
// @Description Delete a widget definition
// @Tags widgets
// @Param id path string true "Widget ID"
// @Success 204 {object} nil
// @Failure 500 {object} map[string]interface{}
// @Router /api/widgets/{id} [delete]
func (c *WidgetController) Delete(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if err := c.WidgetService.DeleteWidget(ctx.UserContext(), id); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Clone godoc
// Clone godoc
// @Summary Clone widget
// @Description Create a copy of an existing widget
// @Tags widgets
// @Produce json
// @Param id path string true "Widget ID"
// @Success 201 {object} Widget
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/widgets/{id}/clone [post]
func (c *WidgetController) Clone(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	w, err := c.WidgetService.CloneWidget(ctx.UserContext(), id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(w)
}

// GetData godoc
// GetData godoc
// @Summary Get widget data
// @Description Run the widget's query pipeline and return its render state
// @Tags widgets
// @Produce json
// @Param id path string true "Widget ID"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/widgets/{id}/data [get]
func (c *WidgetController) GetData(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	tr := parseTimeRange(ctx)

	state, err := c.WidgetService.GetWidgetData(ctx.UserContext(), id, tr)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Widget not found"})
	}
	return ctx.JSON(state)
}

// Preview godoc
// Preview godoc
// @Summary Preview trace timeseries
// @Description Day-bucketed trace counts for the requested range
// @Tags widgets
// @Accept json
// @Produce json
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} PreviewResult
// @Failure 500 {object} map[string]interface{}
// @Router /api/widgets/preview [post]
func (c *WidgetController) Preview(ctx *fiber.Ctx) error {
	tr := parseTimeRange(ctx)

	var body struct {
		Filters []query.Filter `json:"filters"`
	}
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&body); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	result, err := c.WidgetService.PreviewTimeseries(ctx.UserContext(), tr, body.Filters)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(result)
}
