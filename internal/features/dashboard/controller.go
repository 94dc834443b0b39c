package dashboard

import (
	"time"

	"go-insight/internal/features/query"
	"go-insight/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DashboardController struct {
	DashboardService DashboardService
}

func NewDashboardController(dashboardService DashboardService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
	}
}

func currentUserID(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims == nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	oid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "invalid user ID")
	}
	return oid, nil
}

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

// CreateDashboard godoc
// CreateDashboard godoc
// @Summary Create dashboard
// @Description Create a new dashboard configuration
// @Tags dashboard
// @Accept json
// @Produce json
// @Param dashboard body DashboardConfig true "Dashboard Config"
// @Success 201 {object} DashboardConfig
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/dashboards [post]
func (ctrl *DashboardController) CreateDashboard(ctx *fiber.Ctx) error {
	var dashboard DashboardConfig
	if err := ctx.BodyParser(&dashboard); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.DashboardService.CreateDashboard(ctx.UserContext(), &dashboard, userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(dashboard)
}

// ListDashboards godoc
// ListDashboards godoc
// @Summary List dashboards
// @Description List all dashboards for the current user
// @Tags dashboard
// @Produce json
// @Success 200 {array} DashboardConfig
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/dashboards [get]
func (ctrl *DashboardController) ListDashboards(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	dashboards, err := ctrl.DashboardService.ListUserDashboards(ctx.UserContext(), userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(dashboards)
}

// GetDashboard godoc
// GetDashboard godoc
// @Summary Get dashboard
// @Description Get a dashboard configuration by ID
// @Tags dashboard
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 200 {object} DashboardConfig
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/dashboards/{id} [get]
func (ctrl *DashboardController) GetDashboard(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	dashboard, err := ctrl.DashboardService.GetDashboard(ctx.UserContext(), ctx.Params("id"), userID)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(dashboard)
}

// UpdateDashboard godoc
// UpdateDashboard godoc
// @Summary Update dashboard
// @Description Update an existing dashboard configuration
// @Tags dashboard
// @Accept json
// @Produce json
// @Param id path string true "Dashboard ID"
// @Param dashboard body DashboardConfig true "Dashboard Config"
// @Success 200 {object} DashboardConfig
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/dashboards/{id} [put]
func (ctrl *DashboardController) UpdateDashboard(ctx *fiber.Ctx) error {
	var dashboard DashboardConfig
	if err := ctx.BodyParser(&dashboard); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.DashboardService.UpdateDashboard(ctx.UserContext(), ctx.Params("id"), &dashboard, userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(dashboard)
}

// DeleteDashboard godoc
// DeleteDashboard godoc
// @Summary Delete dashboard
// @Description Delete a dashboard configuration
// @Tags dashboard
// @Param id path string true "Dashboard ID"
// @Success 204 {object} nil
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/dashboards/{id} [delete]
func (ctrl *DashboardController) DeleteDashboard(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.DashboardService.DeleteDashboard(ctx.UserContext(), ctx.Params("id"), userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// CloneDashboard godoc
// CloneDashboard godoc
// @Summary Clone dashboard
// @Description Create a copy of an existing dashboard
// @Tags dashboard
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 201 {object} DashboardConfig
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/dashboards/{id}/clone [post]
func (ctrl *DashboardController) CloneDashboard(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	clone, err := ctrl.DashboardService.CloneDashboard(ctx.UserContext(), ctx.Params("id"), userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(clone)
}

// SetDefault godoc
// SetDefault godoc
// @Summary Set default dashboard
// @Description Mark a dashboard as the user's default
// @Tags dashboard
// @Param id path string true "Dashboard ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/dashboards/{id}/default [post]
func (ctrl *DashboardController) SetDefault(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.DashboardService.SetDefaultDashboard(ctx.UserContext(), ctx.Params("id"), userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "ok"})
}

// GetData godoc
// GetData godoc
// @Summary Get dashboard data
// @Description Current render state of every widget on the dashboard
// @Tags dashboard
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/dashboards/{id}/data [get]
func (ctrl *DashboardController) GetData(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	states, err := ctrl.DashboardService.GetDashboardData(ctx.UserContext(), ctx.Params("id"), userID)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(states)
}

// Refresh godoc
// Refresh godoc
// @Summary Refresh dashboard
// @Description Start a new refresh cycle for all dashboard widgets
// @Tags dashboard
// @Produce json
// @Param id path string true "Dashboard ID"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 202 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/dashboards/{id}/refresh [post]
func (ctrl *DashboardController) Refresh(ctx *fiber.Ctx) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	tr := parseTimeRange(ctx)
	cycle, err := ctrl.DashboardService.RefreshDashboard(ctx.UserContext(), ctx.Params("id"), userID, tr)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{"cycle": cycle})
}
