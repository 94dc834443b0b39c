package report

import (
	"fmt"
	"time"

	"go-insight/internal/features/query"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

// ExportWidget godoc
// ExportWidget godoc
// @Summary Export widget data
// @Description Run a widget's pipeline and download its chart data as CSV or XLSX
// @Tags reports
// @Produce octet-stream
// @Param id path string true "Widget ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/reports/widgets/{id}/export [get]
func (c *ReportController) ExportWidget(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	format := ExportFormat(ctx.Query("format", "csv"))

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

	data, filename, err := c.ReportService.ExportWidgetData(ctx.UserContext(), id, tr, format)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if format == FormatXLSX {
		ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	} else {
		ctx.Set("Content-Type", "text/csv")
	}
	return ctx.Send(data)
}
