package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/features/audit"
	"go-insight/internal/features/chartdata"
	"go-insight/internal/features/query"
	"go-insight/internal/features/widget"

	"github.com/xuri/excelize/v2"
)

type ReportService interface {
	ExportWidgetData(ctx context.Context, widgetID string, tr query.TimeRange, format ExportFormat) ([]byte, string, error)
	ExportToExcel(data []map[string]any, columns []string, filename string) ([]byte, string, error)
}

type ReportServiceImpl struct {
	WidgetService widget.WidgetService
	AuditService  audit.AuditService
}

func NewReportService(widgetService widget.WidgetService, auditService audit.AuditService) ReportService {
	return &ReportServiceImpl{
		WidgetService: widgetService,
		AuditService:  auditService,
	}
}

// ExportWidgetData runs the widget pipeline and renders the resulting chart
// data as a downloadable file.
func (s *ReportServiceImpl) ExportWidgetData(ctx context.Context, widgetID string, tr query.TimeRange, format ExportFormat) ([]byte, string, error) {
	w, err := s.WidgetService.GetWidget(ctx, widgetID)
	if err != nil {
		return nil, "", err
	}

	state, err := s.WidgetService.GetWidgetData(ctx, widgetID, tr)
	if err != nil {
		return nil, "", err
	}
	if state.Payload == nil {
		return nil, "", fmt.Errorf("widget %s has no data to export", widgetID)
	}

	columns, data := tabulate(w.Visualization, state.Payload)
	base := fmt.Sprintf("%s_%s", w.Slug, time.Now().Format("20060102_150405"))

	var out []byte
	var filename string
	switch format {
	case FormatXLSX:
		out, filename, err = s.ExportToExcel(data, columns, base)
	case FormatCSV, "":
		out, filename, err = exportToCSV(data, columns, base)
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, "", err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionReport, "widgets", widgetID, map[string]common_models.Change{
		"export": {New: filename},
	})
	return out, filename, nil
}

// tabulate flattens a chart payload into rows and a column order suitable
// for spreadsheet export.
func tabulate(kind query.VisualizationKind, p *chartdata.WidgetPayload) ([]string, []map[string]any) {
	switch kind {
	case query.VisTimeSeries:
		columns := []string{"date"}
		seen := map[string]bool{}
		rows := make([]map[string]any, 0, len(p.Series))
		for _, pt := range p.Series {
			row := map[string]any{
				"date": time.UnixMilli(pt.Ts).UTC().Format("2006-01-02"),
			}
			for _, v := range pt.Values {
				row[v.Label] = v.Value
				if !seen[v.Label] {
					seen[v.Label] = true
					columns = append(columns, v.Label)
				}
			}
			rows = append(rows, row)
		}
		return columns, rows

	case query.VisBarList:
		rows := make([]map[string]any, 0, len(p.Bars))
		for _, b := range p.Bars {
			rows = append(rows, map[string]any{"name": b.Name, "value": b.Value, "percentage": b.Percentage})
		}
		return []string{"name", "value", "percentage"}, rows

	case query.VisUsage:
		rows := make([]map[string]any, 0, len(p.Usage))
		for _, u := range p.Usage {
			rows = append(rows, map[string]any{"name": u.Name, "value": u.Value})
		}
		return []string{"name", "value"}, rows

	case query.VisLatency:
		rows := make([]map[string]any, 0, len(p.Latency))
		for _, l := range p.Latency {
			row := map[string]any{"date": l.Date}
			if l.P95 != nil {
				row["p95"] = *l.P95
			}
			if l.P50 != nil {
				row["p50"] = *l.P50
			}
			rows = append(rows, row)
		}
		return []string{"date", "p95", "p50"}, rows

	case query.VisCostTable:
		rows := make([]map[string]any, 0, len(p.CostRows))
		for _, c := range p.CostRows {
			rows = append(rows, map[string]any{"model": c.Model, "usage": c.Usage, "cost": c.Cost, "percentage": c.Percentage})
		}
		return []string{"model", "usage", "cost", "percentage"}, rows

	default: // NUMBER
		value := 0.0
		if p.Value != nil {
			value = *p.Value
		}
		return []string{"value"}, []map[string]any{{"value": value}}
	}
}

func exportToCSV(data []map[string]any, columns []string, filename string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(columns); err != nil {
		return nil, "", err
	}

	for _, rec := range data {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, cellString(rec[col]))
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), filename + ".csv", nil
}

func cellString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (s *ReportServiceImpl) ExportToExcel(data []map[string]any, columns []string, filename string) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)

	if len(columns) == 0 && len(data) > 0 {
		for k := range data[0] {
			columns = append(columns, k)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, record := range data {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			val := record[col]
			switch v := val.(type) {
			case time.Time:
				f.SetCellValue(sheetName, cell, v.Format("2006-01-02 15:04:05"))
			default:
				f.SetCellValue(sheetName, cell, v)
			}
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 15)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	xlsxFilename := filename
	if !strings.HasSuffix(xlsxFilename, ".xlsx") {
		xlsxFilename += ".xlsx"
	}

	return buffer.Bytes(), xlsxFilename, nil
}
