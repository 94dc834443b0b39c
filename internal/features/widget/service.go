package widget

import (
	"context"
	"fmt"
	"time"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/config"
	"go-insight/internal/connectors"
	"go-insight/internal/features/audit"
	"go-insight/internal/features/chartdata"
	"go-insight/internal/features/query"
	"go-insight/pkg/utils"

	"go.uber.org/zap"
)

type WidgetService interface {
	CreateWidget(ctx context.Context, w *Widget) error
	GetWidget(ctx context.Context, id string) (*Widget, error)
	ListWidgets(ctx context.Context) ([]ListedWidget, error)
	UpdateWidget(ctx context.Context, id string, w *Widget) error
	DeleteWidget(ctx context.Context, id string) error
	CloneWidget(ctx context.Context, id string) (*Widget, error)

	// Resolve drives a loading render state to a terminal branch by running
	// the full data pipeline for one widget.
	Resolve(ctx context.Context, w *Widget, tr query.TimeRange, state *chartdata.WidgetRenderState)
	GetWidgetData(ctx context.Context, id string, tr query.TimeRange) (*chartdata.WidgetRenderState, error)
	PreviewTimeseries(ctx context.Context, tr query.TimeRange, filters []query.Filter) (*PreviewResult, error)
}

type WidgetServiceImpl struct {
	WidgetRepo   WidgetRepository
	Executor     connectors.QueryExecutor
	AuditService audit.AuditService
	Transformer  *chartdata.Transformer
	Mock         *chartdata.MockGenerator
	Config       *config.Config
	Logger       *zap.Logger
}

func NewWidgetService(
	widgetRepo WidgetRepository,
	executor connectors.QueryExecutor,
	auditService audit.AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) WidgetService {
	return &WidgetServiceImpl{
		WidgetRepo:   widgetRepo,
		Executor:     executor,
		AuditService: auditService,
		Transformer:  chartdata.NewTransformer(),
		Mock:         chartdata.NewMockGenerator(),
		Config:       cfg,
		Logger:       logger,
	}
}

func (s *WidgetServiceImpl) CreateWidget(ctx context.Context, w *Widget) error {
	if w.Slug == "" {
		w.Slug = utils.Slugify(w.Name)
	}
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()
	err := s.WidgetRepo.Create(ctx, w)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionWidget, "widgets", w.ID.Hex(), map[string]common_models.Change{
			"widget": {New: w},
		})
	}
	return err
}

func (s *WidgetServiceImpl) GetWidget(ctx context.Context, id string) (*Widget, error) {
	return s.WidgetRepo.Get(ctx, id)
}

// ListWidgets merges stored widget definitions with rows derived from recent
// traces. An executor outage degrades the list to stored widgets only.
func (s *WidgetServiceImpl) ListWidgets(ctx context.Context) ([]ListedWidget, error) {
	stored, err := s.WidgetRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ListedWidget, 0, len(stored))
	for _, w := range stored {
		out = append(out, ListedWidget{
			ID:          w.ID.Hex(),
			Name:        w.Name,
			Description: w.Description,
			Source:      "stored",
			CreatedAt:   w.CreatedAt,
		})
	}

	page, err := s.Executor.ListTraces(ctx, 1, 20, nil)
	if err != nil {
		s.Logger.Warn("trace listing unavailable, returning stored widgets only", zap.Error(err))
		return out, nil
	}

	for i, row := range page.Data {
		name := ""
		if v, ok := row["name"].(string); ok {
			name = v
		}
		if name == "" {
			name = fmt.Sprintf("Trace %d", i+1)
		}
		id := ""
		if v, ok := row["id"].(string); ok {
			id = v
		}
		entry := ListedWidget{
			ID:     id,
			Name:   name,
			Source: "traces",
		}
		if ts, ok := chartdata.RecordTimestamp(row); ok {
			entry.CreatedAt = ts
		}
		out = append(out, entry)
	}

	return out, nil
}

func (s *WidgetServiceImpl) UpdateWidget(ctx context.Context, id string, w *Widget) error {
	oldWidget, _ := s.GetWidget(ctx, id)

	w.UpdatedAt = time.Now()
	err := s.WidgetRepo.Update(ctx, id, w)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionWidget, "widgets", id, map[string]common_models.Change{
			"widget": {Old: oldWidget, New: w},
		})
	}
	return err
}

func (s *WidgetServiceImpl) DeleteWidget(ctx context.Context, id string) error {
	oldWidget, _ := s.GetWidget(ctx, id)

	err := s.WidgetRepo.Delete(ctx, id)
	if err == nil {
		name := id
		if oldWidget != nil {
			name = oldWidget.Name
		}
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionWidget, "widgets", name, map[string]common_models.Change{
			"widget": {Old: oldWidget, New: "DELETED"},
		})
	}
	return err
}

func (s *WidgetServiceImpl) CloneWidget(ctx context.Context, id string) (*Widget, error) {
	src, err := s.WidgetRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := *src
	clone.Name = src.Name + " (Copy)"
	clone.Slug = utils.Slugify(clone.Name)
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = time.Now()

	if err := s.WidgetRepo.Create(ctx, &clone); err != nil {
		return nil, err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionClone, "widgets", clone.ID.Hex(), map[string]common_models.Change{
		"widget": {Old: src, New: &clone},
	})
	return &clone, nil
}

// Resolve runs build -> execute -> transform -> validate for one widget and
// commits exactly one terminal branch onto state. It never returns an error:
// executor failures become the failed branch with a synthetic fallback.
func (s *WidgetServiceImpl) Resolve(ctx context.Context, w *Widget, tr query.TimeRange, state *chartdata.WidgetRenderState) {
	wctx := chartdata.WidgetContext{Target: w.GroupBy}
	if wctx.Target == "" {
		wctx.Target = string(w.View)
	}

	desc := query.BuildWidgetQuery(w.QuerySpec(), tr, w.Filters)
	if err := desc.Validate(); err != nil {
		state.Fail(err.Error(), s.Mock.Generate(w.Visualization, wctx))
		return
	}

	rows, err := s.Executor.Execute(ctx, desc)
	if err != nil {
		s.Logger.Warn("widget query failed",
			zap.String("widget", w.ID.Hex()),
			zap.Error(err),
		)
		state.Fail(err.Error(), s.Mock.Generate(w.Visualization, wctx))
		return
	}

	if len(rows) == 0 {
		state.Empty()
		return
	}

	payload := s.Transformer.Transform(w.Visualization, rows)
	if w.Formula != "" && payload.Value != nil {
		if v, ferr := chartdata.ApplyFormula(w.Formula, *payload.Value, rows); ferr == nil {
			payload.Value = &v
		} else {
			s.Logger.Warn("widget formula failed", zap.String("widget", w.ID.Hex()), zap.Error(ferr))
		}
	}

	state.Succeed(payload)
	if !chartdata.IsValid(w.Visualization, state) {
		state.Invalidate()
	}
}

func (s *WidgetServiceImpl) GetWidgetData(ctx context.Context, id string, tr query.TimeRange) (*chartdata.WidgetRenderState, error) {
	w, err := s.WidgetRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	state := chartdata.NewLoadingState(w.ID.Hex(), 0)
	s.Resolve(ctx, w, tr, state)
	return state, nil
}

// PreviewTimeseries pages through raw traces and buckets them into a daily
// count series. Collection stops at PreviewMaxPages pages of PreviewPageSize
// traces; busier ranges report a truncated count.
func (s *WidgetServiceImpl) PreviewTimeseries(ctx context.Context, tr query.TimeRange, filters []query.Filter) (*PreviewResult, error) {
	pred, err := query.CompileFilters(filters)
	if err != nil {
		return nil, fmt.Errorf("invalid preview filters: %w", err)
	}

	agg := chartdata.NewDailyAggregator(tr.From, tr.To)

	truncated := false
	for page := 1; page <= s.Config.PreviewMaxPages; page++ {
		tp, err := s.Executor.ListTraces(ctx, page, s.Config.PreviewPageSize, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch traces page %d: %w", page, err)
		}

		for _, row := range tp.Data {
			if pred(row) {
				agg.AddRow(row)
			}
		}

		if page >= tp.Meta.TotalPages {
			break
		}
		if page == s.Config.PreviewMaxPages && tp.Meta.TotalPages > page {
			truncated = true
		}
	}

	return &PreviewResult{
		Count:     agg.Total(),
		ChartData: agg.Series(),
		Truncated: truncated,
	}, nil
}
