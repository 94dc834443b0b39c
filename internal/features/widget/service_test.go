package widget

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/config"
	"go-insight/internal/connectors"
	"go-insight/internal/features/chartdata"
	"go-insight/internal/features/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type mockExecutor struct {
	rows      []query.Row
	execErr   error
	execCalls int
	pages     map[int]*connectors.TracePage
	listErr   error
	listCalls int
}

func (m *mockExecutor) Execute(ctx context.Context, q query.QueryDescriptor) ([]query.Row, error) {
	m.execCalls++
	return m.rows, m.execErr
}

func (m *mockExecutor) ListTraces(ctx context.Context, page, limit int, filters []query.Filter) (*connectors.TracePage, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if tp, ok := m.pages[page]; ok {
		return tp, nil
	}
	return &connectors.TracePage{Meta: connectors.TraceMeta{Page: page, TotalPages: 1}}, nil
}

func (m *mockExecutor) Ping(ctx context.Context) error { return nil }

type mockWidgetRepo struct {
	widgets map[string]*Widget
}

func (m *mockWidgetRepo) Create(ctx context.Context, w *Widget) error {
	w.ID = primitive.NewObjectID()
	m.widgets[w.ID.Hex()] = w
	return nil
}

func (m *mockWidgetRepo) Get(ctx context.Context, id string) (*Widget, error) {
	w, ok := m.widgets[id]
	if !ok {
		return nil, errors.New("widget not found")
	}
	return w, nil
}

func (m *mockWidgetRepo) GetBySlug(ctx context.Context, slug string) (*Widget, error) {
	for _, w := range m.widgets {
		if w.Slug == slug {
			return w, nil
		}
	}
	return nil, errors.New("widget not found")
}

func (m *mockWidgetRepo) List(ctx context.Context) ([]Widget, error) {
	out := make([]Widget, 0, len(m.widgets))
	for _, w := range m.widgets {
		out = append(out, *w)
	}
	return out, nil
}

func (m *mockWidgetRepo) Update(ctx context.Context, id string, w *Widget) error {
	m.widgets[id] = w
	return nil
}

func (m *mockWidgetRepo) Delete(ctx context.Context, id string) error {
	delete(m.widgets, id)
	return nil
}

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (noopAudit) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestService(repo *mockWidgetRepo, exec *mockExecutor) *WidgetServiceImpl {
	return &WidgetServiceImpl{
		WidgetRepo:   repo,
		Executor:     exec,
		AuditService: noopAudit{},
		Transformer:  chartdata.NewTransformer(),
		Mock:         chartdata.NewMockGenerator(),
		Config:       &config.Config{PreviewMaxPages: 10, PreviewPageSize: 100},
		Logger:       zap.NewNop(),
	}
}

func countWidget() *Widget {
	return &Widget{
		ID:            primitive.NewObjectID(),
		Name:          "Total Traces",
		View:          query.ViewTraces,
		Visualization: query.VisNumber,
		QueryType:     query.QueryTypeCount,
	}
}

func weekRange() query.TimeRange {
	to := time.Now().UTC()
	return query.TimeRange{From: to.AddDate(0, 0, -7), To: to}
}

func TestResolveSuccess(t *testing.T) {
	exec := &mockExecutor{rows: []query.Row{{"count_count": 42.0}}}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	state := chartdata.NewLoadingState("w1", 1)
	svc.Resolve(context.Background(), countWidget(), weekRange(), state)

	if state.ApiStatus != chartdata.ApiStatusSuccess {
		t.Fatalf("status = %q, want success", state.ApiStatus)
	}
	if state.Payload == nil || state.Payload.Value == nil || *state.Payload.Value != 42 {
		t.Errorf("payload value = %v, want 42", state.Payload)
	}
	if state.Payload.Synthetic {
		t.Error("real rows must not produce a synthetic payload")
	}
}

func TestResolveExecutorFailureFallsBackToMock(t *testing.T) {
	exec := &mockExecutor{execErr: errors.New("connection refused")}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	state := chartdata.NewLoadingState("w1", 1)
	svc.Resolve(context.Background(), countWidget(), weekRange(), state)

	if state.ApiStatus != chartdata.ApiStatusFailed {
		t.Fatalf("status = %q, want failed", state.ApiStatus)
	}
	if state.Error == "" {
		t.Error("failure must keep the underlying cause")
	}
	if state.Payload == nil || !state.Payload.Synthetic {
		t.Error("failure must carry a synthetic fallback payload")
	}
}

func TestResolveEmptyResult(t *testing.T) {
	exec := &mockExecutor{rows: []query.Row{}}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	state := chartdata.NewLoadingState("w1", 1)
	svc.Resolve(context.Background(), countWidget(), weekRange(), state)

	if !state.IsEmpty {
		t.Error("zero rows must produce the empty branch")
	}
	if state.Error != "" || state.ApiStatus != chartdata.ApiStatusSuccess {
		t.Errorf("empty result must not look like a failure: error=%q status=%q", state.Error, state.ApiStatus)
	}
}

func TestResolveInvalidDescriptor(t *testing.T) {
	exec := &mockExecutor{rows: []query.Row{{"count_count": 1.0}}}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	w := countWidget()
	w.View = "sessions" // not a queryable view

	state := chartdata.NewLoadingState("w1", 1)
	svc.Resolve(context.Background(), w, weekRange(), state)

	if state.ApiStatus != chartdata.ApiStatusFailed {
		t.Fatalf("status = %q, want failed", state.ApiStatus)
	}
	if exec.execCalls != 0 {
		t.Error("invalid descriptor must never reach the executor")
	}
}

func TestResolveAppliesFormula(t *testing.T) {
	exec := &mockExecutor{rows: []query.Row{{"count_count": 10.0}}}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	w := countWidget()
	w.Formula = `value = value * 3`

	state := chartdata.NewLoadingState("w1", 1)
	svc.Resolve(context.Background(), w, weekRange(), state)

	if state.Payload == nil || state.Payload.Value == nil || *state.Payload.Value != 30 {
		t.Errorf("formula not applied, payload = %+v", state.Payload)
	}
}

func TestResolveBrokenFormulaKeepsBaseValue(t *testing.T) {
	exec := &mockExecutor{rows: []query.Row{{"count_count": 10.0}}}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	w := countWidget()
	w.Formula = `value = = broken`

	state := chartdata.NewLoadingState("w1", 1)
	svc.Resolve(context.Background(), w, weekRange(), state)

	if state.ApiStatus != chartdata.ApiStatusSuccess {
		t.Fatalf("status = %q, want success despite formula error", state.ApiStatus)
	}
	if *state.Payload.Value != 10 {
		t.Errorf("value = %v, want untouched 10", *state.Payload.Value)
	}
}

func TestListWidgetsMergesTraces(t *testing.T) {
	repo := &mockWidgetRepo{widgets: map[string]*Widget{}}
	stored := countWidget()
	repo.widgets[stored.ID.Hex()] = stored

	exec := &mockExecutor{pages: map[int]*connectors.TracePage{
		1: {
			Data: []query.Row{
				{"id": "tr-1", "name": "chat-completion", "timestamp": "2024-06-08T10:00:00Z"},
				{"id": "tr-2"},
			},
			Meta: connectors.TraceMeta{Page: 1, TotalPages: 1},
		},
	}}
	svc := newTestService(repo, exec)

	list, err := svc.ListWidgets(context.Background())
	if err != nil {
		t.Fatalf("ListWidgets() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 1 stored + 2 trace entries, got %d", len(list))
	}
	if list[0].Source != "stored" {
		t.Errorf("stored widgets must come first, got source %q", list[0].Source)
	}
	if list[1].Name != "chat-completion" || list[1].Source != "traces" {
		t.Errorf("unexpected trace entry %+v", list[1])
	}
	if list[2].Name == "" {
		t.Error("unnamed trace entry must get a placeholder name")
	}
}

func TestListWidgetsDegradesOnExecutorOutage(t *testing.T) {
	repo := &mockWidgetRepo{widgets: map[string]*Widget{}}
	stored := countWidget()
	repo.widgets[stored.ID.Hex()] = stored

	exec := &mockExecutor{listErr: errors.New("upstream down")}
	svc := newTestService(repo, exec)

	list, err := svc.ListWidgets(context.Background())
	if err != nil {
		t.Fatalf("executor outage must not fail the list: %v", err)
	}
	if len(list) != 1 || list[0].Source != "stored" {
		t.Errorf("expected stored widgets only, got %+v", list)
	}
}

func TestPreviewTimeseries(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 7, 23, 59, 59, 0, time.UTC)

	exec := &mockExecutor{pages: map[int]*connectors.TracePage{
		1: {
			Data: []query.Row{
				{"timestamp": "2024-06-01T10:00:00Z", "environment": "prod"},
				{"timestamp": "2024-06-01T11:00:00Z", "environment": "prod"},
				{"timestamp": "2024-06-03T09:00:00Z", "environment": "staging"},
				{"timestamp": "2024-05-20T09:00:00Z", "environment": "prod"}, // out of range
			},
			Meta: connectors.TraceMeta{Page: 1, TotalPages: 1},
		},
	}}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	filters := []query.Filter{{Column: "environment", Operator: query.OpIs, Value: "prod"}}
	res, err := svc.PreviewTimeseries(context.Background(), query.TimeRange{From: from, To: to}, filters)
	if err != nil {
		t.Fatalf("PreviewTimeseries() error = %v", err)
	}

	if res.Count != 2 {
		t.Errorf("count = %d, want 2 (filtered, in-range)", res.Count)
	}
	if res.Truncated {
		t.Error("single page must not report truncation")
	}
	series, ok := res.ChartData.([]chartdata.DailyCount)
	if !ok {
		t.Fatalf("chartData type %T", res.ChartData)
	}
	if len(series) != 7 {
		t.Errorf("expected 7 daily buckets, got %d", len(series))
	}
}

func TestPreviewTimeseriesPaginationCap(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 7, 23, 59, 59, 0, time.UTC)

	// Every page reports more pages than the cap allows.
	pages := make(map[int]*connectors.TracePage)
	for p := 1; p <= 10; p++ {
		pages[p] = &connectors.TracePage{
			Data: []query.Row{{"timestamp": fmt.Sprintf("2024-06-0%dT10:00:00Z", (p%7)+1)}},
			Meta: connectors.TraceMeta{Page: p, TotalPages: 50},
		}
	}
	exec := &mockExecutor{pages: pages}
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, exec)

	res, err := svc.PreviewTimeseries(context.Background(), query.TimeRange{From: from, To: to}, nil)
	if err != nil {
		t.Fatalf("PreviewTimeseries() error = %v", err)
	}

	if exec.listCalls != 10 {
		t.Errorf("executor calls = %d, want capped at 10", exec.listCalls)
	}
	if !res.Truncated {
		t.Error("hitting the page cap with more data behind it must report truncation")
	}
	if res.Count != 10 {
		t.Errorf("count = %d, want 10", res.Count)
	}
}

func TestPreviewTimeseriesRejectsBadFilters(t *testing.T) {
	svc := newTestService(&mockWidgetRepo{widgets: map[string]*Widget{}}, &mockExecutor{})
	_, err := svc.PreviewTimeseries(context.Background(), weekRange(), []query.Filter{
		{Column: "latency", Operator: "matches", Value: "x"},
	})
	if err == nil {
		t.Error("uncompilable filters must fail the preview")
	}
}

func TestCloneWidget(t *testing.T) {
	repo := &mockWidgetRepo{widgets: map[string]*Widget{}}
	src := countWidget()
	repo.widgets[src.ID.Hex()] = src
	svc := newTestService(repo, &mockExecutor{})

	clone, err := svc.CloneWidget(context.Background(), src.ID.Hex())
	if err != nil {
		t.Fatalf("CloneWidget() error = %v", err)
	}
	if clone.ID == src.ID {
		t.Error("clone must get a fresh id")
	}
	if clone.Name != "Total Traces (Copy)" {
		t.Errorf("clone name = %q", clone.Name)
	}
	if len(repo.widgets) != 2 {
		t.Errorf("repo holds %d widgets, want 2", len(repo.widgets))
	}
}
