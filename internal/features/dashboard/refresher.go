package dashboard

import (
	"context"
	"sync"
	"time"

	"go-insight/internal/features/chartdata"
	"go-insight/internal/features/query"
	"go-insight/internal/features/widget"

	"go.uber.org/zap"
)

// StatePublisher receives every committed render state, keyed by dashboard.
// The WebSocket hub implements it; tests use a recording stub.
type StatePublisher interface {
	Publish(dashboardID string, state *chartdata.WidgetRenderState)
}

// WidgetLoader is the slice of the widget service the refresher needs.
type WidgetLoader interface {
	GetWidget(ctx context.Context, id string) (*widget.Widget, error)
	Resolve(ctx context.Context, w *widget.Widget, tr query.TimeRange, state *chartdata.WidgetRenderState)
}

// Refresher owns the per-dashboard refresh lifecycle. Each call to Refresh
// starts a new cycle: the previous in-flight cycle is cancelled and any of
// its late completions are discarded, so a stale fetch can never overwrite a
// newer one.
type Refresher struct {
	mu      sync.Mutex
	cycles  map[string]uint64
	cancels map[string]context.CancelFunc
	states  map[string]map[string]*chartdata.WidgetRenderState

	widgets WidgetLoader
	pub     StatePublisher
	pacing  time.Duration
	logger  *zap.Logger
}

func NewRefresher(widgets WidgetLoader, pub StatePublisher, pacing time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		cycles:  make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
		states:  make(map[string]map[string]*chartdata.WidgetRenderState),
		widgets: widgets,
		pub:     pub,
		pacing:  pacing,
		logger:  logger,
	}
}

// Refresh starts a new refresh cycle for the dashboard and returns its cycle
// id. Widgets are fetched sequentially with pacing between requests; each
// terminal state is committed and published only while its cycle is still
// current.
func (r *Refresher) Refresh(dash *DashboardConfig, tr query.TimeRange) uint64 {
	dashID := dash.ID.Hex()

	r.mu.Lock()
	cycle := r.cycles[dashID] + 1
	r.cycles[dashID] = cycle

	if cancel, ok := r.cancels[dashID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancels[dashID] = cancel

	slots := make(map[string]*chartdata.WidgetRenderState, len(dash.Widgets))
	for _, ref := range dash.Widgets {
		slots[ref.WidgetID] = chartdata.NewLoadingState(ref.WidgetID, cycle)
	}
	r.states[dashID] = slots
	r.mu.Unlock()

	for _, s := range slots {
		r.pub.Publish(dashID, s)
	}

	go r.run(ctx, dashID, cycle, dash.Widgets, tr)
	return cycle
}

func (r *Refresher) run(ctx context.Context, dashID string, cycle uint64, refs []DashboardWidgetRef, tr query.TimeRange) {
	for i, ref := range refs {
		if ctx.Err() != nil {
			return
		}

		state := chartdata.NewLoadingState(ref.WidgetID, cycle)
		w, err := r.widgets.GetWidget(ctx, ref.WidgetID)
		if err != nil {
			// A missing widget fails its own slot only; siblings keep going.
			state.Fail(err.Error(), nil)
		} else {
			r.widgets.Resolve(ctx, w, tr, state)
		}

		if !r.commit(dashID, state) {
			return
		}

		if i < len(refs)-1 && r.pacing > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.pacing):
			}
		}
	}
}

// commit stores and publishes a terminal state, unless a newer cycle has
// started in the meantime.
func (r *Refresher) commit(dashID string, state *chartdata.WidgetRenderState) bool {
	r.mu.Lock()
	if r.cycles[dashID] != state.Cycle {
		r.mu.Unlock()
		r.logger.Debug("discarding stale widget state",
			zap.String("dashboard", dashID),
			zap.String("widget", state.WidgetID),
			zap.Uint64("cycle", state.Cycle),
		)
		return false
	}
	r.states[dashID][state.WidgetID] = state
	r.mu.Unlock()

	r.pub.Publish(dashID, state)
	return true
}

// States returns a snapshot of the dashboard's current per-widget states.
func (r *Refresher) States(dashID string) map[string]*chartdata.WidgetRenderState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]*chartdata.WidgetRenderState, len(r.states[dashID]))
	for k, v := range r.states[dashID] {
		out[k] = v
	}
	return out
}

// Cycle returns the dashboard's current cycle id.
func (r *Refresher) Cycle(dashID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles[dashID]
}

// Stop cancels every in-flight cycle.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cancel := range r.cancels {
		cancel()
	}
}
