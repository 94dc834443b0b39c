package system

import (
	"encoding/json"
	"sync"

	"go-insight/internal/features/chartdata"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Hub fans committed widget render states out to WebSocket subscribers,
// keyed by dashboard ID. It implements dashboard.StatePublisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*websocket.Conn]bool
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (h *Hub) Subscribe(dashboardID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[dashboardID] == nil {
		h.subs[dashboardID] = make(map[*websocket.Conn]bool)
	}
	h.subs[dashboardID][conn] = true
}

func (h *Hub) Unsubscribe(dashboardID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[dashboardID], conn)
	if len(h.subs[dashboardID]) == 0 {
		delete(h.subs, dashboardID)
	}
}

// Publish sends the state to every subscriber of the dashboard. A failed
// write drops only that connection.
func (h *Hub) Publish(dashboardID string, state *chartdata.WidgetRenderState) {
	msg, err := json.Marshal(state)
	if err != nil {
		h.logger.Error("failed to marshal render state", zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[dashboardID]))
	for conn := range h.subs[dashboardID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping websocket subscriber", zap.String("dashboard", dashboardID), zap.Error(err))
			h.Unsubscribe(dashboardID, conn)
			_ = conn.Close()
		}
	}
}
