package system

import (
	"github.com/gofiber/contrib/websocket"
)

type WebSocketController struct {
	Hub *Hub
}

func NewWebSocketController(hub *Hub) *WebSocketController {
	return &WebSocketController{Hub: hub}
}

// HandleDashboard streams widget render states for one dashboard. The read
// loop only detects disconnects; clients are not expected to send anything.
func (h *WebSocketController) HandleDashboard(c *websocket.Conn) {
	dashboardID := c.Params("id")
	if dashboardID == "" {
		_ = c.Close()
		return
	}

	h.Hub.Subscribe(dashboardID, c)
	defer h.Hub.Unsubscribe(dashboardID, c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
