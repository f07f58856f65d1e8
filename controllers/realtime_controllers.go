package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/realtime"
)

type RealtimeController struct {
	Hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewRealtimeController accepts handshakes from the given origins; an
// empty list or "*" accepts any.
func NewRealtimeController(hub *realtime.Hub, origins []string, log logrus.FieldLogger) *RealtimeController {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	_, wildcard := allowed["*"]

	return &RealtimeController{
		Hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || wildcard || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle upgrades the request and keeps the client registered until it
// disconnects. Clients only listen; incoming messages are discarded.
func (rc *RealtimeController) Handle(c *gin.Context) {
	role := c.GetString("role")
	if role == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rc.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	rc.Hub.Register(ws, role)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	rc.Hub.Unregister(ws)
}
