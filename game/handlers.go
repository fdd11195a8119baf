package game

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"astrovet/shared/logger"
)

type GameHandler struct {
	hub      *Hub
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
}

func NewGameHandler(hub *Hub) *GameHandler {
	return &GameHandler{
		hub: hub,
		// Connection churn guard; gameplay traffic itself is unthrottled.
		limiter: rate.NewLimiter(20, 40),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are filtered by the server middleware before we
			// ever get here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ConnectHandler upgrades the request and starts the participant's pumps.
// Everything after the upgrade is driven by the client's frames.
func (h *GameHandler) ConnectHandler(ctx *gin.Context) {
	if !h.limiter.Allow() {
		ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too-many-connections"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("WS upgrade failed for %s: %v", ctx.ClientIP(), err)
		return
	}

	participant := NewParticipant(uuid.NewString(), NewWebsocketConnection(conn))
	go participant.ReadPump(context.Background(), h.hub)
	go participant.WritePump()
}
