package handlers

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"budget-tracker/middleware"
)

// WSHandler pushes redisplay signals to a user's connected clients: data
// saves and rate updates broadcast a small typed message so every open tab
// re-renders from the fresh snapshot.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 32 * 1024

	// Keep-Alive configuration (cloud hosts drop idle connections)
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get("user_id")
		log.Printf("🔌 Client disconnected: %v", userID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("❌ WebSocket error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades an authenticated request to a websocket session tagged
// with the caller's user id.
func (h *WSHandler) HandleWS(c *gin.Context) {
	userID := middleware.GetUserID(c)

	err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
	}
}

// NotifyUser broadcasts a redisplay signal to every session of one user.
func (h *WSHandler) NotifyUser(userID, event string) {
	msg := []byte(`{"type": "` + event + `"}`)

	err := h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		id, ok := s.Get("user_id")
		return ok && id == userID
	})
	if err != nil {
		log.Printf("⚠️ Error broadcasting to user %s: %v", userID, err)
	}
}
