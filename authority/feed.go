package authority

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rohanhumai/qr-attendance-client/models"
)

// The feed is a dev-loop stand-in for the teacher's projected QR code, so
// any origin may subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleFeed streams the session's QR payload on a ticker until the session
// leaves the active state or the client disconnects.
func (a *Authority) handleFeed(c *gin.Context) {
	code := c.Param("code")
	if _, ok := a.Session(code); !ok {
		writeFailure(c, models.NewFailure(models.KindSessionUnavailable, "session not found"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(a.cfg.FeedInterval)
	defer ticker.Stop()

	for range ticker.C {
		session, ok := a.Session(code)
		if !ok || session.State(a.Now()) != models.SessionActive {
			log.Println("Feed for session", code, "closing, session no longer active")
			return
		}
		payload := models.ScanPayload{
			SessionCode: session.SessionCode,
			Subject:     session.Subject,
			ExpiresAt:   session.ExpiresAt.Format(time.RFC3339),
		}
		if err := conn.WriteJSON(payload); err != nil {
			log.Printf("Feed client disconnected: %v", err)
			return
		}
	}
}
