package handlers

import (
	"net/http"
	"sync"
	"time"

	"photosocial/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsPeer serializes writes; gorilla connections allow one writer at a time.
type wsPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *wsPeer) Send(msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return p.conn.WriteMessage(websocket.TextMessage, msg)
}

func (p *wsPeer) Close() error {
	return p.conn.Close()
}

// Presence keeps the caller registered as online for as long as the
// websocket stays open. Incoming frames are read and dropped.
func (h *Handler) Presence(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" || userID == "undefined" {
		c.Error(services.ValidationError("userId is required"))
		return
	}
	if h.requireWSToken {
		claims, err := h.tokens.Verify(c.Request.Context(), c.Query("token"))
		if err != nil {
			c.Error(err)
			return
		}
		if claims.UserID != userID {
			c.Error(services.AuthorizationError("Unauthorized actions"))
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	peer := &wsPeer{conn: conn}
	h.logger.Debug("user connected", zap.String("user_id", userID))
	h.presence.Register(userID, peer)
	defer func() {
		h.presence.Unregister(userID, peer)
		peer.Close()
		h.logger.Debug("user disconnected", zap.String("user_id", userID))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
