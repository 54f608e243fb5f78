package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/auth"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/realtime"
	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the frontend domain is fixed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades clients to WebSocket for real-time events.
type WSHandler struct {
	hub       *realtime.Hub
	jwtSecret string
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *realtime.Hub, jwtSecret string) *WSHandler {
	return &WSHandler{hub: hub, jwtSecret: jwtSecret}
}

// HandleWebSocket handles GET /v1/ws?token=JWT. Browsers cannot set headers
// on WebSocket requests, so the token travels as a query parameter.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}
	claims, err := auth.ValidateJWT(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	userID, err := utils.ParseSixID(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	// Blocks until the client disconnects.
	h.hub.ServeWS(conn, userID)
}
