package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients authenticate with a token, not cookies
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades an authenticated connection and streams the user's events.
// Browsers cannot set headers on websocket requests, so the token comes as a query parameter.
func WebSocketHandler(hub *events.Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}
		claims, err := utils.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": claims.UserID,
				"error":   err.Error(),
			}).Warn("Websocket upgrade failed")
			return
		}
		hub.Attach(conn, claims.UserID)
	}
}
