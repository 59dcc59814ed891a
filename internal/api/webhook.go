package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/gateway"
)

// GatewayWebhookHandler receives the gateway's form-encoded payment notifications
func GatewayWebhookHandler(gw *gateway.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form"})
			return
		}
		if err := gw.HandleNotification(c.Request.Context(), c.Request.PostForm); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
