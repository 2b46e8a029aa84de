package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts socket.io and the gateway stats endpoint.
func RegisterRoutes(r *gin.Engine, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	r.Any("/socket.io", handler)
	r.Any("/socket.io/*any", handler)

	r.GET("/api/gateway/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"online": hub.OnlineCount(),
		})
	})
}
