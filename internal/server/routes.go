package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setupRoutes configures the routes that do not belong to a module
func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "playcast",
			})
		})
	}
}
