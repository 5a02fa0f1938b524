package playbackmodule

import (
	"github.com/gin-gonic/gin"
)

// registerRoutes registers all playback module routes
func registerRoutes(router *gin.Engine, handler *APIHandler) {
	playbackGroup := router.Group("/api/playback")
	{
		// Playback negotiation endpoint
		playbackGroup.POST("/decide", handler.HandleDecide)

		// Device profile management
		playbackGroup.GET("/profiles", handler.HandleListProfiles)
		playbackGroup.POST("/profiles", handler.HandleSaveProfile)
		playbackGroup.GET("/profiles/:id", handler.HandleGetProfile)
		playbackGroup.DELETE("/profiles/:id", handler.HandleDeleteProfile)

		// Health check endpoint
		playbackGroup.GET("/health", handler.HandleHealthCheck)
		playbackGroup.HEAD("/health", handler.HandleHealthCheck)
	}
}
