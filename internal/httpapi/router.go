// Package httpapi exposes the search coordinator over a headless HTTP API.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP router for the search API.
func NewRouter(h *Handler, allowOrigins []string) *gin.Engine {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health)

	api := router.Group("/api")
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.SaveSettings)
	api.DELETE("/settings", h.ResetSettings)
	api.GET("/diagnostics", h.Diagnostics)

	api.GET("/search", h.CurrentRun)
	api.POST("/search/start", h.StartSearch)
	api.POST("/search/stop", h.StopSearch)
	api.POST("/search/reset", h.ResetSearch)
	api.GET("/search/events", h.RunEvents)
	api.POST("/search/save", h.SaveKeys)

	return router
}
