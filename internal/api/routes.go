package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rentdesk/server/internal/ratelimit"
)

// SetupRoutes registers every route on router. limiter may be nil to disable
// rate limiting of the public form endpoints.
func SetupRoutes(router *gin.Engine, handler *Handler, limiter *ratelimit.Limiter, allowOrigins []string, logger *logrus.Logger) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public form endpoints share one per-IP budget
	forms := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{RateLimit(limiter, logger), h}
	}

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/settings/public", handler.GetPublicSettings)
		api.GET("/zones", handler.GetZones)
		api.GET("/zones.geojson", handler.GetZonesGeoJSON)
		api.GET("/listings", handler.ListPublicListings)
		api.GET("/listings/:id", handler.GetPublicListing)

		api.POST("/estimate", handler.Estimate)
		api.POST("/calculator/submit", forms(handler.SubmitCalculator)...)
		api.POST("/leads", forms(handler.CreateLead)...)
		api.POST("/analytics", forms(handler.TrackEvent)...)
		api.POST("/auth/login", forms(handler.Login)...)
	}

	admin := api.Group("/admin", handler.RequireAuth())
	{
		admin.GET("/leads", handler.ListLeads)
		admin.GET("/leads/:id", handler.GetLead)
		admin.PATCH("/leads/:id", handler.UpdateLead)
		admin.POST("/leads/:id/notes", handler.AddLeadNote)

		admin.GET("/analytics/summary", handler.GetAnalyticsSummary)

		admin.GET("/listings", handler.ListListings)
		admin.POST("/listings", handler.CreateListing)
		admin.PUT("/listings/:id", handler.UpdateListing)
		admin.DELETE("/listings/:id", handler.DeleteListing)
	}
}
