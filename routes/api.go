package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/address-resolver/app/controllers"
)

// SetupAPIRoutes mounts the /v1 API
func SetupAPIRoutes(router *gin.Engine, c Controllers) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/resolve", c.Address.Resolve)
			addresses.POST("/extract", c.Address.Extract)
			addresses.POST("/batch", c.Address.Batch)
		}

		geo := v1.Group("/geo")
		{
			geo.GET("/postal/:code", c.Geo.ByPostalCode)
			geo.GET("/provinces", c.Geo.Provinces)
			geo.GET("/provinces/:province/districts", c.Geo.Districts)
			geo.GET("/search", c.Geo.Search)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", c.Admin.GetStats)
			admin.POST("/cache/invalidate", c.Admin.InvalidateCache)
			admin.POST("/search/reindex", c.Admin.Reindex)
			admin.GET("/reviews", c.Admin.ListReviews)
			admin.POST("/reviews/:id/approve", c.Admin.ApproveReview)
			admin.POST("/reviews/:id/reject", c.Admin.RejectReview)
			admin.POST("/reviews/:id/correct", c.Admin.CorrectReview)
		}

		v1.GET("/health", c.Address.HealthCheck)
	}
}

// SetupHealthRoutes mounts the probe endpoints
func SetupHealthRoutes(router *gin.Engine, address *controllers.AddressController) {
	router.GET("/health", address.HealthCheck)
	router.GET("/ready", address.Ready)
	router.GET("/live", address.HealthCheck)
}
