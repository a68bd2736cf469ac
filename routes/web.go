package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupWebRoutes mounts the service info page
func SetupWebRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Thai Address Resolver",
			"version": "1.0.0",
			"endpoints": map[string]string{
				"resolve":   "POST /v1/addresses/resolve",
				"extract":   "POST /v1/addresses/extract",
				"batch":     "POST /v1/addresses/batch",
				"postal":    "GET /v1/geo/postal/:code",
				"provinces": "GET /v1/geo/provinces",
				"districts": "GET /v1/geo/provinces/:province/districts",
				"search":    "GET /v1/geo/search?q=",
				"stats":     "GET /v1/admin/stats",
				"reviews":   "GET /v1/admin/reviews",
				"health":    "GET /health",
			},
		})
	})
}
