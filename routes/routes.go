// Package routes wires the HTTP surface of the address resolver.
//
// Layout:
//   - api.go: /v1 API and health routes
//   - web.go: service info at /
//   - routes.go: SetupAllRoutes
//
// Usage:
//
//	routes.SetupAllRoutes(router, routes.Controllers{...})
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/address-resolver/app/controllers"
)

// Controllers bundles the handlers mounted by SetupAllRoutes
type Controllers struct {
	Address *controllers.AddressController
	Geo     *controllers.GeoController
	Admin   *controllers.AdminController
}

// SetupAllRoutes installs middleware and every route
func SetupAllRoutes(router *gin.Engine, c Controllers) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, c.Address)
	SetupAPIRoutes(router, c)

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":  "ROUTE_NOT_FOUND",
			"path":   ctx.Request.URL.Path,
			"method": ctx.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		router.Use(gin.Logger())
	}
}
