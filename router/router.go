// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pbirs-tools/admin-api/controller"
	"github.com/pbirs-tools/admin-api/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
	requestTimeout time.Duration,
	rateLimitViaRedis bool,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration, rateLimitViaRedis))
	router.Use(middleware.Timeout(requestTimeout))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Not found", "path": c.Request.URL.Path})
	})

	api := router.Group("/api")

	controllers.PermissionController.RegisterRoutes(api)
	controllers.ReportController.RegisterRoutes(api)
	controllers.DirectoryController.RegisterRoutes(api)
	controllers.ConfigController.RegisterRoutes(api)
	controllers.AuditController.RegisterRoutes(api)

	return router
}
