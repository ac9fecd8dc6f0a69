// controller/config_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pbirs-tools/admin-api/service"
)

type ConfigController struct {
	configService service.IConfigService
}

func NewConfigController(configService service.IConfigService) *ConfigController {
	return &ConfigController{
		configService: configService,
	}
}

// RegisterRoutes registers the API routes
func (cc *ConfigController) RegisterRoutes(r *gin.RouterGroup) {
	config := r.Group("/config")
	{
		config.GET("/servers", cc.GetServers)
	}
}

// GetServers endpoint
func (cc *ConfigController) GetServers(c *gin.Context) {
	c.JSON(http.StatusOK, cc.configService.GetServerConfig())
}
