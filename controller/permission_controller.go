// controller/permission_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	app_errors "github.com/pbirs-tools/admin-api/errors"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/service"
	"github.com/pbirs-tools/admin-api/util"
)

type PermissionController struct {
	permissionService service.IPermissionService
}

func NewPermissionController(permissionService service.IPermissionService) *PermissionController {
	return &PermissionController{
		permissionService: permissionService,
	}
}

// RegisterRoutes registers the API routes
func (pc *PermissionController) RegisterRoutes(r *gin.RouterGroup) {
	permissions := r.Group("/permissions")
	{
		permissions.POST("/get", pc.GetPermissions)
		permissions.POST("/check", pc.CheckPermissions)
		permissions.POST("/set", pc.SetPermissions)
	}
}

// GetPermissions endpoint
func (pc *PermissionController) GetPermissions(c *gin.Context) {
	var req model.GetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	resp, err := pc.permissionService.GetPermissions(c, req)
	if err != nil {
		respondPermissionError(c, err, "Failed to get permissions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckPermissions endpoint. A single userName and a userNames list are both
// accepted; supplying more than one user switches the check into mutual mode.
func (pc *PermissionController) CheckPermissions(c *gin.Context) {
	var req model.CheckPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	users := req.UserNames
	if len(users) == 0 && req.UserName != "" {
		users = []string{req.UserName}
	}

	resp, err := pc.permissionService.CheckPermissions(c, req.ServerURI, users)
	if err != nil {
		respondPermissionError(c, err, "Failed to check permissions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetPermissions endpoint
func (pc *PermissionController) SetPermissions(c *gin.Context) {
	var req model.SetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	resp, err := pc.permissionService.SetPermissions(c, req)
	if err != nil {
		respondPermissionError(c, err, "Failed to set permissions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func respondPermissionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app_errors.ErrValidation):
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
	case errors.Is(err, app_errors.ErrInvalidUserName):
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user name", err)
	case errors.Is(err, app_errors.ErrUpstreamUnavailable):
		util.RespondWithError(c, http.StatusBadGateway, "Report server unavailable", err)
	case errors.Is(err, app_errors.ErrUpstreamWrite):
		util.RespondWithError(c, http.StatusBadGateway, "Report server rejected the update", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}
