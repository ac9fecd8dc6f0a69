// controller/directory_controller.go
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

type DirectoryController struct {
	directoryService service.IDirectoryService
}

func NewDirectoryController(directoryService service.IDirectoryService) *DirectoryController {
	return &DirectoryController{
		directoryService: directoryService,
	}
}

// RegisterRoutes registers the API routes
func (dc *DirectoryController) RegisterRoutes(r *gin.RouterGroup) {
	ad := r.Group("/ad")
	{
		ad.POST("/search", dc.Search)
		ad.POST("/user-details", dc.GetUserDetails)
		ad.POST("/group-members", dc.GetGroupMembers)
		ad.POST("/direct-reports", dc.GetDirectReports)
		ad.POST("/manager-chain", dc.GetManagerChain)
		ad.POST("/search-by-department", dc.SearchByDepartment)
		ad.POST("/departments", dc.GetAllDepartments)
		ad.POST("/locations", dc.GetAllLocations)
	}
}

// Search endpoint
func (dc *DirectoryController) Search(c *gin.Context) {
	var req model.DirectorySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	results, err := dc.directoryService.Search(c, req)
	if err != nil {
		respondDirectoryError(c, err, "Directory search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// GetUserDetails endpoint
func (dc *DirectoryController) GetUserDetails(c *gin.Context) {
	var req model.DirectoryUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	user, err := dc.directoryService.GetUserDetails(c, req)
	if err != nil {
		respondDirectoryError(c, err, "Failed to get user details")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// GetGroupMembers endpoint
func (dc *DirectoryController) GetGroupMembers(c *gin.Context) {
	var req model.DirectoryGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	group, members, err := dc.directoryService.GetGroupMembers(c, req)
	if err != nil {
		respondDirectoryError(c, err, "Failed to get group members")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"group":   group,
		"members": members,
		"count":   len(members),
	})
}

// GetDirectReports endpoint
func (dc *DirectoryController) GetDirectReports(c *gin.Context) {
	var req model.DirectoryUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	reports, err := dc.directoryService.GetDirectReports(c, req)
	if err != nil {
		respondDirectoryError(c, err, "Failed to get direct reports")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "directReports": reports, "count": len(reports)})
}

// GetManagerChain endpoint
func (dc *DirectoryController) GetManagerChain(c *gin.Context) {
	var req model.DirectoryUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	chain, err := dc.directoryService.GetManagerChain(c, req)
	if err != nil {
		respondDirectoryError(c, err, "Failed to get manager chain")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "chain": chain})
}

// SearchByDepartment endpoint
func (dc *DirectoryController) SearchByDepartment(c *gin.Context) {
	var req model.DirectoryDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	users, err := dc.directoryService.SearchByDepartment(c, req)
	if err != nil {
		respondDirectoryError(c, err, "Department search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "count": len(users)})
}

// GetAllDepartments endpoint
func (dc *DirectoryController) GetAllDepartments(c *gin.Context) {
	var cfg model.DirectoryConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	departments, err := dc.directoryService.GetAllDepartments(c, cfg)
	if err != nil {
		respondDirectoryError(c, err, "Failed to list departments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "departments": departments})
}

// GetAllLocations endpoint
func (dc *DirectoryController) GetAllLocations(c *gin.Context) {
	var cfg model.DirectoryConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	locations, err := dc.directoryService.GetAllLocations(c, cfg)
	if err != nil {
		respondDirectoryError(c, err, "Failed to list locations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "locations": locations})
}

func respondDirectoryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app_errors.ErrDirectoryNotConfigured):
		util.RespondWithError(c, http.StatusBadRequest, "Active Directory is not configured", err)
	case errors.Is(err, app_errors.ErrUserNotFound):
		util.RespondWithError(c, http.StatusNotFound, "User not found", err)
	case errors.Is(err, app_errors.ErrGroupNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Group not found", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}
