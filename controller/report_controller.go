// controller/report_controller.go
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

type ReportController struct {
	reportService service.IReportService
}

func NewReportController(reportService service.IReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

// RegisterRoutes registers the API routes
func (rc *ReportController) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.POST("/list", rc.ListReports)
		reports.POST("/rename", rc.RenameItem)
	}
}

// ListReports endpoint
func (rc *ReportController) ListReports(c *gin.Context) {
	var req model.ListReportsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	resp, err := rc.reportService.ListReports(c, req.ServerURI)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list reports", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RenameItem endpoint
func (rc *ReportController) RenameItem(c *gin.Context) {
	var req model.RenameItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	resp, err := rc.reportService.RenameItem(c, req)
	if err != nil {
		switch {
		case errors.Is(err, app_errors.ErrItemNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Item not found", err)
		case errors.Is(err, app_errors.ErrRenameFailed):
			util.RespondWithError(c, http.StatusBadGateway, "Report server rejected the rename", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to rename item", err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
