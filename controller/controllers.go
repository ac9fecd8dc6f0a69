// controller/controllers.go
package controller

import (
	"github.com/pbirs-tools/admin-api/audit"
	"github.com/pbirs-tools/admin-api/service"
)

// Controllers aggregates every HTTP controller for route registration.
type Controllers struct {
	PermissionController *PermissionController
	ReportController     *ReportController
	DirectoryController  *DirectoryController
	ConfigController     *ConfigController
	AuditController      *AuditController
}

func InitializeControllers(services *service.Services, auditSvc audit.Service) *Controllers {
	return &Controllers{
		PermissionController: NewPermissionController(services.PermissionService),
		ReportController:     NewReportController(services.ReportService),
		DirectoryController:  NewDirectoryController(services.DirectoryService),
		ConfigController:     NewConfigController(services.ConfigService),
		AuditController:      NewAuditController(auditSvc),
	}
}
