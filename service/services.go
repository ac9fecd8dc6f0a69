// service/services.go
package service

import (
	"time"

	"github.com/pbirs-tools/admin-api/audit"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/repository"
	"github.com/pbirs-tools/admin-api/util"
)

// Services aggregates every service implementation for injection into the
// controllers.
type Services struct {
	PermissionService IPermissionService
	ReportService     IReportService
	DirectoryService  IDirectoryService
	ConfigService     IConfigService
}

// ServiceParams carries the shared infrastructure the services depend on.
type ServiceParams struct {
	PowerBIRepo     repository.IPowerBIRepository
	DirectoryRepo   repository.IDirectoryRepository
	AuditSvc        audit.Service
	NotificationSvc *util.NotificationService
	EventBus        *util.EventBus
	CatalogCache    util.Cache
	PolicyCache     util.Cache
	CacheTTL        time.Duration
	BatchSize       int
	Domain          string
	Servers         []string
	DirectoryConfig model.DirectoryConfig
	DirectoryReady  bool
}

func InitializeServices(params ServiceParams) *Services {
	validationUtil := util.NewValidationUtil()

	return &Services{
		PermissionService: NewPermissionService(
			params.PowerBIRepo,
			validationUtil,
			params.CatalogCache,
			params.PolicyCache,
			params.CacheTTL,
			params.BatchSize,
			params.Domain,
			params.AuditSvc,
			params.NotificationSvc,
			params.EventBus,
		),
		ReportService:    NewReportService(params.PowerBIRepo, params.AuditSvc, params.NotificationSvc, params.EventBus),
		DirectoryService: NewDirectoryService(params.DirectoryRepo, params.DirectoryConfig),
		ConfigService:    NewConfigService(params.Servers, params.DirectoryReady),
	}
}
