// service/report_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pbirs-tools/admin-api/audit"
	app_errors "github.com/pbirs-tools/admin-api/errors"
	logger "github.com/pbirs-tools/admin-api/logging"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/repository"
	"github.com/pbirs-tools/admin-api/util"
)

type IReportService interface {
	ListReports(ctx context.Context, serverURI string) (*model.ListReportsResponse, error)
	RenameItem(ctx context.Context, req model.RenameItemRequest) (*model.StatusResponse, error)
}

// ItemRenamedEvent is the payload published on "item.renamed".
type ItemRenamedEvent struct {
	ServerURI string
	ItemID    string
	ItemType  string
	NewName   string
}

type ReportService struct {
	repo            repository.IPowerBIRepository
	auditSvc        audit.Service
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

func NewReportService(
	repo repository.IPowerBIRepository,
	auditSvc audit.Service,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *ReportService {
	service := &ReportService{
		repo:            repo,
		auditSvc:        auditSvc,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	if eventBus != nil {
		eventBus.Subscribe("item.renamed", service.handleItemRenamed)
	}

	return service
}

func (s *ReportService) handleItemRenamed(ctx context.Context, event util.Event) error {
	renamed, ok := event.Payload.(ItemRenamedEvent)
	if !ok {
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	if err := s.notificationSvc.NotifyItemRenamed(ctx, renamed.ServerURI, renamed.ItemID, renamed.NewName); err != nil {
		logger.Warn("Failed to send rename notification", zap.Error(err))
	}

	return s.auditSvc.LogChange(ctx, audit.AuditLog{
		Timestamp: time.Now().UTC(),
		Action:    "item.renamed",
		ServerURI: renamed.ServerURI,
		ItemID:    renamed.ItemID,
		Success:   true,
		Details:   "renamed to " + renamed.NewName,
	})
}

// fullPath joins an item's folder path and name for display. Paths already
// ending in the name are used as-is.
func fullPath(item model.CatalogItem) string {
	if item.Path == "" {
		return "/" + item.Name
	}
	if strings.HasSuffix(item.Path, "/"+item.Name) || item.Path == item.Name {
		return item.Path
	}
	return strings.TrimSuffix(item.Path, "/") + "/" + item.Name
}

// ListReports fetches Power BI and paginated reports concurrently. Either
// source may fail independently; its failure is reported alongside whatever
// the other source returned.
func (s *ReportService) ListReports(ctx context.Context, serverURI string) (*model.ListReportsResponse, error) {
	type sourceResult struct {
		label   string
		catalog *model.CatalogResponse
		err     error
	}

	results := make([]sourceResult, 2)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		catalog, err := s.repo.GetPowerBIReports(gctx, serverURI)
		results[0] = sourceResult{label: "Power BI (PBIX)", catalog: catalog, err: err}
		return nil
	})
	g.Go(func() error {
		catalog, err := s.repo.GetPaginatedReports(gctx, serverURI)
		results[1] = sourceResult{label: "Paginated (RDL)", catalog: catalog, err: err}
		return nil
	})
	_ = g.Wait()

	reports := []model.ReportItem{}
	var errs []string
	for _, result := range results {
		if result.err != nil {
			logger.Warn("Report source unavailable",
				zap.String("source", result.label),
				zap.String("serverUri", serverURI),
				zap.Error(result.err))
			errs = append(errs, fmt.Sprintf("%s: %v", result.label, result.err))
			continue
		}
		if result.catalog == nil {
			continue
		}
		for _, item := range result.catalog.Value {
			path := item.Path
			if path == "" {
				path = "/"
			}
			// The source label doubles as the item type shown to the frontend.
			reports = append(reports, model.ReportItem{
				ID:       item.ID,
				Name:     item.Name,
				Path:     path,
				Type:     result.label,
				FullPath: fullPath(item),
			})
		}
	}

	if len(errs) == len(results) {
		if err := s.notificationSvc.NotifyAdmins(ctx, "all report sources failed for "+serverURI); err != nil {
			logger.Warn("Failed to notify admins", zap.Error(err))
		}
	}

	return &model.ListReportsResponse{
		Success: true,
		Reports: reports,
		Errors:  errs,
		Count:   len(reports),
	}, nil
}

// RenameItem renames a catalog item. Folders are addressed by path and
// require an ID lookup first; reports try the Power BI endpoint and fall back
// to the paginated one.
func (s *ReportService) RenameItem(ctx context.Context, req model.RenameItemRequest) (*model.StatusResponse, error) {
	logger.Info("Renaming catalog item",
		zap.String("serverUri", req.ServerURI),
		zap.String("itemId", req.ItemID),
		zap.String("itemType", req.ItemType),
		zap.String("newName", req.NewName))

	if req.ItemType == "Folder" {
		// For folders the caller supplies the folder path as the item ID.
		folder, err := s.repo.GetFolderByPath(ctx, req.ServerURI, req.ItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: folder %q: %v", app_errors.ErrItemNotFound, req.ItemID, err)
		}
		if folder == nil || folder.ID == "" {
			return nil, fmt.Errorf("%w: folder %q", app_errors.ErrItemNotFound, req.ItemID)
		}
		if err := s.repo.PatchFolderByID(ctx, req.ServerURI, folder.ID, req.NewName); err != nil {
			return nil, fmt.Errorf("%w: %v", app_errors.ErrRenameFailed, err)
		}
	} else {
		attempts := []util.WriteAttempt{
			func(ctx context.Context) error {
				return s.repo.PatchPowerBIReport(ctx, req.ServerURI, req.ItemID, req.NewName)
			},
			func(ctx context.Context) error {
				return s.repo.PatchRdlReport(ctx, req.ServerURI, req.ItemID, req.NewName)
			},
		}
		if err := util.TryWrites(ctx, attempts); err != nil {
			return nil, fmt.Errorf("%w: %v", app_errors.ErrRenameFailed, err)
		}
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, "item.renamed", ItemRenamedEvent{
			ServerURI: req.ServerURI,
			ItemID:    req.ItemID,
			ItemType:  req.ItemType,
			NewName:   req.NewName,
		})
	}

	return &model.StatusResponse{Success: true, Message: "Item renamed successfully"}, nil
}
