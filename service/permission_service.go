// service/permission_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pbirs-tools/admin-api/audit"
	app_errors "github.com/pbirs-tools/admin-api/errors"
	logger "github.com/pbirs-tools/admin-api/logging"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/repository"
	"github.com/pbirs-tools/admin-api/util"
)

// IPermissionService is the permission reconciliation engine.
type IPermissionService interface {
	GetPermissions(ctx context.Context, req model.GetPermissionsRequest) (*model.GetPermissionsResponse, error)
	CheckPermissions(ctx context.Context, serverURI string, users []string) (*model.CheckPermissionsResponse, error)
	SetPermissions(ctx context.Context, req model.SetPermissionsRequest) (*model.StatusResponse, error)
}

// PermissionChangeEvent is the payload published on "permissions.updated".
type PermissionChangeEvent struct {
	ServerURI string
	ItemID    string
	ItemPath  string
	UserName  string
	Roles     []string
}

// PermissionService computes per-user and mutual permission sets across the
// catalog and reconciles policy lists on writes. It is stateless apart from
// the two short-lived caches.
type PermissionService struct {
	repo            repository.IPowerBIRepository
	validationUtil  *util.ValidationUtil
	catalogCache    util.Cache
	policyCache     util.Cache
	cacheTTL        time.Duration
	batchSize       int
	domain          string
	auditSvc        audit.Service
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

func NewPermissionService(
	repo repository.IPowerBIRepository,
	validationUtil *util.ValidationUtil,
	catalogCache util.Cache,
	policyCache util.Cache,
	cacheTTL time.Duration,
	batchSize int,
	domain string,
	auditSvc audit.Service,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *PermissionService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	service := &PermissionService{
		repo:            repo,
		validationUtil:  validationUtil,
		catalogCache:    catalogCache,
		policyCache:     policyCache,
		cacheTTL:        cacheTTL,
		batchSize:       batchSize,
		domain:          domain,
		auditSvc:        auditSvc,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	if eventBus != nil {
		eventBus.Subscribe("permissions.updated", service.handlePermissionsUpdated)
	}

	return service
}

func (s *PermissionService) handlePermissionsUpdated(ctx context.Context, event util.Event) error {
	change, ok := event.Payload.(PermissionChangeEvent)
	if !ok {
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	if err := s.notificationSvc.NotifyPermissionChange(ctx, change.ServerURI, change.ItemPath, change.UserName, change.Roles); err != nil {
		logger.Warn("Failed to send permission change notification", zap.Error(err))
	}

	if err := s.auditSvc.LogChange(ctx, audit.AuditLog{
		Timestamp: time.Now().UTC(),
		Action:    "permissions.set",
		ServerURI: change.ServerURI,
		ItemID:    change.ItemID,
		ItemPath:  change.ItemPath,
		UserName:  change.UserName,
		Roles:     change.Roles,
		Success:   true,
	}); err != nil {
		logger.Error("Failed to write permission audit log", zap.Error(err))
		return err
	}
	return nil
}

// ---- catalog and policy caching ----

func (s *PermissionService) getCatalogSnapshot(ctx context.Context, serverURI string) (*model.CatalogResponse, error) {
	if data, ok := s.catalogCache.Get(ctx, serverURI); ok {
		var cached model.CatalogResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			logger.Debug("Using cached catalog", zap.String("serverUri", serverURI))
			return &cached, nil
		}
	}

	catalog, err := s.repo.GetCatalogItems(ctx, serverURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrUpstreamUnavailable, err)
	}

	if data, err := json.Marshal(catalog); err == nil {
		s.catalogCache.Set(ctx, serverURI, data, s.cacheTTL)
	}
	return catalog, nil
}

func policyCacheKey(serverURI string, item model.CatalogItem) string {
	return fmt.Sprintf("%s|type:%s|id:%s|path:%s", serverURI, item.Type, item.ID, item.Path)
}

// itemPoliciesCached memoizes per-item policy lookups, including the "no
// data" answer, so a multi-user check only hits each endpoint chain once per
// TTL window.
func (s *PermissionService) itemPoliciesCached(ctx context.Context, serverURI string, item model.CatalogItem) *model.PolicyList {
	key := policyCacheKey(serverURI, item)
	if data, ok := s.policyCache.Get(ctx, key); ok {
		var cached *model.PolicyList
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	list, _ := s.repo.GetItemPolicies(ctx, serverURI, item)
	if data, err := json.Marshal(list); err == nil {
		s.policyCache.Set(ctx, key, data, s.cacheTTL)
	}
	return list
}

func (s *PermissionService) rootPoliciesCached(ctx context.Context, serverURI string) *model.PolicyList {
	key := serverURI + "|rootPolicies"
	if data, ok := s.policyCache.Get(ctx, key); ok {
		var cached *model.PolicyList
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	list, _ := s.repo.GetRootPolicies(ctx, serverURI)
	if list != nil {
		if data, err := json.Marshal(list); err == nil {
			s.policyCache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return list
}

// ---- read path ----

func (s *PermissionService) GetPermissions(ctx context.Context, req model.GetPermissionsRequest) (*model.GetPermissionsResponse, error) {
	if err := s.validationUtil.ValidateGetPermissions(req); err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
	}

	policies, _ := s.repo.GetPolicies(ctx, req.ServerURI, req.ItemID, req.ItemPath)

	users := []model.PrincipalRoles{}
	if policies != nil {
		for _, policy := range policies.Policies {
			if policy.GroupUserName == "" {
				continue
			}
			users = append(users, model.PrincipalRoles{
				UserName: policy.GroupUserName,
				Roles:    policy.Roles,
			})
		}
	}

	return &model.GetPermissionsResponse{Success: true, Users: users}, nil
}

// collectRoles flattens a policy's role entries to unique names.
func collectRoles(policy model.Policy) []string {
	roles := []string{}
	seen := map[string]bool{}
	for _, role := range policy.Roles {
		if role.Name != "" && !seen[role.Name] {
			seen[role.Name] = true
			roles = append(roles, role.Name)
		}
	}
	return roles
}

// extractFolderPath derives the containing folder from a catalog path. Report
// paths may or may not carry the item name as their last segment; unexpected
// shapes fall back to the raw path.
func extractFolderPath(item model.CatalogItem) string {
	if item.Type == "Folder" {
		return item.Path
	}

	trimmed := strings.TrimSuffix(item.Path, "/")
	nameSegment := "/" + item.Name
	if item.Name != "" && strings.HasSuffix(trimmed, nameSegment) {
		withoutName := trimmed[:len(trimmed)-len(nameSegment)]
		if withoutName == "" {
			return "/"
		}
		return withoutName
	}

	return item.Path
}

func itemDisplayName(item model.CatalogItem) string {
	if item.Name != "" {
		return item.Name
	}
	segments := strings.Split(item.Path, "/")
	return segments[len(segments)-1]
}

func simpleItemType(catalogType string) string {
	if catalogType == "Folder" {
		return "Folder"
	}
	return "Report"
}

// checkSingleUser resolves one user's access across the root folder and every
// catalog item. Per-item fetch failures contribute no record.
func (s *PermissionService) checkSingleUser(ctx context.Context, serverURI string, items []model.CatalogItem, userName string) []model.PermissionRecord {
	permissions := []model.PermissionRecord{}

	// The root path is excluded from the bulk scan and checked on its own.
	if rootPolicies := s.rootPoliciesCached(ctx, serverURI); rootPolicies != nil {
		for _, policy := range rootPolicies.Policies {
			if !util.MatchUserPolicy(policy.GroupUserName, userName) {
				continue
			}
			if roles := collectRoles(policy); len(roles) > 0 {
				permissions = append(permissions, model.PermissionRecord{
					ItemType:    "Folder",
					Path:        "/",
					Name:        "/",
					Roles:       roles,
					FolderPath:  "/",
					CatalogType: "Folder",
				})
			}
			break
		}
	}

	validItems := make([]model.CatalogItem, 0, len(items))
	for _, item := range items {
		if item.Path != "" && item.Path != "/" {
			validItems = append(validItems, item)
		}
	}

	policyLists := s.fetchPoliciesBatched(ctx, serverURI, validItems)

	for i, item := range validItems {
		list := policyLists[i]
		if list == nil || len(list.Policies) == 0 {
			continue
		}

		matchedRoles := []string{}
		seen := map[string]bool{}
		for _, policy := range list.Policies {
			if !util.MatchUserPolicy(policy.GroupUserName, userName) {
				continue
			}
			for _, role := range collectRoles(policy) {
				if !seen[role] {
					seen[role] = true
					matchedRoles = append(matchedRoles, role)
				}
			}
		}
		if len(matchedRoles) == 0 {
			continue
		}

		permissions = append(permissions, model.PermissionRecord{
			Path:        item.Path,
			FolderPath:  extractFolderPath(item),
			Name:        itemDisplayName(item),
			ItemType:    simpleItemType(item.Type),
			CatalogType: item.Type,
			Roles:       matchedRoles,
			ID:          item.ID,
		})
	}

	return permissions
}

// findMatchingPermission locates the counterpart of target in another user's
// result set. Strategies are tried in priority order and never combined:
// identical ID, identical normalized path, identical (type, name, folder),
// identical (type, name) when both folders are root.
func findMatchingPermission(target model.PermissionRecord, permissions []model.PermissionRecord) *model.PermissionRecord {
	rootish := func(p string) bool { return p == "" || p == "/" }

	for i := range permissions {
		perm := &permissions[i]

		if target.ID != "" && perm.ID != "" && target.ID == perm.ID {
			return perm
		}

		if target.Path != "" && perm.Path != "" &&
			util.NormalizePath(target.Path) == util.NormalizePath(perm.Path) {
			return perm
		}

		if target.ItemType == perm.ItemType &&
			target.Name == perm.Name &&
			target.FolderPath != "" && perm.FolderPath != "" &&
			util.NormalizePath(target.FolderPath) == util.NormalizePath(perm.FolderPath) {
			return perm
		}

		if target.Name == perm.Name &&
			target.ItemType == perm.ItemType &&
			rootish(target.FolderPath) && rootish(perm.FolderPath) {
			return perm
		}
	}
	return nil
}

func intersectRoles(roleSets [][]string) []string {
	if len(roleSets) == 0 {
		return []string{}
	}

	counts := map[string]int{}
	order := []string{}
	for _, role := range roleSets[0] {
		if _, ok := counts[role]; !ok {
			counts[role] = 1
			order = append(order, role)
		}
	}
	for _, roleSet := range roleSets[1:] {
		present := map[string]bool{}
		for _, role := range roleSet {
			present[role] = true
		}
		for role := range counts {
			if present[role] {
				counts[role]++
			}
		}
	}

	intersection := []string{}
	for _, role := range order {
		if counts[role] == len(roleSets) {
			intersection = append(intersection, role)
		}
	}
	return intersection
}

// CheckPermissions resolves every user's access sequentially and, for more
// than one user, reduces the results to the mutual set: only items every user
// can reach, with roles intersected per item.
func (s *PermissionService) CheckPermissions(ctx context.Context, serverURI string, users []string) (*model.CheckPermissionsResponse, error) {
	if err := s.validationUtil.ValidateCheckPermissions(users); err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
	}

	catalog, err := s.getCatalogSnapshot(ctx, serverURI)
	if err != nil {
		return nil, err
	}
	items := catalog.Value
	logger.Info("Retrieved catalog items", zap.Int("count", len(items)), zap.String("serverUri", serverURI))

	allUserPermissions := make([][]model.PermissionRecord, 0, len(users))
	for _, userName := range users {
		permissions := s.checkSingleUser(ctx, serverURI, items, userName)
		logger.Info("Resolved user access",
			zap.String("userName", userName),
			zap.Int("items", len(permissions)))
		allUserPermissions = append(allUserPermissions, permissions)
	}

	var finalPermissions []model.PermissionRecord
	if len(users) == 1 {
		finalPermissions = allUserPermissions[0]
	} else {
		type mutualItem struct {
			record   model.PermissionRecord
			roleSets [][]string
		}

		mutual := make([]mutualItem, 0, len(allUserPermissions[0]))
		for _, perm := range allUserPermissions[0] {
			mutual = append(mutual, mutualItem{record: perm, roleSets: [][]string{perm.Roles}})
		}

		for _, current := range allUserPermissions[1:] {
			remaining := mutual[:0]
			for _, item := range mutual {
				if match := findMatchingPermission(item.record, current); match != nil {
					item.roleSets = append(item.roleSets, match.Roles)
					remaining = append(remaining, item)
				}
			}
			mutual = remaining
		}

		finalPermissions = []model.PermissionRecord{}
		for _, item := range mutual {
			roles := intersectRoles(item.roleSets)
			if len(roles) == 0 {
				continue
			}
			record := item.record
			record.Roles = roles
			finalPermissions = append(finalPermissions, record)
		}
	}

	response := &model.CheckPermissionsResponse{
		Success:      true,
		Permissions:  finalPermissions,
		TotalChecked: len(items),
		IsMutual:     len(users) > 1,
	}
	if len(users) == 1 {
		response.UserName = users[0]
	} else {
		response.UserNames = users
	}
	return response, nil
}

// ---- write path ----

// SetPermissions replaces one principal's roles on one item, preserving every
// other principal. An empty roles list removes the principal; removing an
// absent principal is a no-op.
func (s *PermissionService) SetPermissions(ctx context.Context, req model.SetPermissionsRequest) (*model.StatusResponse, error) {
	if err := s.validationUtil.ValidateSetPermissions(req); err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
	}

	endpoints := s.repo.ResolvePolicyEndpoints(req.ServerURI, req.ItemID, req.ItemPath, req.ItemType)
	logger.Info("Updating item policies",
		zap.String("serverUri", req.ServerURI),
		zap.String("userName", req.UserName))

	existing, err := util.TryInOrder(ctx, endpoints.Get)
	if err != nil || existing == nil {
		logger.Warn("Existing policies not found, proceeding with a fresh list",
			zap.String("itemId", req.ItemID),
			zap.String("itemPath", req.ItemPath))
	}

	mappedRoles := model.MapRoleNames(req.Roles)
	isRemoval := len(req.Roles) == 0
	inputBare := strings.ToLower(strings.TrimSpace(util.ExtractBareName(req.UserName)))

	output := []model.Policy{}
	userExists := false
	if existing != nil {
		for _, policy := range existing.Policies {
			policyBare := strings.ToLower(strings.TrimSpace(util.ExtractBareName(policy.GroupUserName)))
			if policyBare != inputBare {
				output = append(output, policy)
				continue
			}

			userExists = true
			if isRemoval {
				logger.Info("Removing principal from policies", zap.String("principal", policy.GroupUserName))
				continue
			}
			if len(mappedRoles) > 0 {
				// The stored principal keeps its original spelling; only the
				// roles are replaced.
				output = append(output, model.Policy{
					GroupUserName: policy.GroupUserName,
					Roles:         mappedRoles,
				})
			}
		}
	}

	if !userExists && !isRemoval && len(mappedRoles) > 0 {
		formatted := util.FormatUserName(req.UserName, s.domain)
		if formatted == "" {
			return nil, fmt.Errorf("%w: %q", app_errors.ErrInvalidUserName, req.UserName)
		}
		output = append(output, model.Policy{GroupUserName: formatted, Roles: mappedRoles})
	}
	if !userExists && isRemoval {
		// Removal of an unknown principal is accepted; surfaced in the log in
		// case the caller mistyped the account.
		logger.Info("Removal requested for principal not present in policies",
			zap.String("userName", req.UserName))
	}

	list := &model.PolicyList{Policies: output}
	if err := util.TryWrites(ctx, endpoints.Set(list)); err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrUpstreamWrite, err)
	}

	// The replaced list invalidates whatever the caches held for this item.
	s.policyCache.Delete(ctx, policyCacheKey(req.ServerURI, model.CatalogItem{
		ID:   req.ItemID,
		Path: req.ItemPath,
		Type: req.ItemType,
	}))

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, "permissions.updated", PermissionChangeEvent{
			ServerURI: req.ServerURI,
			ItemID:    req.ItemID,
			ItemPath:  req.ItemPath,
			UserName:  req.UserName,
			Roles:     req.Roles,
		})
	}

	return &model.StatusResponse{Success: true, Message: "Permissions set successfully"}, nil
}
