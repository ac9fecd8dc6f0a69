// service/directory_service.go
package service

import (
	"context"
	"fmt"

	app_errors "github.com/pbirs-tools/admin-api/errors"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/repository"
)

type IDirectoryService interface {
	Search(ctx context.Context, req model.DirectorySearchRequest) ([]model.DirectoryEntry, error)
	GetUserDetails(ctx context.Context, req model.DirectoryUserRequest) (*model.UserDetails, error)
	GetGroupMembers(ctx context.Context, req model.DirectoryGroupRequest) (*model.GroupInfo, []model.GroupMember, error)
	GetDirectReports(ctx context.Context, req model.DirectoryUserRequest) ([]model.GroupMember, error)
	GetManagerChain(ctx context.Context, req model.DirectoryUserRequest) ([]model.ChainEntry, error)
	SearchByDepartment(ctx context.Context, req model.DirectoryDepartmentRequest) ([]model.DepartmentUser, error)
	GetAllDepartments(ctx context.Context, cfg model.DirectoryConfig) ([]string, error)
	GetAllLocations(ctx context.Context, cfg model.DirectoryConfig) ([]string, error)
}

// DirectoryService resolves identities against Active Directory. Per-request
// connection overrides take precedence; missing fields fall back to the
// globally configured directory.
type DirectoryService struct {
	repo     repository.IDirectoryRepository
	defaults model.DirectoryConfig
}

func NewDirectoryService(repo repository.IDirectoryRepository, defaults model.DirectoryConfig) *DirectoryService {
	return &DirectoryService{repo: repo, defaults: defaults}
}

func (s *DirectoryService) resolveConfig(cfg model.DirectoryConfig) (model.DirectoryConfig, error) {
	if cfg.URL == "" {
		cfg.URL = s.defaults.URL
	}
	if cfg.BindDN == "" {
		cfg.BindDN = s.defaults.BindDN
	}
	if cfg.BindPassword == "" {
		cfg.BindPassword = s.defaults.BindPassword
	}
	if cfg.SearchBase == "" {
		cfg.SearchBase = s.defaults.SearchBase
	}

	if cfg.URL == "" || cfg.BindDN == "" || cfg.BindPassword == "" || cfg.SearchBase == "" {
		return cfg, app_errors.ErrDirectoryNotConfigured
	}
	return cfg, nil
}

func (s *DirectoryService) Search(ctx context.Context, req model.DirectorySearchRequest) ([]model.DirectoryEntry, error) {
	cfg, err := s.resolveConfig(req.DirectoryConfig)
	if err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, cfg, req.SearchFilter)
}

func (s *DirectoryService) GetUserDetails(ctx context.Context, req model.DirectoryUserRequest) (*model.UserDetails, error) {
	cfg, err := s.resolveConfig(req.DirectoryConfig)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserDetails(ctx, cfg, req.UserName)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %q", app_errors.ErrUserNotFound, req.UserName)
	}
	return user, nil
}

func (s *DirectoryService) GetGroupMembers(ctx context.Context, req model.DirectoryGroupRequest) (*model.GroupInfo, []model.GroupMember, error) {
	cfg, err := s.resolveConfig(req.DirectoryConfig)
	if err != nil {
		return nil, nil, err
	}

	group, members, err := s.repo.GetGroupMembers(ctx, cfg, req.GroupName)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, fmt.Errorf("%w: %q", app_errors.ErrGroupNotFound, req.GroupName)
	}
	return group, members, nil
}

func (s *DirectoryService) GetDirectReports(ctx context.Context, req model.DirectoryUserRequest) ([]model.GroupMember, error) {
	cfg, err := s.resolveConfig(req.DirectoryConfig)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDirectReports(ctx, cfg, req.UserName)
}

func (s *DirectoryService) GetManagerChain(ctx context.Context, req model.DirectoryUserRequest) ([]model.ChainEntry, error) {
	cfg, err := s.resolveConfig(req.DirectoryConfig)
	if err != nil {
		return nil, err
	}
	return s.repo.GetManagerChain(ctx, cfg, req.UserName)
}

func (s *DirectoryService) SearchByDepartment(ctx context.Context, req model.DirectoryDepartmentRequest) ([]model.DepartmentUser, error) {
	cfg, err := s.resolveConfig(req.DirectoryConfig)
	if err != nil {
		return nil, err
	}
	return s.repo.SearchByDepartment(ctx, cfg, req.Department)
}

func (s *DirectoryService) GetAllDepartments(ctx context.Context, cfg model.DirectoryConfig) ([]string, error) {
	resolved, err := s.resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return s.repo.GetAllDepartments(ctx, resolved)
}

func (s *DirectoryService) GetAllLocations(ctx context.Context, cfg model.DirectoryConfig) ([]string, error) {
	resolved, err := s.resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	return s.repo.GetAllLocations(ctx, resolved)
}
