// service/config_service.go
package service

import "github.com/pbirs-tools/admin-api/model"

type IConfigService interface {
	GetServerConfig() model.ServerConfigResponse
}

// ConfigService exposes the frontend-facing slice of the configuration: which
// report servers exist and whether a directory is wired up. Credentials never
// leave the process.
type ConfigService struct {
	servers            []string
	directoryAvailable bool
}

func NewConfigService(servers []string, directoryAvailable bool) *ConfigService {
	return &ConfigService{servers: servers, directoryAvailable: directoryAvailable}
}

func (s *ConfigService) GetServerConfig() model.ServerConfigResponse {
	servers := s.servers
	if servers == nil {
		servers = []string{}
	}
	return model.ServerConfigResponse{
		Success:  true,
		Servers:  servers,
		ADConfig: &model.ADConfig{Available: s.directoryAvailable},
	}
}
