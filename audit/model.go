// audit/model.go
package audit

import "time"

// AuditLog records one mutation of the report-server catalog or its
// access-control lists.
type AuditLog struct {
	Timestamp time.Time       `json:"timestamp"`
	Action    string          `json:"action"`
	ServerURI string          `json:"server_uri"`
	ItemID    string          `json:"item_id,omitempty"`
	ItemPath  string          `json:"item_path,omitempty"`
	UserName  string          `json:"user_name,omitempty"`
	Roles     []string        `json:"roles,omitempty"`
	Success   bool            `json:"success"`
	Details   string          `json:"details,omitempty"`
}
