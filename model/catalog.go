// model/catalog.go
package model

// CatalogItem is one node of the report server catalog as returned by the
// upstream /api/v2.0 endpoints.
type CatalogItem struct {
	ID   string `json:"Id,omitempty"`
	Name string `json:"Name"`
	Path string `json:"Path"`
	Type string `json:"Type"`
}

// CatalogResponse wraps the OData collection envelope.
type CatalogResponse struct {
	Value []CatalogItem `json:"value"`
}

// Role is one report-server role attached to a policy entry.
type Role struct {
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

// Policy is one principal row of an item's access-control list.
type Policy struct {
	GroupUserName string `json:"GroupUserName"`
	Roles         []Role `json:"Roles"`
}

// PolicyList is the unit of read/write against the upstream server. Writing a
// PolicyList always replaces the whole list for the item.
type PolicyList struct {
	Policies []Policy `json:"Policies"`
}

// Folder is the subset of the Folders(Path='…') response the rename flow needs.
type Folder struct {
	ID   string `json:"Id"`
	Name string `json:"Name,omitempty"`
	Path string `json:"Path,omitempty"`
}

// ReportItem is the simplified catalog entry returned to the frontend.
type ReportItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	FullPath string `json:"fullPath"`
}

// PermissionRecord is one user's resolved access to one catalog item. It is
// derived per-request and never persisted.
type PermissionRecord struct {
	Path        string   `json:"path"`
	FolderPath  string   `json:"folderPath"`
	Name        string   `json:"name"`
	ItemType    string   `json:"itemType"`
	CatalogType string   `json:"catalogType"`
	Roles       []string `json:"roles"`
	ID          string   `json:"id,omitempty"`
}

// PrincipalRoles is one row of a GetPermissions response.
type PrincipalRoles struct {
	UserName string `json:"userName"`
	Roles    []Role `json:"roles"`
}

// GetPermissionsRequest requires at least one of ItemID/ItemPath; the service
// rejects the request otherwise.
type GetPermissionsRequest struct {
	ServerURI string `json:"serverUri" binding:"required"`
	ItemID    string `json:"itemId"`
	ItemPath  string `json:"itemPath"`
}

type GetPermissionsResponse struct {
	Success bool             `json:"success"`
	Users   []PrincipalRoles `json:"users"`
}

// CheckPermissionsRequest carries either a single user or a list; more than
// one user switches the check into mutual (intersection) mode.
type CheckPermissionsRequest struct {
	ServerURI string   `json:"serverUri" binding:"required"`
	UserName  string   `json:"userName"`
	UserNames []string `json:"userNames"`
}

type CheckPermissionsResponse struct {
	Success      bool               `json:"success"`
	Permissions  []PermissionRecord `json:"permissions"`
	UserName     string             `json:"userName,omitempty"`
	UserNames    []string           `json:"userNames,omitempty"`
	TotalChecked int                `json:"totalChecked"`
	IsMutual     bool               `json:"isMutual"`
}

// SetPermissionsRequest replaces the target user's roles on one item. An empty
// Roles slice is the removal signal.
type SetPermissionsRequest struct {
	ServerURI string   `json:"serverUri" binding:"required"`
	ItemID    string   `json:"itemId"`
	ItemPath  string   `json:"itemPath"`
	ItemType  string   `json:"itemType"`
	UserName  string   `json:"userName" binding:"required"`
	Roles     []string `json:"roles"`
}

type ListReportsRequest struct {
	ServerURI string `json:"serverUri" binding:"required"`
}

type ListReportsResponse struct {
	Success bool         `json:"success"`
	Reports []ReportItem `json:"reports"`
	Errors  []string     `json:"errors,omitempty"`
	Count   int          `json:"count"`
}

type RenameItemRequest struct {
	ServerURI string `json:"serverUri" binding:"required"`
	ItemID    string `json:"itemId" binding:"required"`
	ItemType  string `json:"itemType" binding:"required"`
	NewName   string `json:"newName" binding:"required"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
