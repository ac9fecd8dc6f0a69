// model/directory.go
package model

// DirectoryConfig is the LDAP connection info for one directory request.
// Missing fields fall back to the globally configured directory.
type DirectoryConfig struct {
	URL          string `json:"ldapUrl"`
	BindDN       string `json:"bindDN"`
	BindPassword string `json:"bindPassword"`
	SearchBase   string `json:"searchBase"`
}

// DirectoryEntry is one search hit, user or group.
type DirectoryEntry struct {
	Name        string `json:"name"`
	DisplayText string `json:"displayText"`
	Type        string `json:"type"`
	IsActive    bool   `json:"isActive,omitempty"`
}

// UserDetails is the full attribute set for one directory user.
type UserDetails struct {
	SAMAccountName    string   `json:"sAMAccountName"`
	CN                string   `json:"cn"`
	DisplayName       string   `json:"displayName"`
	GivenName         string   `json:"givenName"`
	Surname           string   `json:"surname"`
	Email             string   `json:"email"`
	UserPrincipalName string   `json:"userPrincipalName"`
	TelephoneNumber   string   `json:"telephoneNumber"`
	Mobile            string   `json:"mobile"`
	Title             string   `json:"title"`
	Department        string   `json:"department"`
	Company           string   `json:"company"`
	ManagerDN         string   `json:"managerDN,omitempty"`
	ManagerName       string   `json:"managerName,omitempty"`
	Office            string   `json:"office"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	Country           string   `json:"country"`
	DistinguishedName string   `json:"distinguishedName"`
	WhenCreated       string   `json:"whenCreated"`
	WhenChanged       string   `json:"whenChanged"`
	MemberOf          []string `json:"memberOf"`
	Groups            []string `json:"groups"`
	IsActive          bool     `json:"isActive"`
}

// GroupInfo describes a directory group.
type GroupInfo struct {
	CN                string `json:"cn"`
	Description       string `json:"description"`
	DistinguishedName string `json:"distinguishedName"`
	MemberCount       int    `json:"memberCount"`
}

// GroupMember is one member of a group; Type is "user", "group" or "unknown"
// when the member entry could not be read.
type GroupMember struct {
	SAMAccountName    string `json:"sAMAccountName,omitempty"`
	CN                string `json:"cn"`
	DisplayName       string `json:"displayName,omitempty"`
	Email             string `json:"email,omitempty"`
	Department        string `json:"department,omitempty"`
	Title             string `json:"title,omitempty"`
	DistinguishedName string `json:"distinguishedName"`
	Type              string `json:"type"`
}

// ChainEntry is one level of a manager chain, level 0 being the user itself.
type ChainEntry struct {
	SAMAccountName string `json:"sAMAccountName"`
	CN             string `json:"cn"`
	DisplayName    string `json:"displayName"`
	Title          string `json:"title"`
	Department     string `json:"department"`
	Email          string `json:"email"`
	Level          int    `json:"level"`
	IsTopLevel     bool   `json:"isTopLevel"`
}

// DepartmentUser is a trimmed user record for department searches.
type DepartmentUser struct {
	SAMAccountName  string `json:"sAMAccountName"`
	DisplayName     string `json:"displayName"`
	Email           string `json:"email"`
	Title           string `json:"title"`
	Department      string `json:"department"`
	TelephoneNumber string `json:"telephoneNumber"`
	Type            string `json:"type"`
}

type DirectorySearchRequest struct {
	DirectoryConfig
	SearchFilter string `json:"searchFilter"`
}

type DirectoryUserRequest struct {
	DirectoryConfig
	UserName string `json:"userName" binding:"required"`
}

type DirectoryGroupRequest struct {
	DirectoryConfig
	GroupName string `json:"groupName" binding:"required"`
}

type DirectoryDepartmentRequest struct {
	DirectoryConfig
	Department string `json:"department" binding:"required"`
}
