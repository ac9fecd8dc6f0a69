// model/roles.go
package model

// RoleDefinitions is the fixed set of item-level roles the report server
// understands. Role names arriving from the frontend are mapped through this
// table; unknown names are silently dropped.
var RoleDefinitions = map[string]Role{
	"Browser": {
		Name:        "Browser",
		Description: "May view folders, reports and subscribe to reports.",
	},
	"Content Manager": {
		Name:        "Content Manager",
		Description: "May manage content in the Report Server. This includes folders, reports and resources.",
	},
	"My Reports": {
		Name:        "My Reports",
		Description: "May publish reports and linked reports; manage folders, reports and resources in a users My Reports folder.",
	},
	"Publisher": {
		Name:        "Publisher",
		Description: "May publish reports and linked reports to the Report Server.",
	},
	"Report Builder": {
		Name:        "Report Builder",
		Description: "May view report definitions.",
	},
}

// MapRoleNames resolves role names through RoleDefinitions, dropping anything
// the table does not know.
func MapRoleNames(names []string) []Role {
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		if def, ok := RoleDefinitions[name]; ok {
			roles = append(roles, def)
		}
	}
	return roles
}
