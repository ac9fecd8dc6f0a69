// repository/ldap.go
package repository

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	logger "github.com/pbirs-tools/admin-api/logging"
	"github.com/pbirs-tools/admin-api/model"
)

const (
	connPoolTTL       = 2 * time.Minute
	searchSizeLimit   = 500
	sweepSizeLimit    = 10000
	managerChainLimit = 10

	// ACCOUNTDISABLE bit of userAccountControl.
	uacAccountDisable = 0x0002
)

// IDirectoryRepository exposes the Active Directory browsing operations the
// admin UI uses to resolve identities.
type IDirectoryRepository interface {
	Search(ctx context.Context, cfg model.DirectoryConfig, searchFilter string) ([]model.DirectoryEntry, error)
	GetUserDetails(ctx context.Context, cfg model.DirectoryConfig, userName string) (*model.UserDetails, error)
	GetGroupMembers(ctx context.Context, cfg model.DirectoryConfig, groupName string) (*model.GroupInfo, []model.GroupMember, error)
	GetDirectReports(ctx context.Context, cfg model.DirectoryConfig, userName string) ([]model.GroupMember, error)
	GetManagerChain(ctx context.Context, cfg model.DirectoryConfig, userName string) ([]model.ChainEntry, error)
	SearchByDepartment(ctx context.Context, cfg model.DirectoryConfig, department string) ([]model.DepartmentUser, error)
	GetAllDepartments(ctx context.Context, cfg model.DirectoryConfig) ([]string, error)
	GetAllLocations(ctx context.Context, cfg model.DirectoryConfig) ([]string, error)
}

type pooledConn struct {
	conn      *ldap.Conn
	expiresAt time.Time
}

// DirectoryRepository keeps bound connections pooled per (url, bindDN) for a
// short window; directory lookups tend to arrive in bursts from the UI.
type DirectoryRepository struct {
	mu   sync.Mutex
	pool map[string]pooledConn
}

func NewDirectoryRepository() *DirectoryRepository {
	return &DirectoryRepository{pool: make(map[string]pooledConn)}
}

func poolKey(cfg model.DirectoryConfig) string {
	return cfg.URL + "|" + cfg.BindDN
}

func (r *DirectoryRepository) getConn(cfg model.DirectoryConfig) (*ldap.Conn, error) {
	key := poolKey(cfg)

	r.mu.Lock()
	if entry, ok := r.pool[key]; ok {
		if time.Now().Before(entry.expiresAt) && !entry.conn.IsClosing() {
			r.mu.Unlock()
			return entry.conn, nil
		}
		delete(r.pool, key)
		go entry.conn.Close()
	}
	r.mu.Unlock()

	conn, err := ldap.DialURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to directory: %w", err)
	}
	if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
		conn.Close()
		return nil, fmt.Errorf("directory bind failed: %w", err)
	}

	r.mu.Lock()
	r.pool[key] = pooledConn{conn: conn, expiresAt: time.Now().Add(connPoolTTL)}
	r.mu.Unlock()
	return conn, nil
}

// release drops a pooled connection after an error so the next call re-binds.
func (r *DirectoryRepository) release(cfg model.DirectoryConfig) {
	key := poolKey(cfg)
	r.mu.Lock()
	if entry, ok := r.pool[key]; ok {
		delete(r.pool, key)
		go entry.conn.Close()
	}
	r.mu.Unlock()
}

func (r *DirectoryRepository) search(cfg model.DirectoryConfig, base string, scope, sizeLimit int, filter string, attrs []string) ([]*ldap.Entry, error) {
	conn, err := r.getConn(cfg)
	if err != nil {
		return nil, err
	}

	req := ldap.NewSearchRequest(
		base,
		scope,
		ldap.NeverDerefAliases,
		sizeLimit,
		0,
		false,
		filter,
		attrs,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		r.release(cfg)
		return nil, fmt.Errorf("directory search failed: %w", err)
	}
	return res.Entries, nil
}

var cnPattern = regexp.MustCompile(`(?i)CN=([^,]+)`)

// parseDN extracts the CN from a distinguished name, falling back to the raw
// DN when there is none.
func parseDN(dn string) string {
	if dn == "" {
		return ""
	}
	if m := cnPattern.FindStringSubmatch(dn); m != nil {
		return m[1]
	}
	return dn
}

func isActiveAccount(uacValue string) bool {
	uac, _ := strconv.Atoi(uacValue)
	return uac&uacAccountDisable == 0
}

// wildcardPattern wraps a plain term in wildcards; filters that already
// contain one are passed through.
func wildcardPattern(searchFilter string) string {
	if searchFilter == "" {
		return "*"
	}
	if strings.Contains(searchFilter, "*") {
		return searchFilter
	}
	return "*" + ldap.EscapeFilter(searchFilter) + "*"
}

func (r *DirectoryRepository) Search(ctx context.Context, cfg model.DirectoryConfig, searchFilter string) ([]model.DirectoryEntry, error) {
	pattern := wildcardPattern(searchFilter)
	results := []model.DirectoryEntry{}

	userFilter := fmt.Sprintf(
		"(&(objectCategory=person)(objectClass=user)(|(cn=%s)(sAMAccountName=%s)(displayName=%s)))",
		pattern, pattern, pattern)
	userEntries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, searchSizeLimit, userFilter,
		[]string{"sAMAccountName", "displayName", "department", "cn", "userAccountControl"})
	if err != nil {
		return nil, err
	}

	for _, entry := range userEntries {
		account := entry.GetAttributeValue("sAMAccountName")
		if account == "" {
			continue
		}
		displayName := entry.GetAttributeValue("displayName")
		department := entry.GetAttributeValue("department")

		displayText := account
		if displayName != "" {
			displayText = displayName
		}
		displayText = fmt.Sprintf("%s (%s)", displayText, account)
		if department != "" {
			displayText += fmt.Sprintf(" [%s]", department)
		}

		results = append(results, model.DirectoryEntry{
			Name:        account,
			DisplayText: displayText,
			Type:        "User",
			IsActive:    isActiveAccount(entry.GetAttributeValue("userAccountControl")),
		})
	}

	groupFilter := fmt.Sprintf(
		"(&(objectCategory=group)(|(cn=%s)(sAMAccountName=%s)(name=%s)))",
		pattern, pattern, pattern)
	groupEntries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, searchSizeLimit, groupFilter,
		[]string{"sAMAccountName", "name", "description", "cn"})
	if err != nil {
		return nil, err
	}

	for _, entry := range groupEntries {
		account := entry.GetAttributeValue("sAMAccountName")
		if account == "" {
			continue
		}
		name := entry.GetAttributeValue("name")
		if name == "" {
			name = account
		}
		displayText := name
		if desc := entry.GetAttributeValue("description"); desc != "" {
			displayText += " - " + desc
		}

		results = append(results, model.DirectoryEntry{
			Name:        account,
			DisplayText: displayText,
			Type:        "Group",
		})
	}

	return results, nil
}

func (r *DirectoryRepository) GetUserDetails(ctx context.Context, cfg model.DirectoryConfig, userName string) (*model.UserDetails, error) {
	escaped := ldap.EscapeFilter(userName)
	filter := fmt.Sprintf(
		"(&(objectCategory=person)(objectClass=user)(|(sAMAccountName=%s)(cn=%s)(userPrincipalName=%s)))",
		escaped, escaped, escaped)

	entries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, 1, filter, []string{
		"sAMAccountName", "cn", "displayName", "givenName", "sn", "mail",
		"userPrincipalName", "telephoneNumber", "mobile", "title", "department",
		"company", "manager", "memberOf", "physicalDeliveryOfficeName",
		"l", "st", "co", "distinguishedName", "whenCreated", "whenChanged",
		"userAccountControl",
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	entry := entries[0]
	memberOf := entry.GetAttributeValues("memberOf")
	groups := make([]string, 0, len(memberOf))
	for _, dn := range memberOf {
		groups = append(groups, parseDN(dn))
	}

	details := &model.UserDetails{
		SAMAccountName:    entry.GetAttributeValue("sAMAccountName"),
		CN:                entry.GetAttributeValue("cn"),
		DisplayName:       entry.GetAttributeValue("displayName"),
		GivenName:         entry.GetAttributeValue("givenName"),
		Surname:           entry.GetAttributeValue("sn"),
		Email:             entry.GetAttributeValue("mail"),
		UserPrincipalName: entry.GetAttributeValue("userPrincipalName"),
		TelephoneNumber:   entry.GetAttributeValue("telephoneNumber"),
		Mobile:            entry.GetAttributeValue("mobile"),
		Title:             entry.GetAttributeValue("title"),
		Department:        entry.GetAttributeValue("department"),
		Company:           entry.GetAttributeValue("company"),
		ManagerDN:         entry.GetAttributeValue("manager"),
		Office:            entry.GetAttributeValue("physicalDeliveryOfficeName"),
		City:              entry.GetAttributeValue("l"),
		State:             entry.GetAttributeValue("st"),
		Country:           entry.GetAttributeValue("co"),
		DistinguishedName: entry.GetAttributeValue("distinguishedName"),
		WhenCreated:       entry.GetAttributeValue("whenCreated"),
		WhenChanged:       entry.GetAttributeValue("whenChanged"),
		MemberOf:          memberOf,
		Groups:            groups,
		IsActive:          isActiveAccount(entry.GetAttributeValue("userAccountControl")),
	}
	if details.ManagerDN != "" {
		details.ManagerName = parseDN(details.ManagerDN)
	}
	return details, nil
}

func (r *DirectoryRepository) GetGroupMembers(ctx context.Context, cfg model.DirectoryConfig, groupName string) (*model.GroupInfo, []model.GroupMember, error) {
	escaped := ldap.EscapeFilter(groupName)
	filter := fmt.Sprintf("(&(objectCategory=group)(|(cn=%s)(sAMAccountName=%s)))", escaped, escaped)

	groupEntries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, 1, filter,
		[]string{"distinguishedName", "member", "cn", "description"})
	if err != nil {
		return nil, nil, err
	}
	if len(groupEntries) == 0 {
		return nil, nil, nil
	}

	groupEntry := groupEntries[0]
	memberDNs := groupEntry.GetAttributeValues("member")

	group := &model.GroupInfo{
		CN:                groupEntry.GetAttributeValue("cn"),
		Description:       groupEntry.GetAttributeValue("description"),
		DistinguishedName: groupEntry.GetAttributeValue("distinguishedName"),
		MemberCount:       len(memberDNs),
	}

	members := make([]model.GroupMember, 0, len(memberDNs))
	for _, memberDN := range memberDNs {
		memberEntries, err := r.search(cfg, memberDN, ldap.ScopeBaseObject, 1, "(objectClass=*)",
			[]string{"sAMAccountName", "cn", "displayName", "mail", "objectClass", "department", "title"})
		if err != nil || len(memberEntries) == 0 {
			logger.Warn("Could not read group member entry", zap.String("memberDN", memberDN))
			members = append(members, model.GroupMember{
				CN:                parseDN(memberDN),
				DistinguishedName: memberDN,
				Type:              "unknown",
			})
			continue
		}

		memberEntry := memberEntries[0]
		memberType := "user"
		for _, class := range memberEntry.GetAttributeValues("objectClass") {
			if class == "group" {
				memberType = "group"
				break
			}
		}

		members = append(members, model.GroupMember{
			SAMAccountName:    memberEntry.GetAttributeValue("sAMAccountName"),
			CN:                memberEntry.GetAttributeValue("cn"),
			DisplayName:       memberEntry.GetAttributeValue("displayName"),
			Email:             memberEntry.GetAttributeValue("mail"),
			Department:        memberEntry.GetAttributeValue("department"),
			Title:             memberEntry.GetAttributeValue("title"),
			DistinguishedName: memberDN,
			Type:              memberType,
		})
	}

	return group, members, nil
}

func (r *DirectoryRepository) GetDirectReports(ctx context.Context, cfg model.DirectoryConfig, userName string) ([]model.GroupMember, error) {
	filter := fmt.Sprintf("(&(objectCategory=person)(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(userName))
	userEntries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, 1, filter,
		[]string{"distinguishedName", "directReports"})
	if err != nil {
		return nil, err
	}
	if len(userEntries) == 0 {
		return []model.GroupMember{}, nil
	}

	reportDNs := userEntries[0].GetAttributeValues("directReports")
	reports := make([]model.GroupMember, 0, len(reportDNs))
	for _, reportDN := range reportDNs {
		entries, err := r.search(cfg, reportDN, ldap.ScopeBaseObject, 1, "(objectClass=*)",
			[]string{"sAMAccountName", "cn", "displayName", "mail", "title", "department", "telephoneNumber"})
		if err != nil || len(entries) == 0 {
			logger.Warn("Could not read direct report entry", zap.String("reportDN", reportDN))
			continue
		}
		entry := entries[0]
		reports = append(reports, model.GroupMember{
			SAMAccountName:    entry.GetAttributeValue("sAMAccountName"),
			CN:                entry.GetAttributeValue("cn"),
			DisplayName:       entry.GetAttributeValue("displayName"),
			Email:             entry.GetAttributeValue("mail"),
			Title:             entry.GetAttributeValue("title"),
			Department:        entry.GetAttributeValue("department"),
			DistinguishedName: reportDN,
			Type:              "user",
		})
	}
	return reports, nil
}

func (r *DirectoryRepository) GetManagerChain(ctx context.Context, cfg model.DirectoryConfig, userName string) ([]model.ChainEntry, error) {
	chain := []model.ChainEntry{}
	visited := map[string]bool{}
	current := userName

	for level := 0; current != "" && level < managerChainLimit; level++ {
		lowered := strings.ToLower(current)
		if visited[lowered] {
			logger.Warn("Circular manager reference detected", zap.String("userName", current))
			break
		}
		visited[lowered] = true

		filter := fmt.Sprintf("(&(objectCategory=person)(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(current))
		entries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, 1, filter,
			[]string{"sAMAccountName", "cn", "displayName", "title", "department", "mail", "manager"})
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}

		entry := entries[0]
		managerDN := entry.GetAttributeValue("manager")
		chain = append(chain, model.ChainEntry{
			SAMAccountName: entry.GetAttributeValue("sAMAccountName"),
			CN:             entry.GetAttributeValue("cn"),
			DisplayName:    entry.GetAttributeValue("displayName"),
			Title:          entry.GetAttributeValue("title"),
			Department:     entry.GetAttributeValue("department"),
			Email:          entry.GetAttributeValue("mail"),
			Level:          level,
			IsTopLevel:     managerDN == "",
		})

		if managerDN == "" {
			break
		}

		managerEntries, err := r.search(cfg, managerDN, ldap.ScopeBaseObject, 1, "(objectClass=*)", []string{"sAMAccountName"})
		if err != nil || len(managerEntries) == 0 {
			break
		}
		next := managerEntries[0].GetAttributeValue("sAMAccountName")
		if next == "" || visited[strings.ToLower(next)] {
			chain[len(chain)-1].IsTopLevel = true
			break
		}
		current = next
	}

	return chain, nil
}

func (r *DirectoryRepository) SearchByDepartment(ctx context.Context, cfg model.DirectoryConfig, department string) ([]model.DepartmentUser, error) {
	filter := fmt.Sprintf("(&(objectCategory=person)(objectClass=user)(department=%s))", ldap.EscapeFilter(department))
	entries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, searchSizeLimit, filter,
		[]string{"sAMAccountName", "displayName", "mail", "title", "department", "telephoneNumber"})
	if err != nil {
		return nil, err
	}

	users := make([]model.DepartmentUser, 0, len(entries))
	for _, entry := range entries {
		users = append(users, model.DepartmentUser{
			SAMAccountName:  entry.GetAttributeValue("sAMAccountName"),
			DisplayName:     entry.GetAttributeValue("displayName"),
			Email:           entry.GetAttributeValue("mail"),
			Title:           entry.GetAttributeValue("title"),
			Department:      entry.GetAttributeValue("department"),
			TelephoneNumber: entry.GetAttributeValue("telephoneNumber"),
			Type:            "user",
		})
	}
	return users, nil
}

func (r *DirectoryRepository) GetAllDepartments(ctx context.Context, cfg model.DirectoryConfig) ([]string, error) {
	entries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, sweepSizeLimit,
		"(&(objectCategory=person)(objectClass=user)(department=*))", []string{"department"})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	departments := []string{}
	for _, entry := range entries {
		dept := entry.GetAttributeValue("department")
		if dept != "" && !seen[dept] {
			seen[dept] = true
			departments = append(departments, dept)
		}
	}
	sort.Strings(departments)
	return departments, nil
}

func (r *DirectoryRepository) GetAllLocations(ctx context.Context, cfg model.DirectoryConfig) ([]string, error) {
	entries, err := r.search(cfg, cfg.SearchBase, ldap.ScopeWholeSubtree, sweepSizeLimit,
		"(&(objectCategory=person)(objectClass=user))", []string{"l", "physicalDeliveryOfficeName"})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	locations := []string{}
	add := func(value string) {
		if value != "" && !seen[value] {
			seen[value] = true
			locations = append(locations, value)
		}
	}
	for _, entry := range entries {
		add(entry.GetAttributeValue("l"))
		add(entry.GetAttributeValue("physicalDeliveryOfficeName"))
	}
	sort.Strings(locations)
	return locations, nil
}
