// repository/powerbi.go
package repository

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	logger "github.com/pbirs-tools/admin-api/logging"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/util"
)

// HTTPClient is the NTLM client surface the gateway needs.
type HTTPClient interface {
	Get(ctx context.Context, url string, out interface{}) error
	Put(ctx context.Context, url string, body interface{}) error
	Patch(ctx context.Context, url string, body interface{}) error
}

// PolicyEndpoints is the ordered set of endpoint strategies for one item's
// policy list: read candidates first-success, write candidates built against a
// concrete replacement list.
type PolicyEndpoints struct {
	Get []util.Attempt[model.PolicyList]
	Set func(list *model.PolicyList) []util.WriteAttempt
}

// IPowerBIRepository is the report-server gateway. It hides the two addressing
// schemes (opaque item ID vs. OData-escaped path) the upstream API requires.
type IPowerBIRepository interface {
	GetPowerBIReports(ctx context.Context, serverURI string) (*model.CatalogResponse, error)
	GetPaginatedReports(ctx context.Context, serverURI string) (*model.CatalogResponse, error)
	GetCatalogItems(ctx context.Context, serverURI string) (*model.CatalogResponse, error)

	GetPolicies(ctx context.Context, serverURI, itemID, itemPath string) (*model.PolicyList, error)
	GetItemPolicies(ctx context.Context, serverURI string, item model.CatalogItem) (*model.PolicyList, error)
	GetRootPolicies(ctx context.Context, serverURI string) (*model.PolicyList, error)
	ResolvePolicyEndpoints(serverURI, itemID, itemPath, itemType string) PolicyEndpoints

	GetFolderByPath(ctx context.Context, serverURI, path string) (*model.Folder, error)
	PatchFolderByID(ctx context.Context, serverURI, folderID, newName string) error
	PatchPowerBIReport(ctx context.Context, serverURI, itemID, newName string) error
	PatchRdlReport(ctx context.Context, serverURI, itemID, newName string) error
}

type PowerBIRepository struct {
	client HTTPClient
}

func NewPowerBIRepository(client HTTPClient) *PowerBIRepository {
	return &PowerBIRepository{client: client}
}

func joinURL(serverURI, path string) string {
	return strings.TrimRight(serverURI, "/") + path
}

// escapePath doubles single quotes for the OData path literal. An empty path
// addresses the root folder.
func escapePath(path string) string {
	if path == "" {
		path = "/"
	}
	return strings.ReplaceAll(path, "'", "''")
}

// encodePath additionally percent-encodes the escaped path; some server
// configurations only accept non-ASCII segments in this form, others only in
// the raw form, so both are offered as distinct fallback candidates.
func encodePath(path string) string {
	return url.PathEscape(escapePath(path))
}

func pathLiteral(path string, encode bool) string {
	if encode {
		return encodePath(path)
	}
	return escapePath(path)
}

func (r *PowerBIRepository) GetPowerBIReports(ctx context.Context, serverURI string) (*model.CatalogResponse, error) {
	var out model.CatalogResponse
	if err := r.client.Get(ctx, joinURL(serverURI, "/api/v2.0/PowerBIReports"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PowerBIRepository) GetPaginatedReports(ctx context.Context, serverURI string) (*model.CatalogResponse, error) {
	var out model.CatalogResponse
	if err := r.client.Get(ctx, joinURL(serverURI, "/api/v2.0/Reports"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PowerBIRepository) GetCatalogItems(ctx context.Context, serverURI string) (*model.CatalogResponse, error) {
	var out model.CatalogResponse
	if err := r.client.Get(ctx, joinURL(serverURI, "/api/v2.0/CatalogItems"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PowerBIRepository) getPolicyList(ctx context.Context, endpoint string) (*model.PolicyList, error) {
	var out model.PolicyList
	if err := r.client.Get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PowerBIRepository) powerBIPoliciesByID(serverURI, itemID string) util.Attempt[model.PolicyList] {
	return func(ctx context.Context) (*model.PolicyList, error) {
		return r.getPolicyList(ctx, joinURL(serverURI, "/api/v2.0/PowerBIReports("+itemID+")/Policies"))
	}
}

func (r *PowerBIRepository) catalogPoliciesByID(serverURI, itemID string) util.Attempt[model.PolicyList] {
	return func(ctx context.Context) (*model.PolicyList, error) {
		return r.getPolicyList(ctx, joinURL(serverURI, "/api/v2.0/CatalogItems("+itemID+")/Policies"))
	}
}

func (r *PowerBIRepository) catalogPoliciesByPath(serverURI, path string, encode bool) util.Attempt[model.PolicyList] {
	return func(ctx context.Context) (*model.PolicyList, error) {
		return r.getPolicyList(ctx, joinURL(serverURI, "/api/v2.0/CatalogItems(Path='"+pathLiteral(path, encode)+"')/Policies"))
	}
}

func (r *PowerBIRepository) setPoliciesByPowerBIID(serverURI, itemID string, list *model.PolicyList) util.WriteAttempt {
	return func(ctx context.Context) error {
		return r.client.Put(ctx, joinURL(serverURI, "/api/v2.0/PowerBIReports("+itemID+")/Policies"), list)
	}
}

func (r *PowerBIRepository) setPoliciesByCatalogID(serverURI, itemID string, list *model.PolicyList) util.WriteAttempt {
	return func(ctx context.Context) error {
		return r.client.Put(ctx, joinURL(serverURI, "/api/v2.0/CatalogItems("+itemID+")/Policies"), list)
	}
}

func (r *PowerBIRepository) setPoliciesByPath(serverURI, path string, encode bool, list *model.PolicyList) util.WriteAttempt {
	return func(ctx context.Context) error {
		return r.client.Put(ctx, joinURL(serverURI, "/api/v2.0/CatalogItems(Path='"+pathLiteral(path, encode)+"')/Policies"), list)
	}
}

// GetPolicies resolves one item's policy list given whatever addressing info
// the caller has. Candidates are tried in order: ID-addressed PowerBIReports,
// ID-addressed CatalogItems, URL-encoded path, raw path. Read failures are
// swallowed; a nil list means no endpoint produced data.
func (r *PowerBIRepository) GetPolicies(ctx context.Context, serverURI, itemID, itemPath string) (*model.PolicyList, error) {
	var attempts []util.Attempt[model.PolicyList]

	if itemID != "" {
		attempts = append(attempts,
			r.powerBIPoliciesByID(serverURI, itemID),
			r.catalogPoliciesByID(serverURI, itemID),
		)
	}
	if itemPath != "" {
		attempts = append(attempts,
			r.catalogPoliciesByPath(serverURI, itemPath, true),
			r.catalogPoliciesByPath(serverURI, itemPath, false),
		)
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	list, err := util.TryInOrder(ctx, attempts)
	if err != nil {
		logger.Warn("Failed to retrieve policies",
			zap.String("itemId", itemID),
			zap.String("itemPath", itemPath),
			zap.Error(err))
		return nil, nil
	}
	return list, nil
}

// GetItemPolicies is the bulk-scan variant used by permission checks. Reports
// carrying an ID prefer the ID-addressed endpoint, which is the reliable one
// for non-ASCII paths; everything falls back to path addressing.
func (r *PowerBIRepository) GetItemPolicies(ctx context.Context, serverURI string, item model.CatalogItem) (*model.PolicyList, error) {
	var attempts []util.Attempt[model.PolicyList]

	if item.ID != "" && (item.Type == "PowerBIReport" || item.Type == "Report") {
		attempts = append(attempts, r.powerBIPoliciesByID(serverURI, item.ID))
	}
	attempts = append(attempts,
		r.catalogPoliciesByPath(serverURI, item.Path, true),
		r.catalogPoliciesByPath(serverURI, item.Path, false),
	)

	list, err := util.TryInOrder(ctx, attempts)
	if err != nil {
		// Per-item failures are expected during bulk scans; the item simply
		// contributes no access.
		return nil, nil
	}
	return list, nil
}

// GetRootPolicies fetches the policy list of the root folder, which is
// excluded from the bulk scan and handled separately.
func (r *PowerBIRepository) GetRootPolicies(ctx context.Context, serverURI string) (*model.PolicyList, error) {
	attempts := []util.Attempt[model.PolicyList]{
		r.catalogPoliciesByPath(serverURI, "/", true),
		r.catalogPoliciesByPath(serverURI, "/", false),
	}

	list, err := util.TryInOrder(ctx, attempts)
	if err != nil {
		logger.Warn("Failed to fetch root path policies", zap.Error(err))
		return nil, nil
	}
	return list, nil
}

// ResolvePolicyEndpoints builds the matching get/set strategy lists for one
// item. Folders are path-addressed only; items with an ID try ID addressing
// first and fall back to path addressing when a path is also known.
func (r *PowerBIRepository) ResolvePolicyEndpoints(serverURI, itemID, itemPath, itemType string) PolicyEndpoints {
	var getAttempts []util.Attempt[model.PolicyList]
	type setBuilder func(list *model.PolicyList) util.WriteAttempt
	var setBuilders []setBuilder

	addPathCandidates := func(path string) {
		getAttempts = append(getAttempts,
			r.catalogPoliciesByPath(serverURI, path, true),
			r.catalogPoliciesByPath(serverURI, path, false),
		)
		setBuilders = append(setBuilders,
			func(list *model.PolicyList) util.WriteAttempt {
				return r.setPoliciesByPath(serverURI, path, true, list)
			},
			func(list *model.PolicyList) util.WriteAttempt {
				return r.setPoliciesByPath(serverURI, path, false, list)
			},
		)
	}

	switch {
	case itemType == "Folder" && itemPath != "":
		addPathCandidates(itemPath)
	case itemID != "":
		getAttempts = append(getAttempts,
			r.powerBIPoliciesByID(serverURI, itemID),
			r.catalogPoliciesByID(serverURI, itemID),
		)
		setBuilders = append(setBuilders,
			func(list *model.PolicyList) util.WriteAttempt {
				return r.setPoliciesByPowerBIID(serverURI, itemID, list)
			},
			func(list *model.PolicyList) util.WriteAttempt {
				return r.setPoliciesByCatalogID(serverURI, itemID, list)
			},
		)
		if itemPath != "" {
			addPathCandidates(itemPath)
		}
	case itemPath != "":
		addPathCandidates(itemPath)
	}

	return PolicyEndpoints{
		Get: getAttempts,
		Set: func(list *model.PolicyList) []util.WriteAttempt {
			attempts := make([]util.WriteAttempt, 0, len(setBuilders))
			for _, build := range setBuilders {
				attempts = append(attempts, build(list))
			}
			return attempts
		},
	}
}

// GetFolderByPath looks a folder up to obtain its numeric ID; the folder
// rename endpoint is ID-only.
func (r *PowerBIRepository) GetFolderByPath(ctx context.Context, serverURI, path string) (*model.Folder, error) {
	var out model.Folder
	endpoint := joinURL(serverURI, "/api/v2.0/Folders(Path='"+escapePath(path)+"')")
	if err := r.client.Get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PowerBIRepository) PatchFolderByID(ctx context.Context, serverURI, folderID, newName string) error {
	return r.client.Patch(ctx, joinURL(serverURI, "/api/v2.0/Folders("+folderID+")"), map[string]string{"Name": newName})
}

func (r *PowerBIRepository) PatchPowerBIReport(ctx context.Context, serverURI, itemID, newName string) error {
	return r.client.Patch(ctx, joinURL(serverURI, "/api/v2.0/PowerBIReports("+itemID+")"), map[string]string{"Name": newName})
}

func (r *PowerBIRepository) PatchRdlReport(ctx context.Context, serverURI, itemID, newName string) error {
	return r.client.Patch(ctx, joinURL(serverURI, "/api/v2.0/Reports("+itemID+")"), map[string]string{"Name": newName})
}
