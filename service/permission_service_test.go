// service/permission_service_test.go
package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbirs-tools/admin-api/audit"
	app_errors "github.com/pbirs-tools/admin-api/errors"
	logger "github.com/pbirs-tools/admin-api/logging"
	"github.com/pbirs-tools/admin-api/model"
	"github.com/pbirs-tools/admin-api/repository"
	"github.com/pbirs-tools/admin-api/service"
	"github.com/pbirs-tools/admin-api/util"
)

func TestMain(m *testing.M) {
	logger.InitLogger("../logging")
	defer logger.Sync()
	m.Run()
}

// fakePowerBIRepo serves canned catalog and policy data and records writes.
type fakePowerBIRepo struct {
	catalog      *model.CatalogResponse
	catalogCalls int
	catalogErr   error

	itemPolicies map[string]*model.PolicyList // keyed by path
	rootPolicies *model.PolicyList
	policies     *model.PolicyList

	// Concurrency accounting for the batched scan.
	mu          sync.Mutex
	itemDelay   time.Duration
	inFlight    int
	maxInFlight int

	writtenLists []model.PolicyList
	writeErr     error

	pbixReports      *model.CatalogResponse
	pbixErr          error
	paginatedReports *model.CatalogResponse
	paginatedErr     error

	folder      *model.Folder
	folderErr   error
	pbiPatchErr error
	rdlPatchErr error
	patched     []string
}

func (f *fakePowerBIRepo) GetPowerBIReports(ctx context.Context, serverURI string) (*model.CatalogResponse, error) {
	return f.pbixReports, f.pbixErr
}

func (f *fakePowerBIRepo) GetPaginatedReports(ctx context.Context, serverURI string) (*model.CatalogResponse, error) {
	return f.paginatedReports, f.paginatedErr
}

func (f *fakePowerBIRepo) GetCatalogItems(ctx context.Context, serverURI string) (*model.CatalogResponse, error) {
	f.catalogCalls++
	return f.catalog, f.catalogErr
}

func (f *fakePowerBIRepo) GetPolicies(ctx context.Context, serverURI, itemID, itemPath string) (*model.PolicyList, error) {
	return f.policies, nil
}

func (f *fakePowerBIRepo) GetItemPolicies(ctx context.Context, serverURI string, item model.CatalogItem) (*model.PolicyList, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.itemDelay > 0 {
		time.Sleep(f.itemDelay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	return f.itemPolicies[item.Path], nil
}

func (f *fakePowerBIRepo) GetRootPolicies(ctx context.Context, serverURI string) (*model.PolicyList, error) {
	return f.rootPolicies, nil
}

func (f *fakePowerBIRepo) ResolvePolicyEndpoints(serverURI, itemID, itemPath, itemType string) repository.PolicyEndpoints {
	return repository.PolicyEndpoints{
		Get: []util.Attempt[model.PolicyList]{
			func(ctx context.Context) (*model.PolicyList, error) { return f.policies, nil },
		},
		Set: func(list *model.PolicyList) []util.WriteAttempt {
			return []util.WriteAttempt{
				func(ctx context.Context) error {
					if f.writeErr != nil {
						return f.writeErr
					}
					f.writtenLists = append(f.writtenLists, *list)
					return nil
				},
			}
		},
	}
}

func (f *fakePowerBIRepo) GetFolderByPath(ctx context.Context, serverURI, path string) (*model.Folder, error) {
	return f.folder, f.folderErr
}

func (f *fakePowerBIRepo) PatchFolderByID(ctx context.Context, serverURI, folderID, newName string) error {
	f.patched = append(f.patched, "folder:"+folderID+":"+newName)
	return nil
}

func (f *fakePowerBIRepo) PatchPowerBIReport(ctx context.Context, serverURI, itemID, newName string) error {
	if f.pbiPatchErr != nil {
		return f.pbiPatchErr
	}
	f.patched = append(f.patched, "pbi:"+itemID+":"+newName)
	return nil
}

func (f *fakePowerBIRepo) PatchRdlReport(ctx context.Context, serverURI, itemID, newName string) error {
	if f.rdlPatchErr != nil {
		return f.rdlPatchErr
	}
	f.patched = append(f.patched, "rdl:"+itemID+":"+newName)
	return nil
}

func policyRow(user string, roles ...string) model.Policy {
	var rs []model.Role
	for _, r := range roles {
		rs = append(rs, model.Role{Name: r})
	}
	return model.Policy{GroupUserName: user, Roles: rs}
}

func newPermissionService(repo repository.IPowerBIRepository) service.IPermissionService {
	return service.NewPermissionService(
		repo,
		util.NewValidationUtil(),
		util.NewMemoryCache(),
		util.NewMemoryCache(),
		time.Minute,
		20,
		"CORP",
		audit.NewService(audit.NewNoopRepository()),
		util.NewNotificationService(),
		nil,
	)
}

const serverURI = "http://pbirs.corp.example.com/reports"

func TestGetPermissions(t *testing.T) {
	t.Run("requires addressing info", func(t *testing.T) {
		svc := newPermissionService(&fakePowerBIRepo{})
		_, err := svc.GetPermissions(context.Background(), model.GetPermissionsRequest{ServerURI: serverURI})
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})

	t.Run("maps policy rows to users", func(t *testing.T) {
		repo := &fakePowerBIRepo{policies: &model.PolicyList{Policies: []model.Policy{
			policyRow(`CORP\jdoe`, "Browser"),
			policyRow(`CORP\asmith`, "Content Manager"),
			{GroupUserName: "", Roles: nil}, // skipped
		}}}
		svc := newPermissionService(repo)

		resp, err := svc.GetPermissions(context.Background(), model.GetPermissionsRequest{
			ServerURI: serverURI,
			ItemPath:  "/Sales/Q1",
		})

		require.NoError(t, err)
		assert.True(t, resp.Success)
		require.Len(t, resp.Users, 2)
		assert.Equal(t, `CORP\jdoe`, resp.Users[0].UserName)
	})

	t.Run("no policy data yields empty list", func(t *testing.T) {
		svc := newPermissionService(&fakePowerBIRepo{})
		resp, err := svc.GetPermissions(context.Background(), model.GetPermissionsRequest{
			ServerURI: serverURI,
			ItemID:    "abc",
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Empty(t, resp.Users)
	})
}

func TestCheckPermissionsSingleUser(t *testing.T) {
	repo := &fakePowerBIRepo{
		catalog: &model.CatalogResponse{Value: []model.CatalogItem{
			{ID: "f-1", Name: "Sales", Path: "/Sales", Type: "Folder"},
			{ID: "r-1", Name: "Q1", Path: "/Sales/Q1", Type: "PowerBIReport"},
			{ID: "r-2", Name: "Q2", Path: "/Sales/Q2", Type: "PowerBIReport"},
		}},
		rootPolicies: &model.PolicyList{Policies: []model.Policy{
			policyRow(`CORP\jdoe`, "Browser"),
		}},
		itemPolicies: map[string]*model.PolicyList{
			"/Sales": {Policies: []model.Policy{
				policyRow(`CORP\jdoe`, "Content Manager", "Browser"),
			}},
			"/Sales/Q1": {Policies: []model.Policy{
				policyRow(`CORP\jdoe12`, "Browser"), // prefix of a longer account must not match
				policyRow(`jdoe@corp.example.com`, "Browser"),
			}},
			"/Sales/Q2": {Policies: []model.Policy{
				policyRow(`CORP\asmith`, "Browser"),
			}},
		},
	}
	svc := newPermissionService(repo)

	resp, err := svc.CheckPermissions(context.Background(), serverURI, []string{"jdoe"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.IsMutual)
	assert.Equal(t, "jdoe", resp.UserName)
	assert.Equal(t, 3, resp.TotalChecked)

	require.Len(t, resp.Permissions, 3)

	root := resp.Permissions[0]
	assert.Equal(t, "/", root.Path)
	assert.Equal(t, "Folder", root.ItemType)
	assert.Equal(t, []string{"Browser"}, root.Roles)

	folder := resp.Permissions[1]
	assert.Equal(t, "/Sales", folder.Path)
	assert.Equal(t, "/Sales", folder.FolderPath)
	assert.Equal(t, []string{"Content Manager", "Browser"}, folder.Roles)

	report := resp.Permissions[2]
	assert.Equal(t, "/Sales/Q1", report.Path)
	assert.Equal(t, "/Sales", report.FolderPath)
	assert.Equal(t, "Report", report.ItemType)
	assert.Equal(t, "PowerBIReport", report.CatalogType)
	assert.Equal(t, []string{"Browser"}, report.Roles)
}

func TestCheckPermissionsMutual(t *testing.T) {
	repo := &fakePowerBIRepo{
		catalog: &model.CatalogResponse{Value: []model.CatalogItem{
			{ID: "r-1", Name: "Q1", Path: "/Sales/Q1", Type: "PowerBIReport"},
			{ID: "r-2", Name: "Q2", Path: "/Sales/Q2", Type: "PowerBIReport"},
			{ID: "r-3", Name: "Q3", Path: "/Sales/Q3", Type: "PowerBIReport"},
		}},
		itemPolicies: map[string]*model.PolicyList{
			// Shared with overlapping roles.
			"/Sales/Q1": {Policies: []model.Policy{
				policyRow(`CORP\jdoe`, "Browser", "Content Manager"),
				policyRow(`CORP\asmith`, "Browser"),
			}},
			// Shared but no common role.
			"/Sales/Q2": {Policies: []model.Policy{
				policyRow(`CORP\jdoe`, "Publisher"),
				policyRow(`CORP\asmith`, "Browser"),
			}},
			// Only one user.
			"/Sales/Q3": {Policies: []model.Policy{
				policyRow(`CORP\jdoe`, "Browser"),
			}},
		},
	}
	svc := newPermissionService(repo)

	resp, err := svc.CheckPermissions(context.Background(), serverURI, []string{"jdoe", "asmith"})

	require.NoError(t, err)
	assert.True(t, resp.IsMutual)
	assert.Equal(t, []string{"jdoe", "asmith"}, resp.UserNames)

	// Only Q1 survives: Q2 has no common role, Q3 is not shared.
	require.Len(t, resp.Permissions, 1)
	assert.Equal(t, "/Sales/Q1", resp.Permissions[0].Path)
	assert.Equal(t, []string{"Browser"}, resp.Permissions[0].Roles)
}

func TestCheckPermissionsValidation(t *testing.T) {
	svc := newPermissionService(&fakePowerBIRepo{})

	_, err := svc.CheckPermissions(context.Background(), serverURI, nil)
	assert.ErrorIs(t, err, app_errors.ErrValidation)

	_, err = svc.CheckPermissions(context.Background(), serverURI, []string{""})
	assert.ErrorIs(t, err, app_errors.ErrValidation)
}

func TestCheckPermissionsCatalogUnavailable(t *testing.T) {
	repo := &fakePowerBIRepo{catalogErr: errors.New("connection refused")}
	svc := newPermissionService(repo)

	_, err := svc.CheckPermissions(context.Background(), serverURI, []string{"jdoe"})
	assert.ErrorIs(t, err, app_errors.ErrUpstreamUnavailable)
}

func TestCheckPermissionsCachesCatalog(t *testing.T) {
	repo := &fakePowerBIRepo{
		catalog:      &model.CatalogResponse{Value: []model.CatalogItem{}},
		itemPolicies: map[string]*model.PolicyList{},
	}
	svc := newPermissionService(repo)
	ctx := context.Background()

	_, err := svc.CheckPermissions(ctx, serverURI, []string{"jdoe"})
	require.NoError(t, err)
	_, err = svc.CheckPermissions(ctx, serverURI, []string{"asmith"})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.catalogCalls)
}

func TestCheckPermissionsBatchesLargeCatalogs(t *testing.T) {
	// Three batches (20+20+5) with a third of the fetches yielding nothing.
	const total = 45
	items := make([]model.CatalogItem, 0, total)
	policies := map[string]*model.PolicyList{}
	expected := 0
	for i := 0; i < total; i++ {
		path := fmt.Sprintf("/Reports/R%02d", i)
		items = append(items, model.CatalogItem{
			ID:   fmt.Sprintf("r-%d", i),
			Name: fmt.Sprintf("R%02d", i),
			Path: path,
			Type: "PowerBIReport",
		})
		if i%3 == 0 {
			continue // no policy data for this item
		}
		policies[path] = &model.PolicyList{Policies: []model.Policy{
			policyRow(`CORP\jdoe`, "Browser"),
		}}
		expected++
	}

	repo := &fakePowerBIRepo{
		catalog:      &model.CatalogResponse{Value: items},
		itemPolicies: policies,
		itemDelay:    5 * time.Millisecond,
	}
	svc := newPermissionService(repo)

	resp, err := svc.CheckPermissions(context.Background(), serverURI, []string{"jdoe"})

	require.NoError(t, err)
	assert.Equal(t, total, resp.TotalChecked)
	// Failed fetches contribute nothing; every successful one matches.
	assert.Len(t, resp.Permissions, expected)
	// Fetches within a batch overlap, but never beyond the batch size.
	assert.LessOrEqual(t, repo.maxInFlight, 20)
	assert.Greater(t, repo.maxInFlight, 1)
}

func TestSetPermissions(t *testing.T) {
	ctx := context.Background()

	baseReq := model.SetPermissionsRequest{
		ServerURI: serverURI,
		ItemID:    "r-1",
		ItemPath:  "/Sales/Q1",
		ItemType:  "PowerBIReport",
	}

	t.Run("replaces roles for existing principal", func(t *testing.T) {
		repo := &fakePowerBIRepo{policies: &model.PolicyList{Policies: []model.Policy{
			policyRow(`CORP\JDoe`, "Browser"),
			policyRow(`CORP\asmith`, "Content Manager"),
		}}}
		svc := newPermissionService(repo)

		req := baseReq
		req.UserName = "jdoe"
		req.Roles = []string{"Publisher"}

		resp, err := svc.SetPermissions(ctx, req)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		require.Len(t, repo.writtenLists, 1)
		written := repo.writtenLists[0].Policies
		require.Len(t, written, 2)
		// Original spelling of the stored principal is preserved.
		assert.Equal(t, `CORP\JDoe`, written[0].GroupUserName)
		assert.Equal(t, "Publisher", written[0].Roles[0].Name)
		assert.NotEmpty(t, written[0].Roles[0].Description)
		assert.Equal(t, `CORP\asmith`, written[1].GroupUserName)
	})

	t.Run("empty roles removes principal", func(t *testing.T) {
		repo := &fakePowerBIRepo{policies: &model.PolicyList{Policies: []model.Policy{
			policyRow(`CORP\jdoe`, "Browser"),
			policyRow(`CORP\asmith`, "Browser"),
		}}}
		svc := newPermissionService(repo)

		req := baseReq
		req.UserName = `CORP\jdoe`
		req.Roles = nil

		_, err := svc.SetPermissions(ctx, req)
		require.NoError(t, err)

		require.Len(t, repo.writtenLists, 1)
		written := repo.writtenLists[0].Policies
		require.Len(t, written, 1)
		assert.Equal(t, `CORP\asmith`, written[0].GroupUserName)
	})

	t.Run("removing absent principal is a no-op", func(t *testing.T) {
		repo := &fakePowerBIRepo{policies: &model.PolicyList{Policies: []model.Policy{
			policyRow(`CORP\asmith`, "Browser"),
		}}}
		svc := newPermissionService(repo)

		req := baseReq
		req.UserName = "ghost"
		req.Roles = nil

		resp, err := svc.SetPermissions(ctx, req)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		require.Len(t, repo.writtenLists, 1)
		assert.Len(t, repo.writtenLists[0].Policies, 1)
	})

	t.Run("new principal is formatted with the service domain", func(t *testing.T) {
		repo := &fakePowerBIRepo{policies: &model.PolicyList{Policies: []model.Policy{
			policyRow(`CORP\asmith`, "Browser"),
		}}}
		svc := newPermissionService(repo)

		req := baseReq
		req.UserName = "jdoe"
		req.Roles = []string{"Browser", "Report Builder"}

		_, err := svc.SetPermissions(ctx, req)
		require.NoError(t, err)

		written := repo.writtenLists[0].Policies
		require.Len(t, written, 2)
		assert.Equal(t, `CORP\jdoe`, written[1].GroupUserName)
		assert.Len(t, written[1].Roles, 2)
	})

	t.Run("unknown roles are dropped", func(t *testing.T) {
		repo := &fakePowerBIRepo{policies: &model.PolicyList{}}
		svc := newPermissionService(repo)

		req := baseReq
		req.UserName = "jdoe"
		req.Roles = []string{"Browser", "Superuser"}

		_, err := svc.SetPermissions(ctx, req)
		require.NoError(t, err)

		written := repo.writtenLists[0].Policies
		require.Len(t, written, 1)
		require.Len(t, written[0].Roles, 1)
		assert.Equal(t, "Browser", written[0].Roles[0].Name)
	})

	t.Run("write failure is terminal", func(t *testing.T) {
		repo := &fakePowerBIRepo{
			policies: &model.PolicyList{},
			writeErr: errors.New("409 conflict"),
		}
		svc := newPermissionService(repo)

		req := baseReq
		req.UserName = "jdoe"
		req.Roles = []string{"Browser"}

		_, err := svc.SetPermissions(ctx, req)
		require.ErrorIs(t, err, app_errors.ErrUpstreamWrite)
		assert.Contains(t, err.Error(), "409 conflict")
	})

	t.Run("blank user name cannot be formatted", func(t *testing.T) {
		repo := &fakePowerBIRepo{policies: &model.PolicyList{}}
		svc := newPermissionService(repo)

		req := baseReq
		req.UserName = "   "
		req.Roles = []string{"Browser"}

		_, err := svc.SetPermissions(ctx, req)
		assert.ErrorIs(t, err, app_errors.ErrInvalidUserName)
	})

	t.Run("requires addressing info", func(t *testing.T) {
		svc := newPermissionService(&fakePowerBIRepo{})

		_, err := svc.SetPermissions(ctx, model.SetPermissionsRequest{
			ServerURI: serverURI,
			UserName:  "jdoe",
		})
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})
}
