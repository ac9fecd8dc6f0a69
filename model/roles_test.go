// model/roles_test.go
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbirs-tools/admin-api/model"
)

func TestMapRoleNames(t *testing.T) {
	t.Run("known roles carry their descriptions", func(t *testing.T) {
		roles := model.MapRoleNames([]string{"Browser", "Content Manager"})

		require.Len(t, roles, 2)
		assert.Equal(t, "Browser", roles[0].Name)
		assert.NotEmpty(t, roles[0].Description)
		assert.Equal(t, "Content Manager", roles[1].Name)
	})

	t.Run("unknown roles are dropped", func(t *testing.T) {
		roles := model.MapRoleNames([]string{"Browser", "Superuser", "root"})

		require.Len(t, roles, 1)
		assert.Equal(t, "Browser", roles[0].Name)
	})

	t.Run("all unknown yields empty", func(t *testing.T) {
		assert.Empty(t, model.MapRoleNames([]string{"Superuser"}))
	})
}
