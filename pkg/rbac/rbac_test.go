package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleProjectManager, PermissionWriteProject, true},
		{RoleSiteChief, PermissionWriteProject, false},
		{RoleSiteChief, PermissionWriteTask, true},
		{RoleSiteChief, PermissionImportTasks, true},
		{RoleFieldEngineer, PermissionWriteTask, false},
		{RoleFieldEngineer, PermissionUpdateStatus, true},
		{RoleFieldEngineer, PermissionRead, true},
		{"guest", PermissionRead, false},
	}

	for _, tc := range cases {
		t.Run(tc.role+"/"+tc.permission, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(tc.role, tc.permission))
		})
	}
}

func TestCheckPermission(t *testing.T) {
	assert.NoError(t, CheckPermission("u1", RoleProjectManager, PermissionWriteDocument))

	err := CheckPermission("u2", RoleFieldEngineer, PermissionWriteDocument)
	var denied *PermissionDeniedError
	assert.True(t, errors.As(err, &denied))
	assert.Equal(t, "u2", denied.UserID)
	assert.Contains(t, err.Error(), PermissionWriteDocument)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleSiteChief))
	assert.False(t, ValidRole("admin"))
}
