package rbac

import "fmt"

// 权限常量
const (
	PermissionRead          = "project:read"
	PermissionWriteProject  = "project:write"
	PermissionWriteTask     = "task:write"
	PermissionUpdateStatus  = "task:status"
	PermissionWriteDocument = "document:write"
	PermissionImportTasks   = "task:import"
)

// 角色常量
const (
	RoleProjectManager = "project_manager"
	RoleSiteChief      = "site_chief"
	RoleFieldEngineer  = "field_engineer"
)

var rolePermissions = map[string][]string{
	RoleProjectManager: {
		PermissionRead,
		PermissionWriteProject,
		PermissionWriteTask,
		PermissionUpdateStatus,
		PermissionWriteDocument,
		PermissionImportTasks,
	},
	RoleSiteChief: {
		PermissionRead,
		PermissionWriteTask,
		PermissionUpdateStatus,
		PermissionWriteDocument,
		PermissionImportTasks,
	},
	RoleFieldEngineer: {
		PermissionRead,
		PermissionUpdateStatus,
	},
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 返回错误而不是布尔值，便于处理
func CheckPermission(userID, role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	UserID     string
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("insufficient permissions: role %q lacks %s", e.Role, e.Permission)
}
