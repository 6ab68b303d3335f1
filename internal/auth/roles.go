package auth

// Admin role constants.
const (
	RoleViewer     = "viewer"
	RoleOperator   = "operator"
	RoleSuperAdmin = "superadmin"
)

// AllAdminRoles returns all valid admin roles.
func AllAdminRoles() []string {
	return []string{RoleViewer, RoleOperator, RoleSuperAdmin}
}

// WriteRoles returns roles that can grant credits and set balances.
func WriteRoles() []string {
	return []string{RoleOperator, RoleSuperAdmin}
}
