package models

// Role is the staff tier of an AdminUser
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleShopManager Role = "SHOP_MANAGER"
	RoleSalesman    Role = "SALESMAN"
)

// Roles lists every staff role in descending order of authority
var Roles = []Role{RoleSuperAdmin, RoleShopManager, RoleSalesman}

// Valid reports whether r is one of the known staff roles
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleShopManager, RoleSalesman:
		return true
	}
	return false
}
