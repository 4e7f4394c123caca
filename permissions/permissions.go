// Package permissions holds the staff capability matrix. It is the only place that
// decides what a role may do; handlers ask for a Capability instead of comparing roles.
package permissions

import "github.com/sareehouse/storefront-api/models"

// Set is the capability record granted to one staff role
type Set struct {
	CanManageAdmins      bool `json:"can_manage_admins"`
	CanAddEditProducts   bool `json:"can_add_edit_products"`
	CanDeleteProducts    bool `json:"can_delete_products"`
	CanAddEditCategories bool `json:"can_add_edit_categories"`
	CanDeleteCategories  bool `json:"can_delete_categories"`
	CanAddEditSections   bool `json:"can_add_edit_sections"`
	CanDeleteSections    bool `json:"can_delete_sections"`
	CanViewAllOrders     bool `json:"can_view_all_orders"`
	CanViewActiveOrders  bool `json:"can_view_active_orders"`
	CanUpdateOrderStatus bool `json:"can_update_order_status"`
	CanViewCustomerInfo  bool `json:"can_view_customer_info"`
	CanViewCustomers     bool `json:"can_view_customers"`
	CanManageCustomers   bool `json:"can_manage_customers"`
}

// Capability names one boolean of Set
type Capability int

const (
	ManageAdmins Capability = iota
	AddEditProducts
	DeleteProducts
	AddEditCategories
	DeleteCategories
	AddEditSections
	DeleteSections
	ViewAllOrders
	ViewActiveOrders
	UpdateOrderStatus
	ViewCustomerInfo
	ViewCustomers
	ManageCustomers
)

var capabilityNames = map[Capability]string{
	ManageAdmins:      "manage_admins",
	AddEditProducts:   "add_edit_products",
	DeleteProducts:    "delete_products",
	AddEditCategories: "add_edit_categories",
	DeleteCategories:  "delete_categories",
	AddEditSections:   "add_edit_sections",
	DeleteSections:    "delete_sections",
	ViewAllOrders:     "view_all_orders",
	ViewActiveOrders:  "view_active_orders",
	UpdateOrderStatus: "update_order_status",
	ViewCustomerInfo:  "view_customer_info",
	ViewCustomers:     "view_customers",
	ManageCustomers:   "manage_customers",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

var matrix = map[models.Role]Set{
	models.RoleSuperAdmin: {
		CanManageAdmins:      true,
		CanAddEditProducts:   true,
		CanDeleteProducts:    true,
		CanAddEditCategories: true,
		CanDeleteCategories:  true,
		CanAddEditSections:   true,
		CanDeleteSections:    true,
		CanViewAllOrders:     true,
		CanViewActiveOrders:  true,
		CanUpdateOrderStatus: true,
		CanViewCustomerInfo:  true,
		CanViewCustomers:     true,
		CanManageCustomers:   true,
	},
	models.RoleShopManager: {
		CanAddEditProducts:   true,
		CanDeleteProducts:    true,
		CanAddEditCategories: true,
		CanAddEditSections:   true,
		CanViewAllOrders:     true,
		CanViewActiveOrders:  true,
		CanUpdateOrderStatus: true,
		CanViewCustomerInfo:  true,
		CanViewCustomers:     true,
	},
	models.RoleSalesman: {
		CanAddEditProducts:  true,
		CanViewActiveOrders: true,
	},
}

// For returns the capabilities of role. Unknown roles get the zero Set.
func For(role models.Role) Set {
	return matrix[role]
}

// Allows reports whether the set grants capability c
func (s Set) Allows(c Capability) bool {
	switch c {
	case ManageAdmins:
		return s.CanManageAdmins
	case AddEditProducts:
		return s.CanAddEditProducts
	case DeleteProducts:
		return s.CanDeleteProducts
	case AddEditCategories:
		return s.CanAddEditCategories
	case DeleteCategories:
		return s.CanDeleteCategories
	case AddEditSections:
		return s.CanAddEditSections
	case DeleteSections:
		return s.CanDeleteSections
	case ViewAllOrders:
		return s.CanViewAllOrders
	case ViewActiveOrders:
		return s.CanViewActiveOrders
	case UpdateOrderStatus:
		return s.CanUpdateOrderStatus
	case ViewCustomerInfo:
		return s.CanViewCustomerInfo
	case ViewCustomers:
		return s.CanViewCustomers
	case ManageCustomers:
		return s.CanManageCustomers
	}
	return false
}

// OrderScope reports which orders the set may see.
// ok is false when no orders are visible at all.
func (s Set) OrderScope() (activeOnly bool, ok bool) {
	switch {
	case s.CanViewAllOrders:
		return false, true
	case s.CanViewActiveOrders:
		return true, true
	}
	return false, false
}

// Authorizer resolves a staff role to its capabilities
type Authorizer interface {
	Permissions(role models.Role) Set
}

// Matrix is the Authorizer backed by the fixed role table
type Matrix struct{}

// Permissions implements Authorizer
func (Matrix) Permissions(role models.Role) Set {
	return For(role)
}
