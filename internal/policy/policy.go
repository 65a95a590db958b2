// Package policy decides what a caller may do. Every handler and service
// consults Authorize; nothing else checks roles.
package policy

import "shop_system/internal/domain" // Error sentinels

// Role of a caller.
type Role int

const (
	Anonymous Role = iota
	Customer
	Admin
)

func (r Role) String() string {
	switch r {
	case Customer:
		return "customer"
	case Admin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Caller is the identity bound to the current request. The zero value is
// the anonymous caller.
type Caller struct {
	ID      uint
	IsAdmin bool
}

// Role derives the caller's role.
func (c Caller) Role() Role {
	switch {
	case c.ID == 0:
		return Anonymous
	case c.IsAdmin:
		return Admin
	default:
		return Customer
	}
}

// Authenticated reports whether the caller is logged in.
func (c Caller) Authenticated() bool {
	return c.ID != 0
}

// Operation names a guarded action.
type Operation string

const (
	BrowseCatalog       Operation = "catalog.browse"
	Register            Operation = "auth.register"
	Login               Operation = "auth.login"
	Logout              Operation = "auth.logout"
	ListOwnOrders       Operation = "orders.list_own"
	ListAllOrders       Operation = "orders.list_all"
	ViewOrder           Operation = "orders.view"
	CreateOrder         Operation = "orders.create"
	CreateOrderForOther Operation = "orders.create_for_other"
	EditOrder           Operation = "orders.edit"
	DeleteOrder         Operation = "orders.delete"
	ManageCatalog       Operation = "catalog.manage"
	ManageUsers         Operation = "users.manage"
)

var matrix = map[Operation][3]bool{
	//                    anonymous, customer, admin
	BrowseCatalog:       {true, true, true},
	Register:            {true, false, false},
	Login:               {true, false, false},
	Logout:              {false, true, true},
	ListOwnOrders:       {false, true, false},
	ListAllOrders:       {false, false, true},
	ViewOrder:           {false, true, true},
	CreateOrder:         {false, true, true},
	CreateOrderForOther: {false, false, true},
	EditOrder:           {false, false, true},
	DeleteOrder:         {false, false, true},
	ManageCatalog:       {false, false, true},
	ManageUsers:         {false, false, true},
}

// Authorize returns nil when c may perform op. Denials are
// ErrUnauthenticated for anonymous callers, ErrAlreadyAuthenticated for
// logged-in callers on Register/Login, and ErrForbidden otherwise.
// Unknown operations are denied.
func Authorize(c Caller, op Operation) error {
	allowed, known := matrix[op]
	role := c.Role()
	if known && allowed[role] {
		return nil
	}
	switch {
	case role == Anonymous:
		return domain.ErrUnauthenticated
	case known && (op == Register || op == Login):
		return domain.ErrAlreadyAuthenticated
	default:
		return domain.ErrForbidden
	}
}

// ListOrdersOperation is the listing operation that applies to c.
func ListOrdersOperation(c Caller) Operation {
	if c.IsAdmin {
		return ListAllOrders
	}
	return ListOwnOrders
}
