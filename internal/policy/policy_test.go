package policy

import (
	"testing"

	"shop_system/internal/domain"

	"github.com/stretchr/testify/assert"
)

var (
	anon     = Caller{}
	customer = Caller{ID: 2}
	admin    = Caller{ID: 1, IsAdmin: true}
)

func TestRoles(t *testing.T) {
	assert.Equal(t, Anonymous, anon.Role())
	assert.Equal(t, Customer, customer.Role())
	assert.Equal(t, Admin, admin.Role())
	assert.Equal(t, "admin", admin.Role().String())
	// The admin flag means nothing without an identity
	assert.Equal(t, Anonymous, Caller{IsAdmin: true}.Role())
}

func TestAuthorizeMatrix(t *testing.T) {
	tests := []struct {
		op                   Operation
		anon, cust, adminErr error
	}{
		{BrowseCatalog, nil, nil, nil},
		{Register, nil, domain.ErrAlreadyAuthenticated, domain.ErrAlreadyAuthenticated},
		{Login, nil, domain.ErrAlreadyAuthenticated, domain.ErrAlreadyAuthenticated},
		{Logout, domain.ErrUnauthenticated, nil, nil},
		{ListOwnOrders, domain.ErrUnauthenticated, nil, domain.ErrForbidden},
		{ListAllOrders, domain.ErrUnauthenticated, domain.ErrForbidden, nil},
		{CreateOrder, domain.ErrUnauthenticated, nil, nil},
		{CreateOrderForOther, domain.ErrUnauthenticated, domain.ErrForbidden, nil},
		{EditOrder, domain.ErrUnauthenticated, domain.ErrForbidden, nil},
		{DeleteOrder, domain.ErrUnauthenticated, domain.ErrForbidden, nil},
		{ManageCatalog, domain.ErrUnauthenticated, domain.ErrForbidden, nil},
		{ManageUsers, domain.ErrUnauthenticated, domain.ErrForbidden, nil},
		{Operation("unknown"), domain.ErrUnauthenticated, domain.ErrForbidden, domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.anon, Authorize(anon, tt.op))
			assert.Equal(t, tt.cust, Authorize(customer, tt.op))
			assert.Equal(t, tt.adminErr, Authorize(admin, tt.op))
		})
	}
}

func TestListOrdersOperation(t *testing.T) {
	assert.Equal(t, ListAllOrders, ListOrdersOperation(admin))
	assert.Equal(t, ListOwnOrders, ListOrdersOperation(customer))
}
