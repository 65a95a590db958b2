package api

import (
	"time" // Order dates

	"shop_system/internal/domain"     // Importing domain models
	"shop_system/internal/middleware" // Caller identity
	"shop_system/internal/service"    // Order service

	"github.com/gin-gonic/gin" // Gin web framework
)

// Order views
const (
	viewOrderIndex   = "Orders/Index"
	viewOrderDetails = "Orders/Details"
	viewOrderCreate  = "Orders/Create"
	viewOrderEdit    = "Orders/Edit"
	viewOrderDelete  = "Orders/Delete"
)

// orderForm is the order create/edit view model with its select lists
type orderForm struct {
	UserID             uint             `json:"userId,omitempty"`    // Ordering user, admins only
	OrderDate          *time.Time       `json:"orderDate,omitempty"` // Edit only
	Version            uint             `json:"version,omitempty"`   // Edit only
	SelectedProductIDs []uint           `json:"selectedProductIds"`  // Checked products
	Users              []domain.User    `json:"users,omitempty"`     // User select list
	Products           []domain.Product `json:"products"`            // Product checklist
}

// ListOrdersHandler lists every order for admins and the caller's own orders
// otherwise
func ListOrdersHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.List(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, viewOrderIndex, list)
	}
}

// OrderDetailsHandler shows one order with its user and products
func OrderDetailsHandler(orders *service.OrderService) gin.HandlerFunc {
	return orderPage(orders, viewOrderDetails)
}

// DeleteOrderFormHandler shows the delete confirmation
func DeleteOrderFormHandler(orders *service.OrderService) gin.HandlerFunc {
	return orderPage(orders, viewOrderDelete)
}

func orderPage(orders *service.OrderService, view string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		order, err := orders.Get(c.Request.Context(), middleware.CallerFrom(c), id)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, view, order)
	}
}

// CreateOrderFormHandler renders the order form with its select lists
func CreateOrderFormHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := orderForm{}
		if !withOptions(c, orders, &form) {
			return
		}
		render(c, viewOrderCreate, form)
	}
}

// CreateOrderHandler places an order; UserId is honoured for admins only
func CreateOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.OrderInput // Bind form to struct
		if !bindForm(c, &in, viewOrderCreate) {
			return
		}
		if _, err := orders.Create(c.Request.Context(), middleware.CallerFrom(c), in); err != nil {
			form := orderForm{UserID: in.UserID, SelectedProductIDs: in.SelectedProductIDs}
			if withOptions(c, orders, &form) {
				fail(c, err, viewOrderCreate, form)
			}
			return
		}
		redirect(c, "/Orders")
	}
}

// EditOrderFormHandler renders the edit form with the current row version
func EditOrderFormHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		order, err := orders.Get(c.Request.Context(), middleware.CallerFrom(c), id)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		form := orderForm{
			UserID:             order.UserID,
			OrderDate:          &order.OrderDate,
			Version:            order.Version,
			SelectedProductIDs: order.ProductIDs(),
		}
		if !withOptions(c, orders, &form) {
			return
		}
		render(c, viewOrderEdit, form)
	}
}

// EditOrderHandler replaces an order's user, date and products. A stale
// Version re-renders the form with a retry message.
func EditOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in service.OrderEditInput // Bind form to struct
		if !bindForm(c, &in, viewOrderEdit) {
			return
		}
		if _, err := orders.Edit(c.Request.Context(), middleware.CallerFrom(c), id, in); err != nil {
			form := orderForm{UserID: in.UserID, Version: in.Version, SelectedProductIDs: in.SelectedProductIDs}
			if !in.OrderDate.IsZero() {
				form.OrderDate = &in.OrderDate
			}
			if withOptions(c, orders, &form) {
				fail(c, err, viewOrderEdit, form)
			}
			return
		}
		redirect(c, "/Orders")
	}
}

// DeleteOrderHandler removes an order and its items. Failures keep the
// caller on the confirmation page.
func DeleteOrderHandler(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := orders.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
			fail(c, err, viewOrderDelete, gin.H{"id": id})
			return
		}
		redirect(c, "/Orders")
	}
}

// withOptions fills the select lists, failing the request when they cannot
// be loaded.
func withOptions(c *gin.Context, orders *service.OrderService, form *orderForm) bool {
	users, products, err := orders.FormOptions(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		fail(c, err, "", nil)
		return false
	}
	form.Users, form.Products = users, products
	return true
}
