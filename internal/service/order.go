package service

import (
	"context" // Request-scoped cancellation
	"errors"  // Error inspection
	"time"    // Order dates

	"shop_system/internal/db"      // Database error helpers
	"shop_system/internal/domain"  // Domain models and errors
	"shop_system/internal/metrics" // Prometheus collectors
	"shop_system/internal/policy"  // Authorization policy

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

const msgNoProducts = "You must select at least one product."

var errStaleOrder = errors.New("order version changed")

// OrderInput is the create-order form. UserID is honoured for admins only.
type OrderInput struct {
	UserID             uint   `form:"UserId" json:"userId"`
	SelectedProductIDs []uint `form:"SelectedProductIds" json:"selectedProductIds"`
}

// OrderEditInput is the edit-order form. Version is the row version the
// form was rendered from; zero means "whatever is current".
type OrderEditInput struct {
	UserID             uint      `form:"UserId" json:"userId" validate:"required"`
	OrderDate          time.Time `form:"OrderDate" json:"orderDate" validate:"required"`
	SelectedProductIDs []uint    `form:"SelectedProductIds" json:"selectedProductIds"`
	Version            uint      `form:"Version" json:"version"`
}

// OrderService manages the order aggregate
type OrderService struct {
	db      *gorm.DB         // Database handle
	metrics *metrics.Metrics // Order counter; may be nil
	now     func() time.Time // Clock for new order dates
}

// NewOrderService returns an OrderService; m may be nil
func NewOrderService(db *gorm.DB, m *metrics.Metrics) *OrderService {
	return &OrderService{db: db, metrics: m, now: time.Now}
}

// List returns every order for admins and the caller's own orders otherwise.
func (s *OrderService) List(ctx context.Context, caller policy.Caller) ([]domain.Order, error) {
	if err := policy.Authorize(caller, policy.ListOrdersOperation(caller)); err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := s.scoped(ctx, caller).Order("id").Find(&orders).Error; err != nil {
		return nil, domain.Transient(err)
	}
	return orders, nil
}

// Get returns one order with its user and products. Orders of other users
// are reported missing to customers.
func (s *OrderService) Get(ctx context.Context, caller policy.Caller, id uint) (*domain.Order, error) {
	if err := policy.Authorize(caller, policy.ViewOrder); err != nil {
		return nil, err
	}
	var order domain.Order
	if err := s.scoped(ctx, caller).First(&order, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Transient(err)
	}
	return &order, nil
}

func (s *OrderService) scoped(ctx context.Context, caller policy.Caller) *gorm.DB {
	q := s.db.WithContext(ctx).Preload("User").Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("product_id")
	}).Preload("Items.Product")
	if !caller.IsAdmin {
		q = q.Where("user_id = ?", caller.ID)
	}
	return q
}

// FormOptions returns what the order forms offer: every product, and every
// user when the caller may order for others.
func (s *OrderService) FormOptions(ctx context.Context, caller policy.Caller) ([]domain.User, []domain.Product, error) {
	if err := policy.Authorize(caller, policy.CreateOrder); err != nil {
		return nil, nil, err
	}
	var products []domain.Product
	if err := s.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, nil, domain.Transient(err)
	}
	if policy.Authorize(caller, policy.CreateOrderForOther) != nil {
		return nil, products, nil
	}
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("last_name, first_name").Find(&users).Error; err != nil {
		return nil, nil, domain.Transient(err)
	}
	return users, products, nil
}

// Create places an order dated now. Admins may order for another user;
// everyone else orders for themselves.
func (s *OrderService) Create(ctx context.Context, caller policy.Caller, in OrderInput) (*domain.Order, error) {
	if err := policy.Authorize(caller, policy.CreateOrder); err != nil {
		return nil, err
	}
	userID := caller.ID
	if in.UserID > 0 && policy.Authorize(caller, policy.CreateOrderForOther) == nil {
		userID = in.UserID
	}
	productIDs := distinct(in.SelectedProductIDs)
	if len(productIDs) == 0 {
		return nil, domain.NewValidationError("SelectedProductIds", msgNoProducts)
	}

	order := domain.Order{UserID: userID, OrderDate: s.now(), Version: 1}
	for _, pid := range productIDs {
		order.Items = append(order.Items, domain.OrderItem{ProductID: pid})
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkOrderRefs(tx, userID, productIDs); err != nil {
			return err
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, domain.Transient(err)
	}
	s.metrics.OrderCreated()
	logrus.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"user_id":   userID,
		"caller_id": caller.ID,
		"items":     len(productIDs),
	}).Info("Order created")
	return &order, nil
}

// Edit replaces the user, date and product set of an order. A write based
// on a stale Version fails with ConflictError{Reason: retry}.
func (s *OrderService) Edit(ctx context.Context, caller policy.Caller, id uint, in OrderEditInput) (*domain.Order, error) {
	if err := policy.Authorize(caller, policy.EditOrder); err != nil {
		return nil, err
	}
	productIDs := distinct(in.SelectedProductIDs)
	extra := &domain.ValidationError{}
	if len(productIDs) == 0 {
		extra.Add("SelectedProductIds", msgNoProducts)
	}
	if err := mergeValidation(validateStruct(in), extra); err != nil {
		return nil, err
	}

	var order domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			if db.IsNotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		version := in.Version
		if version == 0 {
			version = order.Version
		}
		if err := checkOrderRefs(tx, in.UserID, productIDs); err != nil {
			return err
		}
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND version = ?", id, version).
			Updates(map[string]any{
				"user_id":    in.UserID,
				"order_date": in.OrderDate,
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleOrder
		}
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		items := make([]domain.OrderItem, len(productIDs))
		for i, pid := range productIDs {
			items[i] = domain.OrderItem{OrderID: id, ProductID: pid}
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.UserID, order.OrderDate, order.Version, order.Items = in.UserID, in.OrderDate, version+1, items
		return nil
	})
	if errors.Is(err, errStaleOrder) {
		return nil, s.staleOutcome(ctx, id)
	}
	if err != nil {
		return nil, domain.Transient(err)
	}
	logrus.WithFields(logrus.Fields{
		"order_id": id,
		"user_id":  order.UserID,
		"version":  order.Version,
		"items":    len(productIDs),
	}).Info("Order updated")
	return &order, nil
}

// staleOutcome decides what a lost optimistic-concurrency race means: the
// order is gone, or the caller must retry.
func (s *OrderService) staleOutcome(ctx context.Context, id uint) error {
	found, err := exists(s.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id))
	if err != nil {
		return domain.Transient(err)
	}
	if !found {
		return domain.ErrNotFound
	}
	logrus.WithField("order_id", id).Warn("Concurrent order edit rejected")
	return &domain.ConflictError{Reason: domain.ReasonRetry}
}

// Delete removes an order and its items atomically.
func (s *OrderService) Delete(ctx context.Context, caller policy.Caller, id uint) error {
	if err := policy.Authorize(caller, policy.DeleteOrder); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		if err := tx.Preload("Items").First(&order, id).Error; err != nil {
			if db.IsNotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		if !domain.IsClassified(err) {
			logrus.WithError(err).WithField("order_id", id).Error("Order delete failed")
		}
		return domain.Transient(err)
	}
	logrus.WithField("order_id", id).Info("Order deleted")
	return nil
}

// checkOrderRefs verifies the user and every product exist.
func checkOrderRefs(tx *gorm.DB, userID uint, productIDs []uint) error {
	ve := &domain.ValidationError{}
	found, err := exists(tx.Model(&domain.User{}).Where("id = ?", userID))
	if err != nil {
		return err
	}
	if !found {
		ve.Add("UserId", "The selected user does not exist.")
	}
	var n int64
	if err := tx.Model(&domain.Product{}).Where("id IN ?", productIDs).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(productIDs) {
		ve.Add("SelectedProductIds", "A selected product does not exist.")
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

// distinct drops zero ids and repeats, keeping first-seen order.
func distinct(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
