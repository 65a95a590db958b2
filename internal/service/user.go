package service

import (
	"context" // Request-scoped cancellation

	"shop_system/internal/db"     // Database error helpers
	"shop_system/internal/domain" // Domain models and errors
	"shop_system/internal/policy" // Authorization policy

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// UserInput is the admin user form. Login, password and the admin flag are
// not editable here.
type UserInput struct {
	FirstName string `form:"FirstName" json:"firstName" validate:"required,max=50"`
	LastName  string `form:"LastName" json:"lastName" validate:"required,max=50"`
	Email     string `form:"Email" json:"email" validate:"required,max=100,shopemail"`
	Address   string `form:"Address" json:"address" validate:"max=200"`
}

// UserService is the admin CRUD over accounts
type UserService struct {
	db *gorm.DB // Database handle
}

// NewUserService returns a UserService
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Default and maximum user list page sizes
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UserPage is one page of the user list
type UserPage struct {
	Users      []domain.User `json:"users"`       // Users on this page
	Page       int           `json:"page"`        // Current page
	PageSize   int           `json:"page_size"`   // Page size
	Total      int64         `json:"total"`       // Total number of users
	TotalPages int           `json:"total_pages"` // Total pages
}

// List returns one page of users ordered by id. Out-of-range page numbers
// and sizes fall back to the first page and the default size.
func (s *UserService) List(ctx context.Context, caller policy.Caller, page, pageSize int) (*UserPage, error) {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	out := &UserPage{Page: page, PageSize: pageSize}
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&out.Total).Error; err != nil {
		return nil, domain.Transient(err)
	}
	out.TotalPages = int((out.Total + int64(pageSize) - 1) / int64(pageSize))
	if err := s.db.WithContext(ctx).Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&out.Users).Error; err != nil {
		return nil, domain.Transient(err)
	}
	return out, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, caller policy.Caller, id uint) (*domain.User, error) {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Transient(err)
	}
	return &user, nil
}

// Create adds an account without credentials. Email must be unused.
func (s *UserService) Create(ctx context.Context, caller policy.Caller, in UserInput) (*domain.User, error) {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user := domain.User{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Address: in.Address}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, 0, nil, in.Email); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if db.IsDuplicate(err) {
			return nil, &domain.ConflictError{Field: "Email", Reason: domain.ReasonEmailTaken}
		}
		return nil, domain.Transient(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"admin_id": caller.ID,
	}).Info("User created by admin")
	return &user, nil
}

// Update changes names, email and address. Email must be unused by others.
func (s *UserService) Update(ctx context.Context, caller policy.Caller, id uint, in UserInput) (*domain.User, error) {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if db.IsNotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := checkUnique(tx, id, nil, in.Email); err != nil {
			return err
		}
		user.FirstName, user.LastName, user.Email, user.Address = in.FirstName, in.LastName, in.Email, in.Address
		return tx.Model(&user).Updates(map[string]any{
			"first_name": in.FirstName,
			"last_name":  in.LastName,
			"email":      in.Email,
			"address":    in.Address,
		}).Error
	})
	if err != nil {
		if db.IsDuplicate(err) {
			return nil, &domain.ConflictError{Field: "Email", Reason: domain.ReasonEmailTaken}
		}
		return nil, domain.Transient(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"admin_id": caller.ID,
	}).Info("User updated by admin")
	return &user, nil
}

// Delete removes a user together with their orders and order items.
func (s *UserService) Delete(ctx context.Context, caller policy.Caller, id uint) error {
	if err := policy.Authorize(caller, policy.ManageUsers); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderIDs := tx.Model(&domain.Order{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("order_id IN (?)", orderIDs).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Order{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Transient(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"admin_id": caller.ID,
	}).Info("User deleted by admin")
	return nil
}
