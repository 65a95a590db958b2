package service

import (
	"context" // Request-scoped cancellation
	"strconv" // Admin flag encoding

	"shop_system/internal/db"      // Database error helpers
	"shop_system/internal/domain"  // Domain models and errors
	"shop_system/internal/metrics" // Prometheus collectors
	"shop_system/internal/policy"  // Authorization policy
	"shop_system/internal/session" // Session access
	"shop_system/internal/utils"   // Password hashing

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterInput is the self-registration form
type RegisterInput struct {
	Login           string `form:"Login" json:"login" validate:"required,max=50"`
	Password        string `form:"Password" json:"password" validate:"required"`
	ConfirmPassword string `form:"ConfirmPassword" json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `form:"FirstName" json:"firstName" validate:"required,max=50"`
	LastName        string `form:"LastName" json:"lastName" validate:"required,max=50"`
	Email           string `form:"Email" json:"email" validate:"required,max=100,shopemail"`
	Address         string `form:"Address" json:"address" validate:"max=200"`
}

// LoginInput is the login form
type LoginInput struct {
	Login    string `form:"Login" json:"login" validate:"required"`
	Password string `form:"Password" json:"password" validate:"required"`
}

// AuthService registers customers and binds identities to sessions
type AuthService struct {
	db      *gorm.DB         // Database handle
	metrics *metrics.Metrics // Login counters; may be nil
}

// NewAuthService returns an AuthService; m may be nil
func NewAuthService(db *gorm.DB, m *metrics.Metrics) *AuthService {
	return &AuthService{db: db, metrics: m}
}

// Register creates a customer account. The caller stays anonymous.
func (s *AuthService) Register(ctx context.Context, caller policy.Caller, in RegisterInput) error {
	if err := policy.Authorize(caller, policy.Register); err != nil {
		return err
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	salt, err := utils.GenerateSalt()
	if err != nil {
		return domain.Transient(err)
	}
	login := in.Login
	hash := utils.HashPasswordArgon2(in.Password, salt)
	user := domain.User{
		Login:        &login,
		PasswordHash: &hash,
		Salt:         &salt,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Address:      in.Address,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, 0, &login, in.Email); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if db.IsDuplicate(err) {
			return uniqueConflict(s.db.WithContext(ctx), 0, &login, in.Email)
		}
		return domain.Transient(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"login":   login,
	}).Info("User registered")
	return nil
}

// Login verifies credentials and writes the identity into sess. Unknown
// logins and wrong passwords fail with the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, caller policy.Caller, sess session.Store, in LoginInput) (*domain.User, error) {
	if err := policy.Authorize(caller, policy.Login); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.db.WithContext(ctx).Where("login = ?", in.Login).First(&user).Error; err != nil {
		if db.IsNotFound(err) {
			s.metrics.Login("invalid")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Transient(err)
	}
	if !user.CanAuthenticate() {
		s.metrics.Login("invalid")
		return nil, domain.ErrInvalidCredentials
	}
	ok, rehash := utils.VerifyPassword(in.Password, *user.Salt, *user.PasswordHash)
	if !ok {
		s.metrics.Login("invalid")
		logrus.WithField("user_id", user.ID).Warn("Failed login")
		return nil, domain.ErrInvalidCredentials
	}
	if rehash {
		s.upgradeHash(ctx, &user, in.Password)
	}

	sess.SetInt(session.KeyUserID, int(user.ID))
	sess.SetString(session.KeyIsAdmin, strconv.FormatBool(user.IsAdmin))
	if err := sess.Save(); err != nil {
		return nil, domain.Transient(err)
	}
	s.metrics.Login("success")
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"is_admin": user.IsAdmin,
	}).Info("User logged in")
	return &user, nil
}

// upgradeHash replaces a legacy SHA-256 hash with argon2id under a fresh
// salt. Failure leaves the legacy hash in place.
func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	salt, err := utils.GenerateSalt()
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Password rehash skipped")
		return
	}
	hash := utils.HashPasswordArgon2(password, salt)
	err = s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND password_hash = ?", user.ID, *user.PasswordHash).
		Updates(map[string]any{"salt": salt, "password_hash": hash}).Error
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Password rehash failed")
		return
	}
	user.Salt, user.PasswordHash = &salt, &hash
	logrus.WithField("user_id", user.ID).Info("Password hash upgraded to argon2id")
}

// Logout clears the caller's session
func (s *AuthService) Logout(caller policy.Caller, sess session.Store) error {
	if err := policy.Authorize(caller, policy.Logout); err != nil {
		return err
	}
	sess.Clear()
	if err := sess.Save(); err != nil {
		return domain.Transient(err)
	}
	logrus.WithField("user_id", caller.ID).Info("User logged out")
	return nil
}

// checkUnique fails with a ConflictError when login or email belongs to a
// user other than selfID. A nil login is not checked.
func checkUnique(tx *gorm.DB, selfID uint, login *string, email string) error {
	if login != nil {
		taken, err := exists(tx.Model(&domain.User{}).Where("login = ? AND id <> ?", *login, selfID))
		if err != nil {
			return err
		}
		if taken {
			return &domain.ConflictError{Field: "Login", Reason: domain.ReasonLoginTaken}
		}
	}
	taken, err := exists(tx.Model(&domain.User{}).Where("email = ? AND id <> ?", email, selfID))
	if err != nil {
		return err
	}
	if taken {
		return &domain.ConflictError{Field: "Email", Reason: domain.ReasonEmailTaken}
	}
	return nil
}

// uniqueConflict classifies a unique-index violation that raced past checkUnique.
func uniqueConflict(tx *gorm.DB, selfID uint, login *string, email string) error {
	if err := checkUnique(tx, selfID, login, email); err != nil {
		return err
	}
	return &domain.ConflictError{Field: "Email", Reason: domain.ReasonEmailTaken}
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
