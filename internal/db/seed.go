package db

import (
	"context" // Context for cancellation
	"fmt"     // Error wrapping

	"shop_system/internal/domain" // Importing domain models
	"shop_system/internal/utils"  // Password primitive

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Seeded administrator account
const (
	AdminLogin    = "Admin"
	AdminPassword = "Admin"
	adminEmail    = "admin@shop.local"
)

// SeedAdmin creates the administrator account on first boot, when the
// users table is empty. It is safe to call on every boot.
func SeedAdmin(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Count(&count).Error; err != nil {
			return fmt.Errorf("seed: count users: %w", err)
		}
		if count > 0 {
			return nil // Already seeded or in use
		}
		salt, err := utils.GenerateSalt()
		if err != nil {
			return fmt.Errorf("seed: salt: %w", err)
		}
		login := AdminLogin
		hash := utils.HashPasswordArgon2(AdminPassword, salt)
		admin := domain.User{
			Login:        &login,
			PasswordHash: &hash,
			Salt:         &salt,
			FirstName:    "Admin",
			LastName:     "Admin",
			Email:        adminEmail,
			IsAdmin:      true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("seed: create admin: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"user_id": admin.ID,
			"login":   AdminLogin,
		}).Warn("Seeded default administrator; change its password")
		return nil
	})
}
