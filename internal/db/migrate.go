package db

import (
	"shop_system/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate creates or updates the shop schema: users, categories, products,
// orders and the order_products join table.
func Migrate(db *gorm.DB) error {
	if err := backfillCategoryKeys(db); err != nil {
		logrus.WithError(err).Error("migration failed")
		return err
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err := db.AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Product{}, &domain.Order{}, &domain.OrderItem{})
	if err != nil {
		logrus.WithError(err).Error("migration failed")
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// backfillCategoryKeys fills name_key on a categories table created before
// the column existed, so AutoMigrate can make it NOT NULL and unique.
// Categories that already differ only in case must be merged by hand first.
func backfillCategoryKeys(db *gorm.DB) error {
	m := db.Migrator()
	if !m.HasTable(&domain.Category{}) || m.HasColumn(&domain.Category{}, "NameKey") {
		return nil // Fresh schema or already migrated
	}
	if err := db.Exec("ALTER TABLE categories ADD name_key VARCHAR(100)").Error; err != nil {
		return err
	}
	res := db.Exec("UPDATE categories SET name_key = LOWER(TRIM(name))")
	if res.Error != nil {
		return res.Error
	}
	logrus.WithField("rows", res.RowsAffected).Info("Backfilled category name keys")
	return nil
}
