package domain

import (
	"strings" // Name normalisation

	"gorm.io/gorm" // Model hooks
)

// Category Model
type Category struct {
	ID       uint      `gorm:"primaryKey" json:"id"`                                   // Primary key
	Name     string    `gorm:"size:100;not null" json:"name"`                          // Display name
	NameKey  string    `gorm:"size:100;not null;uniqueIndex" json:"-"`                 // CategoryKey(Name); makes names unique ignoring case
	Products []Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Products in this category
}

// CategoryKey is the normalised form two category names share when they
// differ only in case or surrounding spaces.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BeforeSave keeps NameKey in step with Name
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.NameKey = CategoryKey(c.Name)
	return nil
}
