package domain

// Product Model
type Product struct {
	ID          uint        `gorm:"primaryKey" json:"id"`                                   // Primary key
	Name        string      `gorm:"size:200;not null" json:"name"`                          // Product name
	Description string      `gorm:"size:500" json:"description,omitempty"`                  // Optional description
	CategoryID  uint        `gorm:"not null;index" json:"categoryId"`                       // Foreign key to Category
	Category    *Category   `json:"category,omitempty"`                                     // Owning category
	ImageURL    string      `gorm:"column:image_url;size:500" json:"imageUrl,omitempty"`    // Optional image address
	Items       []OrderItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Order lines referencing this product
}
