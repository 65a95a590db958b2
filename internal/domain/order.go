package domain

import "time" // Order timestamps

// Order Model
type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`                                                          // Primary key
	UserID    uint        `gorm:"not null;index" json:"userId"`                                                  // Foreign key to User
	User      *User       `json:"user,omitempty"`                                                                // Ordering user
	OrderDate time.Time   `gorm:"not null" json:"orderDate"`                                                     // Server time on create
	Version   uint        `gorm:"not null;default:1" json:"version"`                                             // Row version for optimistic concurrency
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"` // Order lines
}

// OrderItem is the Order-Product join row. The composite key allows each
// product at most once per order.
type OrderItem struct {
	OrderID   uint     `gorm:"primaryKey;autoIncrement:false" json:"orderId"`   // Part of composite key
	ProductID uint     `gorm:"primaryKey;autoIncrement:false" json:"productId"` // Part of composite key
	Product   *Product `json:"product,omitempty"`                               // Ordered product
}

// TableName keeps the join table name of the original schema.
func (OrderItem) TableName() string {
	return "order_products"
}

// ProductIDs lists the products of the order in item order.
func (o Order) ProductIDs() []uint {
	ids := make([]uint, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
