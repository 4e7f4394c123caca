package models

import (
	"time"
)

// Cart belongs to either a Customer or an anonymous session token, never both
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID *uint      `gorm:"uniqueIndex" json:"customer_id,omitempty"`
	SessionID  *string    `gorm:"uniqueIndex;size:64" json:"session_id,omitempty"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Cart model
func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of a Cart, unique per (CartID, ProductID, ProductColorID).
// Lines without a color are covered by a partial index installed in Migrate.
type CartItem struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	CartID         uint          `gorm:"not null;uniqueIndex:idx_cart_item_line" json:"cart_id"`
	ProductID      uint          `gorm:"not null;uniqueIndex:idx_cart_item_line" json:"product_id"`
	Product        *Product      `gorm:"foreignKey:ProductID" json:"-"`
	ProductColorID *uint         `gorm:"uniqueIndex:idx_cart_item_line" json:"product_color_id"`
	ProductColor   *ProductColor `gorm:"foreignKey:ProductColorID" json:"-"`
	Quantity       int           `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}
