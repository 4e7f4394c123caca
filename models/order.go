package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer intends to pay for an order
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "COD"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentCard       PaymentMethod = "CARD"
	PaymentNetBanking PaymentMethod = "NET_BANKING"
)

// Valid reports whether m is an accepted payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentUPI, PaymentCard, PaymentNetBanking:
		return true
	}
	return false
}

// Order is the immutable snapshot of a cart taken at checkout
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderNumber   string          `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID    uint            `gorm:"not null;index" json:"customer_id"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	AddressID     uint            `gorm:"not null;index" json:"address_id"`
	Address       *Address        `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem freezes the product name, color and price at checkout time.
// ProductID and ProductColorID are informational links; nothing is re-derived from them.
type OrderItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderID        uint            `gorm:"not null;index" json:"order_id"`
	ProductID      *uint           `gorm:"index" json:"product_id"`
	ProductColorID *uint           `json:"product_color_id"`
	ProductName    string          `gorm:"not null" json:"product_name"`
	ProductColor   string          `json:"product_color"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity       int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusChange records one status transition made by a staff member or the customer
type OrderStatusChange struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderID     uint        `gorm:"not null;index" json:"order_id"`
	FromStatus  OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus    OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	AdminUserID *uint       `json:"admin_user_id"` // nil when the customer cancelled
	CreatedAt   time.Time   `json:"created_at"`
}

// TableName specifies the table name for the OrderStatusChange model
func (OrderStatusChange) TableName() string {
	return "order_status_changes"
}
