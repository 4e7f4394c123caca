package models

import (
	"time"
)

// Customer is a storefront shopper identified by phone number
type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PhoneNumber string    `gorm:"uniqueIndex;not null" json:"phone_number"`
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Addresses   []Address `gorm:"foreignKey:CustomerID" json:"addresses,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// Address is a delivery address owned by one Customer.
// At most one address per customer has IsDefault set (enforced by a partial unique index).
type Address struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CustomerID   uint      `gorm:"not null;index" json:"customer_id"`
	Name         string    `gorm:"not null" json:"name"`
	PhoneNumber  string    `gorm:"not null" json:"phone_number"`
	AddressLine1 string    `gorm:"not null" json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	City         string    `gorm:"not null" json:"city"`
	State        string    `gorm:"not null" json:"state"`
	Pincode      string    `gorm:"not null" json:"pincode"`
	IsDefault    bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Address model
func (Address) TableName() string {
	return "addresses"
}
