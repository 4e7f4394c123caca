package models

import (
	"time"

	"gorm.io/gorm"
)

// AdminUser is a staff account that signs in to the back-office
type AdminUser struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Name         string         `gorm:"not null" json:"name"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);not null;default:'SALESMAN'" json:"role"`
	Active       bool           `gorm:"not null" json:"active"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the AdminUser model
func (AdminUser) TableName() string {
	return "admin_users"
}
