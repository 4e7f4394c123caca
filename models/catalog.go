package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountType selects how Product.DiscountValue is applied to the price
type DiscountType string

const (
	DiscountNone       DiscountType = "NONE"
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Section is the top-level catalog grouping (e.g. "Sarees")
type Section struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	Slug       string     `gorm:"uniqueIndex;not null" json:"slug"`
	SortOrder  int        `gorm:"not null;default:0" json:"order"`
	Active     bool       `gorm:"not null" json:"active"`
	Categories []Category `gorm:"foreignKey:SectionID;constraint:OnDelete:RESTRICT" json:"categories,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Section model
func (Section) TableName() string {
	return "sections"
}

// Category belongs to exactly one Section (e.g. "Banarasi Silk")
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SectionID   uint      `gorm:"not null;index" json:"section_id"`
	Section     *Section  `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"not null;default:0" json:"order"`
	Active      bool      `gorm:"not null" json:"active"`
	Products    []Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// Product is a saree listed under one Category
type Product struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CategoryID       uint            `gorm:"not null;index" json:"category_id"`
	Category         *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name             string          `gorm:"not null" json:"name"`
	Slug             string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string          `gorm:"type:text" json:"description"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountType     DiscountType    `gorm:"type:varchar(12);not null;default:'NONE'" json:"discount_type"`
	DiscountValue    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_value"`
	Material         string          `json:"material"`
	Length           string          `json:"length"`
	Occasion         string          `json:"occasion"`
	CareInstructions string          `gorm:"type:text" json:"care_instructions"`
	Active           bool            `gorm:"not null;index" json:"active"`
	Featured         bool            `gorm:"not null;default:false;index" json:"featured"`
	Colors           []ProductColor  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"colors,omitempty"`
	SalePrice        decimal.Decimal `gorm:"-" json:"final_price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// AfterFind fills SalePrice for API responses
func (p *Product) AfterFind(tx *gorm.DB) error {
	p.SalePrice = p.FinalPrice()
	return nil
}

// FinalPrice returns the price a shopper pays for one unit after the product discount.
// The result never drops below zero.
func (p Product) FinalPrice() decimal.Decimal {
	var final decimal.Decimal
	switch p.DiscountType {
	case DiscountPercentage:
		factor := decimal.NewFromInt(100).Sub(p.DiscountValue).Div(decimal.NewFromInt(100))
		final = p.Price.Mul(factor)
	case DiscountFixed:
		final = p.Price.Sub(p.DiscountValue)
	default:
		final = p.Price
	}
	if final.IsNegative() {
		return decimal.Zero
	}
	return final.Round(2)
}

// ProductColor is a purchasable color option of a Product
type ProductColor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	Color     string         `gorm:"not null" json:"color"`
	ColorCode string         `json:"color_code"`
	InStock   bool           `gorm:"not null" json:"in_stock"`
	SortOrder int            `gorm:"not null;default:0" json:"order"`
	Images    []ProductImage `gorm:"foreignKey:ProductColorID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the ProductColor model
func (ProductColor) TableName() string {
	return "product_colors"
}

// ProductImage is a hosted image of one color variant
type ProductImage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProductColorID uint      `gorm:"not null;index" json:"product_color_id"`
	URL            string    `gorm:"not null" json:"url"`
	PublicID       string    `gorm:"not null" json:"public_id"` // key at the image host, used for deletion
	IsPrimary      bool      `gorm:"not null;default:false" json:"is_primary"`
	SortOrder      int       `gorm:"not null;default:0" json:"order"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for the ProductImage model
func (ProductImage) TableName() string {
	return "product_images"
}
