package services

import (
	"testing"

	"github.com/sareehouse/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each :memory: connection is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))
	return db
}

type catalogFixture struct {
	Section  models.Section
	Category models.Category
	Product  models.Product
	Red      models.ProductColor
	Blue     models.ProductColor
}

// seedCatalog creates one section, one category and a 1000.00 product with two colors
func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	f := catalogFixture{}

	f.Section = models.Section{Name: "Sarees", Slug: "sarees", Active: true}
	require.NoError(t, db.Create(&f.Section).Error)

	f.Category = models.Category{SectionID: f.Section.ID, Name: "Banarasi Silk", Slug: "banarasi-silk", Active: true}
	require.NoError(t, db.Create(&f.Category).Error)

	f.Product = models.Product{
		CategoryID:    f.Category.ID,
		Name:          "Royal Banarasi",
		Slug:          "royal-banarasi",
		Price:         decimal.RequireFromString("1000.00"),
		DiscountType:  models.DiscountNone,
		DiscountValue: decimal.Zero,
		Active:        true,
	}
	require.NoError(t, db.Create(&f.Product).Error)

	f.Red = models.ProductColor{ProductID: f.Product.ID, Color: "Red", ColorCode: "#ff0000", InStock: true}
	require.NoError(t, db.Create(&f.Red).Error)
	f.Blue = models.ProductColor{ProductID: f.Product.ID, Color: "Blue", ColorCode: "#0000ff", InStock: true, SortOrder: 1}
	require.NoError(t, db.Create(&f.Blue).Error)

	return f
}

func seedCustomer(t *testing.T, db *gorm.DB, phone string) models.Customer {
	t.Helper()
	c := models.Customer{PhoneNumber: phone}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uint, slug, price string) models.Product {
	t.Helper()
	p := models.Product{
		CategoryID:    categoryID,
		Name:          slug,
		Slug:          slug,
		Price:         decimal.RequireFromString(price),
		DiscountType:  models.DiscountNone,
		DiscountValue: decimal.Zero,
		Active:        true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
