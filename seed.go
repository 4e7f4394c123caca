package main

import (
	"context"
	"errors"

	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/services"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type demoProduct struct {
	name         string
	price        string
	discountType models.DiscountType
	discount     string
	material     string
	occasion     string
	featured     bool
	colors       []services.ColorInput
}

type demoCategory struct {
	name        string
	description string
	products    []demoProduct
}

var demoCatalog = []demoCategory{
	{
		name:        "Kanjivaram",
		description: "Handwoven mulberry silk from Kanchipuram",
		products: []demoProduct{
			{
				name: "Temple Border Kanjivaram", price: "18500.00", discountType: models.DiscountPercentage, discount: "10",
				material: "Pure silk", occasion: "Wedding", featured: true,
				colors: []services.ColorInput{{Color: "Maroon", ColorCode: "#800000"}, {Color: "Mustard", ColorCode: "#d4a017"}},
			},
			{
				name: "Checked Korvai Kanjivaram", price: "14200.00", discountType: models.DiscountNone, discount: "0",
				material: "Pure silk", occasion: "Festive",
				colors: []services.ColorInput{{Color: "Peacock Green", ColorCode: "#00766c"}},
			},
		},
	},
	{
		name:        "Banarasi",
		description: "Zari brocades from Varanasi",
		products: []demoProduct{
			{
				name: "Zari Buta Banarasi", price: "12500.00", discountType: models.DiscountFixed, discount: "1500",
				material: "Katan silk", occasion: "Wedding", featured: true,
				colors: []services.ColorInput{{Color: "Royal Blue", ColorCode: "#1f3b8c"}, {Color: "Rani Pink", ColorCode: "#e0115f"}},
			},
		},
	},
	{
		name:        "Chanderi",
		description: "Light silk-cotton weaves for everyday wear",
		products: []demoProduct{
			{
				name: "Chanderi Cotton Silk", price: "3400.00", discountType: models.DiscountNone, discount: "0",
				material: "Silk cotton", occasion: "Daily wear",
				colors: []services.ColorInput{{Color: "Ivory", ColorCode: "#fffff0"}},
			},
		},
	},
}

// seedCatalog loads the demo catalog through the catalog service. A database that
// already has the demo section is left alone.
func seedCatalog(ctx context.Context, db *gorm.DB) (int, error) {
	var existing models.Section
	err := db.WithContext(ctx).Where("slug = ?", "sarees").First(&existing).Error
	if err == nil {
		zlog.Info().Msg("demo catalog already present, skipping")
		return 0, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	catalog := services.NewCatalogService(db)
	section, err := catalog.CreateSection(ctx, services.SectionInput{Name: "Sarees"})
	if err != nil {
		return 0, err
	}

	created := 0
	for i, dc := range demoCatalog {
		category, err := catalog.CreateCategory(ctx, services.CategoryInput{
			SectionID:   section.ID,
			Name:        dc.name,
			Description: dc.description,
			Order:       i,
		})
		if err != nil {
			return created, err
		}

		for _, dp := range dc.products {
			product, err := catalog.CreateProduct(ctx, services.ProductInput{
				CategoryID:       category.ID,
				Name:             dp.name,
				Price:            decimal.RequireFromString(dp.price),
				DiscountType:     dp.discountType,
				DiscountValue:    decimal.RequireFromString(dp.discount),
				Material:         dp.material,
				Length:           "6.3 m with blouse piece",
				Occasion:         dp.occasion,
				CareInstructions: "Dry clean only",
				Featured:         dp.featured,
				Colors:           dp.colors,
			})
			if err != nil {
				return created, err
			}
			zlog.Debug().Str("slug", product.Slug).Msg("seeded product")
			created++
		}
	}
	return created, nil
}
