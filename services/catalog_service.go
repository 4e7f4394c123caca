package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SectionInput is the payload for creating a section
type SectionInput struct {
	Name   string `json:"name" binding:"required"`
	Slug   string `json:"slug"`
	Order  int    `json:"order"`
	Active *bool  `json:"active"`
}

// SectionUpdate is the payload for editing a section; nil fields are left unchanged
type SectionUpdate struct {
	Name   *string `json:"name"`
	Slug   *string `json:"slug"`
	Order  *int    `json:"order"`
	Active *bool   `json:"active"`
}

// CategoryInput is the payload for creating a category
type CategoryInput struct {
	SectionID   uint   `json:"section_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Active      *bool  `json:"active"`
}

// CategoryUpdate is the payload for editing a category
type CategoryUpdate struct {
	SectionID   *uint   `json:"section_id"`
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
	Active      *bool   `json:"active"`
}

// ColorInput is the payload for adding a color variant
type ColorInput struct {
	Color     string `json:"color" binding:"required"`
	ColorCode string `json:"color_code"`
	InStock   *bool  `json:"in_stock"`
	Order     int    `json:"order"`
}

// ColorUpdate is the payload for editing a color variant
type ColorUpdate struct {
	Color     *string `json:"color"`
	ColorCode *string `json:"color_code"`
	InStock   *bool   `json:"in_stock"`
	Order     *int    `json:"order"`
}

// ProductInput is the payload for creating a product
type ProductInput struct {
	CategoryID       uint                `json:"category_id" binding:"required"`
	Name             string              `json:"name" binding:"required"`
	Slug             string              `json:"slug"`
	Description      string              `json:"description"`
	Price            decimal.Decimal     `json:"price"`
	DiscountType     models.DiscountType `json:"discount_type"`
	DiscountValue    decimal.Decimal     `json:"discount_value"`
	Material         string              `json:"material"`
	Length           string              `json:"length"`
	Occasion         string              `json:"occasion"`
	CareInstructions string              `json:"care_instructions"`
	Active           *bool               `json:"active"`
	Featured         bool                `json:"featured"`
	Colors           []ColorInput        `json:"colors" binding:"omitempty,dive"`
}

// ProductUpdate is the payload for editing a product
type ProductUpdate struct {
	CategoryID       *uint                `json:"category_id"`
	Name             *string              `json:"name"`
	Slug             *string              `json:"slug"`
	Description      *string              `json:"description"`
	Price            *decimal.Decimal     `json:"price"`
	DiscountType     *models.DiscountType `json:"discount_type"`
	DiscountValue    *decimal.Decimal     `json:"discount_value"`
	Material         *string              `json:"material"`
	Length           *string              `json:"length"`
	Occasion         *string              `json:"occasion"`
	CareInstructions *string              `json:"care_instructions"`
	Active           *bool                `json:"active"`
	Featured         *bool                `json:"featured"`
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	CategorySlug    string
	SectionSlug     string
	CategoryID      uint
	Featured        *bool
	Query           string
	Page            int
	Limit           int
	IncludeInactive bool
}

// CatalogService manages sections, categories, products, colors and images
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a catalog service
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func slugFor(explicit, name string) (string, error) {
	slug := utils.Slugify(explicit)
	if slug == "" {
		slug = utils.Slugify(name)
	}
	if slug == "" {
		return "", invalid("INVALID_SLUG", "Slug must contain letters or digits")
	}
	return slug, nil
}

// validateDiscount enforces that a discount never exceeds the price it applies to
func validateDiscount(price decimal.Decimal, kind models.DiscountType, value decimal.Decimal) error {
	if price.IsNegative() || price.IsZero() {
		return invalid("INVALID_PRICE", "Price must be greater than zero")
	}
	if value.IsNegative() {
		return invalid("INVALID_DISCOUNT", "Discount value cannot be negative")
	}
	switch kind {
	case models.DiscountNone:
	case models.DiscountPercentage:
		if value.GreaterThan(decimal.NewFromInt(100)) {
			return invalid("INVALID_DISCOUNT", "Percentage discount cannot exceed 100")
		}
	case models.DiscountFixed:
		if value.GreaterThan(price) {
			return invalid("INVALID_DISCOUNT", "Fixed discount cannot exceed the price")
		}
	default:
		return invalid("INVALID_DISCOUNT", "Discount type must be NONE, PERCENTAGE or FIXED")
	}
	return nil
}

// ---- Sections ----

// ListSections returns sections ordered by their sort key, each with its categories.
// Storefront callers pass activeOnly to hide inactive sections and categories.
func (s *CatalogService) ListSections(ctx context.Context, activeOnly bool) ([]models.Section, error) {
	q := s.db.WithContext(ctx).Order("sort_order asc, id asc")
	if activeOnly {
		q = q.Where("active = ?", true).Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("sort_order asc, id asc")
		})
	} else {
		q = q.Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		})
	}

	var sections []models.Section
	if err := q.Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

// GetSection returns one section with its categories
func (s *CatalogService) GetSection(ctx context.Context, id uint) (*models.Section, error) {
	var section models.Section
	err := s.db.WithContext(ctx).Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, id asc")
	}).First(&section, id).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &section, nil
}

// CreateSection adds a top-level catalog section
func (s *CatalogService) CreateSection(ctx context.Context, input SectionInput) (*models.Section, error) {
	slug, err := slugFor(input.Slug, input.Name)
	if err != nil {
		return nil, err
	}
	section := models.Section{
		Name:      strings.TrimSpace(input.Name),
		Slug:      slug,
		SortOrder: input.Order,
		Active:    boolOr(input.Active, true),
	}
	if err := s.db.WithContext(ctx).Create(&section).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("SLUG_EXISTS", "A section with this slug already exists")
		}
		return nil, fmt.Errorf("failed to create section: %w", err)
	}
	return &section, nil
}

// UpdateSection edits a section
func (s *CatalogService) UpdateSection(ctx context.Context, id uint, input SectionUpdate) (*models.Section, error) {
	db := s.db.WithContext(ctx)
	var section models.Section
	if err := db.First(&section, id).Error; err != nil {
		return nil, notFoundOr(err)
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		slug, err := slugFor(*input.Slug, "")
		if err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if input.Order != nil {
		updates["sort_order"] = *input.Order
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&section).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, conflict("SLUG_EXISTS", "A section with this slug already exists")
			}
			return nil, fmt.Errorf("failed to update section: %w", err)
		}
	}
	return s.GetSection(ctx, id)
}

// DeleteSection removes a section that has no categories
func (s *CatalogService) DeleteSection(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var section models.Section
		if err := tx.First(&section, id).Error; err != nil {
			return notFoundOr(err)
		}

		var children int64
		if err := tx.Model(&models.Category{}).Where("section_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return conflict("SECTION_HAS_CATEGORIES", "Cannot delete section with existing categories")
		}

		if err := tx.Delete(&section).Error; err != nil {
			if isForeignKeyViolation(err) {
				return conflict("SECTION_HAS_CATEGORIES", "Cannot delete section with existing categories")
			}
			return fmt.Errorf("failed to delete section: %w", err)
		}
		return nil
	})
}

// ---- Categories ----

// ListCategories returns categories, optionally limited to one section
func (s *CatalogService) ListCategories(ctx context.Context, sectionID uint, activeOnly bool) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Preload("Section").Order("sort_order asc, id asc")
	if sectionID != 0 {
		q = q.Where("section_id = ?", sectionID)
	}
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns a category by id
func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Preload("Section").First(&category, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &category, nil
}

// GetActiveCategoryBySlug returns a visible category whose section is also visible
func (s *CatalogService) GetActiveCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Preload("Section").
		Joins("JOIN sections ON sections.id = categories.section_id").
		Where("categories.slug = ? AND categories.active = ? AND sections.active = ?", slug, true, true).
		First(&category).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &category, nil
}

func requireSection(tx *gorm.DB, sectionID uint) error {
	var section models.Section
	if err := tx.First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("SECTION_NOT_FOUND", "Section not found")
		}
		return err
	}
	return nil
}

// CreateCategory adds a category to an existing section
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	slug, err := slugFor(input.Slug, input.Name)
	if err != nil {
		return nil, err
	}
	category := models.Category{
		SectionID:   input.SectionID,
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: input.Description,
		SortOrder:   input.Order,
		Active:      boolOr(input.Active, true),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSection(tx, input.SectionID); err != nil {
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("SLUG_EXISTS", "A category with this slug already exists")
			}
			return fmt.Errorf("failed to create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, category.ID)
}

// UpdateCategory edits a category; moving it requires the target section to exist
func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, input CategoryUpdate) (*models.Category, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			return notFoundOr(err)
		}

		updates := map[string]interface{}{}
		if input.SectionID != nil {
			if err := requireSection(tx, *input.SectionID); err != nil {
				return err
			}
			updates["section_id"] = *input.SectionID
		}
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Slug != nil {
			slug, err := slugFor(*input.Slug, "")
			if err != nil {
				return err
			}
			updates["slug"] = slug
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Order != nil {
			updates["sort_order"] = *input.Order
		}
		if input.Active != nil {
			updates["active"] = *input.Active
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("SLUG_EXISTS", "A category with this slug already exists")
			}
			return fmt.Errorf("failed to update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes a category that no product references
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			return notFoundOr(err)
		}

		var products int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return conflict("CATEGORY_HAS_PRODUCTS", "Cannot delete category with existing products")
		}

		if err := tx.Delete(&category).Error; err != nil {
			if isForeignKeyViolation(err) {
				return conflict("CATEGORY_HAS_PRODUCTS", "Cannot delete category with existing products")
			}
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}

// ---- Products ----

func preloadColors(db *gorm.DB) *gorm.DB {
	return db.Preload("Colors", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, id asc")
	}).Preload("Colors.Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("is_primary desc, sort_order asc, id asc")
	})
}

// ListProducts returns one page of products and the total match count
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})

	if f.CategoryID != 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}
	if f.CategorySlug != "" || f.SectionSlug != "" || !f.IncludeInactive {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Joins("JOIN sections ON sections.id = categories.section_id")
	}
	if f.CategorySlug != "" {
		q = q.Where("categories.slug = ?", f.CategorySlug)
	}
	if f.SectionSlug != "" {
		q = q.Where("sections.slug = ?", f.SectionSlug)
	}
	if !f.IncludeInactive {
		q = q.Where("products.active = ? AND categories.active = ? AND sections.active = ?", true, true, true)
	}
	if f.Featured != nil {
		q = q.Where("products.featured = ?", *f.Featured)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.material) LIKE ? OR LOWER(products.occasion) LIKE ?",
			like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var products []models.Product
	err := preloadColors(q).
		Select("products.*").
		Order("products.featured desc, products.created_at desc, products.id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetProduct returns a product by id with its colors and images
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := preloadColors(s.db.WithContext(ctx)).Preload("Category").First(&product, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &product, nil
}

// GetActiveProductBySlug returns a product visible on the storefront
func (s *CatalogService) GetActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := preloadColors(s.db.WithContext(ctx)).
		Preload("Category").
		Where("slug = ? AND active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &product, nil
}

func requireCategory(tx *gorm.DB, categoryID uint) error {
	var category models.Category
	if err := tx.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("CATEGORY_NOT_FOUND", "Category not found")
		}
		return err
	}
	return nil
}

// CreateProduct adds a product, optionally with its initial color variants
func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	slug, err := slugFor(input.Slug, input.Name)
	if err != nil {
		return nil, err
	}
	kind := input.DiscountType
	if kind == "" {
		kind = models.DiscountNone
	}
	value := input.DiscountValue
	if kind == models.DiscountNone {
		value = decimal.Zero
	}
	if err := validateDiscount(input.Price, kind, value); err != nil {
		return nil, err
	}

	product := models.Product{
		CategoryID:       input.CategoryID,
		Name:             strings.TrimSpace(input.Name),
		Slug:             slug,
		Description:      input.Description,
		Price:            input.Price.Round(2),
		DiscountType:     kind,
		DiscountValue:    value.Round(2),
		Material:         input.Material,
		Length:           input.Length,
		Occasion:         input.Occasion,
		CareInstructions: input.CareInstructions,
		Active:           boolOr(input.Active, true),
		Featured:         input.Featured,
	}
	for i, c := range input.Colors {
		product.Colors = append(product.Colors, models.ProductColor{
			Color:     strings.TrimSpace(c.Color),
			ColorCode: c.ColorCode,
			InStock:   boolOr(c.InStock, true),
			SortOrder: orderOr(c.Order, i),
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCategory(tx, input.CategoryID); err != nil {
			return err
		}
		if err := tx.Create(&product).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("SLUG_EXISTS", "A product with this slug already exists")
			}
			return fmt.Errorf("failed to create product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, product.ID)
}

func orderOr(order, fallback int) int {
	if order != 0 {
		return order
	}
	return fallback
}

// UpdateProduct edits a product. Price and discount are validated together.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, input ProductUpdate) (*models.Product, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			return notFoundOr(err)
		}

		updates := map[string]interface{}{}
		if input.CategoryID != nil {
			if err := requireCategory(tx, *input.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *input.CategoryID
		}
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Slug != nil {
			slug, err := slugFor(*input.Slug, "")
			if err != nil {
				return err
			}
			updates["slug"] = slug
		}

		price, kind, value := product.Price, product.DiscountType, product.DiscountValue
		if input.Price != nil {
			price = input.Price.Round(2)
		}
		if input.DiscountType != nil {
			kind = *input.DiscountType
		}
		if input.DiscountValue != nil {
			value = input.DiscountValue.Round(2)
		}
		if kind == models.DiscountNone {
			value = decimal.Zero
		}
		if input.Price != nil || input.DiscountType != nil || input.DiscountValue != nil {
			if err := validateDiscount(price, kind, value); err != nil {
				return err
			}
			updates["price"] = price
			updates["discount_type"] = kind
			updates["discount_value"] = value
		}

		strField := map[string]*string{
			"description":       input.Description,
			"material":          input.Material,
			"length":            input.Length,
			"occasion":          input.Occasion,
			"care_instructions": input.CareInstructions,
		}
		for column, v := range strField {
			if v != nil {
				updates[column] = *v
			}
		}
		if input.Active != nil {
			updates["active"] = *input.Active
		}
		if input.Featured != nil {
			updates["featured"] = *input.Featured
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("SLUG_EXISTS", "A product with this slug already exists")
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product with its colors and images and drops it from carts.
// Order history keeps its snapshot; the informational product link is cleared.
// Returns the image-host keys of the removed images so the caller can delete them.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) ([]string, error) {
	var publicIDs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			return notFoundOr(err)
		}

		var colorIDs []uint
		if err := tx.Model(&models.ProductColor{}).Where("product_id = ?", id).Pluck("id", &colorIDs).Error; err != nil {
			return err
		}
		if len(colorIDs) > 0 {
			if err := tx.Model(&models.ProductImage{}).Where("product_color_id IN ?", colorIDs).
				Pluck("public_id", &publicIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("product_color_id IN ?", colorIDs).Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).
			Updates(map[string]interface{}{"product_id": nil, "product_color_id": nil}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductColor{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return publicIDs, nil
}

// ---- Colors ----

// GetColor returns a color variant that belongs to productID
func (s *CatalogService) GetColor(ctx context.Context, productID, colorID uint) (*models.ProductColor, error) {
	var color models.ProductColor
	err := s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("is_primary desc, sort_order asc, id asc") }).
		Where("id = ? AND product_id = ?", colorID, productID).
		First(&color).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &color, nil
}

// AddColor adds a color variant to a product
func (s *CatalogService) AddColor(ctx context.Context, productID uint, input ColorInput) (*models.ProductColor, error) {
	db := s.db.WithContext(ctx)
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	color := models.ProductColor{
		ProductID: productID,
		Color:     strings.TrimSpace(input.Color),
		ColorCode: input.ColorCode,
		InStock:   boolOr(input.InStock, true),
		SortOrder: input.Order,
	}
	if err := db.Create(&color).Error; err != nil {
		return nil, fmt.Errorf("failed to add color: %w", err)
	}
	return &color, nil
}

// UpdateColor edits a color variant
func (s *CatalogService) UpdateColor(ctx context.Context, productID, colorID uint, input ColorUpdate) (*models.ProductColor, error) {
	color, err := s.GetColor(ctx, productID, colorID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Color != nil {
		updates["color"] = strings.TrimSpace(*input.Color)
	}
	if input.ColorCode != nil {
		updates["color_code"] = *input.ColorCode
	}
	if input.InStock != nil {
		updates["in_stock"] = *input.InStock
	}
	if input.Order != nil {
		updates["sort_order"] = *input.Order
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(color).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update color: %w", err)
		}
	}
	return s.GetColor(ctx, productID, colorID)
}

// DeleteColor removes a color variant with its images and drops it from carts.
// Returns the image-host keys of the removed images.
func (s *CatalogService) DeleteColor(ctx context.Context, productID, colorID uint) ([]string, error) {
	var publicIDs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var color models.ProductColor
		if err := tx.Where("id = ? AND product_id = ?", colorID, productID).First(&color).Error; err != nil {
			return notFoundOr(err)
		}
		if err := tx.Model(&models.ProductImage{}).Where("product_color_id = ?", colorID).
			Pluck("public_id", &publicIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("product_color_id = ?", colorID).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_color_id = ?", colorID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).Where("product_color_id = ?", colorID).
			Update("product_color_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&color).Error; err != nil {
			return fmt.Errorf("failed to delete color: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return publicIDs, nil
}

// ---- Images ----

// AddImage attaches a hosted image to a color variant. The first image of a color is primary.
func (s *CatalogService) AddImage(ctx context.Context, productID, colorID uint, asset ImageAsset) (*models.ProductImage, error) {
	var image models.ProductImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var color models.ProductColor
		if err := tx.Where("id = ? AND product_id = ?", colorID, productID).First(&color).Error; err != nil {
			return notFoundOr(err)
		}

		var count int64
		if err := tx.Model(&models.ProductImage{}).Where("product_color_id = ?", colorID).Count(&count).Error; err != nil {
			return err
		}

		image = models.ProductImage{
			ProductColorID: colorID,
			URL:            asset.URL,
			PublicID:       asset.PublicID,
			IsPrimary:      count == 0,
			SortOrder:      int(count),
		}
		if err := tx.Create(&image).Error; err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func findImage(tx *gorm.DB, productID, colorID, imageID uint) (*models.ProductImage, error) {
	var image models.ProductImage
	err := tx.Joins("JOIN product_colors ON product_colors.id = product_images.product_color_id").
		Where("product_images.id = ? AND product_images.product_color_id = ? AND product_colors.product_id = ?",
			imageID, colorID, productID).
		First(&image).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &image, nil
}

// SetPrimaryImage makes one image the primary image of its color
func (s *CatalogService) SetPrimaryImage(ctx context.Context, productID, colorID, imageID uint) (*models.ProductImage, error) {
	var image *models.ProductImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		image, err = findImage(tx, productID, colorID, imageID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.ProductImage{}).Where("product_color_id = ?", colorID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		if err := tx.Model(image).Update("is_primary", true).Error; err != nil {
			return err
		}
		image.IsPrimary = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return image, nil
}

// DeleteImage removes an image record, promoting another image if it was primary.
// Returns the image-host key of the removed image.
func (s *CatalogService) DeleteImage(ctx context.Context, productID, colorID, imageID uint) (string, error) {
	var publicID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		image, err := findImage(tx, productID, colorID, imageID)
		if err != nil {
			return err
		}
		publicID = image.PublicID

		if err := tx.Delete(image).Error; err != nil {
			return fmt.Errorf("failed to delete image: %w", err)
		}
		if !image.IsPrimary {
			return nil
		}

		var next models.ProductImage
		err = tx.Where("product_color_id = ?", colorID).Order("sort_order asc, id asc").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_primary", true).Error
	})
	if err != nil {
		return "", err
	}
	return publicID, nil
}
