package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/metrics"
	"github.com/sareehouse/storefront-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxLineQuantity is the largest quantity a single cart line may hold
const MaxLineQuantity = 99

// CartOwner identifies whose cart a request operates on. It is either
// AnonymousOwner (client session token) or CustomerOwner (signed-in customer).
type CartOwner interface {
	scope(db *gorm.DB) *gorm.DB
	newCart() models.Cart
	String() string
}

// AnonymousOwner is the X-Session-Id token of a shopper who has not signed in
type AnonymousOwner string

func (o AnonymousOwner) scope(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ? AND customer_id IS NULL", string(o))
}

func (o AnonymousOwner) newCart() models.Cart {
	token := string(o)
	return models.Cart{SessionID: &token}
}

func (o AnonymousOwner) String() string { return "session:" + string(o) }

// CustomerOwner is the id of a signed-in customer
type CustomerOwner uint

func (o CustomerOwner) scope(db *gorm.DB) *gorm.DB {
	return db.Where("customer_id = ?", uint(o))
}

func (o CustomerOwner) newCart() models.Cart {
	id := uint(o)
	return models.Cart{CustomerID: &id}
}

func (o CustomerOwner) String() string { return fmt.Sprintf("customer:%d", uint(o)) }

// ValidSessionToken reports whether token looks like a client-generated session id
func ValidSessionToken(token string) bool {
	_, err := uuid.Parse(token)
	return err == nil
}

// NewSessionToken generates a fresh anonymous cart token
func NewSessionToken() string {
	return uuid.NewString()
}

// AddCartItemInput is the payload of an add-to-cart request
type AddCartItemInput struct {
	ProductID      uint
	ProductColorID *uint
	Quantity       int
}

// CartLine is a cart item enriched with the live catalog data shown to the shopper
type CartLine struct {
	ID             uint            `json:"id"`
	ProductID      uint            `json:"product_id"`
	ProductColorID *uint           `json:"product_color_id"`
	Quantity       int             `json:"quantity"`
	ProductName    string          `json:"product_name"`
	ProductSlug    string          `json:"product_slug"`
	Price          decimal.Decimal `json:"price"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	Color          string          `json:"color,omitempty"`
	ColorCode      string          `json:"color_code,omitempty"`
	ImageURL       *string         `json:"image_url"`
	LineTotal      decimal.Decimal `json:"line_total"`
	Available      bool            `json:"available"`
}

// CartView is the shopper-facing representation of a cart
type CartView struct {
	ID        uint            `json:"id,omitempty"`
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartService manages carts and their line items
type CartService struct {
	db *gorm.DB
}

// NewCartService creates a cart service
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func findCart(db *gorm.DB, owner CartOwner) (*models.Cart, error) {
	var cart models.Cart
	if err := owner.scope(db).First(&cart).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &cart, nil
}

// findOrCreateCart returns the owner's cart, creating it on first use.
// A concurrent creator wins the unique index race; the loser re-reads its row.
func findOrCreateCart(db *gorm.DB, owner CartOwner) (*models.Cart, error) {
	cart, err := findCart(db, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created := owner.newCart()
	err = db.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&created).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return findCart(db, owner)
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &created, nil
}

func findLine(db *gorm.DB, cartID, productID uint, colorID *uint) (*models.CartItem, error) {
	q := db.Where("cart_id = ? AND product_id = ?", cartID, productID)
	if colorID == nil {
		q = q.Where("product_color_id IS NULL")
	} else {
		q = q.Where("product_color_id = ?", *colorID)
	}
	var item models.CartItem
	if err := q.First(&item).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &item, nil
}

func validateQuantity(qty int) error {
	if qty < 1 || qty > MaxLineQuantity {
		return invalid("INVALID_QUANTITY", fmt.Sprintf("Quantity must be between 1 and %d", MaxLineQuantity))
	}
	return nil
}

// Get returns the owner's cart priced against the current catalog.
// An owner without a cart gets an empty view.
func (s *CartService) Get(ctx context.Context, owner CartOwner) (*CartView, error) {
	db := s.db.WithContext(ctx)

	cart, err := findCart(db, owner)
	if errors.Is(err, ErrNotFound) {
		return &CartView{Items: []CartLine{}, Subtotal: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := db.Preload("Product").Preload("ProductColor").
		Where("cart_id = ?", cart.ID).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	images, err := primaryImages(db, items)
	if err != nil {
		return nil, err
	}

	view := &CartView{ID: cart.ID, Items: make([]CartLine, 0, len(items)), Subtotal: decimal.Zero}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		line := CartLine{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductColorID: item.ProductColorID,
			Quantity:       item.Quantity,
			ProductName:    item.Product.Name,
			ProductSlug:    item.Product.Slug,
			Price:          item.Product.FinalPrice(),
			OriginalPrice:  item.Product.Price,
			Available:      item.Product.Active,
		}
		if item.ProductColor != nil {
			line.Color = item.ProductColor.Color
			line.ColorCode = item.ProductColor.ColorCode
			line.Available = line.Available && item.ProductColor.InStock
		}
		line.ImageURL = images.lookup(item.ProductID, item.ProductColorID)
		line.LineTotal = line.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		view.Items = append(view.Items, line)
		view.ItemCount += item.Quantity
		view.Subtotal = view.Subtotal.Add(line.LineTotal)
	}
	return view, nil
}

type imageIndex struct {
	byColor   map[uint]string
	byProduct map[uint]string
}

func (idx imageIndex) lookup(productID uint, colorID *uint) *string {
	if colorID != nil {
		if url, ok := idx.byColor[*colorID]; ok {
			return &url
		}
	}
	if url, ok := idx.byProduct[productID]; ok {
		return &url
	}
	return nil
}

// primaryImages finds the first primary image per color and per product for the given items
func primaryImages(db *gorm.DB, items []models.CartItem) (imageIndex, error) {
	idx := imageIndex{byColor: map[uint]string{}, byProduct: map[uint]string{}}
	if len(items) == 0 {
		return idx, nil
	}

	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	var rows []struct {
		ProductID      uint
		ProductColorID uint
		URL            string
	}
	err := db.Table("product_images").
		Select("product_colors.product_id, product_images.product_color_id, product_images.url").
		Joins("JOIN product_colors ON product_colors.id = product_images.product_color_id").
		Where("product_colors.product_id IN ? AND product_images.is_primary = ?", productIDs, true).
		Order("product_colors.sort_order, product_colors.id, product_images.sort_order, product_images.id").
		Scan(&rows).Error
	if err != nil {
		return idx, fmt.Errorf("failed to load cart images: %w", err)
	}

	for _, row := range rows {
		if _, ok := idx.byColor[row.ProductColorID]; !ok {
			idx.byColor[row.ProductColorID] = row.URL
		}
		if _, ok := idx.byProduct[row.ProductID]; !ok {
			idx.byProduct[row.ProductID] = row.URL
		}
	}
	return idx, nil
}

// AddItem upserts a cart line. Adding a product+color already in the cart
// replaces its quantity with input.Quantity rather than adding to it.
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, input AddCartItemInput) (*models.CartItem, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	var result *models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("PRODUCT_NOT_FOUND", "Product not found")
			}
			return err
		}
		if !product.Active {
			return invalid("PRODUCT_UNAVAILABLE", "Product is not available")
		}

		if input.ProductColorID != nil {
			var color models.ProductColor
			if err := tx.Where("id = ? AND product_id = ?", *input.ProductColorID, product.ID).First(&color).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("COLOR_NOT_FOUND", "Color does not belong to this product")
				}
				return err
			}
			if !color.InStock {
				return invalid("OUT_OF_STOCK", "This color is out of stock")
			}
		}

		cart, err := findOrCreateCart(tx, owner)
		if err != nil {
			return err
		}

		existing, err := findLine(tx, cart.ID, product.ID, input.ProductColorID)
		switch {
		case err == nil:
			if err := tx.Model(existing).Update("quantity", input.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
			existing.Quantity = input.Quantity
			result = existing
		case errors.Is(err, ErrNotFound):
			item := models.CartItem{
				CartID:         cart.ID,
				ProductID:      product.ID,
				ProductColorID: input.ProductColorID,
				Quantity:       input.Quantity,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to add cart item: %w", err)
			}
			result = &item
		default:
			return err
		}
		return tx.Model(cart).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ownedItem loads a cart item only if it sits in the owner's cart
func ownedItem(db *gorm.DB, owner CartOwner, itemID uint) (*models.CartItem, error) {
	cart, err := findCart(db, owner)
	if err != nil {
		return nil, err
	}
	var item models.CartItem
	if err := db.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &item, nil
}

// UpdateItemQuantity sets the quantity of one line in the owner's cart
func (s *CartService) UpdateItemQuantity(ctx context.Context, owner CartOwner, itemID uint, quantity int) (*models.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	item, err := ownedItem(db, owner, itemID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(item).Update("quantity", quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes one line from the owner's cart
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, itemID uint) error {
	db := s.db.WithContext(ctx)

	item, err := ownedItem(db, owner, itemID)
	if err != nil {
		return err
	}
	if err := db.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear deletes every line of the owner's cart. The cart row itself is kept.
func (s *CartService) Clear(ctx context.Context, owner CartOwner) error {
	db := s.db.WithContext(ctx)

	cart, err := findCart(db, owner)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// MergeAnonymousCart folds the cart of an anonymous session into the customer's cart.
// Lines present in both keep the larger quantity; lines only in the anonymous cart move
// over. Quantities are capped at MaxLineQuantity. The anonymous cart is deleted. Returns the number of
// lines taken from the anonymous cart.
func MergeAnonymousCart(tx *gorm.DB, sessionID string, customerID uint) (int, error) {
	anon, err := findCart(tx, AnonymousOwner(sessionID))
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var anonItems []models.CartItem
	if err := tx.Where("cart_id = ?", anon.ID).Find(&anonItems).Error; err != nil {
		return 0, fmt.Errorf("failed to load anonymous cart: %w", err)
	}

	target, err := findOrCreateCart(tx, CustomerOwner(customerID))
	if err != nil {
		return 0, err
	}

	for _, item := range anonItems {
		qty := item.Quantity
		existing, err := findLine(tx, target.ID, item.ProductID, item.ProductColorID)
		switch {
		case err == nil:
			if existing.Quantity > qty {
				qty = existing.Quantity
			}
			if qty > MaxLineQuantity {
				qty = MaxLineQuantity
			}
			if err := tx.Model(existing).Update("quantity", qty).Error; err != nil {
				return 0, fmt.Errorf("failed to merge cart item: %w", err)
			}
		case errors.Is(err, ErrNotFound):
			if qty > MaxLineQuantity {
				qty = MaxLineQuantity
			}
			moved := models.CartItem{
				CartID:         target.ID,
				ProductID:      item.ProductID,
				ProductColorID: item.ProductColorID,
				Quantity:       qty,
			}
			if err := tx.Create(&moved).Error; err != nil {
				return 0, fmt.Errorf("failed to move cart item: %w", err)
			}
		default:
			return 0, err
		}
	}

	if err := tx.Where("cart_id = ?", anon.ID).Delete(&models.CartItem{}).Error; err != nil {
		return 0, fmt.Errorf("failed to empty anonymous cart: %w", err)
	}
	if err := tx.Delete(anon).Error; err != nil {
		return 0, fmt.Errorf("failed to delete anonymous cart: %w", err)
	}

	metrics.CartsMerged.Inc()
	zlog.Info().Uint("customer_id", customerID).Int("lines", len(anonItems)).Msg("merged anonymous cart")
	return len(anonItems), nil
}
