package services

import (
	"context"
	"testing"

	"github.com/sareehouse/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anonToken = "0b7f7d2a-54b0-4e4e-9d1b-6c1c2f4a9e01"

func TestCartService_AddItemReplacesQuantity(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := NewCartService(db)
	ctx := context.Background()
	owner := AnonymousOwner(anonToken)

	_, err := svc.AddItem(ctx, owner, AddCartItemInput{ProductID: f.Product.ID, ProductColorID: &f.Red.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, AddCartItemInput{ProductID: f.Product.ID, ProductColorID: &f.Red.ID, Quantity: 5})
	require.NoError(t, err)

	var items []models.CartItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestCartService_LinesAreKeyedByColor(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := NewCartService(db)
	ctx := context.Background()
	owner := CustomerOwner(seedCustomer(t, db, "9876543210").ID)

	inputs := []AddCartItemInput{
		{ProductID: f.Product.ID, ProductColorID: &f.Red.ID, Quantity: 1},
		{ProductID: f.Product.ID, ProductColorID: &f.Blue.ID, Quantity: 2},
		{ProductID: f.Product.ID, Quantity: 3},
		{ProductID: f.Product.ID, Quantity: 4},
	}
	for _, in := range inputs {
		_, err := svc.AddItem(ctx, owner, in)
		require.NoError(t, err)
	}

	view, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 3)
	assert.Equal(t, 1+2+4, view.ItemCount)
	assert.True(t, decimal.RequireFromString("7000").Equal(view.Subtotal))
}

func TestCartService_AddItemValidation(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := NewCartService(db)
	owner := AnonymousOwner(anonToken)

	other := seedProduct(t, db, f.Category.ID, "plain-cotton", "500")
	inactive := seedProduct(t, db, f.Category.ID, "retired", "500")
	require.NoError(t, db.Model(&inactive).Update("active", false).Error)
	require.NoError(t, db.Model(&f.Blue).Update("in_stock", false).Error)

	tests := []struct {
		name     string
		input    AddCartItemInput
		wantCode string
	}{
		{"zero quantity", AddCartItemInput{ProductID: f.Product.ID, Quantity: 0}, "INVALID_QUANTITY"},
		{"over the line cap", AddCartItemInput{ProductID: f.Product.ID, Quantity: 100}, "INVALID_QUANTITY"},
		{"unknown product", AddCartItemInput{ProductID: 999, Quantity: 1}, "PRODUCT_NOT_FOUND"},
		{"inactive product", AddCartItemInput{ProductID: inactive.ID, Quantity: 1}, "PRODUCT_UNAVAILABLE"},
		{"color of another product", AddCartItemInput{ProductID: other.ID, ProductColorID: &f.Red.ID, Quantity: 1}, "COLOR_NOT_FOUND"},
		{"out of stock color", AddCartItemInput{ProductID: f.Product.ID, ProductColorID: &f.Blue.ID, Quantity: 1}, "OUT_OF_STOCK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(context.Background(), owner, tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantCode, verr.Code)
		})
	}

	var count int64
	db.Model(&models.CartItem{}).Count(&count)
	assert.Zero(t, count)
}

func TestCartService_GetReflectsLiveCatalog(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := NewCartService(db)
	ctx := context.Background()
	owner := AnonymousOwner(anonToken)

	require.NoError(t, db.Create(&models.ProductImage{ProductColorID: f.Red.ID, URL: "https://img/red.jpg", PublicID: "red", IsPrimary: true}).Error)
	require.NoError(t, db.Create(&models.ProductImage{ProductColorID: f.Blue.ID, URL: "https://img/blue.jpg", PublicID: "blue", IsPrimary: true}).Error)

	_, err := svc.AddItem(ctx, owner, AddCartItemInput{ProductID: f.Product.ID, ProductColorID: &f.Blue.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, AddCartItemInput{ProductID: f.Product.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, db.Model(&f.Product).Updates(map[string]interface{}{
		"name":           "Royal Banarasi Deluxe",
		"discount_type":  models.DiscountPercentage,
		"discount_value": decimal.NewFromInt(10),
	}).Error)

	view, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	blue := view.Items[0]
	assert.Equal(t, "Royal Banarasi Deluxe", blue.ProductName)
	assert.Equal(t, "Blue", blue.Color)
	assert.Equal(t, "900", blue.Price.String())
	assert.Equal(t, "1000", blue.OriginalPrice.String())
	require.NotNil(t, blue.ImageURL)
	assert.Equal(t, "https://img/blue.jpg", *blue.ImageURL)

	// no color chosen: first primary image of the product
	plain := view.Items[1]
	require.NotNil(t, plain.ImageURL)
	assert.Equal(t, "https://img/red.jpg", *plain.ImageURL)

	assert.Equal(t, "2700", view.Subtotal.String())
}

func TestCartService_EmptyCartView(t *testing.T) {
	db := setupTestDB(t)
	view, err := NewCartService(db).Get(context.Background(), AnonymousOwner(anonToken))
	require.NoError(t, err)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.True(t, view.Subtotal.IsZero())
}

func TestCartService_ItemOwnership(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := NewCartService(db)
	ctx := context.Background()

	mine := CustomerOwner(seedCustomer(t, db, "9000000001").ID)
	theirs := AnonymousOwner(anonToken)

	item, err := svc.AddItem(ctx, mine, AddCartItemInput{ProductID: f.Product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, theirs, AddCartItemInput{ProductID: f.Product.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, theirs, item.ID, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.RemoveItem(ctx, theirs, item.ID), ErrNotFound)

	updated, err := svc.UpdateItemQuantity(ctx, mine, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	_, err = svc.UpdateItemQuantity(ctx, mine, item.ID, 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.RemoveItem(ctx, mine, item.ID))
	view, err := svc.Get(ctx, mine)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartService_ClearKeepsCartRow(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := NewCartService(db)
	ctx := context.Background()
	owner := AnonymousOwner(anonToken)

	_, err := svc.AddItem(ctx, owner, AddCartItemInput{ProductID: f.Product.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, owner))

	var carts, items int64
	db.Model(&models.Cart{}).Count(&carts)
	db.Model(&models.CartItem{}).Count(&items)
	assert.Equal(t, int64(1), carts)
	assert.Zero(t, items)

	// clearing a cart that was never created is fine
	assert.NoError(t, svc.Clear(ctx, AnonymousOwner("6a1c1c4e-0000-4000-8000-000000000000")))
}

func TestMergeAnonymousCart(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := NewCartService(db)
	ctx := context.Background()
	customer := seedCustomer(t, db, "9000000002")
	other := seedProduct(t, db, f.Category.ID, "kanjivaram", "2500")

	anon := AnonymousOwner(anonToken)
	mine := CustomerOwner(customer.ID)

	// shared line: anonymous 4, customer 2 -> 4
	_, err := svc.AddItem(ctx, anon, AddCartItemInput{ProductID: f.Product.ID, ProductColorID: &f.Red.ID, Quantity: 4})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, mine, AddCartItemInput{ProductID: f.Product.ID, ProductColorID: &f.Red.ID, Quantity: 2})
	require.NoError(t, err)
	// anonymous-only line moves over
	_, err = svc.AddItem(ctx, anon, AddCartItemInput{ProductID: other.ID, Quantity: 1})
	require.NoError(t, err)
	// customer-only line stays
	_, err = svc.AddItem(ctx, mine, AddCartItemInput{ProductID: f.Product.ID, ProductColorID: &f.Blue.ID, Quantity: 7})
	require.NoError(t, err)

	moved, err := MergeAnonymousCart(db, anonToken, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	view, err := svc.Get(ctx, mine)
	require.NoError(t, err)
	got := map[string]int{}
	for _, line := range view.Items {
		got[line.ProductSlug+"/"+line.Color] = line.Quantity
	}
	assert.Equal(t, map[string]int{
		"royal-banarasi/Red":  4,
		"royal-banarasi/Blue": 7,
		"kanjivaram/":         1,
	}, got)

	var anonCarts int64
	db.Model(&models.Cart{}).Where("session_id = ?", anonToken).Count(&anonCarts)
	assert.Zero(t, anonCarts)
}

func TestMergeAnonymousCart_CapsQuantity(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	customer := seedCustomer(t, db, "9000000003")

	anonCart := models.Cart{SessionID: strPtr(anonToken)}
	require.NoError(t, db.Create(&anonCart).Error)
	// written directly: the service never allows more than MaxLineQuantity
	require.NoError(t, db.Create(&models.CartItem{CartID: anonCart.ID, ProductID: f.Product.ID, Quantity: 150}).Error)

	_, err := MergeAnonymousCart(db, anonToken, customer.ID)
	require.NoError(t, err)

	view, err := NewCartService(db).Get(context.Background(), CustomerOwner(customer.ID))
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, MaxLineQuantity, view.Items[0].Quantity)
}

func TestMergeAnonymousCart_NoAnonymousCart(t *testing.T) {
	db := setupTestDB(t)
	customer := seedCustomer(t, db, "9000000004")

	moved, err := MergeAnonymousCart(db, anonToken, customer.ID)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestSessionTokens(t *testing.T) {
	assert.True(t, ValidSessionToken(NewSessionToken()))
	assert.False(t, ValidSessionToken(""))
	assert.False(t, ValidSessionToken("not-a-uuid"))
}
