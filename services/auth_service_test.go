package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixedOTP accepts a single code
type fixedOTP struct {
	code   string
	issued []string
	err    error
}

func (f *fixedOTP) Issue(_ context.Context, phone string) error {
	f.issued = append(f.issued, phone)
	return f.err
}

func (f *fixedOTP) Verify(_ context.Context, _ string, code string) (bool, error) {
	return code == f.code, f.err
}

func testTokenService() *TokenService {
	return NewTokenService(&config.Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "saree-storefront",
		JWTAudience: "saree-storefront-api",
		SessionTTL:  time.Hour,
	})
}

func newTestAuthService(db *gorm.DB, otp OTPStore) *AuthService {
	return NewAuthService(db, otp, testTokenService())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "98765 43210", want: "9876543210"},
		{in: "+91-98765-43210", want: "+919876543210"},
		{in: "(022) 2345 6789", want: "02223456789"},
		{in: "12345", wantErr: true},
		{in: "98765abcde", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthService_RequestOTP(t *testing.T) {
	otp := &fixedOTP{code: "123456"}
	svc := newTestAuthService(setupTestDB(t), otp)

	require.NoError(t, svc.RequestOTP(context.Background(), "98765 43210"))
	assert.Equal(t, []string{"9876543210"}, otp.issued)

	var verr *ValidationError
	assert.ErrorAs(t, svc.RequestOTP(context.Background(), "abc"), &verr)

	otp.err = errors.New("redis down")
	assert.Error(t, svc.RequestOTP(context.Background(), "9876543210"))
}

func TestAuthService_VerifyOTPRegistersAndMerges(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	svc := newTestAuthService(db, &fixedOTP{code: "123456"})
	ctx := context.Background()

	_, err := NewCartService(db).AddItem(ctx, AnonymousOwner(anonToken), AddCartItemInput{ProductID: f.Product.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, VerifyOTPInput{PhoneNumber: "9876543210", Code: "000000"}, anonToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	session, err := svc.VerifyOTP(ctx, VerifyOTPInput{PhoneNumber: "98765-43210", Code: "123456", Name: "Meera"}, anonToken)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, 1, session.MergedLines)
	require.NotNil(t, session.Customer.Name)
	assert.Equal(t, "Meera", *session.Customer.Name)

	view, err := NewCartService(db).Get(ctx, CustomerOwner(session.Customer.ID))
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	// second sign-in reuses the account
	again, err := svc.VerifyOTP(ctx, VerifyOTPInput{PhoneNumber: "9876543210", Code: "123456"}, "")
	require.NoError(t, err)
	assert.Equal(t, session.Customer.ID, again.Customer.ID)
	assert.Zero(t, again.MergedLines)

	var customers int64
	db.Model(&models.Customer{}).Count(&customers)
	assert.Equal(t, int64(1), customers)
}

func TestAuthService_StubAcceptsAnyCode(t *testing.T) {
	svc := newTestAuthService(setupTestDB(t), StubOTPStore{})
	session, err := svc.VerifyOTP(context.Background(), VerifyOTPInput{PhoneNumber: "9876543210", Code: "42"}, "")
	require.NoError(t, err)
	assert.NotZero(t, session.Customer.ID)
}

func TestAuthService_AdminLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(db, StubOTPStore{})
	ctx := context.Background()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	admin := models.AdminUser{Email: "owner@sareehouse.in", Name: "Owner", PasswordHash: hash, Role: models.RoleShopManager, Active: true}
	require.NoError(t, db.Create(&admin).Error)

	session, err := svc.AdminLogin(ctx, " Owner@SareeHouse.in ", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.Permissions.CanAddEditProducts)
	assert.False(t, session.Permissions.CanManageAdmins)
	require.NotNil(t, session.Admin.LastLoginAt)

	_, err = svc.AdminLogin(ctx, "owner@sareehouse.in", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.AdminLogin(ctx, "nobody@sareehouse.in", "correct horse")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, db.Model(&admin).Update("active", false).Error)
	_, err = svc.AdminLogin(ctx, "owner@sareehouse.in", "correct horse")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHashPassword_RejectsShort(t *testing.T) {
	_, err := HashPassword("short")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
