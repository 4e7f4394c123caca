package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/permissions"
	"github.com/sareehouse/storefront-api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := models.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{
		GoEnv:             "test",
		JWTSecret:         "controller-test-secret",
		JWTIssuer:         "saree-storefront",
		JWTAudience:       "saree-storefront-api",
		SessionCookieName: "session",
		SessionTTL:        time.Hour,
		OTPMode:           "stub",
	})
	services.SetOTPStore(services.StubOTPStore{})
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware sets up the context exactly as the real token middleware does
func mockAuthMiddleware(subject, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject == "" {
			c.Next()
			return
		}
		c.Set("user_id", subject)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: subject},
			CustomClaims:     &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

func customerSubject(id uint) string { return services.Subject(services.KindCustomer, id) }
func adminSubject(id uint) string    { return services.Subject(services.KindAdmin, id) }

// customerGroup returns a group whose requests run behind the customer guard
func customerGroup(router *gin.Engine, subject string) *gin.RouterGroup {
	return router.Group("/", mockAuthMiddleware(subject, ""), middleware.RequireCustomer())
}

// cartGroup mirrors the cart routes: optional session, then owner resolution
func cartGroup(router *gin.Engine, subject string) *gin.RouterGroup {
	return router.Group("/", mockAuthMiddleware(subject, ""), middleware.ResolveCartOwner())
}

// adminGroup returns a group whose requests run as the given admin subject
func adminGroup(router *gin.Engine, subject string) *gin.RouterGroup {
	return router.Group("/admin", mockAuthMiddleware(subject, ""), middleware.RequireAdmin(permissions.Matrix{}))
}

func performRequest(router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := decodeResponse(t, w)["data"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return data
}

func createAdmin(t *testing.T, db *gorm.DB, email string, role models.Role) models.AdminUser {
	t.Helper()
	admin := models.AdminUser{Email: email, Name: string(role), PasswordHash: "x", Role: role, Active: true}
	require.NoError(t, db.Create(&admin).Error)
	return admin
}

func createCustomer(t *testing.T, db *gorm.DB, phone string) models.Customer {
	t.Helper()
	customer := models.Customer{PhoneNumber: phone}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

type shopFixture struct {
	Section  models.Section
	Category models.Category
	Product  models.Product
	Color    models.ProductColor
}

// createShop seeds one active section, category, 1500.00 product and color
func createShop(t *testing.T, db *gorm.DB) shopFixture {
	t.Helper()
	f := shopFixture{}
	f.Section = models.Section{Name: "Sarees", Slug: "sarees", Active: true}
	require.NoError(t, db.Create(&f.Section).Error)
	f.Category = models.Category{SectionID: f.Section.ID, Name: "Kanjivaram", Slug: "kanjivaram", Active: true}
	require.NoError(t, db.Create(&f.Category).Error)
	f.Product = models.Product{
		CategoryID:    f.Category.ID,
		Name:          "Temple Border Kanjivaram",
		Slug:          "temple-border-kanjivaram",
		Price:         decimal.RequireFromString("1500.00"),
		DiscountType:  models.DiscountNone,
		DiscountValue: decimal.Zero,
		Active:        true,
	}
	require.NoError(t, db.Create(&f.Product).Error)
	f.Color = models.ProductColor{ProductID: f.Product.ID, Color: "Maroon", ColorCode: "#800000", InStock: true}
	require.NoError(t, db.Create(&f.Color).Error)
	return f
}

func urlf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// rejectingOTP refuses every code
type rejectingOTP struct{}

func (rejectingOTP) Issue(context.Context, string) error { return nil }

func (rejectingOTP) Verify(context.Context, string, string) (bool, error) { return false, nil }
