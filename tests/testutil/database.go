package testutil

import (
	"testing"
	"time"

	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/services"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestConfig returns a config suitable for router level tests: stub OTP,
// a fixed signing secret and no image bucket
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "8080",
		GoEnv:              "test",
		LogLevel:           "error",
		JWTSecret:          "integration-test-secret",
		JWTIssuer:          "saree-storefront",
		JWTAudience:        "saree-storefront-api",
		SessionCookieName:  "session",
		SessionTTL:         time.Hour,
		OTPMode:            "stub",
		OTPTTL:             5 * time.Minute,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

// SetupApp opens a migrated in-memory database and installs it, the test
// config and a stub OTP store as the process-wide singletons
func SetupApp(t *testing.T) (*gorm.DB, *config.Config) {
	t.Helper()
	MustSetTestEnvironment(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get test database handle: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := TestConfig()
	config.SetDB(db)
	config.SetConfig(cfg)
	services.SetOTPStore(services.StubOTPStore{})
	services.SetImageService(nil)

	t.Cleanup(func() { sqlDB.Close() })
	return db, cfg
}

// Shop is a minimal active catalog
type Shop struct {
	Section  models.Section
	Category models.Category
	Product  models.Product
	Color    models.ProductColor
}

// SeedShop creates one active section, category, product priced 2500.00 and color
func SeedShop(t *testing.T, db *gorm.DB) Shop {
	t.Helper()
	s := Shop{}
	s.Section = models.Section{Name: "Sarees", Slug: "sarees", Active: true}
	mustCreate(t, db, &s.Section)
	s.Category = models.Category{SectionID: s.Section.ID, Name: "Banarasi", Slug: "banarasi", Active: true}
	mustCreate(t, db, &s.Category)
	s.Product = models.Product{
		CategoryID:    s.Category.ID,
		Name:          "Zari Banarasi Silk",
		Slug:          "zari-banarasi-silk",
		Price:         decimal.RequireFromString("2500.00"),
		DiscountType:  models.DiscountNone,
		DiscountValue: decimal.Zero,
		Active:        true,
	}
	mustCreate(t, db, &s.Product)
	s.Color = models.ProductColor{ProductID: s.Product.ID, Color: "Royal Blue", ColorCode: "#1f3b8c", InStock: true}
	mustCreate(t, db, &s.Color)
	return s
}

// CreateAdmin stores an active staff account with a real bcrypt hash
func CreateAdmin(t *testing.T, db *gorm.DB, email, password string, role models.Role) models.AdminUser {
	t.Helper()
	hash, err := services.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	admin := models.AdminUser{Email: email, Name: string(role), PasswordHash: hash, Role: role, Active: true}
	mustCreate(t, db, &admin)
	return admin
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("failed to create %T: %v", value, err)
	}
}
