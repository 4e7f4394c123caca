package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/permissions"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// NormalizePhone strips spaces, dashes and brackets and checks what remains looks like a phone number
func NormalizePhone(raw string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if !phonePattern.MatchString(phone) {
		return "", invalid("INVALID_PHONE", "Phone number must have 10 to 15 digits")
	}
	return phone, nil
}

// HashPassword hashes an admin password with bcrypt
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", invalid("WEAK_PASSWORD", "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyOTPInput is the payload of an OTP sign-in
type VerifyOTPInput struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name"`
}

// CustomerSession is the result of a successful customer sign-in
type CustomerSession struct {
	Token       string           `json:"token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Customer    *models.Customer `json:"customer"`
	MergedLines int              `json:"merged_lines"`
}

// AdminSession is the result of a successful back-office sign-in
type AdminSession struct {
	Token       string            `json:"token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Admin       *models.AdminUser `json:"admin"`
	Permissions permissions.Set   `json:"permissions"`
}

// AuthService signs customers in by OTP and staff in by password
type AuthService struct {
	db     *gorm.DB
	otp    OTPStore
	tokens *TokenService
}

// NewAuthService creates an auth service
func NewAuthService(db *gorm.DB, otp OTPStore, tokens *TokenService) *AuthService {
	return &AuthService{db: db, otp: otp, tokens: tokens}
}

// RequestOTP sends a login code to phone
func (s *AuthService) RequestOTP(ctx context.Context, rawPhone string) error {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}
	if err := s.otp.Issue(ctx, phone); err != nil {
		return fmt.Errorf("failed to issue otp: %w", err)
	}
	return nil
}

// findOrCreateCustomer returns the customer with phone, creating it on first sign-in
func findOrCreateCustomer(tx *gorm.DB, phone, name string) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Where("phone_number = ?", phone).First(&customer).Error
	if err == nil {
		if customer.Name == nil && name != "" {
			if err := tx.Model(&customer).Update("name", name).Error; err != nil {
				return nil, err
			}
			customer.Name = &name
		}
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = models.Customer{PhoneNumber: phone}
	if name != "" {
		customer.Name = &name
	}
	err = tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&customer).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			var existing models.Customer
			if err := tx.Where("phone_number = ?", phone).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	zlog.Info().Uint("customer_id", customer.ID).Msg("customer registered")
	return &customer, nil
}

// VerifyOTP checks the code, signs the customer in (registering them if new) and merges the
// anonymous cart named by sessionID into the customer's cart.
func (s *AuthService) VerifyOTP(ctx context.Context, input VerifyOTPInput, sessionID string) (*CustomerSession, error) {
	phone, err := NormalizePhone(input.PhoneNumber)
	if err != nil {
		return nil, err
	}

	ok, err := s.otp.Verify(ctx, phone, strings.TrimSpace(input.Code))
	if err != nil {
		return nil, fmt.Errorf("failed to verify otp: %w", err)
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	var (
		customer *models.Customer
		merged   int
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		customer, err = findOrCreateCustomer(tx, phone, strings.TrimSpace(input.Name))
		if err != nil {
			return err
		}
		if sessionID != "" && ValidSessionToken(sessionID) {
			merged, err = MergeAnonymousCart(tx, sessionID, customer.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(Subject(KindCustomer, customer.ID), "")
	if err != nil {
		return nil, err
	}
	return &CustomerSession{Token: token, ExpiresAt: expiresAt, Customer: customer, MergedLines: merged}, nil
}

// AdminLogin checks staff credentials. Unknown emails, wrong passwords and inactive
// accounts all yield ErrUnauthorized.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AdminSession, error) {
	db := s.db.WithContext(ctx)

	var admin models.AdminUser
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	if !admin.Active {
		zlog.Warn().Uint("admin_id", admin.ID).Msg("login attempt on inactive admin account")
		return nil, ErrUnauthorized
	}

	now := time.Now()
	if err := db.Model(&admin).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	admin.LastLoginAt = &now

	token, expiresAt, err := s.tokens.Issue(Subject(KindAdmin, admin.ID), string(admin.Role))
	if err != nil {
		return nil, err
	}
	return &AdminSession{
		Token:       token,
		ExpiresAt:   expiresAt,
		Admin:       &admin,
		Permissions: permissions.For(admin.Role),
	}, nil
}
