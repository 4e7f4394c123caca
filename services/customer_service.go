package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/sareehouse/storefront-api/models"
	"gorm.io/gorm"
)

// ProfileUpdate is the payload for editing a customer profile; nil fields are unchanged
// and empty strings clear the value
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// CustomerSummary is a customer row in the back-office listing
type CustomerSummary struct {
	models.Customer
	OrderCount int64 `json:"order_count"`
}

// CustomerService reads and edits customer accounts
type CustomerService struct {
	db *gorm.DB
}

// NewCustomerService creates a customer service
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// Get returns a customer with their addresses
func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Preload("Addresses", func(db *gorm.DB) *gorm.DB {
		return db.Order("is_default desc, id asc")
	}).First(&customer, id).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &customer, nil
}

// List returns one page of customers, newest first, with their order counts.
// query matches phone, name or email.
func (s *CustomerService) List(ctx context.Context, query string, page, limit int) ([]CustomerSummary, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Customer{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("phone_number LIKE ? OR LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	page, limit = normalizePage(page, limit)
	var customers []models.Customer
	if err := q.Order("created_at desc, id desc").Offset((page - 1) * limit).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}

	out := make([]CustomerSummary, 0, len(customers))
	if len(customers) == 0 {
		return out, total, nil
	}

	ids := make([]uint, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}
	var counts []struct {
		CustomerID uint
		Count      int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("customer_id, COUNT(*) AS count").
		Where("customer_id IN ?", ids).
		Group("customer_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer orders: %w", err)
	}
	byCustomer := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCustomer[c.CustomerID] = c.Count
	}
	for _, c := range customers {
		out = append(out, CustomerSummary{Customer: c, OrderCount: byCustomer[c.ID]})
	}
	return out, total, nil
}

// UpdateProfile edits name and email
func (s *CustomerService) UpdateProfile(ctx context.Context, id uint, input ProfileUpdate) (*models.Customer, error) {
	db := s.db.WithContext(ctx)
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		return nil, notFoundOr(err)
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = nullable(strings.TrimSpace(*input.Name))
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, invalid("INVALID_EMAIL", "Email address is not valid")
			}
		}
		updates["email"] = nullable(email)
	}
	if len(updates) > 0 {
		if err := db.Model(&customer).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update customer: %w", err)
		}
	}
	return s.Get(ctx, id)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
