package services

import (
	"context"
	"fmt"
	"strings"

	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateAdminInput is the payload for adding a staff account
type CreateAdminInput struct {
	Email    string      `json:"email" binding:"required,email"`
	Name     string      `json:"name" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
}

// UpdateAdminInput is the payload for editing a staff account
type UpdateAdminInput struct {
	Name     *string      `json:"name"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
	Active   *bool        `json:"active"`
}

// AdminUserService manages back-office accounts
type AdminUserService struct {
	db *gorm.DB
}

// NewAdminUserService creates an admin user service
func NewAdminUserService(db *gorm.DB) *AdminUserService {
	return &AdminUserService{db: db}
}

// List returns every staff account ordered by id
func (s *AdminUserService) List(ctx context.Context) ([]models.AdminUser, error) {
	var admins []models.AdminUser
	if err := s.db.WithContext(ctx).Order("id asc").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to list admin users: %w", err)
	}
	return admins, nil
}

// Get returns one staff account
func (s *AdminUserService) Get(ctx context.Context, id uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := s.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &admin, nil
}

// Create adds a staff account
func (s *AdminUserService) Create(ctx context.Context, input CreateAdminInput) (*models.AdminUser, error) {
	if !input.Role.Valid() {
		return nil, invalid("INVALID_ROLE", "Role must be SUPER_ADMIN, SHOP_MANAGER or SALESMAN")
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	admin := models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("EMAIL_EXISTS", "An admin with this email already exists")
		}
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	zlog.Info().Uint("admin_id", admin.ID).Str("role", string(admin.Role)).Msg("admin user created")
	return &admin, nil
}

// ensureAnotherSuperAdmin fails when id is the last active SUPER_ADMIN
func ensureAnotherSuperAdmin(tx *gorm.DB, id uint) error {
	var others int64
	err := tx.Model(&models.AdminUser{}).
		Where("role = ? AND active = ? AND id <> ?", models.RoleSuperAdmin, true, id).
		Count(&others).Error
	if err != nil {
		return err
	}
	if others == 0 {
		return invalid("LAST_SUPER_ADMIN", "At least one active super admin is required")
	}
	return nil
}

// Update edits a staff account. The last active SUPER_ADMIN cannot lose that role or be deactivated.
func (s *AdminUserService) Update(ctx context.Context, id uint, input UpdateAdminInput) (*models.AdminUser, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.AdminUser
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&admin, id).Error; err != nil {
			return notFoundOr(err)
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Password != nil {
			hash, err := HashPassword(*input.Password)
			if err != nil {
				return err
			}
			updates["password_hash"] = hash
		}
		if input.Role != nil {
			if !input.Role.Valid() {
				return invalid("INVALID_ROLE", "Role must be SUPER_ADMIN, SHOP_MANAGER or SALESMAN")
			}
			updates["role"] = *input.Role
		}
		if input.Active != nil {
			updates["active"] = *input.Active
		}

		demoted := input.Role != nil && *input.Role != models.RoleSuperAdmin
		deactivated := input.Active != nil && !*input.Active
		if admin.Role == models.RoleSuperAdmin && admin.Active && (demoted || deactivated) {
			if err := ensureAnotherSuperAdmin(tx, admin.ID); err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&admin).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update admin user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Deactivate disables a staff account; its history is kept
func (s *AdminUserService) Deactivate(ctx context.Context, id uint) error {
	active := false
	_, err := s.Update(ctx, id, UpdateAdminInput{Active: &active})
	return err
}
