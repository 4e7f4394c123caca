package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sareehouse/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressInput carries the fields of an address create request
type AddressInput struct {
	Name         string `json:"name" binding:"required,max=100"`
	PhoneNumber  string `json:"phone_number" binding:"required"`
	AddressLine1 string `json:"address_line1" binding:"required,max=255"`
	AddressLine2 string `json:"address_line2" binding:"max=255"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"required,max=100"`
	Pincode      string `json:"pincode" binding:"required,numeric,len=6"`
	IsDefault    bool   `json:"is_default"`
}

// AddressUpdate carries optional fields of an address update; nil leaves a field unchanged
type AddressUpdate struct {
	Name         *string `json:"name" binding:"omitempty,max=100"`
	PhoneNumber  *string `json:"phone_number"`
	AddressLine1 *string `json:"address_line1" binding:"omitempty,max=255"`
	AddressLine2 *string `json:"address_line2" binding:"omitempty,max=255"`
	City         *string `json:"city" binding:"omitempty,max=100"`
	State        *string `json:"state" binding:"omitempty,max=100"`
	Pincode      *string `json:"pincode" binding:"omitempty,numeric,len=6"`
	IsDefault    *bool   `json:"is_default"`
}

// AddressService maintains customer addresses and the single-default invariant:
// a customer with at least one address has exactly one default address.
type AddressService struct {
	db *gorm.DB
}

// NewAddressService creates an address service
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// lockCustomer serialises address changes for one customer for the rest of the transaction
func lockCustomer(tx *gorm.DB, customerID uint) error {
	var customer models.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, customerID).Error
	return notFoundOr(err)
}

func clearDefaults(tx *gorm.DB, customerID uint, exceptID uint) error {
	q := tx.Model(&models.Address{}).Where("customer_id = ? AND is_default = ?", customerID, true)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}

// promoteAnother makes some address other than excludeID the default, if one exists
func promoteAnother(tx *gorm.DB, customerID, excludeID uint) error {
	var other models.Address
	err := tx.Where("customer_id = ? AND id <> ?", customerID, excludeID).Order("id asc").First(&other).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Model(&other).Update("is_default", true).Error; err != nil {
		return fmt.Errorf("failed to promote default address: %w", err)
	}
	return nil
}

// List returns the customer's addresses, default first
func (s *AddressService) List(ctx context.Context, customerID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default desc, id asc").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// Get returns one of the customer's addresses
func (s *AddressService) Get(ctx context.Context, customerID, addressID uint) (*models.Address, error) {
	var address models.Address
	err := s.db.WithContext(ctx).Where("id = ? AND customer_id = ?", addressID, customerID).First(&address).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &address, nil
}

// Create adds an address. The first address of a customer is always the default;
// otherwise a requested default first clears the flag on the others.
func (s *AddressService) Create(ctx context.Context, customerID uint, input AddressInput) (*models.Address, error) {
	address := models.Address{
		CustomerID:   customerID,
		Name:         input.Name,
		PhoneNumber:  input.PhoneNumber,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		Pincode:      input.Pincode,
		IsDefault:    input.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCustomer(tx, customerID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Address{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			address.IsDefault = true
		} else if address.IsDefault {
			if err := clearDefaults(tx, customerID, 0); err != nil {
				return err
			}
		}

		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// Update changes an address. Setting IsDefault clears it elsewhere first; unsetting it on
// the default promotes another address, and is rejected when no other address exists.
func (s *AddressService) Update(ctx context.Context, customerID, addressID uint, input AddressUpdate) (*models.Address, error) {
	var address models.Address

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCustomer(tx, customerID); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND customer_id = ?", addressID, customerID).First(&address).Error; err != nil {
			return notFoundOr(err)
		}

		updates := map[string]interface{}{}
		setString := func(column string, v *string) {
			if v != nil {
				updates[column] = *v
			}
		}
		setString("name", input.Name)
		setString("phone_number", input.PhoneNumber)
		setString("address_line1", input.AddressLine1)
		setString("address_line2", input.AddressLine2)
		setString("city", input.City)
		setString("state", input.State)
		setString("pincode", input.Pincode)

		if input.IsDefault != nil && *input.IsDefault != address.IsDefault {
			if *input.IsDefault {
				if err := clearDefaults(tx, customerID, address.ID); err != nil {
					return err
				}
				updates["is_default"] = true
			} else {
				var others int64
				if err := tx.Model(&models.Address{}).
					Where("customer_id = ? AND id <> ?", customerID, address.ID).
					Count(&others).Error; err != nil {
					return err
				}
				if others == 0 {
					return invalid("DEFAULT_REQUIRED", "must have at least one default address")
				}
				// Unset first so the partial unique index never sees two defaults
				if err := tx.Model(&address).Update("is_default", false).Error; err != nil {
					return fmt.Errorf("failed to unset default address: %w", err)
				}
				if err := promoteAnother(tx, customerID, address.ID); err != nil {
					return err
				}
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&address).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update address: %w", err)
			}
		}
		return tx.First(&address, address.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// Delete removes an address. Deleting the default hands the flag to another address
// in the same transaction so that no reader sees a customer without a default.
func (s *AddressService) Delete(ctx context.Context, customerID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCustomer(tx, customerID); err != nil {
			return err
		}

		var address models.Address
		if err := tx.Where("id = ? AND customer_id = ?", addressID, customerID).First(&address).Error; err != nil {
			return notFoundOr(err)
		}

		var orders int64
		if err := tx.Model(&models.Order{}).Where("address_id = ?", address.ID).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return conflict("ADDRESS_IN_USE", "Cannot delete an address used by existing orders")
		}

		if address.IsDefault {
			if err := tx.Model(&address).Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to unset default address: %w", err)
			}
			if err := promoteAnother(tx, customerID, address.ID); err != nil {
				return err
			}
		}

		if err := tx.Delete(&address).Error; err != nil {
			return fmt.Errorf("failed to delete address: %w", err)
		}
		return nil
	})
}
