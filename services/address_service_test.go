package services

import (
	"context"
	"testing"

	"github.com/sareehouse/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type AddressServiceSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      *AddressService
	ctx      context.Context
	customer models.Customer
}

func TestAddressServiceSuite(t *testing.T) {
	suite.Run(t, new(AddressServiceSuite))
}

func (s *AddressServiceSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.svc = NewAddressService(s.db)
	s.ctx = context.Background()
	s.customer = seedCustomer(s.T(), s.db, "9811122233")
}

func (s *AddressServiceSuite) input(name string, isDefault bool) AddressInput {
	return AddressInput{
		Name:         name,
		PhoneNumber:  "9811122233",
		AddressLine1: "12 MG Road",
		City:         "Varanasi",
		State:        "Uttar Pradesh",
		Pincode:      "221001",
		IsDefault:    isDefault,
	}
}

func (s *AddressServiceSuite) create(name string, isDefault bool) *models.Address {
	a, err := s.svc.Create(s.ctx, s.customer.ID, s.input(name, isDefault))
	s.Require().NoError(err)
	return a
}

// defaults returns the names of the customer's default addresses
func (s *AddressServiceSuite) defaults() []string {
	var names []string
	s.Require().NoError(s.db.Model(&models.Address{}).
		Where("customer_id = ? AND is_default = ?", s.customer.ID, true).
		Pluck("name", &names).Error)
	return names
}

func (s *AddressServiceSuite) TestFirstAddressBecomesDefault() {
	a := s.create("Home", false)
	s.True(a.IsDefault)
	s.Equal([]string{"Home"}, s.defaults())
}

func (s *AddressServiceSuite) TestCreateDefaultMovesFlag() {
	s.create("Home", false)
	office := s.create("Office", true)
	s.True(office.IsDefault)
	s.Equal([]string{"Office"}, s.defaults())

	s.create("Parents", false)
	s.Equal([]string{"Office"}, s.defaults())
}

func (s *AddressServiceSuite) TestUpdateSetDefault() {
	s.create("Home", false)
	office := s.create("Office", false)

	updated, err := s.svc.Update(s.ctx, s.customer.ID, office.ID, AddressUpdate{IsDefault: boolPtr(true), City: strPtr("Kolkata")})
	s.Require().NoError(err)
	s.True(updated.IsDefault)
	s.Equal("Kolkata", updated.City)
	s.Equal([]string{"Office"}, s.defaults())
}

func (s *AddressServiceSuite) TestUnsetDefaultPromotesAnother() {
	home := s.create("Home", false)
	s.create("Office", false)

	updated, err := s.svc.Update(s.ctx, s.customer.ID, home.ID, AddressUpdate{IsDefault: boolPtr(false)})
	s.Require().NoError(err)
	s.False(updated.IsDefault)
	s.Equal([]string{"Office"}, s.defaults())
}

func (s *AddressServiceSuite) TestUnsetOnlyDefaultRejected() {
	home := s.create("Home", false)

	_, err := s.svc.Update(s.ctx, s.customer.ID, home.ID, AddressUpdate{IsDefault: boolPtr(false)})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("DEFAULT_REQUIRED", verr.Code)
	s.Equal([]string{"Home"}, s.defaults())
}

func (s *AddressServiceSuite) TestDeleteDefaultReassigns() {
	a := s.create("A", false)
	b := s.create("B", false)

	s.Require().NoError(s.svc.Delete(s.ctx, s.customer.ID, a.ID))
	s.Equal([]string{"B"}, s.defaults())

	s.Require().NoError(s.svc.Delete(s.ctx, s.customer.ID, b.ID))
	list, err := s.svc.List(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *AddressServiceSuite) TestDeleteNonDefaultKeepsDefault() {
	s.create("A", false)
	b := s.create("B", false)

	s.Require().NoError(s.svc.Delete(s.ctx, s.customer.ID, b.ID))
	s.Equal([]string{"A"}, s.defaults())
}

func (s *AddressServiceSuite) TestDeleteAddressUsedByOrder() {
	a := s.create("A", false)
	order := models.Order{
		OrderNumber: "ORD-1", CustomerID: s.customer.ID, AddressID: a.ID,
		Status: models.StatusPending, PaymentMethod: models.PaymentCOD,
	}
	s.Require().NoError(s.db.Create(&order).Error)

	err := s.svc.Delete(s.ctx, s.customer.ID, a.ID)
	var cerr *ConflictError
	s.Require().ErrorAs(err, &cerr)
	s.Equal("ADDRESS_IN_USE", cerr.Code)
}

func (s *AddressServiceSuite) TestForeignAddressIsNotFound() {
	a := s.create("A", false)
	stranger := seedCustomer(s.T(), s.db, "9000011111")

	_, err := s.svc.Get(s.ctx, stranger.ID, a.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.svc.Update(s.ctx, stranger.ID, a.ID, AddressUpdate{City: strPtr("Pune")})
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.svc.Delete(s.ctx, stranger.ID, a.ID), ErrNotFound)
}

func (s *AddressServiceSuite) TestListDefaultFirst() {
	s.create("A", false)
	s.create("B", true)
	s.create("C", false)

	list, err := s.svc.List(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("B", list[0].Name)
}

// The single-default invariant holds after an arbitrary mix of operations
func TestAddressService_SingleDefaultInvariant(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAddressService(db)
	ctx := context.Background()
	customer := seedCustomer(t, db, "9822233344")

	in := func(name string, def bool) AddressInput {
		return AddressInput{Name: name, PhoneNumber: "9822233344", AddressLine1: "x", City: "c", State: "s", Pincode: "400001", IsDefault: def}
	}
	check := func(step string) {
		var total, defaults int64
		db.Model(&models.Address{}).Where("customer_id = ?", customer.ID).Count(&total)
		db.Model(&models.Address{}).Where("customer_id = ? AND is_default = ?", customer.ID, true).Count(&defaults)
		if total == 0 {
			assert.Zero(t, defaults, step)
			return
		}
		assert.Equal(t, int64(1), defaults, step)
	}

	a, err := svc.Create(ctx, customer.ID, in("a", false))
	require.NoError(t, err)
	check("create a")
	b, err := svc.Create(ctx, customer.ID, in("b", true))
	require.NoError(t, err)
	check("create b default")
	c, err := svc.Create(ctx, customer.ID, in("c", false))
	require.NoError(t, err)
	check("create c")
	_, err = svc.Update(ctx, customer.ID, c.ID, AddressUpdate{IsDefault: boolPtr(true)})
	require.NoError(t, err)
	check("c default")
	_, err = svc.Update(ctx, customer.ID, c.ID, AddressUpdate{IsDefault: boolPtr(false)})
	require.NoError(t, err)
	check("c unset")
	require.NoError(t, svc.Delete(ctx, customer.ID, a.ID))
	check("delete a")
	require.NoError(t, svc.Delete(ctx, customer.ID, b.ID))
	check("delete b")
	require.NoError(t, svc.Delete(ctx, customer.ID, c.ID))
	check("delete c")
}
