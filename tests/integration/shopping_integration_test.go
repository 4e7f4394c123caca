package integration

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/routes"
	"github.com/sareehouse/storefront-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// ShoppingIntegrationTestSuite drives the storefront API through the real router and token middleware
type ShoppingIntegrationTestSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	shop   testutil.Shop
}

// SetupSuite runs once before all tests
func (suite *ShoppingIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

// SetupTest runs before each test with a fresh database
func (suite *ShoppingIntegrationTestSuite) SetupTest() {
	suite.db, suite.cfg = testutil.SetupApp(suite.T())
	suite.shop = testutil.SeedShop(suite.T(), suite.db)
	suite.router = routes.SetupRouter(suite.cfg)
}

// login signs in by OTP, optionally handing over an anonymous cart session
func (suite *ShoppingIntegrationTestSuite) login(phone, session string) (map[string]string, int) {
	headers := map[string]string{}
	if session != "" {
		headers[middleware.SessionHeader] = session
	}
	w := doRequest(suite.router, http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{
		"phone_number": phone, "code": "123456", "name": "Anjali",
	}, headers)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var signedIn struct {
		Token       string `json:"token"`
		MergedLines int    `json:"merged_lines"`
	}
	decodeData(suite.T(), w, &signedIn)
	suite.Require().NotEmpty(signedIn.Token)
	return testutil.Bearer(signedIn.Token), signedIn.MergedLines
}

func (suite *ShoppingIntegrationTestSuite) addToCart(headers map[string]string, quantity int) *cartView {
	w := doRequest(suite.router, http.MethodPost, "/api/v1/cart", map[string]interface{}{
		"product_id":       suite.shop.Product.ID,
		"product_color_id": suite.shop.Color.ID,
		"quantity":         quantity,
	}, headers)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var line cartLine
	decodeData(suite.T(), w, &line)
	suite.Require().Equal(quantity, line.Quantity)
	return suite.getCart(headers)
}

func (suite *ShoppingIntegrationTestSuite) getCart(headers map[string]string) *cartView {
	w := doRequest(suite.router, http.MethodGet, "/api/v1/cart", nil, headers)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var cart cartView
	decodeData(suite.T(), w, &cart)
	return &cart
}

func (suite *ShoppingIntegrationTestSuite) createAddress(auth map[string]string, name string, isDefault bool) uint {
	w := doRequest(suite.router, http.MethodPost, "/api/v1/addresses", map[string]interface{}{
		"name":          name,
		"phone_number":  "9876543210",
		"address_line1": "21 Weavers Colony",
		"city":          "Varanasi",
		"state":         "Uttar Pradesh",
		"pincode":       "221001",
		"is_default":    isDefault,
	}, auth)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var address struct {
		ID uint `json:"id"`
	}
	decodeData(suite.T(), w, &address)
	return address.ID
}

// TestAnonymousCartMergesOnLogin covers the hand-over of an anonymous cart at OTP sign-in
func (suite *ShoppingIntegrationTestSuite) TestAnonymousCartMergesOnLogin() {
	auth, merged := suite.login("9876543210", "")
	suite.Equal(0, merged)
	suite.addToCart(auth, 3)

	// Shop anonymously: the server issues a session token on first contact
	w := doRequest(suite.router, http.MethodGet, "/api/v1/cart", nil, nil)
	session := w.Header().Get(middleware.SessionHeader)
	suite.Require().NotEmpty(session)
	anon := map[string]string{middleware.SessionHeader: session}
	cart := suite.addToCart(anon, 5)
	suite.Equal(5, cart.Items[0].Quantity)

	auth, merged = suite.login("9876543210", session)
	suite.Equal(1, merged)

	cart = suite.getCart(auth)
	suite.Require().Len(cart.Items, 1)
	suite.Equal(5, cart.Items[0].Quantity, "the larger quantity wins")
	suite.Equal("12500", cart.Subtotal)

	// The anonymous cart is gone
	cart = suite.getCart(anon)
	suite.Empty(cart.Items)
}

// TestCheckoutFlow places an order from the cart and cancels it
func (suite *ShoppingIntegrationTestSuite) TestCheckoutFlow() {
	auth, _ := suite.login("9123456789", "")
	addressID := suite.createAddress(auth, "Home", false)
	suite.addToCart(auth, 2)

	w := doRequest(suite.router, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"address_id":     addressID,
		"payment_method": "UPI",
		"notes":          "Please gift wrap",
	}, auth)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var order orderView
	decodeData(suite.T(), w, &order)
	suite.Equal("PENDING", order.Status)
	suite.Equal("5000", order.Total)
	suite.Require().Len(order.Items, 1)
	suite.Equal("Zari Banarasi Silk", order.Items[0].ProductName)
	suite.Equal(2, order.Items[0].Quantity)

	suite.Empty(suite.getCart(auth).Items, "checkout clears the cart")

	w = doRequest(suite.router, http.MethodGet, "/api/v1/orders", nil, auth)
	suite.Require().Equal(http.StatusOK, w.Code)
	resp := decodeEnvelope(suite.T(), w)
	suite.Require().NotNil(resp.Pagination)
	suite.Equal(1, resp.Pagination.Total)

	// Checking out an empty cart fails
	w = doRequest(suite.router, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"address_id": addressID, "payment_method": "COD",
	}, auth)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("EMPTY_CART", decodeEnvelope(suite.T(), w).Code)

	cancelURL := "/api/v1/orders/" + itoa(order.ID) + "/cancel"
	w = doRequest(suite.router, http.MethodPost, cancelURL, nil, auth)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	decodeData(suite.T(), w, &order)
	suite.Equal("CANCELLED", order.Status)

	w = doRequest(suite.router, http.MethodPost, cancelURL, nil, auth)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("CANNOT_CANCEL", decodeEnvelope(suite.T(), w).Code)
}

// TestOrdersAreIsolatedBetweenCustomers checks one customer cannot read another's order
func (suite *ShoppingIntegrationTestSuite) TestOrdersAreIsolatedBetweenCustomers() {
	owner, _ := suite.login("9000000001", "")
	addressID := suite.createAddress(owner, "Home", true)
	suite.addToCart(owner, 1)
	w := doRequest(suite.router, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"address_id": addressID, "payment_method": "COD",
	}, owner)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var order orderView
	decodeData(suite.T(), w, &order)

	stranger, _ := suite.login("9000000002", "")
	w = doRequest(suite.router, http.MethodGet, "/api/v1/orders/"+itoa(order.ID), nil, stranger)
	suite.Equal(http.StatusNotFound, w.Code)

	// Nor order against someone else's address
	suite.addToCart(stranger, 1)
	w = doRequest(suite.router, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"address_id": addressID, "payment_method": "COD",
	}, stranger)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_ADDRESS", decodeEnvelope(suite.T(), w).Code)
}

// TestAddressDefaultReassignment keeps exactly one default address per customer
func (suite *ShoppingIntegrationTestSuite) TestAddressDefaultReassignment() {
	auth, _ := suite.login("9555512345", "")
	first := suite.createAddress(auth, "Home", false)
	second := suite.createAddress(auth, "Office", true)

	defaults := func() []uint {
		w := doRequest(suite.router, http.MethodGet, "/api/v1/addresses", nil, auth)
		suite.Require().Equal(http.StatusOK, w.Code)
		var addresses []struct {
			ID        uint `json:"id"`
			IsDefault bool `json:"is_default"`
		}
		decodeData(suite.T(), w, &addresses)
		var ids []uint
		for _, a := range addresses {
			if a.IsDefault {
				ids = append(ids, a.ID)
			}
		}
		return ids
	}

	suite.Equal([]uint{second}, defaults())

	w := doRequest(suite.router, http.MethodDelete, "/api/v1/addresses/"+itoa(second), nil, auth)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal([]uint{first}, defaults())
}

// TestCartValidation covers quantity bounds and unknown products
func (suite *ShoppingIntegrationTestSuite) TestCartValidation() {
	tests := []struct {
		name     string
		body     map[string]interface{}
		wantCode string
	}{
		{"zero quantity", map[string]interface{}{"product_id": suite.shop.Product.ID, "quantity": 0}, "VALIDATION_ERROR"},
		{"too many", map[string]interface{}{"product_id": suite.shop.Product.ID, "quantity": 100}, "INVALID_QUANTITY"},
		{"unknown product", map[string]interface{}{"product_id": 9999, "quantity": 1}, "PRODUCT_NOT_FOUND"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := doRequest(suite.router, http.MethodPost, "/api/v1/cart", tt.body, nil)
			suite.Equal(http.StatusBadRequest, w.Code, w.Body.String())
			suite.Equal(tt.wantCode, decodeEnvelope(suite.T(), w).Code)
		})
	}
}

// TestProfile reads and edits the signed-in customer's profile
func (suite *ShoppingIntegrationTestSuite) TestProfile() {
	auth, _ := suite.login("9444433322", "")

	w := doRequest(suite.router, http.MethodPatch, "/api/v1/me", map[string]string{
		"name": "  Anjali Rao ", "email": "Anjali@Example.com",
	}, auth)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = doRequest(suite.router, http.MethodGet, "/api/v1/me", nil, auth)
	var profile struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	decodeData(suite.T(), w, &profile)
	assert.Equal(suite.T(), "Anjali Rao", profile.Name)
	assert.Equal(suite.T(), "anjali@example.com", profile.Email)
}

// TestShoppingIntegrationTestSuite runs the test suite
func TestShoppingIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ShoppingIntegrationTestSuite))
}
