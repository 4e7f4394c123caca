package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/metrics"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/permissions"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaceOrderInput is the checkout payload
type PlaceOrderInput struct {
	AddressID     uint                 `json:"address_id" binding:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	Notes         string               `json:"notes" binding:"max=1000"`
}

// AdminOrderFilter narrows the back-office order listing
type AdminOrderFilter struct {
	Status models.OrderStatus
	Query  string
	Page   int
	Limit  int
}

// OrderService places orders and drives their status workflow
type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewOrderService creates an order service
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

// newOrderNumber returns ORD-YYYYMMDD-HHMMSS-XXXXXX
func newOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102-150405"), suffix)
}

// PlaceOrder turns the customer's cart into an order. The address must belong to the
// customer and the cart must be non-empty. Item names, colors and prices are copied onto
// the order so later catalog edits never change it. The cart is emptied but kept.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID uint, input PlaceOrderInput) (*models.Order, error) {
	if !input.PaymentMethod.Valid() {
		return nil, invalid("INVALID_PAYMENT_METHOD", "Payment method must be COD, UPI, CARD or NET_BANKING")
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("customer_id = ?", customerID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("EMPTY_CART", "Cart is empty")
		}
		if err != nil {
			return err
		}

		var address models.Address
		err = tx.Where("id = ? AND customer_id = ?", input.AddressID, customerID).First(&address).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("INVALID_ADDRESS", "Address not found")
		}
		if err != nil {
			return err
		}

		var items []models.CartItem
		if err := tx.Preload("Product").Preload("ProductColor").
			Where("cart_id = ?", cart.ID).Order("id asc").Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(items) == 0 {
			return invalid("EMPTY_CART", "Cart is empty")
		}

		subtotal, discount := decimal.Zero, decimal.Zero
		lines := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			if item.Product == nil || !item.Product.Active {
				return invalid("PRODUCT_UNAVAILABLE", "A product in your cart is no longer available")
			}
			if item.ProductColor != nil && !item.ProductColor.InStock {
				return invalid("OUT_OF_STOCK",
					fmt.Sprintf("%s in %s is out of stock", item.Product.Name, item.ProductColor.Color))
			}

			qty := decimal.NewFromInt(int64(item.Quantity))
			unit := item.Product.FinalPrice()
			subtotal = subtotal.Add(item.Product.Price.Mul(qty))
			discount = discount.Add(item.Product.Price.Sub(unit).Mul(qty))

			productID := item.ProductID
			line := models.OrderItem{
				ProductID:      &productID,
				ProductColorID: item.ProductColorID,
				ProductName:    item.Product.Name,
				Price:          unit,
				Quantity:       item.Quantity,
				Subtotal:       unit.Mul(qty),
			}
			if item.ProductColor != nil {
				line.ProductColor = item.ProductColor.Color
			}
			lines = append(lines, line)
		}

		order = models.Order{
			OrderNumber:   newOrderNumber(s.now()),
			CustomerID:    customerID,
			AddressID:     address.ID,
			Status:        models.StatusPending,
			PaymentMethod: input.PaymentMethod,
			Subtotal:      subtotal,
			Discount:      discount,
			Total:         subtotal.Sub(discount),
			Notes:         strings.TrimSpace(input.Notes),
			Items:         lines,
		}
		if err := tx.Create(&order).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("ORDER_NUMBER_TAKEN", "Could not allocate an order number, please retry")
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		order.Address = &address
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	zlog.Info().
		Str("order_number", order.OrderNumber).
		Uint("customer_id", customerID).
		Str("total", order.Total.StringFixed(2)).
		Int("lines", len(order.Items)).
		Msg("order placed")
	return &order, nil
}

func withOrderDetail(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).Preload("Address")
}

// ListForCustomer returns one page of the customer's orders, newest first
func (s *OrderService) ListForCustomer(ctx context.Context, customerID uint, page, limit int) ([]models.Order, int64, error) {
	db := s.db.WithContext(ctx)
	page, limit = normalizePage(page, limit)

	var total int64
	if err := db.Model(&models.Order{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := withOrderDetail(db).
		Where("customer_id = ?", customerID).
		Order("created_at desc, id desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// GetForCustomer returns one of the customer's own orders
func (s *OrderService) GetForCustomer(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := withOrderDetail(s.db.WithContext(ctx)).
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &order, nil
}

// CancelForCustomer lets a customer cancel an order that has not started processing
func (s *OrderService) CancelForCustomer(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND customer_id = ?", orderID, customerID).First(&order).Error
		if err != nil {
			return notFoundOr(err)
		}
		if order.Status != models.StatusPending && order.Status != models.StatusConfirmed {
			return invalid("CANNOT_CANCEL", "Order can no longer be cancelled")
		}
		return changeStatus(tx, &order, models.StatusCancelled, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.GetForCustomer(ctx, customerID, orderID)
}

// changeStatus moves order to next along a legal edge and records the change
func changeStatus(tx *gorm.DB, order *models.Order, next models.OrderStatus, adminID *uint) error {
	if !next.Valid() {
		return invalid("INVALID_STATUS", "Unknown order status")
	}
	if order.Status == next {
		return nil
	}
	if !order.Status.CanTransitionTo(next) {
		return invalid("INVALID_TRANSITION",
			fmt.Sprintf("invalid status transition from %s to %s", order.Status, next))
	}

	from := order.Status
	if err := tx.Model(order).Update("status", next).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	change := models.OrderStatusChange{
		OrderID:     order.ID,
		FromStatus:  from,
		ToStatus:    next,
		AdminUserID: adminID,
	}
	if err := tx.Create(&change).Error; err != nil {
		return fmt.Errorf("failed to record status change: %w", err)
	}
	order.Status = next

	metrics.OrderStatusChanges.WithLabelValues(string(next)).Inc()
	zlog.Info().Uint("order_id", order.ID).Str("from", string(from)).Str("to", string(next)).Msg("order status changed")
	return nil
}

// scopedOrders limits a query to what perms may see
func scopedOrders(db *gorm.DB, perms permissions.Set) (*gorm.DB, error) {
	activeOnly, ok := perms.OrderScope()
	if !ok {
		return nil, ErrForbidden
	}
	if activeOnly {
		db = db.Where("orders.status IN ?", models.ActiveOrderStatuses())
	}
	return db, nil
}

// redact strips customer identity from orders for roles without customer access
func redact(perms permissions.Set, orders ...*models.Order) {
	if perms.CanViewCustomerInfo {
		return
	}
	for _, o := range orders {
		o.Customer = nil
		o.Address = nil
	}
}

// ListForAdmin returns one page of the orders visible to perms, newest first
func (s *OrderService) ListForAdmin(ctx context.Context, perms permissions.Set, f AdminOrderFilter) ([]models.Order, int64, error) {
	page, limit := normalizePage(f.Page, f.Limit)
	return s.listForAdmin(ctx, perms, f, (page-1)*limit, limit)
}

func (s *OrderService) listForAdmin(ctx context.Context, perms permissions.Set, f AdminOrderFilter, offset, limit int) ([]models.Order, int64, error) {
	q, err := scopedOrders(s.db.WithContext(ctx).Model(&models.Order{}), perms)
	if err != nil {
		return nil, 0, err
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, 0, invalid("INVALID_STATUS", "Unknown order status")
		}
		q = q.Where("orders.status = ?", f.Status)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		q = q.Where("orders.order_number LIKE ?", "%"+strings.ToUpper(query)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err = withOrderDetail(q).Preload("Customer").
		Order("orders.created_at desc, orders.id desc").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	for i := range orders {
		redact(perms, &orders[i])
	}
	return orders, total, nil
}

// GetForAdmin returns an order if it is inside the scope of perms
func (s *OrderService) GetForAdmin(ctx context.Context, perms permissions.Set, orderID uint) (*models.Order, error) {
	q, err := scopedOrders(s.db.WithContext(ctx), perms)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := withOrderDetail(q).Preload("Customer").First(&order, orderID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	redact(perms, &order)
	return &order, nil
}

// History returns the status changes of an order, oldest first
func (s *OrderService) History(ctx context.Context, orderID uint) ([]models.OrderStatusChange, error) {
	var changes []models.OrderStatusChange
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at asc, id asc").Find(&changes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return changes, nil
}

// UpdateStatus moves an order along the workflow on behalf of a staff member
func (s *OrderService) UpdateStatus(ctx context.Context, perms permissions.Set, adminID, orderID uint, next models.OrderStatus) (*models.Order, error) {
	if !perms.CanUpdateOrderStatus {
		return nil, ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			return notFoundOr(err)
		}
		return changeStatus(tx, &order, next, &adminID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetForAdmin(ctx, perms, orderID)
}
