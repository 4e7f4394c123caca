package models

import (
	"fmt"

	"gorm.io/gorm"
)

// All lists every persisted model in dependency order
func All() []interface{} {
	return []interface{}{
		&AdminUser{},
		&Section{},
		&Category{},
		&Product{},
		&ProductColor{},
		&ProductImage{},
		&Customer{},
		&Address{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusChange{},
	}
}

// partialIndexes backs invariants AutoMigrate cannot express. Both PostgreSQL and
// SQLite support partial indexes.
var partialIndexes = []struct {
	name string
	stmt string
}{
	{"default-address", "CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_one_default ON addresses (customer_id) WHERE is_default"},
	// idx_cart_item_line treats NULL colors as distinct
	{"colorless cart line", "CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_item_line_no_color ON cart_items (cart_id, product_id) WHERE product_color_id IS NULL"},
}

// Migrate creates or updates the schema, then installs the partial unique indexes
// that keep a customer to one default address and a cart to one line per product and color.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	for _, idx := range partialIndexes {
		if err := db.Exec(idx.stmt).Error; err != nil {
			return fmt.Errorf("create %s index: %w", idx.name, err)
		}
	}
	return nil
}
