package services

import (
	"context"
	"fmt"

	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/permissions"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Orders"

// maxExportRows bounds one export so a single request cannot load the whole table
const maxExportRows = 5000

// ExportService renders order listings as spreadsheets
type ExportService struct {
	orders *OrderService
}

// NewExportService creates an export service on top of the order service
func NewExportService(orders *OrderService) *ExportService {
	return &ExportService{orders: orders}
}

func exportHeader(withCustomer bool) []interface{} {
	header := []interface{}{"Order Number", "Placed At", "Status", "Payment", "Items", "Subtotal", "Discount", "Total"}
	if withCustomer {
		header = append(header, "Customer", "Phone", "City", "Pincode")
	}
	return header
}

func exportRow(o models.Order, withCustomer bool) []interface{} {
	quantity := 0
	for _, item := range o.Items {
		quantity += item.Quantity
	}
	row := []interface{}{
		o.OrderNumber,
		o.CreatedAt.Format("2006-01-02 15:04"),
		string(o.Status),
		string(o.PaymentMethod),
		quantity,
		o.Subtotal.InexactFloat64(),
		o.Discount.InexactFloat64(),
		o.Total.InexactFloat64(),
	}
	if withCustomer {
		var name, phone, city, pincode string
		if o.Customer != nil {
			phone = o.Customer.PhoneNumber
			if o.Customer.Name != nil {
				name = *o.Customer.Name
			}
		}
		if o.Address != nil {
			city, pincode = o.Address.City, o.Address.Pincode
		}
		row = append(row, name, phone, city, pincode)
	}
	return row
}

// ExportOrders builds an XLSX workbook of the orders perms may see, optionally filtered by status.
// Customer columns are only present when perms allows viewing customer info.
func (s *ExportService) ExportOrders(ctx context.Context, perms permissions.Set, status models.OrderStatus) ([]byte, error) {
	orders, _, err := s.orders.listForAdmin(ctx, perms, AdminOrderFilter{Status: status}, 0, maxExportRows)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	withCustomer := perms.CanViewCustomerInfo
	header := exportHeader(withCustomer)
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, o := range orders {
		row := exportRow(o, withCustomer)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
