package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/middleware"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UpdateOrderStatusRequest is the body of PUT /admin/orders/:id
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func statusQuery(c *gin.Context) models.OrderStatus {
	return models.OrderStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
}

// AdminListOrders handles GET /api/v1/admin/orders. Salesmen only see active orders and
// customer details are stripped for roles that may not view them.
func AdminListOrders(c *gin.Context) {
	page, limit := pageParams(c)
	orders, total, err := services.NewOrderService(config.GetDB()).ListForAdmin(c.Request.Context(), middleware.GetPermissions(c), services.AdminOrderFilter{
		Status: statusQuery(c),
		Query:  c.Query("q"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, orders, page, limit, total)
}

// AdminGetOrder handles GET /api/v1/admin/orders/:id with its status history
func AdminGetOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc := services.NewOrderService(config.GetDB())
	order, err := svc.GetForAdmin(c.Request.Context(), middleware.GetPermissions(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := svc.History(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order": order, "history": history})
}

// AdminUpdateOrderStatus handles PUT /api/v1/admin/orders/:id - moves an order along the workflow
func AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		respondError(c, services.ErrForbidden)
		return
	}

	order, err := services.NewOrderService(config.GetDB()).UpdateStatus(
		c.Request.Context(), middleware.GetPermissions(c), admin.ID, orderID,
		models.OrderStatus(strings.ToUpper(string(req.Status))),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// AdminExportOrders handles GET /api/v1/admin/orders/export - an XLSX of the visible orders
func AdminExportOrders(c *gin.Context) {
	svc := services.NewExportService(services.NewOrderService(config.GetDB()))
	data, err := svc.ExportOrders(c.Request.Context(), middleware.GetPermissions(c), statusQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
