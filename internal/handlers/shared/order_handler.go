package handlers

import (
	"errors"
	"net/http"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/internal/services"
	"github.com/ltt204/Lados-sub002/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrder places an order from the checkout payload. A stock shortage is
// answered with 409 and the short lines plus the quantity still available, so
// the client can offer a precise adjustment.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var request models.CreateOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), customerID, &request)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyOrder), errors.Is(err, services.ErrTooManyLines),
			errors.Is(err, services.ErrLineTooLarge):
			utils.BadRequestResponse(c, err.Error())
		case errors.Is(err, interfaces.ErrVariantNotFound):
			utils.NotFoundResponse(c, "Product variant")
		case errors.Is(err, services.ErrCouponNotHeld):
			utils.NotFoundResponse(c, "Coupon")
		case errors.Is(err, services.ErrCouponNotUsable):
			utils.ConflictResponse(c, "Coupon is used or expired")
		default:
			utils.ErrorResponse(c, http.StatusInternalServerError, "ORDER_CREATION_FAILED", "Failed to place order")
		}
		return
	}

	if !result.Committed {
		utils.ErrorResponseWithData(c, http.StatusConflict, "INSUFFICIENT_STOCK",
			"Some items are out of stock", result.Insufficient)
		return
	}

	utils.CreatedResponse(c, "Order placed successfully", result.Order)
}

// GetOrder returns one of the authenticated customer's orders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID")
		return
	}

	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), customerID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrOrderNotFound):
			utils.NotFoundResponse(c, "Order")
		case errors.Is(err, services.ErrOrderOwnership):
			utils.ForbiddenResponse(c)
		default:
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.SuccessResponse(c, "Order retrieved successfully", order)
}

// ListOrders returns the authenticated customer's order history.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.ListCustomerOrders(c.Request.Context(), customerID, params)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(orders),
	}
	utils.SuccessResponseWithMeta(c, "Orders retrieved successfully", orders, meta)
}

// ListAllOrders returns every order for the staff dashboard.
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	orders, total, err := h.orderService.ListAllOrders(c.Request.Context(), params)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(orders),
	}
	utils.SuccessResponseWithMeta(c, "Orders retrieved successfully", orders, meta)
}

// UpdateOrderStatus appends a new entry to the order's status log.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid order ID")
		return
	}

	var request models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	err = h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, request.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			utils.BadRequestResponse(c, err.Error())
		case errors.Is(err, interfaces.ErrOrderNotFound):
			utils.NotFoundResponse(c, "Order")
		default:
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.SuccessResponse(c, "Order status updated successfully", nil)
}
