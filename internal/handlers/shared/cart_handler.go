package handlers

import (
	"errors"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/internal/services"
	"github.com/ltt204/Lados-sub002/internal/utils"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), customerID)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Cart retrieved successfully", cart)
}

func (h *CartHandler) ReplaceCart(c *gin.Context) {
	var request struct {
		Items []models.CartItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	cart, err := h.cartService.ReplaceCart(c.Request.Context(), customerID, request.Items)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCartItem):
			utils.BadRequestResponse(c, err.Error())
		case errors.Is(err, interfaces.ErrVariantNotFound):
			utils.NotFoundResponse(c, "Product variant")
		default:
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.SuccessResponse(c, "Cart updated successfully", cart)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.cartService.ClearCart(c.Request.Context(), customerID); err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.NoContentResponse(c)
}
