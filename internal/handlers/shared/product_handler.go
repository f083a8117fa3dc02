package handlers

import (
	"errors"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/internal/services"
	"github.com/ltt204/Lados-sub002/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.ListProducts(c.Request.Context(), params)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(products),
	}
	utils.SuccessResponseWithMeta(c, "Products retrieved successfully", products, meta)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, interfaces.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) GetProductVariants(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID")
		return
	}

	variants, err := h.productService.GetProductVariants(c.Request.Context(), productID)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Variants retrieved successfully", variants)
}

// CreateProduct registers a new product (staff only).
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.productService.CreateProduct(c.Request.Context(), &product); err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.CreatedResponse(c, "Product created successfully", product)
}

// CreateVariant registers a new sellable variant (staff only).
func (h *ProductHandler) CreateVariant(c *gin.Context) {
	var variant models.ProductVariant
	if err := c.ShouldBindJSON(&variant); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.productService.CreateVariant(c.Request.Context(), &variant); err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.CreatedResponse(c, "Variant created successfully", variant)
}

// RestockVariant adds stock back to a variant (staff only).
func (h *ProductHandler) RestockVariant(c *gin.Context) {
	variantID, err := primitive.ObjectIDFromHex(c.Param("variant_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid variant ID")
		return
	}

	var request struct {
		Quantity int64 `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.productService.RestockVariant(c.Request.Context(), variantID, request.Quantity); err != nil {
		if errors.Is(err, interfaces.ErrVariantNotFound) {
			utils.NotFoundResponse(c, "Product variant")
			return
		}
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Variant restocked successfully", nil)
}
