package handlers

import (
	"net/http"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/services"
	"github.com/ltt204/Lados-sub002/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponHandler struct {
	couponService services.CouponService
}

func NewCouponHandler(couponService services.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// ListCoupons returns every coupon the authenticated customer can use right
// now, granting any new auto-fetch coupons along the way.
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	coupons, err := h.couponService.ListUsableCoupons(c.Request.Context(), customerID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "COUPON_SYNC_FAILED", "Failed to load coupons")
		return
	}

	utils.SuccessResponse(c, "Coupons retrieved successfully", coupons)
}

// RedeemCoupon redeems a coupon code for the authenticated customer.
func (h *CouponHandler) RedeemCoupon(c *gin.Context) {
	var request models.RedeemCouponRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	result, err := h.couponService.RedeemCoupon(c.Request.Context(), customerID, request.Code)
	if err != nil {
		utils.InternalServerErrorResponse(c)
		return
	}

	if !result.Success() {
		status, message := redemptionStatus(result.Reason)
		utils.ErrorResponse(c, status, string(result.Reason), message)
		return
	}

	utils.SuccessResponse(c, "Coupon redeemed successfully", result.Coupon)
}

// ApplyCoupon quotes the discount a held coupon yields for a subtotal
// without consuming the coupon.
func (h *CouponHandler) ApplyCoupon(c *gin.Context) {
	var request models.ApplyCouponRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	customerID, ok := customerIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	quote, err := h.couponService.ApplyCoupon(c.Request.Context(), customerID, request.Code, request.Subtotal)
	if err != nil {
		switch err {
		case services.ErrCouponNotHeld:
			utils.NotFoundResponse(c, "Coupon")
		case services.ErrCouponNotUsable:
			utils.ConflictResponse(c, "Coupon is used or expired")
		default:
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.SuccessResponse(c, "Coupon applied successfully", quote)
}

// CreateServerCoupon registers a new global coupon definition (staff only).
func (h *CouponHandler) CreateServerCoupon(c *gin.Context) {
	var request models.CreateServerCouponRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	coupon, err := h.couponService.CreateServerCoupon(c.Request.Context(), &request)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, "Coupon created successfully", coupon)
}

func redemptionStatus(reason models.RedemptionError) (int, string) {
	switch reason {
	case models.RedemptionErrCodeNotFound:
		return http.StatusNotFound, "Coupon code not found"
	case models.RedemptionErrExpired:
		return http.StatusBadRequest, "Coupon is outside its validity window"
	case models.RedemptionErrAlreadyRedeemed:
		return http.StatusConflict, "Coupon already redeemed"
	case models.RedemptionErrRedemptionLimitReached:
		return http.StatusConflict, "Coupon redemption limit reached"
	default:
		return http.StatusInternalServerError, utils.ErrInternalServer
	}
}

func customerIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return primitive.NilObjectID, false
	}
	customerID, ok := value.(primitive.ObjectID)
	return customerID, ok
}
