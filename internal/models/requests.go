package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateOrderItem is one requested line of a checkout; prices are resolved
// server-side from the variant at placement time.
type CreateOrderItem struct {
	ProductID primitive.ObjectID `json:"product_id" binding:"required"`
	VariantID primitive.ObjectID `json:"variant_id" binding:"required"`
	Amount    int64              `json:"amount" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items       []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
	CouponCode  string            `json:"coupon_code"`
	Address     string            `json:"address" binding:"required"`
	PhoneNumber string            `json:"phone_number" binding:"required"`
}

type RedeemCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type ApplyCouponRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"required,gt=0"`
}

// DiscountQuote is the answer to an apply-coupon request. Applying a coupon
// does not consume it; the grant is marked used only after the order commits.
type DiscountQuote struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

type CreateServerCouponRequest struct {
	Code               string    `json:"code" binding:"required"`
	DiscountPercentage float64   `json:"discount_percentage" binding:"required,gte=0,lte=100"`
	MinimumOrderAmount float64   `json:"minimum_order_amount" binding:"gte=0"`
	MaximumDiscount    float64   `json:"maximum_discount" binding:"gte=0"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	EndDate            time.Time `json:"end_date" binding:"required"`
	UsageDuration      int64     `json:"usage_duration" binding:"gte=0"`
	MaximumRedemption  *int64    `json:"maximum_redemption"`
	AutoFetching       bool      `json:"auto_fetching"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}
