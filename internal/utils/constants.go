package utils

import "time"

// Application Constants
const (
	AppName    = "Lados"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "USD"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Coupon Constants
	MaxDiscountPercentage = 100.0
	CouponCacheTTL        = 30 * time.Minute

	// Product Constants
	ProductCacheTTL = 30 * time.Minute

	// Order Constants
	MaxOrderLines      = 50
	MaxAmountPerLine   = 99
	PostCommitTimeout  = 10 * time.Second
	OrderHistoryWindow = 90 * 24 * time.Hour

	// Rate Limiting
	DefaultRateLimit  = 100
	CheckoutRateLimit = 10
)

// Response Status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrValidationFailed = "validation failed"
)

// Collection Names
const (
	CollectionServerCoupons   = "server_coupons"
	CollectionCustomerCoupons = "customer_coupons"
	CollectionOrders          = "orders"
	CollectionCustomerOrders  = "customer_orders"
	CollectionProducts        = "products"
	CollectionProductVariants = "product_variants"
	CollectionCarts           = "carts"
)
