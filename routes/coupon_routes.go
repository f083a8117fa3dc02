package routes

import (
	shared "github.com/ltt204/Lados-sub002/internal/handlers/shared"
	"github.com/ltt204/Lados-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCouponRoutes sets up routes for coupon functionality
func SetupCouponRoutes(r *gin.RouterGroup, couponHandler *shared.CouponHandler, jwtSecret string) {
	// Customer coupon routes (require authentication)
	coupons := r.Group("/coupons")
	coupons.Use(middleware.AuthRequired(jwtSecret))
	{
		coupons.GET("", couponHandler.ListCoupons)
		coupons.POST("/redeem", couponHandler.RedeemCoupon)
		coupons.POST("/apply", couponHandler.ApplyCoupon)
	}

	// Admin routes for coupon management
	admin := r.Group("/admin/coupons")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("", couponHandler.CreateServerCoupon)
	}
}
