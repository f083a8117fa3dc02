package routes

import (
	shared "github.com/ltt204/Lados-sub002/internal/handlers/shared"
	"github.com/ltt204/Lados-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes sets up routes for order placement and tracking
func SetupOrderRoutes(r *gin.RouterGroup, orderHandler *shared.OrderHandler, jwtSecret string) {
	// Customer order routes (require authentication)
	orders := r.Group("/orders")
	orders.Use(middleware.AuthRequired(jwtSecret))
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
	}

	// Admin routes for order management
	admin := r.Group("/admin/orders")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("", orderHandler.ListAllOrders)
		admin.PUT("/:id/status", orderHandler.UpdateOrderStatus)
	}
}
