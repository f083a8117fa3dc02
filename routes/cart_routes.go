package routes

import (
	shared "github.com/ltt204/Lados-sub002/internal/handlers/shared"
	"github.com/ltt204/Lados-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCartRoutes sets up routes for cart functionality
func SetupCartRoutes(r *gin.RouterGroup, cartHandler *shared.CartHandler, jwtSecret string) {
	cart := r.Group("/cart")
	cart.Use(middleware.AuthRequired(jwtSecret))
	{
		cart.GET("", cartHandler.GetCart)
		cart.PUT("", cartHandler.ReplaceCart)
		cart.DELETE("", cartHandler.ClearCart)
	}
}
