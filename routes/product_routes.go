package routes

import (
	shared "github.com/ltt204/Lados-sub002/internal/handlers/shared"
	"github.com/ltt204/Lados-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupProductRoutes sets up routes for the product catalog
func SetupProductRoutes(r *gin.RouterGroup, productHandler *shared.ProductHandler, jwtSecret string) {
	// Public catalog routes
	products := r.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/variants", productHandler.GetProductVariants)
	}

	// Admin routes for catalog management
	admin := r.Group("/admin/products")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("", productHandler.CreateProduct)
		admin.POST("/:id/variants", productHandler.CreateVariant)
		admin.PUT("/variants/:variant_id/restock", productHandler.RestockVariant)
	}
}
