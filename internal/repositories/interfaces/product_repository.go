package interfaces

import (
	"context"
	"errors"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Product, int64, error)

	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	GetVariant(ctx context.Context, id primitive.ObjectID) (*models.ProductVariant, error)
	GetVariantsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.ProductVariant, error)
	GetVariantsByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductVariant, error)

	// RestockVariant adds quantity back to a variant (staff operation). The
	// checkout decrement path never goes through here; it lives inside the
	// order creation transaction.
	RestockVariant(ctx context.Context, id primitive.ObjectID, quantity int64) error
}
