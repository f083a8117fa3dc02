package interfaces

import (
	"context"

	"github.com/ltt204/Lados-sub002/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartRepository interface {
	GetByCustomer(ctx context.Context, customerID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, customerID primitive.ObjectID) error
}
