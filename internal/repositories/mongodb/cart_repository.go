package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/internal/utils"
	"github.com/ltt204/Lados-sub002/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartRepository struct {
	carts *mongo.Collection
}

func NewCartRepository(db *database.MongoDB) interfaces.CartRepository {
	return &cartRepository{
		carts: db.Collection(utils.CollectionCarts),
	}
}

func (r *cartRepository) GetByCustomer(ctx context.Context, customerID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := r.carts.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&cart)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// An absent cart document and an empty cart are the same thing.
			return &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	filter := bson.M{"customer_id": cart.CustomerID}
	update := bson.M{
		"$set": bson.M{
			"items":      cart.Items,
			"updated_at": cart.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"customer_id": cart.CustomerID,
		},
	}

	_, err := r.carts.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, customerID primitive.ObjectID) error {
	_, err := r.carts.UpdateOne(ctx, bson.M{"customer_id": customerID}, bson.M{
		"$set": bson.M{
			"items":      []models.CartItem{},
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
