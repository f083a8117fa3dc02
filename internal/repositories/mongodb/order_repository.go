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
)

type orderRepository struct {
	db             *database.MongoDB
	orders         *mongo.Collection
	customerOrders *mongo.Collection
	variants       *mongo.Collection
}

// Orders are not cached: the history endpoints page over live collections and
// the status log must never be read stale.
func NewOrderRepository(db *database.MongoDB) interfaces.OrderRepository {
	return &orderRepository{
		db:             db,
		orders:         db.Collection(utils.CollectionOrders),
		customerOrders: db.Collection(utils.CollectionCustomerOrders),
		variants:       db.Collection(utils.CollectionProductVariants),
	}
}

// Create commits stock decrement and order documents in one transaction, so
// there is no window where inventory moved but the order is missing. The
// transaction body only reads and stages writes, which keeps it safe for the
// driver's conflict retry.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) (*models.CreateOrderResult, error) {
	result, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		variants := make(map[primitive.ObjectID]*models.ProductVariant, len(order.OrderProducts))
		for _, line := range order.OrderProducts {
			var variant models.ProductVariant
			err := r.variants.FindOne(sessCtx, bson.M{"_id": line.VariantID}).Decode(&variant)
			if err != nil {
				if err == mongo.ErrNoDocuments {
					// A vanished variant is a structural failure, not a
					// stock shortage. Abort before any write.
					return nil, fmt.Errorf("variant %s: %w", line.VariantID.Hex(), interfaces.ErrVariantNotFound)
				}
				return nil, fmt.Errorf("failed to read variant %s: %w", line.VariantID.Hex(), err)
			}
			variants[line.VariantID] = &variant
		}

		insufficient := models.ValidateStockLines(order.OrderProducts, variants)
		if len(insufficient) > 0 {
			// Nothing has been staged; returning here commits an empty
			// transaction and the caller sees exactly which lines were short.
			return &models.CreateOrderResult{
				Committed:    false,
				Insufficient: insufficient,
			}, nil
		}

		for _, line := range order.OrderProducts {
			// The $gte guard re-asserts availability at write time; a
			// concurrent decrement surfaces as ModifiedCount == 0 and aborts
			// the whole transaction before any order document exists.
			res, err := r.variants.UpdateOne(sessCtx,
				bson.M{"_id": line.VariantID, "quantity_in_stock": bson.M{"$gte": line.Amount}},
				bson.M{
					"$inc": bson.M{"quantity_in_stock": -line.Amount},
					"$set": bson.M{"updated_at": time.Now()},
				},
			)
			if err != nil {
				return nil, fmt.Errorf("failed to decrement stock for variant %s: %w", line.VariantID.Hex(), err)
			}
			if res.ModifiedCount == 0 {
				return nil, fmt.Errorf("stock for variant %s changed concurrently", line.VariantID.Hex())
			}
		}

		if _, err := r.orders.InsertOne(sessCtx, order); err != nil {
			return nil, fmt.Errorf("failed to insert order: %w", err)
		}
		if _, err := r.customerOrders.InsertOne(sessCtx, order); err != nil {
			return nil, fmt.Errorf("failed to insert customer order: %w", err)
		}

		return &models.CreateOrderResult{
			Committed: true,
			Order:     order,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.CreateOrderResult), nil
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	filter := bson.M{"customer_id": customerID}

	total, err := r.customerOrders.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count customer orders: %w", err)
	}

	cursor, err := r.customerOrders.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query customer orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode customer orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) GetAll(ctx context.Context, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	total, err := r.orders.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	cursor, err := r.orders.Find(ctx, bson.M{}, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, total, nil
}

// AppendStatus appends to the status log under a transaction so two
// concurrent transitions both land in the log instead of one overwriting the
// other. Entries are only ever pushed, never rewritten.
func (r *orderRepository) AppendStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, now time.Time) error {
	_, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var order models.Order
		err := r.orders.FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&order)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, interfaces.ErrOrderNotFound
			}
			return nil, fmt.Errorf("failed to read order: %w", err)
		}

		entry := models.OrderStatusEntry{Status: status, Timestamp: now}
		update := bson.M{"$push": bson.M{"status_log": entry}}

		if _, err := r.orders.UpdateOne(sessCtx, bson.M{"_id": orderID}, update); err != nil {
			return nil, fmt.Errorf("failed to append order status: %w", err)
		}
		// Keep the customer-facing copy in step within the same transaction.
		if _, err := r.customerOrders.UpdateOne(sessCtx, bson.M{"_id": orderID}, update); err != nil {
			return nil, fmt.Errorf("failed to append customer order status: %w", err)
		}

		return nil, nil
	})
	return err
}
