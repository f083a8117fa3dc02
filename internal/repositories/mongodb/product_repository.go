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

type productRepository struct {
	products *mongo.Collection
	variants *mongo.Collection
	cache    CacheService
}

func NewProductRepository(db *database.MongoDB, cache CacheService) interfaces.ProductRepository {
	return &productRepository{
		products: db.Collection(utils.CollectionProducts),
		variants: db.Collection(utils.CollectionProductVariants),
		cache:    cache,
	}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	_, err := r.products.InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if product := r.getProductFromCache(ctx, id); product != nil {
		return product, nil
	}

	var product models.Product
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	r.cacheProduct(ctx, &product)
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Product, int64, error) {
	filter := bson.M{"is_listed": true}

	total, err := r.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	cursor, err := r.products.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, total, nil
}

func (r *productRepository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	variant.ID = primitive.NewObjectID()
	variant.CreatedAt = time.Now()
	variant.UpdatedAt = time.Now()

	_, err := r.variants.InsertOne(ctx, variant)
	if err != nil {
		return fmt.Errorf("failed to create product variant: %w", err)
	}
	return nil
}

func (r *productRepository) GetVariant(ctx context.Context, id primitive.ObjectID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.variants.FindOne(ctx, bson.M{"_id": id}).Decode(&variant)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to get product variant: %w", err)
	}
	return &variant, nil
}

func (r *productRepository) GetVariantsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.ProductVariant, error) {
	cursor, err := r.variants.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query product variants: %w", err)
	}
	defer cursor.Close(ctx)

	variants := make(map[primitive.ObjectID]*models.ProductVariant, len(ids))
	for cursor.Next(ctx) {
		var variant models.ProductVariant
		if err := cursor.Decode(&variant); err != nil {
			return nil, fmt.Errorf("failed to decode product variant: %w", err)
		}
		variants[variant.ID] = &variant
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product variants: %w", err)
	}

	return variants, nil
}

func (r *productRepository) GetVariantsByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductVariant, error) {
	cursor, err := r.variants.Find(ctx, bson.M{"product_id": productID})
	if err != nil {
		return nil, fmt.Errorf("failed to query product variants: %w", err)
	}
	defer cursor.Close(ctx)

	var variants []*models.ProductVariant
	if err := cursor.All(ctx, &variants); err != nil {
		return nil, fmt.Errorf("failed to decode product variants: %w", err)
	}

	return variants, nil
}

func (r *productRepository) RestockVariant(ctx context.Context, id primitive.ObjectID, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("restock quantity must be positive")
	}

	res, err := r.variants.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"quantity_in_stock": quantity},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to restock variant: %w", err)
	}
	if res.MatchedCount == 0 {
		return interfaces.ErrVariantNotFound
	}
	return nil
}

// Variant documents are never cached: their stock moves with every checkout.
// Product documents are immutable once created, so a cached copy cannot go
// stale.
func (r *productRepository) cacheProduct(ctx context.Context, product *models.Product) {
	if r.cache != nil {
		key := fmt.Sprintf("product:%s", product.ID.Hex())
		r.cache.Set(ctx, key, product, utils.ProductCacheTTL)
	}
}

func (r *productRepository) getProductFromCache(ctx context.Context, id primitive.ObjectID) *models.Product {
	if r.cache == nil {
		return nil
	}

	key := fmt.Sprintf("product:%s", id.Hex())
	var product models.Product
	if err := r.cache.Get(ctx, key, &product); err != nil {
		return nil
	}
	return &product
}
