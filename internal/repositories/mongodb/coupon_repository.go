package mongodb

import (
	"context"
	"fmt"
	"strings"
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

type couponRepository struct {
	db              *database.MongoDB
	serverCoupons   *mongo.Collection
	customerCoupons *mongo.Collection
	cache           CacheService
}

func NewCouponRepository(db *database.MongoDB, cache CacheService) interfaces.CouponRepository {
	return &couponRepository{
		db:              db,
		serverCoupons:   db.Collection(utils.CollectionServerCoupons),
		customerCoupons: db.Collection(utils.CollectionCustomerCoupons),
		cache:           cache,
	}
}

func (r *couponRepository) CreateServerCoupon(ctx context.Context, coupon *models.ServerCoupon) error {
	coupon.ID = primitive.NewObjectID()
	coupon.Code = strings.TrimSpace(coupon.Code)
	coupon.RedeemedCount = 0
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = time.Now()

	_, err := r.serverCoupons.InsertOne(ctx, coupon)
	if err != nil {
		return fmt.Errorf("failed to create server coupon: %w", err)
	}

	r.cacheServerCoupon(ctx, coupon)
	return nil
}

func (r *couponRepository) GetServerCouponByCode(ctx context.Context, code string) (*models.ServerCoupon, error) {
	code = strings.TrimSpace(code)

	if coupon := r.getServerCouponFromCache(ctx, code); coupon != nil {
		return coupon, nil
	}

	var coupon models.ServerCoupon
	err := r.serverCoupons.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get server coupon: %w", err)
	}

	r.cacheServerCoupon(ctx, &coupon)
	return &coupon, nil
}

func (r *couponRepository) GetActiveAutoFetchCoupons(ctx context.Context, now time.Time) ([]*models.ServerCoupon, error) {
	filter := bson.M{
		"auto_fetching": true,
		"end_date":      bson.M{"$gte": now},
	}

	cursor, err := r.serverCoupons.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query auto-fetch coupons: %w", err)
	}
	defer cursor.Close(ctx)

	var coupons []*models.ServerCoupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("failed to decode auto-fetch coupons: %w", err)
	}

	return coupons, nil
}

func (r *couponRepository) GetCustomerCoupons(ctx context.Context, customerID primitive.ObjectID) ([]*models.CustomerCoupon, error) {
	cursor, err := r.customerCoupons.Find(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return nil, fmt.Errorf("failed to query customer coupons: %w", err)
	}
	defer cursor.Close(ctx)

	var coupons []*models.CustomerCoupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("failed to decode customer coupons: %w", err)
	}

	return coupons, nil
}

func (r *couponRepository) GetCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (*models.CustomerCoupon, error) {
	var coupon models.CustomerCoupon
	err := r.customerCoupons.FindOne(ctx, bson.M{
		"customer_id": customerID,
		"code":        strings.TrimSpace(code),
	}).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get customer coupon: %w", err)
	}
	return &coupon, nil
}

func (r *couponRepository) HasCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (bool, error) {
	count, err := r.customerCoupons.CountDocuments(ctx, bson.M{
		"customer_id": customerID,
		"code":        strings.TrimSpace(code),
	})
	if err != nil {
		return false, fmt.Errorf("failed to count customer coupons: %w", err)
	}
	return count > 0, nil
}

func (r *couponRepository) DeleteCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, couponID primitive.ObjectID) error {
	// The customer_id guard keeps one customer's cleanup from touching
	// another's grants.
	_, err := r.customerCoupons.DeleteOne(ctx, bson.M{
		"_id":         couponID,
		"customer_id": customerID,
		"is_used":     false,
	})
	if err != nil {
		return fmt.Errorf("failed to delete customer coupon: %w", err)
	}
	return nil
}

// Redeem runs the whole check-increment-grant sequence inside one
// transaction. The guarded $inc filter re-asserts the cap at write time, so
// even if two customers race past the snapshot read, at most MaximumRedemption
// increments ever commit.
func (r *couponRepository) Redeem(ctx context.Context, customerID primitive.ObjectID, code string, now time.Time) (*models.RedemptionResult, error) {
	code = strings.TrimSpace(code)

	result, err := r.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var serverCoupon models.ServerCoupon
		err := r.serverCoupons.FindOne(sessCtx, bson.M{"code": code}).Decode(&serverCoupon)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return models.RedemptionFailure(models.RedemptionErrCodeNotFound), nil
			}
			return nil, fmt.Errorf("failed to read server coupon: %w", err)
		}

		count, err := r.customerCoupons.CountDocuments(sessCtx, bson.M{
			"customer_id": customerID,
			"code":        code,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check existing grant: %w", err)
		}

		if reason := models.EvaluateRedemption(&serverCoupon, count > 0, now); reason != "" {
			return models.RedemptionFailure(reason), nil
		}

		filter := bson.M{"_id": serverCoupon.ID}
		if serverCoupon.MaximumRedemption != nil {
			filter["redeemed_count"] = bson.M{"$lt": *serverCoupon.MaximumRedemption}
		}
		res, err := r.serverCoupons.UpdateOne(sessCtx, filter, bson.M{
			"$inc": bson.M{"redeemed_count": 1},
			"$set": bson.M{"updated_at": now},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to increment redemption count: %w", err)
		}
		if res.ModifiedCount == 0 {
			return models.RedemptionFailure(models.RedemptionErrRedemptionLimitReached), nil
		}

		grant := serverCoupon.NewCustomerCoupon(customerID, now)
		if _, err := r.customerCoupons.InsertOne(sessCtx, grant); err != nil {
			return nil, fmt.Errorf("failed to insert customer coupon: %w", err)
		}

		return models.RedemptionSuccess(grant), nil
	})
	if err != nil {
		return nil, err
	}

	redemption := result.(*models.RedemptionResult)
	if redemption.Success() {
		r.invalidateServerCouponCache(ctx, code)
	}
	return redemption, nil
}

func (r *couponRepository) Grant(ctx context.Context, coupon *models.CustomerCoupon) error {
	filter := bson.M{
		"customer_id": coupon.CustomerID,
		"code":        coupon.Code,
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":                  coupon.ID,
			"customer_id":          coupon.CustomerID,
			"code":                 coupon.Code,
			"discount_percentage":  coupon.DiscountPercentage,
			"minimum_order_amount": coupon.MinimumOrderAmount,
			"maximum_discount":     coupon.MaximumDiscount,
			"usage_duration":       coupon.UsageDuration,
			"redeemed_at":          coupon.RedeemedAt,
			"is_used":              coupon.IsUsed,
			"expires_at":           coupon.ExpiresAt,
			"created_at":           coupon.CreatedAt,
		},
	}

	_, err := r.customerCoupons.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to grant coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) MarkUsed(ctx context.Context, customerID primitive.ObjectID, code string) error {
	// The is_used guard makes the false->true transition happen at most once.
	_, err := r.customerCoupons.UpdateOne(ctx, bson.M{
		"customer_id": customerID,
		"code":        strings.TrimSpace(code),
		"is_used":     false,
	}, bson.M{
		"$set": bson.M{"is_used": true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark coupon used: %w", err)
	}
	return nil
}

func (r *couponRepository) cacheServerCoupon(ctx context.Context, coupon *models.ServerCoupon) {
	if r.cache != nil {
		key := fmt.Sprintf("server_coupon:%s", coupon.Code)
		r.cache.Set(ctx, key, coupon, utils.CouponCacheTTL)
	}
}

func (r *couponRepository) getServerCouponFromCache(ctx context.Context, code string) *models.ServerCoupon {
	if r.cache == nil {
		return nil
	}

	key := fmt.Sprintf("server_coupon:%s", code)
	var coupon models.ServerCoupon
	if err := r.cache.Get(ctx, key, &coupon); err != nil {
		return nil
	}
	return &coupon
}

func (r *couponRepository) invalidateServerCouponCache(ctx context.Context, code string) {
	if r.cache != nil {
		r.cache.Delete(ctx, fmt.Sprintf("server_coupon:%s", code))
	}
}
