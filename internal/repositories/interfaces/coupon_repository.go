package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
)

type CouponRepository interface {
	// Server coupon operations
	CreateServerCoupon(ctx context.Context, coupon *models.ServerCoupon) error
	GetServerCouponByCode(ctx context.Context, code string) (*models.ServerCoupon, error)
	GetActiveAutoFetchCoupons(ctx context.Context, now time.Time) ([]*models.ServerCoupon, error)

	// Customer coupon operations
	GetCustomerCoupons(ctx context.Context, customerID primitive.ObjectID) ([]*models.CustomerCoupon, error)
	GetCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (*models.CustomerCoupon, error)
	HasCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (bool, error)
	DeleteCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, couponID primitive.ObjectID) error

	// Redeem atomically checks the validity window, the duplicate-grant rule
	// and the global redemption cap, increments the server coupon's counter
	// and inserts the customer grant. The counter and the grant form one
	// consistency unit; under concurrent redemption the counter never exceeds
	// the cap.
	Redeem(ctx context.Context, customerID primitive.ObjectID, code string, now time.Time) (*models.RedemptionResult, error)

	// Grant upserts an auto-fetched coupon keyed by (customerID, code); a
	// retried grant is a no-op rather than a duplicate.
	Grant(ctx context.Context, coupon *models.CustomerCoupon) error

	// MarkUsed flips IsUsed false to true. The transition happens at most
	// once; marking an already-used coupon is not an error.
	MarkUsed(ctx context.Context, customerID primitive.ObjectID, code string) error
}
