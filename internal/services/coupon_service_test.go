package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func activeServerCoupon(code string, opts ...func(*models.ServerCoupon)) *models.ServerCoupon {
	now := time.Now()
	coupon := &models.ServerCoupon{
		ID:                 primitive.NewObjectID(),
		Code:               code,
		DiscountPercentage: 10,
		StartDate:          now.Add(-time.Hour),
		EndDate:            now.Add(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(coupon)
	}
	return coupon
}

func TestRedeemCoupon(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("SAVE10", func(sc *models.ServerCoupon) {
		sc.UsageDuration = 3600
	})))

	result, err := service.RedeemCoupon(ctx, customerID, "SAVE10")
	require.NoError(t, err)
	require.True(t, result.Success())
	require.NotNil(t, result.Coupon)
	assert.Equal(t, "SAVE10", result.Coupon.Code)
	assert.Equal(t, customerID, result.Coupon.CustomerID)
	assert.NotNil(t, result.Coupon.RedeemedAt, "duration-bearing grant records its redemption time")

	server, err := repo.GetServerCouponByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), server.RedeemedCount)
}

func TestRedeemCouponUnknownCode(t *testing.T) {
	ctx := context.Background()
	service := NewCouponService(newFakeCouponRepo(), newTestLogger(t))

	result, err := service.RedeemCoupon(ctx, primitive.NewObjectID(), "NOSUCH")
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, models.RedemptionErrCodeNotFound, result.Reason)
	assert.Nil(t, result.Coupon)
}

func TestRedeemCouponCodeIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("Save10")))

	result, err := service.RedeemCoupon(ctx, primitive.NewObjectID(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionErrCodeNotFound, result.Reason)
}

func TestRedeemCouponExpired(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("OLD", func(sc *models.ServerCoupon) {
		sc.StartDate = time.Now().Add(-48 * time.Hour)
		sc.EndDate = time.Now().Add(-24 * time.Hour)
	})))

	result, err := service.RedeemCoupon(ctx, primitive.NewObjectID(), "OLD")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionErrExpired, result.Reason)
}

func TestRedeemCouponTwice(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("ONCE")))

	first, err := service.RedeemCoupon(ctx, customerID, "ONCE")
	require.NoError(t, err)
	require.True(t, first.Success())

	second, err := service.RedeemCoupon(ctx, customerID, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionErrAlreadyRedeemed, second.Reason)

	server, err := repo.GetServerCouponByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, int64(1), server.RedeemedCount, "duplicate attempt must not bump the counter")
}

func TestRedeemCouponCapReached(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	cap := int64(1)

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("SCARCE", func(sc *models.ServerCoupon) {
		sc.MaximumRedemption = &cap
	})))

	first, err := service.RedeemCoupon(ctx, primitive.NewObjectID(), "SCARCE")
	require.NoError(t, err)
	require.True(t, first.Success())

	second, err := service.RedeemCoupon(ctx, primitive.NewObjectID(), "SCARCE")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionErrRedemptionLimitReached, second.Reason)
}

func TestRedeemCouponConcurrentNeverExceedsCap(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	cap := int64(5)

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("LIMITED", func(sc *models.ServerCoupon) {
		sc.MaximumRedemption = &cap
	})))

	const attempts = 20
	var wg sync.WaitGroup
	results := make([]*models.RedemptionResult, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.RedeemCoupon(ctx, primitive.NewObjectID(), "LIMITED")
		}(i)
	}
	wg.Wait()

	var successes int64
	for i, result := range results {
		require.NoError(t, errs[i])
		if result.Success() {
			successes++
		} else {
			assert.Equal(t, models.RedemptionErrRedemptionLimitReached, result.Reason)
		}
	}
	assert.Equal(t, cap, successes)

	server, err := repo.GetServerCouponByCode(ctx, "LIMITED")
	require.NoError(t, err)
	assert.Equal(t, cap, server.RedeemedCount)
}

func TestRedeemCouponInfrastructureFailure(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	repo.failRedeem = errors.New("connection reset")
	service := NewCouponService(repo, newTestLogger(t))

	result, err := service.RedeemCoupon(ctx, primitive.NewObjectID(), "ANY")
	require.NoError(t, err, "infrastructure failures surface as a domain reason, not an error")
	assert.Equal(t, models.RedemptionErrInternal, result.Reason)
}

func TestListUsableCouponsAutoGrants(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("AUTO", func(sc *models.ServerCoupon) {
		sc.AutoFetching = true
	})))

	coupons, err := service.ListUsableCoupons(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, "AUTO", coupons[0].Code)

	// A second listing must not duplicate the grant.
	coupons, err = service.ListUsableCoupons(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, coupons, 1)
}

func TestListUsableCouponsSkipsExhaustedAutoFetch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	cap := int64(2)

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("GONE", func(sc *models.ServerCoupon) {
		sc.AutoFetching = true
		sc.MaximumRedemption = &cap
		sc.RedeemedCount = 2
	})))

	coupons, err := service.ListUsableCoupons(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, coupons)
}

func TestListUsableCouponsCleansStaleGrants(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()
	now := time.Now()
	cap := int64(1)

	// Parent exhausted by someone else.
	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("DRAINED", func(sc *models.ServerCoupon) {
		sc.MaximumRedemption = &cap
		sc.RedeemedCount = 1
	})))
	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		Code:       "DRAINED",
		ExpiresAt:  now.Add(time.Hour),
	}))

	// Parent deleted entirely.
	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		Code:       "ORPHAN",
		ExpiresAt:  now.Add(time.Hour),
	}))

	coupons, err := service.ListUsableCoupons(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, coupons)

	held, err := repo.HasCustomerCoupon(ctx, customerID, "DRAINED")
	require.NoError(t, err)
	assert.False(t, held, "stale grant is removed, not just filtered")
	held, err = repo.HasCustomerCoupon(ctx, customerID, "ORPHAN")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestListUsableCouponsKeepsUsedGrants(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		Code:       "SPENT",
		IsUsed:     true,
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	coupons, err := service.ListUsableCoupons(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, coupons, "used coupons are not usable")

	held, err := repo.HasCustomerCoupon(ctx, customerID, "SPENT")
	require.NoError(t, err)
	assert.True(t, held, "used grants stay for the purchase record")
}

func TestListUsableCouponsDurationGrantOutlivesParentWindow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()
	now := time.Now()

	// Parent window closed an hour ago but the personal usage window from the
	// redemption is still open.
	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("FLASH", func(sc *models.ServerCoupon) {
		sc.EndDate = now.Add(-time.Hour)
		sc.UsageDuration = 7200
	})))
	redeemedAt := now.Add(-30 * time.Minute)
	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:            primitive.NewObjectID(),
		CustomerID:    customerID,
		Code:          "FLASH",
		UsageDuration: 7200,
		RedeemedAt:    &redeemedAt,
		ExpiresAt:     redeemedAt.Add(2 * time.Hour),
	}))

	coupons, err := service.ListUsableCoupons(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, "FLASH", coupons[0].Code)
}

func TestListUsableCouponsDeduplicatesCodes(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.CreateServerCoupon(ctx, activeServerCoupon("BOTH", func(sc *models.ServerCoupon) {
		sc.AutoFetching = true
	})))
	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		Code:       "BOTH",
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	coupons, err := service.ListUsableCoupons(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, coupons, 1)
}

func TestApplyCoupon(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:                 primitive.NewObjectID(),
		CustomerID:         customerID,
		Code:               "SAVE10",
		DiscountPercentage: 10,
		MinimumOrderAmount: 50,
		MaximumDiscount:    20,
		ExpiresAt:          time.Now().Add(time.Hour),
	}))

	quote, err := service.ApplyCoupon(ctx, customerID, "SAVE10", 100)
	require.NoError(t, err)
	assert.Equal(t, 10.0, quote.Discount)
	assert.Equal(t, 90.0, quote.Total)

	quote, err = service.ApplyCoupon(ctx, customerID, "SAVE10", 40)
	require.NoError(t, err)
	assert.Equal(t, 0.0, quote.Discount, "below minimum yields zero, not an error")

	quote, err = service.ApplyCoupon(ctx, customerID, "SAVE10", 500)
	require.NoError(t, err)
	assert.Equal(t, 20.0, quote.Discount, "clamped at the maximum")
}

func TestApplyCouponNotHeld(t *testing.T) {
	ctx := context.Background()
	service := NewCouponService(newFakeCouponRepo(), newTestLogger(t))

	_, err := service.ApplyCoupon(ctx, primitive.NewObjectID(), "NOSUCH", 100)
	assert.ErrorIs(t, err, ErrCouponNotHeld)
}

func TestApplyCouponUsedOrExpired(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		Code:       "SPENT",
		IsUsed:     true,
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	_, err := service.ApplyCoupon(ctx, customerID, "SPENT", 100)
	assert.ErrorIs(t, err, ErrCouponNotUsable)
}

func TestConsumeCoupon(t *testing.T) {
	ctx := context.Background()
	repo := newFakeCouponRepo()
	service := NewCouponService(repo, newTestLogger(t))
	customerID := primitive.NewObjectID()

	require.NoError(t, repo.Grant(ctx, &models.CustomerCoupon{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		Code:       "USEME",
		ExpiresAt:  time.Now().Add(time.Hour),
	}))

	require.NoError(t, service.ConsumeCoupon(ctx, customerID, "USEME"))

	coupon, err := repo.GetCustomerCoupon(ctx, customerID, "USEME")
	require.NoError(t, err)
	assert.True(t, coupon.IsUsed)
}

func TestCreateServerCouponValidation(t *testing.T) {
	ctx := context.Background()
	service := NewCouponService(newFakeCouponRepo(), newTestLogger(t))
	now := time.Now()

	base := func() *models.CreateServerCouponRequest {
		return &models.CreateServerCouponRequest{
			Code:               "NEW",
			DiscountPercentage: 15,
			StartDate:          now,
			EndDate:            now.Add(24 * time.Hour),
		}
	}

	t.Run("valid", func(t *testing.T) {
		coupon, err := service.CreateServerCoupon(ctx, base())
		require.NoError(t, err)
		assert.Equal(t, "NEW", coupon.Code)
	})

	t.Run("percentage out of range", func(t *testing.T) {
		req := base()
		req.DiscountPercentage = 150
		_, err := service.CreateServerCoupon(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("inverted window", func(t *testing.T) {
		req := base()
		req.EndDate = req.StartDate.Add(-time.Hour)
		_, err := service.CreateServerCoupon(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("non-positive cap", func(t *testing.T) {
		req := base()
		cap := int64(0)
		req.MaximumRedemption = &cap
		_, err := service.CreateServerCoupon(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})
}
