package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

var (
	ErrCouponNotHeld   = errors.New("customer does not hold this coupon")
	ErrCouponNotUsable = errors.New("coupon is used or expired")
	ErrInvalidCoupon   = errors.New("invalid coupon definition")
)

type CouponService interface {
	// ListUsableCoupons reconciles the customer's coupon list against the
	// global definitions and returns every coupon the customer can apply
	// right now. The returned list never contains duplicate codes, used
	// coupons or expired coupons.
	ListUsableCoupons(ctx context.Context, customerID primitive.ObjectID) ([]*models.CustomerCoupon, error)

	// RedeemCoupon attempts an explicit redemption of code for the customer.
	// Domain failures come back inside the RedemptionResult; the error return
	// is reserved for infrastructure problems.
	RedeemCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (*models.RedemptionResult, error)

	// ComputeDiscount is pure and deterministic; it never touches the store.
	ComputeDiscount(coupon *models.CustomerCoupon, subtotal float64) float64

	// ApplyCoupon quotes the discount a held coupon yields for a subtotal.
	// It does not consume the coupon.
	ApplyCoupon(ctx context.Context, customerID primitive.ObjectID, code string, subtotal float64) (*models.DiscountQuote, error)

	// ConsumeCoupon marks a held coupon used after the order it paid for
	// committed.
	ConsumeCoupon(ctx context.Context, customerID primitive.ObjectID, code string) error

	// CreateServerCoupon registers a new global coupon (staff operation).
	CreateServerCoupon(ctx context.Context, req *models.CreateServerCouponRequest) (*models.ServerCoupon, error)
}

type couponService struct {
	couponRepo interfaces.CouponRepository
	logger     *logger.Logger
}

func NewCouponService(couponRepo interfaces.CouponRepository, log *logger.Logger) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		logger:     log,
	}
}

func (s *couponService) ListUsableCoupons(ctx context.Context, customerID primitive.ObjectID) ([]*models.CustomerCoupon, error) {
	now := time.Now()

	var owned, granted []*models.CustomerCoupon

	// The owned-coupon sweep and the global auto-fetch sweep touch disjoint
	// coupon sets (held codes vs unheld codes), so they run concurrently and
	// join before the merged result is assembled.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = s.syncOwnedCoupons(gctx, customerID, now)
		return err
	})
	g.Go(func() error {
		var err error
		granted, err = s.grantAutoFetchCoupons(gctx, customerID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(owned)+len(granted))
	usable := make([]*models.CustomerCoupon, 0, len(owned)+len(granted))
	for _, coupon := range append(owned, granted...) {
		if seen[coupon.Code] {
			continue
		}
		seen[coupon.Code] = true
		usable = append(usable, coupon)
	}

	return usable, nil
}

// syncOwnedCoupons walks the customer's existing grants, deletes stale unused
// ones and returns those still usable.
func (s *couponService) syncOwnedCoupons(ctx context.Context, customerID primitive.ObjectID, now time.Time) ([]*models.CustomerCoupon, error) {
	coupons, err := s.couponRepo.GetCustomerCoupons(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var usable []*models.CustomerCoupon
	for _, coupon := range coupons {
		parent, err := s.couponRepo.GetServerCouponByCode(ctx, coupon.Code)
		parentExists := true
		if err != nil {
			if !errors.Is(err, interfaces.ErrCouponNotFound) {
				return nil, err
			}
			parentExists = false
		}

		parentExhausted := parentExists && parent.RedemptionExhausted()
		if coupon.EligibleForCleanup(parentExists, parentExhausted) {
			if err := s.couponRepo.DeleteCustomerCoupon(ctx, customerID, coupon.ID); err != nil {
				return nil, err
			}
			s.logger.WithCustomerID(customerID).WithCouponCode(coupon.Code).Debug("Removed stale coupon")
			continue
		}

		if !coupon.EligibleForUsage(now) {
			continue
		}
		// A duration-bearing grant lives out its own usage window even if the
		// parent's global window has closed in the meantime.
		if parentExists && coupon.UsageDuration == 0 && now.After(parent.EndDate) {
			continue
		}

		usable = append(usable, coupon)
	}

	return usable, nil
}

// grantAutoFetchCoupons hands out active auto-fetching coupons the customer
// does not hold yet. The grant is an upsert keyed by (customer, code), so
// racing with the owned-coupon sweep or a retried request never duplicates a
// grant.
func (s *couponService) grantAutoFetchCoupons(ctx context.Context, customerID primitive.ObjectID, now time.Time) ([]*models.CustomerCoupon, error) {
	globals, err := s.couponRepo.GetActiveAutoFetchCoupons(ctx, now)
	if err != nil {
		return nil, err
	}

	var granted []*models.CustomerCoupon
	for _, serverCoupon := range globals {
		if serverCoupon.RedemptionExhausted() || !serverCoupon.WithinValidityWindow(now) {
			continue
		}

		held, err := s.couponRepo.HasCustomerCoupon(ctx, customerID, serverCoupon.Code)
		if err != nil {
			return nil, err
		}
		if held {
			continue
		}

		grant := serverCoupon.NewCustomerCoupon(customerID, now)
		if err := s.couponRepo.Grant(ctx, grant); err != nil {
			return nil, err
		}
		s.logger.LogCouponEvent(customerID, serverCoupon.Code, "auto_granted", nil)

		if grant.EligibleForUsage(now) {
			granted = append(granted, grant)
		}
	}

	return granted, nil
}

func (s *couponService) RedeemCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (*models.RedemptionResult, error) {
	result, err := s.couponRepo.Redeem(ctx, customerID, code, time.Now())
	if err != nil {
		// Infrastructure failure: surface a generic internal reason so the
		// caller can distinguish it from the domain rejections.
		s.logger.WithCustomerID(customerID).WithCouponCode(code).WithError(err).Error("Coupon redemption failed")
		return models.RedemptionFailure(models.RedemptionErrInternal), nil
	}

	if result.Success() {
		s.logger.LogCouponEvent(customerID, code, "redeemed", nil)
	}
	return result, nil
}

func (s *couponService) ComputeDiscount(coupon *models.CustomerCoupon, subtotal float64) float64 {
	return coupon.ComputeDiscount(subtotal)
}

func (s *couponService) ApplyCoupon(ctx context.Context, customerID primitive.ObjectID, code string, subtotal float64) (*models.DiscountQuote, error) {
	coupon, err := s.couponRepo.GetCustomerCoupon(ctx, customerID, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrCouponNotFound) {
			return nil, ErrCouponNotHeld
		}
		return nil, err
	}

	if !coupon.EligibleForUsage(time.Now()) {
		return nil, ErrCouponNotUsable
	}

	discount := coupon.ComputeDiscount(subtotal)
	return &models.DiscountQuote{
		Code:     coupon.Code,
		Discount: discount,
		Subtotal: subtotal,
		Total:    subtotal - discount,
	}, nil
}

func (s *couponService) ConsumeCoupon(ctx context.Context, customerID primitive.ObjectID, code string) error {
	return s.couponRepo.MarkUsed(ctx, customerID, code)
}

func (s *couponService) CreateServerCoupon(ctx context.Context, req *models.CreateServerCouponRequest) (*models.ServerCoupon, error) {
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		return nil, fmt.Errorf("%w: discount percentage out of range", ErrInvalidCoupon)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrInvalidCoupon)
	}
	if req.MaximumRedemption != nil && *req.MaximumRedemption <= 0 {
		return nil, fmt.Errorf("%w: maximum redemption must be positive", ErrInvalidCoupon)
	}

	coupon := &models.ServerCoupon{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		MinimumOrderAmount: req.MinimumOrderAmount,
		MaximumDiscount:    req.MaximumDiscount,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		UsageDuration:      req.UsageDuration,
		MaximumRedemption:  req.MaximumRedemption,
		AutoFetching:       req.AutoFetching,
	}

	if err := s.couponRepo.CreateServerCoupon(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.WithCouponCode(coupon.Code).Info("Server coupon created")
	return coupon, nil
}
