package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServerCoupon is the global coupon definition managed by staff. RedeemedCount
// only ever increases, exactly once per successful customer redemption.
type ServerCoupon struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code               string             `json:"code" bson:"code" validate:"required"`
	DiscountPercentage float64            `json:"discount_percentage" bson:"discount_percentage" validate:"gte=0,lte=100"`
	MinimumOrderAmount float64            `json:"minimum_order_amount" bson:"minimum_order_amount"`
	MaximumDiscount    float64            `json:"maximum_discount" bson:"maximum_discount"` // 0 = uncapped
	StartDate          time.Time          `json:"start_date" bson:"start_date"`
	EndDate            time.Time          `json:"end_date" bson:"end_date"`
	UsageDuration      int64              `json:"usage_duration" bson:"usage_duration"` // seconds from redemption; 0 = none
	MaximumRedemption  *int64             `json:"maximum_redemption" bson:"maximum_redemption"` // nil = unlimited
	RedeemedCount      int64              `json:"redeemed_count" bson:"redeemed_count"`
	AutoFetching       bool               `json:"auto_fetching" bson:"auto_fetching"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// WithinValidityWindow reports whether now falls inside the coupon's global
// [StartDate, EndDate] window, bounds inclusive.
func (sc *ServerCoupon) WithinValidityWindow(now time.Time) bool {
	return !now.Before(sc.StartDate) && !now.After(sc.EndDate)
}

// RedemptionExhausted reports whether the global redemption cap has been hit.
func (sc *ServerCoupon) RedemptionExhausted() bool {
	return sc.MaximumRedemption != nil && sc.RedeemedCount >= *sc.MaximumRedemption
}

// NewCustomerCoupon builds the personal grant for a customer at redemption
// time. When the parent carries a usage duration the grant expires that many
// seconds after redemption, otherwise it inherits the parent's end date.
func (sc *ServerCoupon) NewCustomerCoupon(customerID primitive.ObjectID, now time.Time) *CustomerCoupon {
	coupon := &CustomerCoupon{
		ID:                 primitive.NewObjectID(),
		CustomerID:         customerID,
		Code:               sc.Code,
		DiscountPercentage: sc.DiscountPercentage,
		MinimumOrderAmount: sc.MinimumOrderAmount,
		MaximumDiscount:    sc.MaximumDiscount,
		UsageDuration:      sc.UsageDuration,
		IsUsed:             false,
		ExpiresAt:          sc.EndDate,
		CreatedAt:          now,
	}

	if sc.UsageDuration > 0 {
		redeemedAt := now
		coupon.RedeemedAt = &redeemedAt
		coupon.ExpiresAt = now.Add(time.Duration(sc.UsageDuration) * time.Second)
	}

	return coupon
}

// CustomerCoupon is a customer's personal grant of a ServerCoupon. The
// discount terms are copied at grant time so later edits to the server coupon
// do not change what the customer was promised. IsUsed flips false to true
// exactly once and never reverts.
type CustomerCoupon struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID         primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	Code               string             `json:"code" bson:"code"`
	DiscountPercentage float64            `json:"discount_percentage" bson:"discount_percentage"`
	MinimumOrderAmount float64            `json:"minimum_order_amount" bson:"minimum_order_amount"`
	MaximumDiscount    float64            `json:"maximum_discount" bson:"maximum_discount"`
	UsageDuration      int64              `json:"usage_duration" bson:"usage_duration"`
	RedeemedAt         *time.Time         `json:"redeemed_at" bson:"redeemed_at"`
	IsUsed             bool               `json:"is_used" bson:"is_used"`
	ExpiresAt          time.Time          `json:"expires_at" bson:"expires_at"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
}

// EligibleForUsage reports whether the coupon can still be applied to an order.
func (cc *CustomerCoupon) EligibleForUsage(now time.Time) bool {
	return !cc.IsUsed && !now.After(cc.ExpiresAt)
}

// EligibleForCleanup reports whether a stale grant should be removed. A grant
// is only ever cleaned up while unused; parentExists and parentExhausted
// describe the current state of the matching ServerCoupon.
func (cc *CustomerCoupon) EligibleForCleanup(parentExists bool, parentExhausted bool) bool {
	if cc.IsUsed {
		return false
	}
	return !parentExists || parentExhausted
}

// ComputeDiscount returns the discount this coupon yields for the given order
// subtotal. Below the minimum order amount the discount is zero; the raw
// percentage value is clamped to MaximumDiscount when one is set. Pure and
// deterministic.
func (cc *CustomerCoupon) ComputeDiscount(subtotal float64) float64 {
	if subtotal <= 0 {
		return 0
	}
	if cc.MinimumOrderAmount > 0 && subtotal < cc.MinimumOrderAmount {
		return 0
	}

	raw := subtotal * cc.DiscountPercentage / 100
	if cc.MaximumDiscount > 0 && raw > cc.MaximumDiscount {
		return cc.MaximumDiscount
	}
	return raw
}

// RedemptionError enumerates the domain reasons a redemption attempt can fail.
type RedemptionError string

const (
	RedemptionErrCodeNotFound           RedemptionError = "CODE_NOT_FOUND"
	RedemptionErrExpired                RedemptionError = "EXPIRED"
	RedemptionErrAlreadyRedeemed        RedemptionError = "ALREADY_REDEEMED"
	RedemptionErrRedemptionLimitReached RedemptionError = "REDEMPTION_LIMIT_REACHED"
	RedemptionErrInternal               RedemptionError = "INTERNAL_ERROR"
)

// RedemptionResult is the tagged outcome of a redemption attempt: either a
// granted coupon or a failure reason, never both.
type RedemptionResult struct {
	Coupon *CustomerCoupon `json:"coupon,omitempty"`
	Reason RedemptionError `json:"reason,omitempty"`
}

func RedemptionSuccess(coupon *CustomerCoupon) *RedemptionResult {
	return &RedemptionResult{Coupon: coupon}
}

func RedemptionFailure(reason RedemptionError) *RedemptionResult {
	return &RedemptionResult{Reason: reason}
}

func (r *RedemptionResult) Success() bool {
	return r.Reason == ""
}

// EvaluateRedemption applies the redemption rules against the current server
// coupon state. It is the single decision point shared by every store
// implementation so the check order stays identical everywhere: unknown code,
// validity window, duplicate grant, then the global cap. An empty return means
// the redemption may proceed.
func EvaluateRedemption(sc *ServerCoupon, alreadyHeld bool, now time.Time) RedemptionError {
	if sc == nil {
		return RedemptionErrCodeNotFound
	}
	if !sc.WithinValidityWindow(now) {
		return RedemptionErrExpired
	}
	if alreadyHeld {
		return RedemptionErrAlreadyRedeemed
	}
	if sc.RedemptionExhausted() {
		return RedemptionErrRedemptionLimitReached
	}
	return ""
}
