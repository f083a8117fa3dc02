package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReturned  OrderStatus = "returned"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// OrderStatusEntry is one line of the append-only status log.
type OrderStatusEntry struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

// OrderProduct is a single order line referencing one product variant.
type OrderProduct struct {
	ProductID  primitive.ObjectID `json:"product_id" bson:"product_id" validate:"required"`
	VariantID  primitive.ObjectID `json:"variant_id" bson:"variant_id" validate:"required"`
	Amount     int64              `json:"amount" bson:"amount" validate:"required,gt=0"`
	TotalPrice float64            `json:"total_price" bson:"total_price"`
}

// Order is a placed purchase. StatusLog is append-only; the current status is
// derived from the entry with the greatest timestamp rather than cached in a
// separate field.
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID      primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	OrderProducts   []OrderProduct     `json:"order_products" bson:"order_products"`
	OrderTotal      float64            `json:"order_total" bson:"order_total"`
	DiscountApplied float64            `json:"discount_applied" bson:"discount_applied"`
	CouponCode      string             `json:"coupon_code,omitempty" bson:"coupon_code,omitempty"`
	StatusLog       []OrderStatusEntry `json:"status_log" bson:"status_log"`
	Address         string             `json:"address" bson:"address"`
	PhoneNumber     string             `json:"phone_number" bson:"phone_number"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}

// CurrentStatus returns the status with the greatest timestamp in the log, or
// OrderStatusCreated for an empty log.
func (o *Order) CurrentStatus() OrderStatus {
	if len(o.StatusLog) == 0 {
		return OrderStatusCreated
	}

	latest := o.StatusLog[0]
	for _, entry := range o.StatusLog[1:] {
		if entry.Timestamp.After(latest.Timestamp) {
			latest = entry
		}
	}
	return latest.Status
}

// Subtotal is the sum of line totals before any discount.
func (o *Order) Subtotal() float64 {
	var sum float64
	for _, p := range o.OrderProducts {
		sum += p.TotalPrice
	}
	return sum
}

// InsufficientStockItem reports one order line that could not be fulfilled
// together with the quantity actually available at check time.
type InsufficientStockItem struct {
	OrderProduct OrderProduct `json:"order_product"`
	Available    int64        `json:"available"`
}

// CreateOrderResult distinguishes a committed order from a stock rejection.
// When Committed is false nothing was written and Insufficient names every
// line that failed, so the caller can retry with adjusted quantities.
type CreateOrderResult struct {
	Committed    bool                    `json:"committed"`
	Order        *Order                  `json:"order,omitempty"`
	Insufficient []InsufficientStockItem `json:"insufficient,omitempty"`
}

// ValidateStockLines checks every order line against the variant snapshot read
// inside the transaction. It returns the lines whose requested amount exceeds
// the available quantity; a missing variant is reported through the ok flag of
// the variants map and handled by the caller as a hard error, not a stock
// shortage.
func ValidateStockLines(lines []OrderProduct, variants map[primitive.ObjectID]*ProductVariant) []InsufficientStockItem {
	var insufficient []InsufficientStockItem
	for _, line := range lines {
		variant, ok := variants[line.VariantID]
		if !ok {
			continue
		}
		if variant.QuantityInStock < line.Amount {
			insufficient = append(insufficient, InsufficientStockItem{
				OrderProduct: line,
				Available:    variant.QuantityInStock,
			})
		}
	}
	return insufficient
}
