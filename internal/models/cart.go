package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id" validate:"required"`
	VariantID primitive.ObjectID `json:"variant_id" bson:"variant_id" validate:"required"`
	Amount    int64              `json:"amount" bson:"amount" validate:"required,gt=0"`
	AddedAt   time.Time          `json:"added_at" bson:"added_at"`
}

// Cart holds a customer's pending selection. It is cleared best-effort after a
// successful checkout; a leftover cart never affects inventory correctness.
type Cart struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	Items      []CartItem         `json:"items" bson:"items"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
