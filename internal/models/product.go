package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" validate:"required"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	ImageURLs   []string           `json:"image_urls" bson:"image_urls"`
	IsListed    bool               `json:"is_listed" bson:"is_listed"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProductVariant is the sellable unit. QuantityInStock never goes negative;
// the only decrement path is the order placement transaction.
type ProductVariant struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID       primitive.ObjectID `json:"product_id" bson:"product_id"`
	Size            string             `json:"size" bson:"size"`
	Color           string             `json:"color" bson:"color"`
	QuantityInStock int64              `json:"quantity_in_stock" bson:"quantity_in_stock" validate:"gte=0"`
	OriginalPrice   float64            `json:"original_price" bson:"original_price" validate:"gte=0"`
	SalePrice       *float64           `json:"sale_price" bson:"sale_price"` // nil = no sale
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// EffectivePrice is the sale price when one is set, otherwise the original.
func (v *ProductVariant) EffectivePrice() float64 {
	if v.SalePrice != nil {
		return *v.SalePrice
	}
	return v.OriginalPrice
}

func (v *ProductVariant) InStock(amount int64) bool {
	return v.QuantityInStock >= amount
}
