package services

import (
	"context"
	"errors"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidCartItem = errors.New("invalid cart item")

type CartService interface {
	GetCart(ctx context.Context, customerID primitive.ObjectID) (*models.Cart, error)
	ReplaceCart(ctx context.Context, customerID primitive.ObjectID, items []models.CartItem) (*models.Cart, error)
	ClearCart(ctx context.Context, customerID primitive.ObjectID) error
}

type cartService struct {
	cartRepo    interfaces.CartRepository
	productRepo interfaces.ProductRepository
	logger      *logger.Logger
}

func NewCartService(cartRepo interfaces.CartRepository, productRepo interfaces.ProductRepository, log *logger.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      log,
	}
}

func (s *cartService) GetCart(ctx context.Context, customerID primitive.ObjectID) (*models.Cart, error) {
	return s.cartRepo.GetByCustomer(ctx, customerID)
}

func (s *cartService) ReplaceCart(ctx context.Context, customerID primitive.ObjectID, items []models.CartItem) (*models.Cart, error) {
	now := time.Now()
	for i := range items {
		if items[i].Amount <= 0 {
			return nil, ErrInvalidCartItem
		}
		// The referenced variant must exist; stock is not reserved here.
		if _, err := s.productRepo.GetVariant(ctx, items[i].VariantID); err != nil {
			return nil, err
		}
		if items[i].AddedAt.IsZero() {
			items[i].AddedAt = now
		}
	}

	cart := &models.Cart{
		CustomerID: customerID,
		Items:      items,
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, customerID primitive.ObjectID) error {
	return s.cartRepo.Clear(ctx, customerID)
}
