package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/internal/utils"
	"github.com/ltt204/Lados-sub002/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyOrder     = errors.New("order has no items")
	ErrTooManyLines   = errors.New("order has too many lines")
	ErrLineTooLarge   = errors.New("order line amount exceeds the per-line limit")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrOrderOwnership = errors.New("order belongs to another customer")
)

type OrderService interface {
	// CreateOrder places an order for the customer: it prices every line
	// from the current variant, applies an optional held coupon, and commits
	// stock decrement plus order documents atomically. On a stock shortage
	// nothing is written and the result names each short line with the
	// quantity actually available.
	CreateOrder(ctx context.Context, customerID primitive.ObjectID, req *models.CreateOrderRequest) (*models.CreateOrderResult, error)

	GetOrder(ctx context.Context, customerID primitive.ObjectID, orderID primitive.ObjectID) (*models.Order, error)
	ListCustomerOrders(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error)
	ListAllOrders(ctx context.Context, params *utils.PaginationParams) ([]*models.Order, int64, error)

	// UpdateOrderStatus appends a status entry; the log itself is never
	// rewritten.
	UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) error
}

type orderService struct {
	orderRepo     interfaces.OrderRepository
	productRepo   interfaces.ProductRepository
	cartRepo      interfaces.CartRepository
	couponService CouponService
	logger        *logger.Logger
}

func NewOrderService(
	orderRepo interfaces.OrderRepository,
	productRepo interfaces.ProductRepository,
	cartRepo interfaces.CartRepository,
	couponService CouponService,
	log *logger.Logger,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		cartRepo:      cartRepo,
		couponService: couponService,
		logger:        log,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, customerID primitive.ObjectID, req *models.CreateOrderRequest) (*models.CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if len(req.Items) > utils.MaxOrderLines {
		return nil, ErrTooManyLines
	}

	variantIDs := make([]primitive.ObjectID, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Amount > utils.MaxAmountPerLine {
			return nil, ErrLineTooLarge
		}
		variantIDs = append(variantIDs, item.VariantID)
	}

	variants, err := s.productRepo.GetVariantsByIDs(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	// Price the lines from the variants as they stand now. The stock check
	// inside the transaction re-reads them; this pass only fixes prices and
	// rejects references to variants that do not exist at all.
	lines := make([]models.OrderProduct, 0, len(req.Items))
	var subtotal float64
	for _, item := range req.Items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return nil, fmt.Errorf("variant %s: %w", item.VariantID.Hex(), interfaces.ErrVariantNotFound)
		}

		linePrice := variant.EffectivePrice() * float64(item.Amount)
		lines = append(lines, models.OrderProduct{
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Amount:     item.Amount,
			TotalPrice: linePrice,
		})
		subtotal += linePrice
	}

	var discount float64
	if req.CouponCode != "" {
		quote, err := s.couponService.ApplyCoupon(ctx, customerID, req.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount
	}

	now := time.Now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		CustomerID:      customerID,
		OrderProducts:   lines,
		OrderTotal:      subtotal - discount,
		DiscountApplied: discount,
		CouponCode:      req.CouponCode,
		StatusLog:       []models.OrderStatusEntry{{Status: models.OrderStatusCreated, Timestamp: now}},
		Address:         req.Address,
		PhoneNumber:     req.PhoneNumber,
		CreatedAt:       now,
	}

	result, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	if result.Committed {
		s.logger.LogOrderEvent(order.ID, "placed", map[string]interface{}{
			"customer_id": customerID.Hex(),
			"order_total": order.OrderTotal,
			"lines":       len(order.OrderProducts),
		})
		// Bookkeeping after the inventory commit: failures here cannot
		// un-sell stock, so they are logged and not surfaced to the caller.
		go s.postCommit(customerID, order)
	} else {
		s.logger.WithCustomerID(customerID).WithField("insufficient_lines", len(result.Insufficient)).
			Info("Order rejected for insufficient stock")
	}

	return result, nil
}

func (s *orderService) postCommit(customerID primitive.ObjectID, order *models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), utils.PostCommitTimeout)
	defer cancel()

	if err := s.cartRepo.Clear(ctx, customerID); err != nil {
		s.logger.WithCustomerID(customerID).WithOrderID(order.ID).WithError(err).Warn("Failed to clear cart after checkout")
	}

	if order.CouponCode != "" {
		if err := s.couponService.ConsumeCoupon(ctx, customerID, order.CouponCode); err != nil {
			s.logger.WithCustomerID(customerID).WithOrderID(order.ID).WithCouponCode(order.CouponCode).
				WithError(err).Warn("Failed to mark coupon used after checkout")
		}
	}
}

func (s *orderService) GetOrder(ctx context.Context, customerID primitive.ObjectID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrOrderOwnership
	}
	return order, nil
}

func (s *orderService) ListCustomerOrders(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	return s.orderRepo.GetByCustomer(ctx, customerID, params)
}

func (s *orderService) ListAllOrders(ctx context.Context, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	return s.orderRepo.GetAll(ctx, params)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if err := s.orderRepo.AppendStatus(ctx, orderID, status, time.Now()); err != nil {
		return err
	}

	s.logger.LogOrderEvent(orderID, "status_changed", map[string]interface{}{
		"status": string(status),
	})
	return nil
}
