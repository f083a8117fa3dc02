package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

type OrderRepository interface {
	// Create validates and commits the order in one transaction: every
	// referenced variant is read for a consistent snapshot, any missing
	// variant aborts as a hard error, any short stock aborts with the
	// per-line available quantities and no writes. Only when every line
	// passes are all decrements and the order documents (customer-scoped and
	// staff-facing) staged and committed together.
	Create(ctx context.Context, order *models.Order) (*models.CreateOrderResult, error)

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error)
	GetAll(ctx context.Context, params *utils.PaginationParams) ([]*models.Order, int64, error)

	// AppendStatus appends {status, now} to the order's status log with a
	// transactional read-modify-write so concurrent transitions are never
	// lost. Existing entries are never rewritten.
	AppendStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, now time.Time) error
}
