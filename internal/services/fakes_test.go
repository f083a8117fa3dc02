package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/internal/utils"
	"github.com/ltt204/Lados-sub002/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.ErrorLevel,
		Format: "text",
		Output: "stdout",
	})
	require.NoError(t, err)
	return log
}

func grantKey(customerID primitive.ObjectID, code string) string {
	return customerID.Hex() + "/" + code
}

// fakeCouponRepo keeps coupons in memory. Redeem holds the mutex across the
// whole check-increment-grant sequence, mirroring the transactional store.
type fakeCouponRepo struct {
	mu         sync.Mutex
	servers    map[string]*models.ServerCoupon
	grants     map[string]*models.CustomerCoupon
	failRedeem error
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{
		servers: make(map[string]*models.ServerCoupon),
		grants:  make(map[string]*models.CustomerCoupon),
	}
}

func (f *fakeCouponRepo) CreateServerCoupon(ctx context.Context, coupon *models.ServerCoupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.servers[coupon.Code]; exists {
		return fmt.Errorf("duplicate coupon code %s", coupon.Code)
	}
	f.servers[coupon.Code] = coupon
	return nil
}

func (f *fakeCouponRepo) GetServerCouponByCode(ctx context.Context, code string) (*models.ServerCoupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon, ok := f.servers[strings.TrimSpace(code)]
	if !ok {
		return nil, interfaces.ErrCouponNotFound
	}
	return coupon, nil
}

func (f *fakeCouponRepo) GetActiveAutoFetchCoupons(ctx context.Context, now time.Time) ([]*models.ServerCoupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []*models.ServerCoupon
	for _, coupon := range f.servers {
		if coupon.AutoFetching && coupon.WithinValidityWindow(now) {
			active = append(active, coupon)
		}
	}
	return active, nil
}

func (f *fakeCouponRepo) GetCustomerCoupons(ctx context.Context, customerID primitive.ObjectID) ([]*models.CustomerCoupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var coupons []*models.CustomerCoupon
	for _, coupon := range f.grants {
		if coupon.CustomerID == customerID {
			coupons = append(coupons, coupon)
		}
	}
	return coupons, nil
}

func (f *fakeCouponRepo) GetCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (*models.CustomerCoupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon, ok := f.grants[grantKey(customerID, strings.TrimSpace(code))]
	if !ok {
		return nil, interfaces.ErrCouponNotFound
	}
	return coupon, nil
}

func (f *fakeCouponRepo) HasCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.grants[grantKey(customerID, strings.TrimSpace(code))]
	return ok, nil
}

func (f *fakeCouponRepo) DeleteCustomerCoupon(ctx context.Context, customerID primitive.ObjectID, couponID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, coupon := range f.grants {
		if coupon.CustomerID == customerID && coupon.ID == couponID {
			delete(f.grants, key)
			return nil
		}
	}
	return nil
}

func (f *fakeCouponRepo) Redeem(ctx context.Context, customerID primitive.ObjectID, code string, now time.Time) (*models.RedemptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRedeem != nil {
		return nil, f.failRedeem
	}

	code = strings.TrimSpace(code)
	serverCoupon := f.servers[code]
	_, held := f.grants[grantKey(customerID, code)]

	if reason := models.EvaluateRedemption(serverCoupon, held, now); reason != "" {
		return models.RedemptionFailure(reason), nil
	}

	serverCoupon.RedeemedCount++
	grant := serverCoupon.NewCustomerCoupon(customerID, now)
	f.grants[grantKey(customerID, code)] = grant
	return models.RedemptionSuccess(grant), nil
}

func (f *fakeCouponRepo) Grant(ctx context.Context, coupon *models.CustomerCoupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := grantKey(coupon.CustomerID, coupon.Code)
	if _, exists := f.grants[key]; exists {
		return nil
	}
	f.grants[key] = coupon
	return nil
}

func (f *fakeCouponRepo) MarkUsed(ctx context.Context, customerID primitive.ObjectID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon, ok := f.grants[grantKey(customerID, strings.TrimSpace(code))]
	if !ok {
		return interfaces.ErrCouponNotFound
	}
	coupon.IsUsed = true
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
	variants map[primitive.ObjectID]*models.ProductVariant
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[primitive.ObjectID]*models.Product),
		variants: make(map[primitive.ObjectID]*models.ProductVariant),
	}
}

func (f *fakeProductRepo) Create(ctx context.Context, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, interfaces.ErrProductNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var products []*models.Product
	for _, product := range f.products {
		products = append(products, product)
	}
	return products, int64(len(products)), nil
}

func (f *fakeProductRepo) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variants[variant.ID] = variant
	return nil
}

func (f *fakeProductRepo) GetVariant(ctx context.Context, id primitive.ObjectID) (*models.ProductVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	variant, ok := f.variants[id]
	if !ok {
		return nil, interfaces.ErrVariantNotFound
	}
	return variant, nil
}

func (f *fakeProductRepo) GetVariantsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.ProductVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := make(map[primitive.ObjectID]*models.ProductVariant, len(ids))
	for _, id := range ids {
		if variant, ok := f.variants[id]; ok {
			found[id] = variant
		}
	}
	return found, nil
}

func (f *fakeProductRepo) GetVariantsByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var variants []*models.ProductVariant
	for _, variant := range f.variants {
		if variant.ProductID == productID {
			variants = append(variants, variant)
		}
	}
	return variants, nil
}

func (f *fakeProductRepo) RestockVariant(ctx context.Context, id primitive.ObjectID, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	variant, ok := f.variants[id]
	if !ok {
		return interfaces.ErrVariantNotFound
	}
	variant.QuantityInStock += quantity
	return nil
}

func (f *fakeProductRepo) stock(t *testing.T, id primitive.ObjectID) int64 {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	variant, ok := f.variants[id]
	require.True(t, ok)
	return variant.QuantityInStock
}

// fakeOrderRepo validates and decrements against the product repo under its
// mutex, so Create is atomic the way the transactional store is.
type fakeOrderRepo struct {
	products *fakeProductRepo
	mu       sync.Mutex
	orders   map[primitive.ObjectID]*models.Order
}

func newFakeOrderRepo(products *fakeProductRepo) *fakeOrderRepo {
	return &fakeOrderRepo{
		products: products,
		orders:   make(map[primitive.ObjectID]*models.Order),
	}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) (*models.CreateOrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products.mu.Lock()
	defer f.products.mu.Unlock()

	snapshot := make(map[primitive.ObjectID]*models.ProductVariant, len(order.OrderProducts))
	for _, line := range order.OrderProducts {
		variant, ok := f.products.variants[line.VariantID]
		if !ok {
			return nil, fmt.Errorf("variant %s: %w", line.VariantID.Hex(), interfaces.ErrVariantNotFound)
		}
		snapshot[line.VariantID] = variant
	}

	insufficient := models.ValidateStockLines(order.OrderProducts, snapshot)
	if len(insufficient) > 0 {
		return &models.CreateOrderResult{Committed: false, Insufficient: insufficient}, nil
	}

	for _, line := range order.OrderProducts {
		snapshot[line.VariantID].QuantityInStock -= line.Amount
	}
	f.orders[order.ID] = order

	return &models.CreateOrderResult{Committed: true, Order: order}, nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, interfaces.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []*models.Order
	for _, order := range f.orders {
		if order.CustomerID == customerID {
			orders = append(orders, order)
		}
	}
	return orders, int64(len(orders)), nil
}

func (f *fakeOrderRepo) GetAll(ctx context.Context, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []*models.Order
	for _, order := range f.orders {
		orders = append(orders, order)
	}
	return orders, int64(len(orders)), nil
}

func (f *fakeOrderRepo) AppendStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return interfaces.ErrOrderNotFound
	}
	order.StatusLog = append(order.StatusLog, models.OrderStatusEntry{Status: status, Timestamp: now})
	return nil
}

func (f *fakeOrderRepo) count(t *testing.T) int {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakeCartRepo struct {
	mu     sync.Mutex
	carts  map[primitive.ObjectID]*models.Cart
	clears int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[primitive.ObjectID]*models.Cart)}
}

func (f *fakeCartRepo) GetByCustomer(ctx context.Context, customerID primitive.ObjectID) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cart, ok := f.carts[customerID]; ok {
		return cart, nil
	}
	return &models.Cart{CustomerID: customerID}, nil
}

func (f *fakeCartRepo) Save(ctx context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[cart.CustomerID] = cart
	return nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, customerID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, customerID)
	f.clears++
	return nil
}

func (f *fakeCartRepo) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}
