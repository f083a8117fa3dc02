package services

import (
	"context"

	"github.com/ltt204/Lados-sub002/internal/models"
	"github.com/ltt204/Lados-sub002/internal/repositories/interfaces"
	"github.com/ltt204/Lados-sub002/internal/utils"
	"github.com/ltt204/Lados-sub002/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductService interface {
	ListProducts(ctx context.Context, params *utils.PaginationParams) ([]*models.Product, int64, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProductVariants(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductVariant, error)

	// Staff operations
	CreateProduct(ctx context.Context, product *models.Product) error
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	RestockVariant(ctx context.Context, variantID primitive.ObjectID, quantity int64) error
}

type productService struct {
	productRepo interfaces.ProductRepository
	logger      *logger.Logger
}

func NewProductService(productRepo interfaces.ProductRepository, log *logger.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      log,
	}
}

func (s *productService) ListProducts(ctx context.Context, params *utils.PaginationParams) ([]*models.Product, int64, error) {
	return s.productRepo.List(ctx, params)
}

func (s *productService) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *productService) GetProductVariants(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductVariant, error) {
	return s.productRepo.GetVariantsByProduct(ctx, productID)
}

func (s *productService) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.productRepo.Create(ctx, product)
}

func (s *productService) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return s.productRepo.CreateVariant(ctx, variant)
}

func (s *productService) RestockVariant(ctx context.Context, variantID primitive.ObjectID, quantity int64) error {
	if err := s.productRepo.RestockVariant(ctx, variantID, quantity); err != nil {
		return err
	}
	s.logger.WithField("variant_id", variantID.Hex()).WithField("quantity", quantity).Info("Variant restocked")
	return nil
}
