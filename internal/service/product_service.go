package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloud-wave-best-zizon/cart-service/internal/domain"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/money"
	"go.uber.org/zap"
)

var ErrProductCreate = errors.New("failed to create product")

const (
	newProductTitle       = "New Product"
	newProductDescription = "A new product added to the cart"
	newProductImage       = "https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_t.png"
	newProductCategory    = "men's clothing"
)

type ProductCreator interface {
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type PriceRange struct {
	Min float64
	Max float64
}

// ProductService adds synthetic products to the cart through the catalog
// backend.
type ProductService struct {
	creator  ProductCreator
	cart     *CartService
	prices   PriceRange
	localIDs bool
	now      func() time.Time
	logger   *zap.Logger
}

// NewProductService builds the service. With localIDs set, products are
// identified by their creation time in Unix milliseconds and whatever id the
// backend echoes is discarded; the mock backend returns the same id for
// every POST.
func NewProductService(creator ProductCreator, cart *CartService, prices PriceRange, localIDs bool, logger *zap.Logger) *ProductService {
	return &ProductService{
		creator:  creator,
		cart:     cart,
		prices:   prices,
		localIDs: localIDs,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *ProductService) AddRandomProduct(ctx context.Context) (*domain.Product, error) {
	draft := domain.Product{
		Title:       newProductTitle,
		Price:       money.RandomPrice(s.prices.Min, s.prices.Max),
		Description: newProductDescription,
		Image:       newProductImage,
		Category:    newProductCategory,
		Quantity:    1,
	}
	var localID int64
	if s.localIDs {
		localID = s.now().UnixMilli()
		draft.ID = localID
	}

	created, err := s.creator.CreateProduct(ctx, draft)
	if err != nil {
		s.logger.Error("Failed to create product",
			zap.Float64("price", draft.Price),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrProductCreate, err)
	}

	product := *created
	if s.localIDs {
		product.ID = localID
	}

	s.cart.AddProduct(ctx, product)

	s.logger.Info("Product added to cart",
		zap.Int64("product_id", product.ID),
		zap.Float64("price", product.Price))

	return &product, nil
}
