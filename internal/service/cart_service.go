package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/cart-service/internal/domain"
	"github.com/cloud-wave-best-zizon/cart-service/internal/events"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/metrics"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrCatalogFetch = errors.New("failed to fetch catalog")

type CatalogFetcher interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
}

type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, event events.CartUpdatedEvent) error
}

type CartSettings struct {
	TaxRate      decimal.Decimal
	ShippingFlat decimal.Decimal
	// PageSize is how many catalog entries Initialize places in the cart.
	PageSize int
}

type CartSnapshot struct {
	Products  []domain.Product
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	Loading   bool
	UpdatedAt time.Time
}

// CartService owns the cart contents. Every mutation recomputes the totals
// before releasing the lock.
type CartService struct {
	catalog   CatalogFetcher
	formatter *money.Formatter
	settings  CartSettings
	logger    *zap.Logger
	publisher EventPublisher
	metrics   *metrics.Metrics

	mu        sync.Mutex
	products  []domain.Product
	subtotal  decimal.Decimal
	tax       decimal.Decimal
	total     decimal.Decimal
	loading   int
	updatedAt time.Time
}

func NewCartService(catalog CatalogFetcher, formatter *money.Formatter, settings CartSettings, logger *zap.Logger) *CartService {
	s := &CartService{
		catalog:   catalog,
		formatter: formatter,
		settings:  settings,
		logger:    logger,
		products:  []domain.Product{},
	}
	s.recomputeLocked()
	return s
}

// SetPublisher injects the cart event publisher at runtime.
func (s *CartService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

func (s *CartService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Initialize replaces the cart with the first PageSize catalog products,
// each with quantity 1. The loading flag is cleared even when the fetch
// fails; the previous contents are kept in that case.
func (s *CartService) Initialize(ctx context.Context) error {
	s.setLoading(1)
	defer s.setLoading(-1)

	start := time.Now()
	products, err := s.catalog.FetchProducts(ctx)
	s.metrics.ObserveCatalogFetch(time.Since(start), err)
	if err != nil {
		s.logger.Error("Failed to initialize cart", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	n := min(s.settings.PageSize, len(products))
	window := make([]domain.Product, n)
	copy(window, products[:n])
	for i := range window {
		window[i].Quantity = 1
	}

	s.mu.Lock()
	s.products = window
	s.recomputeLocked()
	event := s.eventLocked(events.ActionInitialized, 0)
	s.mu.Unlock()

	s.logger.Info("Cart initialized",
		zap.Int("catalog_size", len(products)),
		zap.Int("products", n))

	s.publish(ctx, event)
	return nil
}

// RemoveProduct drops every entry with the given id. It reports whether
// anything was removed; totals are recomputed either way.
func (s *CartService) RemoveProduct(ctx context.Context, productID int64) bool {
	s.mu.Lock()
	kept := s.products[:0:0]
	for _, p := range s.products {
		if p.ID != productID {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(s.products)
	s.products = kept
	s.recomputeLocked()
	event := s.eventLocked(events.ActionProductRemoved, productID)
	s.mu.Unlock()

	if removed {
		s.publish(ctx, event)
	}
	return removed
}

// ChangeQuantity sets the quantity of the first product with the given id.
// Quantities below 1 and unknown ids are ignored.
func (s *CartService) ChangeQuantity(ctx context.Context, productID int64, quantity int) bool {
	if quantity < 1 {
		return false
	}

	s.mu.Lock()
	idx := s.indexLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.products[idx].Quantity = quantity
	s.recomputeLocked()
	event := s.eventLocked(events.ActionQuantityChanged, productID)
	s.mu.Unlock()

	s.publish(ctx, event)
	return true
}

// AddProduct appends product as-is, including whatever quantity it carries.
func (s *CartService) AddProduct(ctx context.Context, product domain.Product) {
	s.mu.Lock()
	s.products = append(s.products, product)
	s.recomputeLocked()
	event := s.eventLocked(events.ActionProductAdded, product.ID)
	s.mu.Unlock()

	s.publish(ctx, event)
}

func (s *CartService) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.products = []domain.Product{}
	s.recomputeLocked()
	event := s.eventLocked(events.ActionCleared, 0)
	s.mu.Unlock()

	s.publish(ctx, event)
}

func (s *CartService) RecomputeTotals() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *CartService) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *CartService) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotal
}

func (s *CartService) Tax() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tax
}

func (s *CartService) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *CartService) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

func (s *CartService) FormattedSubtotal() string {
	return s.formatter.FormatDefault(s.Subtotal())
}

func (s *CartService) FormattedTax() string {
	return s.formatter.FormatDefault(s.Tax())
}

func (s *CartService) FormattedTotal() string {
	return s.formatter.FormatDefault(s.Total())
}

func (s *CartService) Snapshot() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	return CartSnapshot{
		Products:  products,
		Subtotal:  s.subtotal,
		Tax:       s.tax,
		Total:     s.total,
		Loading:   s.loading > 0,
		UpdatedAt: s.updatedAt,
	}
}

// Summary is the snapshot in its wire shape, totals formatted in the
// default currency.
func (s *CartService) Summary() domain.CartResponse {
	snap := s.Snapshot()
	return domain.CartResponse{
		Products:          snap.Products,
		Subtotal:          snap.Subtotal.InexactFloat64(),
		Tax:               snap.Tax.InexactFloat64(),
		Total:             snap.Total.InexactFloat64(),
		FormattedSubtotal: s.formatter.FormatDefault(snap.Subtotal),
		FormattedTax:      s.formatter.FormatDefault(snap.Tax),
		FormattedTotal:    s.formatter.FormatDefault(snap.Total),
		Currency:          s.formatter.DefaultCurrency(),
		Loading:           snap.Loading,
		UpdatedAt:         snap.UpdatedAt,
	}
}

func (s *CartService) setLoading(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading += delta
}

func (s *CartService) indexLocked(productID int64) int {
	for i, p := range s.products {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

func (s *CartService) recomputeLocked() {
	subtotal := decimal.Zero
	for _, p := range s.products {
		line := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.EffectiveQuantity())))
		subtotal = subtotal.Add(line)
	}
	s.subtotal = subtotal
	s.tax = subtotal.Mul(s.settings.TaxRate)
	s.total = subtotal.Add(s.tax).Add(s.settings.ShippingFlat)
	s.updatedAt = time.Now()
	s.metrics.SetCartTotal(s.total.InexactFloat64())
}

func (s *CartService) eventLocked(action string, productID int64) events.CartUpdatedEvent {
	return events.CartUpdatedEvent{
		EventID:   uuid.NewString(),
		Action:    action,
		ProductID: productID,
		ItemCount: len(s.products),
		Subtotal:  s.subtotal,
		Tax:       s.tax,
		Total:     s.total,
		Currency:  s.formatter.DefaultCurrency(),
		Timestamp: s.updatedAt,
	}
}

func (s *CartService) publish(ctx context.Context, event events.CartUpdatedEvent) {
	s.metrics.ObserveCartMutation(event.Action)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCartUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish cart event",
			zap.String("event_id", event.EventID),
			zap.String("action", event.Action),
			zap.Error(err))
	}
}
