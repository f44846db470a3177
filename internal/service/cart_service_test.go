package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloud-wave-best-zizon/cart-service/internal/domain"
	"github.com/cloud-wave-best-zizon/cart-service/internal/events"
	"github.com/cloud-wave-best-zizon/cart-service/internal/service"
	"github.com/cloud-wave-best-zizon/cart-service/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	products []domain.Product
	err      error
	calls    int
	// observe runs while the fetch is in flight
	observe func()
}

func (f *fakeCatalog) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	f.calls++
	if f.observe != nil {
		f.observe()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CartUpdatedEvent
	err    error
}

func (p *recordingPublisher) PublishCartUpdated(ctx context.Context, event events.CartUpdatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

func makeProducts() []domain.Product {
	titles := []string{"A", "B", "C", "D", "E", "F"}
	products := make([]domain.Product, 0, len(titles))
	for i, title := range titles {
		products = append(products, domain.Product{
			ID:       int64(i + 1),
			Title:    title,
			Price:    float64((i + 1) * 10),
			Quantity: 5,
		})
	}
	return products
}

func newCart(catalog service.CatalogFetcher) *service.CartService {
	return service.NewCartService(catalog, money.NewFormatter("en", "GBP"), service.CartSettings{
		TaxRate:      decimal.RequireFromString("0.2"),
		ShippingFlat: decimal.NewFromInt(100),
		PageSize:     4,
	}, zap.NewNop())
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func seed(t *testing.T, cart *service.CartService, products ...domain.Product) {
	t.Helper()
	for _, p := range products {
		cart.AddProduct(context.Background(), p)
	}
}

func TestNewCartService(t *testing.T) {
	cart := newCart(&fakeCatalog{})

	assert.Empty(t, cart.Products())
	assert.False(t, cart.IsLoading())
	assertAmount(t, "0", cart.Subtotal())
	assertAmount(t, "0", cart.Tax())
	assertAmount(t, "100", cart.Total())
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - First Page With Quantity One", func(t *testing.T) {
		catalog := &fakeCatalog{products: makeProducts()}
		cart := newCart(catalog)
		var loadingDuringFetch bool
		catalog.observe = func() { loadingDuringFetch = cart.IsLoading() }

		err := cart.Initialize(ctx)

		require.NoError(t, err)
		assert.True(t, loadingDuringFetch)
		assert.False(t, cart.IsLoading())

		products := cart.Products()
		require.Len(t, products, 4)
		ids := make([]int64, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
			assert.Equal(t, 1, p.Quantity)
		}
		assert.Equal(t, []int64{1, 2, 3, 4}, ids)

		assertAmount(t, "100", cart.Subtotal())
		assertAmount(t, "20", cart.Tax())
		assertAmount(t, "220", cart.Total())

		assert.Equal(t, "£100.00", cart.FormattedSubtotal())
		assert.Equal(t, "£20.00", cart.FormattedTax())
		assert.Equal(t, "£220.00", cart.FormattedTotal())
	})

	t.Run("Success - Catalog Smaller Than Page", func(t *testing.T) {
		cart := newCart(&fakeCatalog{products: makeProducts()[:2]})

		require.NoError(t, cart.Initialize(ctx))

		assert.Len(t, cart.Products(), 2)
		assertAmount(t, "30", cart.Subtotal())
	})

	t.Run("Success - Replaces Existing Contents", func(t *testing.T) {
		cart := newCart(&fakeCatalog{products: makeProducts()})
		seed(t, cart, domain.Product{ID: 99, Price: 1000, Quantity: 1})

		require.NoError(t, cart.Initialize(ctx))

		for _, p := range cart.Products() {
			assert.NotEqual(t, int64(99), p.ID)
		}
		assertAmount(t, "100", cart.Subtotal())
	})

	t.Run("Success - Does Not Alias Catalog Slice", func(t *testing.T) {
		catalog := &fakeCatalog{products: makeProducts()}
		cart := newCart(catalog)

		require.NoError(t, cart.Initialize(ctx))

		assert.Equal(t, 5, catalog.products[0].Quantity)
	})

	t.Run("Failure - Fetch Error Clears Loading", func(t *testing.T) {
		fetchErr := errors.New("connection refused")
		cart := newCart(&fakeCatalog{err: fetchErr})
		seed(t, cart, domain.Product{ID: 7, Price: 10, Quantity: 2})

		err := cart.Initialize(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrCatalogFetch)
		assert.ErrorIs(t, err, fetchErr)
		assert.False(t, cart.IsLoading())
		require.Len(t, cart.Products(), 1)
		assertAmount(t, "20", cart.Subtotal())
	})
}

func TestRemoveProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Removes By ID", func(t *testing.T) {
		cart := newCart(&fakeCatalog{})
		seed(t, cart,
			domain.Product{ID: 1, Title: "A", Price: 10, Quantity: 1},
			domain.Product{ID: 2, Title: "B", Price: 20, Quantity: 1},
		)
		assertAmount(t, "30", cart.Subtotal())

		removed := cart.RemoveProduct(ctx, 1)

		assert.True(t, removed)
		assert.Len(t, cart.Products(), 1)
		assertAmount(t, "20", cart.Subtotal())
		assertAmount(t, "4", cart.Tax())
		assertAmount(t, "124", cart.Total())
	})

	t.Run("Success - Removes Every Duplicate", func(t *testing.T) {
		cart := newCart(&fakeCatalog{})
		seed(t, cart,
			domain.Product{ID: 1, Price: 10},
			domain.Product{ID: 2, Price: 20},
			domain.Product{ID: 1, Price: 10},
		)

		assert.True(t, cart.RemoveProduct(ctx, 1))

		products := cart.Products()
		require.Len(t, products, 1)
		assert.Equal(t, int64(2), products[0].ID)
	})

	t.Run("No-op - Unknown ID", func(t *testing.T) {
		publisher := &recordingPublisher{}
		cart := newCart(&fakeCatalog{})
		seed(t, cart, domain.Product{ID: 1, Price: 10, Quantity: 2})
		cart.SetPublisher(publisher)
		before := cart.Snapshot()

		removed := cart.RemoveProduct(ctx, 42)

		after := cart.Snapshot()
		assert.False(t, removed)
		assert.Equal(t, before.Products, after.Products)
		assert.True(t, before.Subtotal.Equal(after.Subtotal))
		assert.True(t, before.Tax.Equal(after.Tax))
		assert.True(t, before.Total.Equal(after.Total))
		assert.Empty(t, publisher.actions())
	})
}

func TestChangeQuantity(t *testing.T) {
	ctx := context.Background()
	newSeeded := func(t *testing.T) *service.CartService {
		cart := newCart(&fakeCatalog{})
		seed(t, cart,
			domain.Product{ID: 1, Title: "A", Price: 10, Quantity: 1},
			domain.Product{ID: 2, Title: "B", Price: 20, Quantity: 1},
		)
		return cart
	}
	quantityOf := func(cart *service.CartService, id int64) int {
		for _, p := range cart.Products() {
			if p.ID == id {
				return p.Quantity
			}
		}
		return -1
	}

	t.Run("Success - Updates Quantity And Totals", func(t *testing.T) {
		cart := newSeeded(t)

		changed := cart.ChangeQuantity(ctx, 2, 3)

		assert.True(t, changed)
		assert.Equal(t, 3, quantityOf(cart, 2))
		assertAmount(t, "70", cart.Subtotal())
		assertAmount(t, "14", cart.Tax())
		assertAmount(t, "184", cart.Total())
	})

	t.Run("No-op - Quantity Below One", func(t *testing.T) {
		cart := newSeeded(t)
		require.True(t, cart.ChangeQuantity(ctx, 2, 3))

		for _, q := range []int{0, -1, -100} {
			assert.False(t, cart.ChangeQuantity(ctx, 2, q))
		}

		assert.Equal(t, 3, quantityOf(cart, 2))
		assertAmount(t, "70", cart.Subtotal())
		assertAmount(t, "14", cart.Tax())
		assertAmount(t, "184", cart.Total())
	})

	t.Run("No-op - Unknown ID", func(t *testing.T) {
		cart := newSeeded(t)

		assert.False(t, cart.ChangeQuantity(ctx, 42, 5))

		assertAmount(t, "30", cart.Subtotal())
	})
}

func TestAddProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Appends With Carried Quantity", func(t *testing.T) {
		cart := newCart(&fakeCatalog{})
		seed(t, cart, domain.Product{ID: 1, Title: "A", Price: 10, Quantity: 1})
		assertAmount(t, "10", cart.Subtotal())

		cart.AddProduct(ctx, domain.Product{ID: 3, Title: "C", Price: 5, Quantity: 2})

		products := cart.Products()
		require.Len(t, products, 2)
		assert.Equal(t, int64(3), products[1].ID)
		assertAmount(t, "20", cart.Subtotal())
		assertAmount(t, "4", cart.Tax())
		assertAmount(t, "124", cart.Total())
	})

	t.Run("Success - Missing Quantity Counts As One", func(t *testing.T) {
		cart := newCart(&fakeCatalog{})

		cart.AddProduct(ctx, domain.Product{ID: 5, Price: 12.5})

		assert.Equal(t, 0, cart.Products()[0].Quantity)
		assertAmount(t, "12.5", cart.Subtotal())
		assertAmount(t, "2.5", cart.Tax())
	})
}

func TestClearCart(t *testing.T) {
	cart := newCart(&fakeCatalog{})
	seed(t, cart,
		domain.Product{ID: 1, Title: "A", Price: 10, Quantity: 1},
		domain.Product{ID: 2, Title: "B", Price: 20, Quantity: 2},
	)
	assertAmount(t, "50", cart.Subtotal())

	cart.ClearCart(context.Background())

	assert.Empty(t, cart.Products())
	assertAmount(t, "0", cart.Subtotal())
	assertAmount(t, "0", cart.Tax())
	assertAmount(t, "100", cart.Total())
	assert.Equal(t, "£100.00", cart.FormattedTotal())
}

func TestRecomputeTotals(t *testing.T) {
	cart := newCart(&fakeCatalog{})
	seed(t, cart,
		domain.Product{ID: 1, Price: 0.1, Quantity: 3},
		domain.Product{ID: 2, Price: 0.2},
	)

	cart.RecomputeTotals()

	// decimal arithmetic keeps 0.1*3 + 0.2 exact
	assertAmount(t, "0.5", cart.Subtotal())
	assertAmount(t, "0.1", cart.Tax())
	assertAmount(t, "100.6", cart.Total())
}

func TestProductsReturnsCopy(t *testing.T) {
	cart := newCart(&fakeCatalog{})
	seed(t, cart, domain.Product{ID: 1, Price: 10, Quantity: 1})

	products := cart.Products()
	products[0].Quantity = 99

	assert.Equal(t, 1, cart.Products()[0].Quantity)
	assertAmount(t, "10", cart.Subtotal())
}

func TestSummary(t *testing.T) {
	cart := newCart(&fakeCatalog{})
	seed(t, cart, domain.Product{ID: 1, Price: 10, Quantity: 2})

	summary := cart.Summary()

	assert.Len(t, summary.Products, 1)
	assert.Equal(t, 20.0, summary.Subtotal)
	assert.Equal(t, 4.0, summary.Tax)
	assert.Equal(t, 124.0, summary.Total)
	assert.Equal(t, "£124.00", summary.FormattedTotal)
	assert.Equal(t, "GBP", summary.Currency)
	assert.False(t, summary.Loading)
}

func TestCartEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("Publishes Applied Mutations", func(t *testing.T) {
		publisher := &recordingPublisher{}
		cart := newCart(&fakeCatalog{products: makeProducts()})
		cart.SetPublisher(publisher)

		require.NoError(t, cart.Initialize(ctx))
		cart.ChangeQuantity(ctx, 1, 2)
		cart.ChangeQuantity(ctx, 1, 0)
		cart.RemoveProduct(ctx, 2)
		cart.AddProduct(ctx, domain.Product{ID: 9, Price: 1})
		cart.ClearCart(ctx)

		assert.Equal(t, []string{
			events.ActionInitialized,
			events.ActionQuantityChanged,
			events.ActionProductRemoved,
			events.ActionProductAdded,
			events.ActionCleared,
		}, publisher.actions())

		last := publisher.events[len(publisher.events)-1]
		assert.NotEmpty(t, last.EventID)
		assert.Equal(t, 0, last.ItemCount)
		assert.Equal(t, "GBP", last.Currency)
		assert.True(t, decimal.NewFromInt(100).Equal(last.Total))
	})

	t.Run("Publish Failure Does Not Fail Mutation", func(t *testing.T) {
		publisher := &recordingPublisher{err: errors.New("broker down")}
		cart := newCart(&fakeCatalog{})
		cart.SetPublisher(publisher)

		cart.AddProduct(ctx, domain.Product{ID: 1, Price: 10})

		assert.Len(t, cart.Products(), 1)
		assertAmount(t, "10", cart.Subtotal())
	})
}
