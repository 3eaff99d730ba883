// Package inventory owns the authoritative per-product stock counts.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"
	"github.com/SofiaPH25/Quick-Shop/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/SofiaPH25/Quick-Shop/internal/inventory"

// Reservation is a request to take Quantity units of ProductID.
type Reservation struct {
	ProductID string
	Quantity  int
}

// Ledger holds the catalog and its stock counts. All reads and writes go through one
// mutex and every change is persisted as a full snapshot under store.InventoryKey
// before the call returns.
type Ledger struct {
	mu       sync.Mutex
	store    store.Store
	logger   observability.Logger
	tracer   observability.Tracer
	products []domain.Product
	index    map[string]int
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithLogger(logger observability.Logger) Option {
	return func(l *Ledger) { l.logger = observability.LoggerOrNop(logger) }
}

func WithTracer(tracer observability.Tracer) Option {
	return func(l *Ledger) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// NewLedger creates a ledger backed by st and loads any persisted snapshot.
func NewLedger(ctx context.Context, st store.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:  st,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		index:  map[string]int{},
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Load replaces the in-memory catalog with the persisted snapshot. An absent snapshot
// leaves the ledger empty.
func (l *Ledger) Load(ctx context.Context) error {
	var products []domain.Product
	err := l.store.Get(ctx, store.InventoryKey, &products)
	if errors.Is(err, store.ErrAbsent) {
		products = nil
	} else if err != nil {
		return domain.NewError("ledger.Load", fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}
	if err := validateCatalog(products); err != nil {
		return domain.NewError("ledger.Load", fmt.Errorf("%w: corrupt inventory snapshot: %v", domain.ErrPersistence, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.replace(products)
	return nil
}

// Seed persists products as the catalog if no snapshot exists yet. It reports whether
// seeding happened; otherwise the existing snapshot is loaded.
func (l *Ledger) Seed(ctx context.Context, products []domain.Product) (bool, error) {
	if err := validateCatalog(products); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var existing []domain.Product
	err := l.store.Get(ctx, store.InventoryKey, &existing)
	switch {
	case err == nil:
		if err := validateCatalog(existing); err != nil {
			return false, domain.NewError("ledger.Seed", fmt.Errorf("%w: corrupt inventory snapshot: %v", domain.ErrPersistence, err))
		}
		l.replace(existing)
		return false, nil
	case !errors.Is(err, store.ErrAbsent):
		return false, domain.NewError("ledger.Seed", fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}

	if err := l.store.Set(ctx, store.InventoryKey, products); err != nil {
		return false, domain.NewError("ledger.Seed", fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}
	l.replace(products)

	l.logger.Info("🌱 Catalog seeded", zap.Int("products", len(products)))
	return true, nil
}

// Reset overwrites the persisted catalog with products.
func (l *Ledger) Reset(ctx context.Context, products []domain.Product) error {
	if err := validateCatalog(products); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Set(ctx, store.InventoryKey, products); err != nil {
		return domain.NewError("ledger.Reset", fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}
	l.replace(products)
	return nil
}

// Products returns a copy of the catalog in seed order.
func (l *Ledger) Products() []domain.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Product(nil), l.products...)
}

// Product returns the catalog entry for id.
func (l *Ledger) Product(id string) (domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return domain.Product{}, domain.ProductError("ledger.Product", id, domain.ErrProductNotFound)
	}
	return l.products[i], nil
}

// GetStock returns the current stock of productID.
func (l *Ledger) GetStock(productID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[productID]
	if !ok {
		return 0, domain.ProductError("ledger.GetStock", productID, domain.ErrProductNotFound)
	}
	return l.products[i].Stock, nil
}

// TryDecrement subtracts amount from productID's stock. It never lets stock go
// negative; an amount larger than the stock fails with ErrInsufficientStock.
func (l *Ledger) TryDecrement(ctx context.Context, productID string, amount int) error {
	ctx, span := l.tracer.Start(ctx, "inventory.try_decrement")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("inventory.amount", amount),
	)

	if amount <= 0 {
		return spanError(span, domain.ProductError("ledger.TryDecrement", productID, domain.ErrInvalidQuantity))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[productID]
	if !ok {
		return spanError(span, domain.ProductError("ledger.TryDecrement", productID, domain.ErrProductNotFound))
	}

	before := l.products[i].Stock
	if before < amount {
		span.SetAttributes(attribute.Int("inventory.available", before))
		return spanError(span, domain.ProductError("ledger.TryDecrement", productID, domain.ErrInsufficientStock))
	}

	l.products[i].Stock = before - amount
	if err := l.persist(ctx); err != nil {
		l.products[i].Stock = before
		l.logger.Error("❌ Failed to persist stock decrement",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return spanError(span, domain.ProductError("ledger.TryDecrement", productID,
			fmt.Errorf("%w: %v", domain.ErrPersistence, err)))
	}

	span.SetAttributes(attribute.Int("inventory.remaining", before-amount))
	span.SetStatus(codes.Ok, "stock decremented")
	return nil
}

// SetStock overwrites productID's stock with value.
func (l *Ledger) SetStock(ctx context.Context, productID string, value int) error {
	ctx, span := l.tracer.Start(ctx, "inventory.set_stock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("inventory.stock", value),
	)

	if value < 0 {
		return spanError(span, domain.ProductError("ledger.SetStock", productID, domain.ErrInvalidQuantity))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[productID]
	if !ok {
		return spanError(span, domain.ProductError("ledger.SetStock", productID, domain.ErrProductNotFound))
	}

	before := l.products[i].Stock
	l.products[i].Stock = value
	if err := l.persist(ctx); err != nil {
		l.products[i].Stock = before
		return spanError(span, domain.ProductError("ledger.SetStock", productID,
			fmt.Errorf("%w: %v", domain.ErrPersistence, err)))
	}

	l.logger.Info("📦 Stock adjusted",
		zap.String("product_id", productID),
		zap.Int("previous", before),
		zap.Int("stock", value),
	)
	span.SetStatus(codes.Ok, "stock set")
	return nil
}

// Commit applies every reservation or none of them. Reservations for the same product
// are merged. When stock is short, the error names the first failing product in input
// order.
func (l *Ledger) Commit(ctx context.Context, reservations []Reservation) error {
	ctx, span := l.tracer.Start(ctx, "inventory.commit")
	defer span.End()
	span.SetAttributes(attribute.Int("inventory.lines", len(reservations)))

	merged, err := mergeReservations(reservations)
	if err != nil {
		return spanError(span, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate every line before touching anything.
	for _, r := range merged {
		i, ok := l.index[r.ProductID]
		if !ok {
			return spanError(span, domain.ProductError("ledger.Commit", r.ProductID, domain.ErrProductNotFound))
		}
		if l.products[i].Stock < r.Quantity {
			span.SetAttributes(
				attribute.String("product.id", r.ProductID),
				attribute.Int("inventory.available", l.products[i].Stock),
			)
			return spanError(span, domain.ProductError("ledger.Commit", r.ProductID, domain.ErrInsufficientStock))
		}
	}

	before := make(map[string]int, len(merged))
	for _, r := range merged {
		i := l.index[r.ProductID]
		before[r.ProductID] = l.products[i].Stock
		l.products[i].Stock -= r.Quantity
	}

	if err := l.persist(ctx); err != nil {
		for id, stock := range before {
			l.products[l.index[id]].Stock = stock
		}
		l.logger.Error("❌ Failed to persist stock commit", zap.Error(err))
		return spanError(span, domain.NewError("ledger.Commit", fmt.Errorf("%w: %v", domain.ErrPersistence, err)))
	}

	span.SetStatus(codes.Ok, "stock committed")
	return nil
}

func mergeReservations(reservations []Reservation) ([]Reservation, error) {
	merged := make([]Reservation, 0, len(reservations))
	pos := make(map[string]int, len(reservations))
	for _, r := range reservations {
		if r.Quantity <= 0 {
			return nil, domain.ProductError("ledger.Commit", r.ProductID, domain.ErrInvalidQuantity)
		}
		if i, ok := pos[r.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt-r.Quantity {
				return nil, domain.ProductError("ledger.Commit", r.ProductID, domain.ErrInvalidQuantity)
			}
			merged[i].Quantity += r.Quantity
			continue
		}
		pos[r.ProductID] = len(merged)
		merged = append(merged, r)
	}
	return merged, nil
}

// persist must be called with l.mu held.
func (l *Ledger) persist(ctx context.Context) error {
	return l.store.Set(ctx, store.InventoryKey, l.products)
}

// replace must be called with l.mu held.
func (l *Ledger) replace(products []domain.Product) {
	l.products = append([]domain.Product(nil), products...)
	l.index = make(map[string]int, len(products))
	for i, p := range l.products {
		l.index[p.ID] = i
	}
}

func validateCatalog(products []domain.Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("catalog: product with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Stock < 0 {
			return domain.ProductError("catalog", p.ID, domain.ErrInvalidQuantity)
		}
		if p.Price.IsNegative() {
			return domain.ProductError("catalog", p.ID, fmt.Errorf("negative price %s", p.Price))
		}
	}
	return nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
