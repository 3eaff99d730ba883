// Package cart implements the per-user shopping cart. Every mutation is persisted under
// store.CartKey before it returns, so a cart survives restarts.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/feedback"
	"github.com/SofiaPH25/Quick-Shop/internal/platform/observability"
	"github.com/SofiaPH25/Quick-Shop/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GuestID owns the cart of a shopper who has not signed in.
const GuestID = "guest"

// Line is a product snapshot taken when it was added, with the requested quantity.
type Line struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Subtotal returns the snapshot price times the quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Catalog resolves live product data for Reconcile.
type Catalog interface {
	Product(id string) (domain.Product, error)
}

// Cart is safe for concurrent use.
type Cart struct {
	mu     sync.Mutex
	store  store.Store
	userID string
	lines  []Line
	events *feedback.Queue
	logger observability.Logger
}

type Option func(*Cart)

// WithEvents routes feedback to q instead of a private queue.
func WithEvents(q *feedback.Queue) Option {
	return func(c *Cart) {
		if q != nil {
			c.events = q
		}
	}
}

func WithLogger(logger observability.Logger) Option {
	return func(c *Cart) { c.logger = observability.LoggerOrNop(logger) }
}

// Load rehydrates the cart of userID from st. A missing cart starts empty.
func Load(ctx context.Context, st store.Store, userID string, opts ...Option) (*Cart, error) {
	if userID == "" {
		userID = GuestID
	}
	c := &Cart{
		store:  st,
		userID: userID,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.events == nil {
		c.events = feedback.NewQueue(feedback.DefaultCapacity)
	}

	var lines []Line
	err := st.Get(ctx, store.CartKey(userID), &lines)
	if err != nil && !errors.Is(err, store.ErrAbsent) {
		return nil, domain.NewError("cart.Load", fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}

	for _, line := range lines {
		if line.Quantity <= 0 || line.Product.ID == "" {
			c.logger.Warn("⚠️ Dropping invalid persisted cart line",
				zap.String("user_id", userID),
				zap.String("product_id", line.Product.ID),
				zap.Int("quantity", line.Quantity),
			)
			continue
		}
		if i := indexOf(c.lines, line.Product.ID); i >= 0 {
			c.logger.Warn("⚠️ Merging duplicate persisted cart line",
				zap.String("user_id", userID),
				zap.String("product_id", line.Product.ID),
			)
			c.lines[i].Quantity = addClamped(c.lines[i].Quantity, line.Quantity, c.lines[i].Product.Stock)
			continue
		}
		if line.Quantity > line.Product.Stock {
			c.logger.Warn("⚠️ Clamping persisted cart line to its stock snapshot",
				zap.String("user_id", userID),
				zap.String("product_id", line.Product.ID),
				zap.Int("quantity", line.Quantity),
				zap.Int("stock", line.Product.Stock),
			)
			if line.Product.Stock <= 0 {
				continue
			}
			line.Quantity = line.Product.Stock
		}
		c.lines = append(c.lines, line)
	}
	return c, nil
}

// addClamped returns a+b capped at limit. Both operands are positive and a <= limit.
func addClamped(a, b, limit int) int {
	if b > limit-a {
		return limit
	}
	return a + b
}

// UserID returns the owner of the cart.
func (c *Cart) UserID() string { return c.userID }

// Events returns the queue that receives this cart's feedback.
func (c *Cart) Events() *feedback.Queue { return c.events }

// AddItem adds quantity units of product, merging with an existing line. The result is
// clamped to product.Stock with a warning.
func (c *Cart) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		return domain.ProductError("cart.AddItem", product.ID, domain.ErrInvalidQuantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	i := indexOf(next, product.ID)

	if i < 0 && product.Stock <= 0 {
		c.events.Push(feedback.KindWarning, fmt.Sprintf("%s is out of stock.", product.Name))
		return domain.ProductError("cart.AddItem", product.ID, domain.ErrInsufficientStock)
	}

	var kind feedback.Kind
	var message string
	if i >= 0 {
		want := next[i].Quantity + quantity
		next[i].Product = product
		if want > product.Stock {
			next[i].Quantity = product.Stock
			kind, message = feedback.KindWarning, fmt.Sprintf("Cannot add more than %d units of %s.", product.Stock, product.Name)
		} else {
			next[i].Quantity = want
			kind, message = feedback.KindSuccess, fmt.Sprintf("%s quantity updated in cart.", product.Name)
		}
		if next[i].Quantity <= 0 {
			next = append(next[:i], next[i+1:]...)
		}
	} else {
		if quantity > product.Stock {
			next = append(next, Line{Product: product, Quantity: product.Stock})
			kind, message = feedback.KindWarning, fmt.Sprintf("Cannot add %d units. Only %d of %s available.", quantity, product.Stock, product.Name)
		} else {
			next = append(next, Line{Product: product, Quantity: quantity})
			kind, message = feedback.KindSuccess, fmt.Sprintf("%s added to cart.", product.Name)
		}
	}

	if err := c.commit(ctx, "cart.AddItem", next); err != nil {
		return err
	}
	c.events.Push(kind, message)
	return nil
}

// SetQuantity sets the quantity of an existing line. A non-positive quantity removes
// the line, a quantity above the observed stock is clamped, and an unknown product is
// ignored.
func (c *Cart) SetQuantity(ctx context.Context, productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	i := indexOf(next, productID)
	if i < 0 {
		return nil
	}

	line := next[i]
	if quantity <= 0 {
		next = append(next[:i], next[i+1:]...)
		return c.commit(ctx, "cart.SetQuantity", next)
	}

	clamped := false
	if quantity > line.Product.Stock {
		quantity = line.Product.Stock
		clamped = true
	}
	next[i].Quantity = quantity
	if quantity <= 0 {
		next = append(next[:i], next[i+1:]...)
	}

	if err := c.commit(ctx, "cart.SetQuantity", next); err != nil {
		return err
	}
	if clamped {
		c.events.Push(feedback.KindWarning, fmt.Sprintf("Maximum stock for %s is %d.", line.Product.Name, line.Product.Stock))
	}
	return nil
}

// RemoveItem drops the line for productID if present.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	i := indexOf(next, productID)
	if i < 0 {
		return nil
	}
	name := next[i].Product.Name
	next = append(next[:i], next[i+1:]...)

	if err := c.commit(ctx, "cart.RemoveItem", next); err != nil {
		return err
	}
	c.events.Push(feedback.KindInfo, fmt.Sprintf("%s removed from cart.", name))
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.commit(ctx, "cart.Clear", nil); err != nil {
		return err
	}
	c.events.Push(feedback.KindInfo, "Cart cleared.")
	return nil
}

// Reconcile refreshes every line from live inventory. Lines whose product vanished or
// sold out are removed and lines above the current stock are clamped, each with a
// warning.
func (c *Cart) Reconcile(ctx context.Context, catalog Catalog) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]Line, 0, len(c.lines))
	var warnings []string
	changed := false

	for _, line := range c.lines {
		live, err := catalog.Product(line.Product.ID)
		if errors.Is(err, domain.ErrProductNotFound) {
			warnings = append(warnings, fmt.Sprintf("%s is no longer available and was removed from your cart.", line.Product.Name))
			changed = true
			continue
		}
		if err != nil {
			return err
		}

		if live.Stock <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s is out of stock and was removed from your cart.", live.Name))
			changed = true
			continue
		}

		quantity := line.Quantity
		if quantity > live.Stock {
			quantity = live.Stock
			warnings = append(warnings, fmt.Sprintf("Only %d of %s available. Quantity adjusted.", live.Stock, live.Name))
		}
		if quantity != line.Quantity || !sameProduct(live, line.Product) {
			changed = true
		}
		next = append(next, Line{Product: live, Quantity: quantity})
	}

	if !changed {
		return nil
	}
	if err := c.commit(ctx, "cart.Reconcile", next); err != nil {
		return err
	}
	for _, w := range warnings {
		c.events.Push(feedback.KindWarning, w)
	}
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Total returns the sum of every line's subtotal.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ItemCount returns the number of units across all lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

// commit persists next and, only on success, makes it the cart state. Must be called
// with c.mu held.
func (c *Cart) commit(ctx context.Context, op string, next []Line) error {
	if next == nil {
		next = []Line{}
	}
	if err := c.store.Set(ctx, store.CartKey(c.userID), next); err != nil {
		c.logger.Error("❌ Failed to persist cart",
			zap.String("op", op),
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return domain.NewError(op, fmt.Errorf("%w: %v", domain.ErrPersistence, err))
	}
	c.lines = next
	return nil
}

// snapshot must be called with c.mu held.
func (c *Cart) snapshot() []Line {
	return append([]Line(nil), c.lines...)
}

func sameProduct(a, b domain.Product) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.Price.Equal(b.Price) &&
		a.ImageURL == b.ImageURL &&
		a.Stock == b.Stock &&
		a.Category == b.Category
}

func indexOf(lines []Line, productID string) int {
	for i, line := range lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}
