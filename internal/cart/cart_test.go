package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"
	"github.com/SofiaPH25/Quick-Shop/internal/feedback"
	"github.com/SofiaPH25/Quick-Shop/internal/store"
	"github.com/SofiaPH25/Quick-Shop/internal/store/storetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func product(id, price string, stock int) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: stock}
}

func newCart(t *testing.T, st store.Store) *Cart {
	t.Helper()
	c, err := Load(context.Background(), st, "u1")
	require.NoError(t, err)
	return c
}

func lastEvent(t *testing.T, c *Cart) feedback.Event {
	t.Helper()
	events := c.Events().Pending()
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

func TestCart_AddItem(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())

	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 5), 2))
	assert.Equal(t, feedback.KindSuccess, lastEvent(t, c).Kind)

	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 5), 1))
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "Product 1 quantity updated in cart.", lastEvent(t, c).Message)
}

func TestCart_AddItemClampsToStock(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())

	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 2), 5))
	assert.Equal(t, 2, c.ItemCount())
	ev := lastEvent(t, c)
	assert.Equal(t, feedback.KindWarning, ev.Kind)
	assert.Equal(t, "Cannot add 5 units. Only 2 of Product 1 available.", ev.Message)

	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 2), 1))
	assert.Equal(t, 2, c.ItemCount())
	assert.Equal(t, "Cannot add more than 2 units of Product 1.", lastEvent(t, c).Message)
}

func TestCart_AddItemRejects(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())

	assert.ErrorIs(t, c.AddItem(ctx, product("1", "10.00", 2), 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddItem(ctx, product("1", "10.00", 2), -3), domain.ErrInvalidQuantity)

	err := c.AddItem(ctx, product("2", "10.00", 0), 1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "2", domain.ProductIDOf(err))
	assert.Equal(t, feedback.KindWarning, lastEvent(t, c).Kind)
	assert.True(t, c.IsEmpty())
}

func TestCart_SetQuantity(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 4), 1))
	require.NoError(t, c.AddItem(ctx, product("2", "1.00", 9), 1))

	require.NoError(t, c.SetQuantity(ctx, "1", 3))
	assert.Equal(t, 3, c.Lines()[0].Quantity)

	require.NoError(t, c.SetQuantity(ctx, "1", 10))
	assert.Equal(t, 4, c.Lines()[0].Quantity)
	assert.Equal(t, "Maximum stock for Product 1 is 4.", lastEvent(t, c).Message)

	require.NoError(t, c.SetQuantity(ctx, "missing", 3))
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.SetQuantity(ctx, "1", 0))
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "2", c.Lines()[0].Product.ID)
}

func TestCart_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 4), 1))
	require.NoError(t, c.AddItem(ctx, product("2", "1.00", 9), 1))

	require.NoError(t, c.RemoveItem(ctx, "1"))
	assert.Equal(t, "Product 1 removed from cart.", lastEvent(t, c).Message)
	require.NoError(t, c.RemoveItem(ctx, "1"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Clear(ctx))
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
	assert.Equal(t, "Cart cleared.", lastEvent(t, c).Message)
}

func TestCart_TotalsAreExact(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("1", "0.10", 10), 3))
	require.NoError(t, c.AddItem(ctx, product("2", "0.20", 10), 1))

	assert.True(t, c.Total().Equal(decimal.RequireFromString("0.50")), c.Total().String())
	assert.Equal(t, 4, c.ItemCount())
}

func TestCart_RehydratesFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	c := newCart(t, st)
	require.NoError(t, c.AddItem(ctx, product("2", "5.00", 10), 2))
	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 10), 1))

	reloaded := newCart(t, st)
	lines := reloaded.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "2", lines[0].Product.ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, reloaded.Total().Equal(c.Total()))

	other, err := Load(ctx, st, "u2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestCart_LoadDropsInvalidLines(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, store.CartKey("u1"), []Line{
		{Product: product("1", "1.00", 3), Quantity: 0},
		{Product: product("2", "1.00", 3), Quantity: 2},
	}))

	c := newCart(t, st)
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "2", c.Lines()[0].Product.ID)
}

func TestCart_LoadClampsAndMergesLines(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, store.CartKey("u1"), []Line{
		{Product: product("1", "1.00", 3), Quantity: 7},
		{Product: product("2", "2.00", 10), Quantity: 4},
		{Product: product("2", "2.00", 10), Quantity: 9},
		{Product: product("3", "5.00", 0), Quantity: 1},
	}))

	c := newCart(t, st)
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].Product.ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "2", lines[1].Product.ID)
	assert.Equal(t, 10, lines[1].Quantity)
	assert.Equal(t, 13, c.ItemCount())
}

func TestCart_LoadGuest(t *testing.T) {
	c, err := Load(context.Background(), store.NewMemoryStore(), "")
	require.NoError(t, err)
	assert.Equal(t, GuestID, c.UserID())
}

func TestCart_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewFlaky()
	c := newCart(t, st)
	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 4), 1))
	eventsBefore := len(c.Events().Pending())

	st.FailWrites(store.CartKey("u1"))

	err := c.AddItem(ctx, product("1", "10.00", 4), 2)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, c.SetQuantity(ctx, "1", 3), domain.ErrPersistence)
	assert.ErrorIs(t, c.RemoveItem(ctx, "1"), domain.ErrPersistence)
	assert.ErrorIs(t, c.Clear(ctx), domain.ErrPersistence)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Len(t, c.Events().Pending(), eventsBefore)

	st.FailWrites()
	require.NoError(t, c.SetQuantity(ctx, "1", 3))
	assert.Equal(t, 3, c.ItemCount())
}

type fakeCatalog map[string]domain.Product

func (f fakeCatalog) Product(id string) (domain.Product, error) {
	p, ok := f[id]
	if !ok {
		return domain.Product{}, domain.ProductError("fake", id, domain.ErrProductNotFound)
	}
	return p, nil
}

func TestCart_Reconcile(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 5), 4))
	require.NoError(t, c.AddItem(ctx, product("2", "3.00", 5), 1))
	require.NoError(t, c.AddItem(ctx, product("3", "1.00", 5), 1))
	require.NoError(t, c.AddItem(ctx, product("4", "2.00", 5), 2))
	c.Events().Drain()

	catalog := fakeCatalog{
		"1": product("1", "12.00", 2),
		"2": product("2", "3.00", 0),
		"4": product("4", "2.00", 5),
	}
	require.NoError(t, c.Reconcile(ctx, catalog))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].Product.ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].Product.Price.Equal(decimal.RequireFromString("12")))
	assert.Equal(t, "4", lines[1].Product.ID)

	events := c.Events().Drain()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, feedback.KindWarning, ev.Kind)
	}

	require.NoError(t, c.Reconcile(ctx, catalog))
	assert.Empty(t, c.Events().Pending())
}

type brokenCatalog struct{}

func (brokenCatalog) Product(string) (domain.Product, error) {
	return domain.Product{}, errors.New("catalog offline")
}

func TestCart_ReconcilePropagatesCatalogErrors(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, store.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("1", "10.00", 5), 1))

	assert.Error(t, c.Reconcile(ctx, brokenCatalog{}))
	assert.Equal(t, 1, c.Len())
}

func TestCart_SharedEventQueue(t *testing.T) {
	q := feedback.NewQueue(2)
	c, err := Load(context.Background(), store.NewMemoryStore(), "u1", WithEvents(q))
	require.NoError(t, err)

	require.NoError(t, c.AddItem(context.Background(), product("1", "1.00", 9), 1))
	assert.Same(t, q, c.Events())
	assert.Len(t, q.Pending(), 1)
}

func TestCart_TotalMatchesLines(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		c, err := Load(ctx, store.NewMemoryStore(), "prop")
		require.NoError(t, err)

		ops := rapid.IntRange(1, 30).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			id := rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(t, "id")
			cents := rapid.Int64Range(0, 100000).Draw(t, "cents")
			stock := rapid.IntRange(1, 20).Draw(t, "stock")
			p := domain.Product{ID: id, Name: id, Price: decimal.New(cents, -2), Stock: stock}

			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				require.NoError(t, c.AddItem(ctx, p, rapid.IntRange(1, 25).Draw(t, "qty")))
			case 1:
				require.NoError(t, c.SetQuantity(ctx, id, rapid.IntRange(-2, 25).Draw(t, "qty")))
			case 2:
				require.NoError(t, c.RemoveItem(ctx, id))
			}

			want := decimal.Zero
			count := 0
			seen := map[string]bool{}
			for _, line := range c.Lines() {
				require.False(t, seen[line.Product.ID], "duplicate line")
				seen[line.Product.ID] = true
				require.Positive(t, line.Quantity)
				require.LessOrEqual(t, line.Quantity, line.Product.Stock)
				want = want.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
				count += line.Quantity
			}
			require.True(t, want.Equal(c.Total()))
			require.Equal(t, count, c.ItemCount())
		}
	})
}
