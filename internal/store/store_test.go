package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, client := setupTestRedis(t)

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"redis":  NewRedisStore(client, "test"),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var got record
			assert.ErrorIs(t, st.Get(ctx, "missing", &got), ErrAbsent)

			require.NoError(t, st.Set(ctx, "k", record{Name: "a", Count: 1}))
			require.NoError(t, st.Get(ctx, "k", &got))
			assert.Equal(t, record{Name: "a", Count: 1}, got)

			// last write wins
			require.NoError(t, st.Set(ctx, "k", record{Name: "b", Count: 2}))
			require.NoError(t, st.Get(ctx, "k", &got))
			assert.Equal(t, record{Name: "b", Count: 2}, got)

			require.NoError(t, st.Delete(ctx, "k"))
			assert.ErrorIs(t, st.Get(ctx, "k", &got), ErrAbsent)

			// deleting an absent key is a no-op
			assert.NoError(t, st.Delete(ctx, "k"))
		})
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Set(ctx, CartKey("u1"), []string{"x"}))
			require.NoError(t, st.Set(ctx, OrdersKey("u1"), []string{"y"}))

			var cart, orders []string
			require.NoError(t, st.Get(ctx, CartKey("u1"), &cart))
			require.NoError(t, st.Get(ctx, OrdersKey("u1"), &orders))
			assert.Equal(t, []string{"x"}, cart)
			assert.Equal(t, []string{"y"}, orders)
		})
	}
}

func TestStore_DecodeIntoRawMessage(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Set(ctx, "raw", map[string]int{"a": 1}))

			var raw json.RawMessage
			require.NoError(t, st.Get(ctx, "raw", &raw))
			assert.JSONEq(t, `{"a":1}`, string(raw))
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, InventoryKey, map[string]int{"1": 15}))

	second, err := NewFileStore(dir)
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, second.Get(ctx, InventoryKey, &got))
	assert.Equal(t, map[string]int{"1": 15}, got)
}

func TestFileStore_RequiresDirectory(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = st.Set(ctx, "shared", n)
		}(i)
	}
	wg.Wait()

	var got int
	require.NoError(t, st.Get(ctx, "shared", &got))
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, 50)
}

func TestMemoryStore_RawIsACopy(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Set(ctx, "k", "v"))

	raw, ok := st.Raw("k")
	require.True(t, ok)
	raw[0] = 'X'

	again, _ := st.Raw("k")
	assert.Equal(t, `"v"`, string(again))

	_, ok = st.Raw("nope")
	assert.False(t, ok)
}

func TestRedisStore_Namespacing(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)

	st := NewRedisStore(client, "")
	require.NoError(t, st.Set(ctx, CartKey("u1"), []int{1}))

	assert.True(t, mr.Exists(DefaultRedisNamespace+":cart:u1"))
}

func TestOpenRedisStore(t *testing.T) {
	ctx := context.Background()
	mr, _ := setupTestRedis(t)

	st, err := OpenRedisStore(ctx, "redis://"+mr.Addr(), "shop")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "k", 1))
	assert.True(t, mr.Exists("shop:k"))

	_, err = OpenRedisStore(ctx, "not a url", "")
	assert.Error(t, err)
}
