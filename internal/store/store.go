// Package store provides the keyed persistence used by the ledger, carts and order
// history. Values are JSON documents; every call is atomic for its single key and
// there are no multi-key transactions.
package store

import (
	"context"
	"errors"
)

// ErrAbsent is returned by Get when the key holds no value.
var ErrAbsent = errors.New("key absent")

// Store is a durable key -> JSON value map with last-write-wins semantics per key.
type Store interface {
	// Get decodes the value stored under key into dst. Returns ErrAbsent if missing.
	Get(ctx context.Context, key string, dst any) error

	// Set encodes value as JSON and stores it under key.
	Set(ctx context.Context, key string, value any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Keys used by the core.
const (
	InventoryKey    = "inventory"
	cartKeyPrefix   = "cart:"
	ordersKeyPrefix = "orders:"
)

// CartKey returns the key holding the cart of userID.
func CartKey(userID string) string { return cartKeyPrefix + userID }

// OrdersKey returns the key holding the order history of userID.
func OrdersKey(userID string) string { return ordersKeyPrefix + userID }
