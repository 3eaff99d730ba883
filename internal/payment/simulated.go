package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultFailureRate = 0.1
	DefaultLatency     = 1500 * time.Millisecond
)

// SimulatedGateway approves charges at random, declining a fraction of them after a
// fixed delay.
type SimulatedGateway struct {
	failureRate float64
	latency     time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

type SimulatedOption func(*SimulatedGateway)

// WithSeed makes the decline sequence deterministic.
func WithSeed(seed int64) SimulatedOption {
	return func(g *SimulatedGateway) { g.rng = rand.New(rand.NewSource(seed)) }
}

func NewSimulatedGateway(failureRate float64, latency time.Duration, opts ...SimulatedOption) *SimulatedGateway {
	g := &SimulatedGateway{
		failureRate: failureRate,
		latency:     latency,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ Charge) (Result, error) {
	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	g.mu.Unlock()

	if roll < g.failureRate {
		return Result{Status: Declined, Reason: "simulated decline"}, nil
	}
	return Result{Status: Approved}, nil
}
