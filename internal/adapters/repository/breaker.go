package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
	"github.com/zainab-hr/ProjetProduits/pkg/metrics"
)

// Breaker defaults.
const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
	defaultBreakerInterval = time.Minute
)

// BreakerSettings tunes a BreakerPartition.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before a trial insert.
	Timeout time.Duration
	// Interval resets the closed-state counts.
	Interval time.Duration
}

// BreakerPartition fails inserts fast while its partition keeps failing. It
// never retries.
type BreakerPartition struct {
	Partition
	cb  *gobreaker.CircuitBreaker[model.Product]
	log logger.Logger
}

// NewBreakerPartition wraps p. Zero settings use the defaults.
func NewBreakerPartition(p Partition, s BreakerSettings, opts ...Option) *BreakerPartition {
	o := buildOptions("repository.breaker", opts)
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = defaultBreakerFailures
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultBreakerTimeout
	}
	if s.Interval <= 0 {
		s.Interval = defaultBreakerInterval
	}

	name := p.Name().String()
	metrics.SetBreakerState(name, stateToFloat(gobreaker.StateClosed))

	bp := &BreakerPartition{Partition: p, log: o.log}
	bp.cb = gobreaker.NewCircuitBreaker[model.Product](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.log.Warn(context.Background(), "partition breaker state change",
				logger.String("partition", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.SetBreakerState(name, stateToFloat(to))
		},
		// A cancelled request says nothing about the partition.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return bp
}

// Insert implements Partition.
func (b *BreakerPartition) Insert(ctx context.Context, in model.ProductInput) (model.Product, error) {
	product, err := b.cb.Execute(func() (model.Product, error) {
		return b.Partition.Insert(ctx, in)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return model.Product{}, fmt.Errorf("%w: %s breaker: %w", ErrStorageUnavailable, b.Name(), err)
	}
	return product, err
}

// State returns the breaker state.
func (b *BreakerPartition) State() gobreaker.State { return b.cb.State() }

// Unwrap returns the wrapped partition.
func (b *BreakerPartition) Unwrap() Partition { return b.Partition }

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

var (
	_ Partition = (*BreakerPartition)(nil)
	_ Partition = (*BoltPartition)(nil)
	_ Partition = (*PostgresPartition)(nil)
)
