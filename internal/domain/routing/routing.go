// Package routing persists a classified product into the partition that
// matches its label.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
	"github.com/zainab-hr/ProjetProduits/pkg/metrics"
)

// ErrUnknownPartition is returned when no backend is registered for a partition.
var ErrUnknownPartition = errors.New("unknown partition")

// Partition is the write side of one storage backend.
type Partition interface {
	Insert(ctx context.Context, in model.ProductInput) (model.Product, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// Dispatcher routes each insert to exactly one partition.
type Dispatcher struct {
	partitions map[types.Partition]Partition
	log        logger.Logger
}

// NewDispatcher requires a backend for every partition in types.Partitions.
func NewDispatcher(partitions map[types.Partition]Partition, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{partitions: make(map[types.Partition]Partition, len(partitions))}
	for _, p := range types.Partitions() {
		backend, ok := partitions[p]
		if !ok || backend == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPartition, p)
		}
		d.partitions[p] = backend
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logger.OrGet(d.log, "routing")
	return d, nil
}

// Dispatch inserts in into the partition selected by label and returns the
// stored record. The partition is returned even when the insert fails.
func (d *Dispatcher) Dispatch(ctx context.Context, label types.Label, in model.ProductInput) (model.Product, types.Partition, error) {
	partition := types.PartitionFor(label.String())
	backend, ok := d.partitions[partition]
	if !ok {
		return model.Product{}, partition, fmt.Errorf("%w: %s", ErrUnknownPartition, partition)
	}

	start := time.Now()
	product, err := backend.Insert(ctx, in)
	latency := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordPartitionInsert(partition.String(), err == nil, latency)
	if err != nil {
		d.log.Warn(ctx, "partition insert failed",
			logger.String("partition", partition.String()),
			logger.String("product_name", in.Name),
			logger.Error(err),
		)
		return model.Product{}, partition, fmt.Errorf("insert into %s: %w", partition, err)
	}

	d.log.Debug(ctx, "product routed",
		logger.String("partition", partition.String()),
		logger.Int64("id", product.ID),
		logger.Float64("latency_ms", latency),
	)
	return product, partition, nil
}
