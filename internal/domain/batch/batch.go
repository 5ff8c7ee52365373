// Package batch classifies and routes products one at a time, either singly or
// as a bulk import where each item fails independently.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
	"github.com/zainab-hr/ProjetProduits/pkg/metrics"
)

// Classifier predicts a product's gender.
type Classifier interface {
	Classify(ctx context.Context, in features.Input) (classifier.Result, error)
}

// Dispatcher stores a product in the partition for its label.
type Dispatcher interface {
	Dispatch(ctx context.Context, label types.Label, in model.ProductInput) (model.Product, types.Partition, error)
}

// ValidateFunc checks one item before it is classified.
type ValidateFunc func(in model.ProductInput) error

// Routed is one successfully classified and stored product.
type Routed struct {
	Product   model.Product
	Partition types.Partition
	Result    classifier.Result
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithValidator sets the per-item validation step.
func WithValidator(v ValidateFunc) Option {
	return func(c *Coordinator) { c.validate = v }
}

// Coordinator runs validate, classify and dispatch for each product.
type Coordinator struct {
	classifier Classifier
	dispatcher Dispatcher
	validate   ValidateFunc
	log        logger.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(c Classifier, d Dispatcher, opts ...Option) *Coordinator {
	co := &Coordinator{classifier: c, dispatcher: d}
	for _, opt := range opts {
		opt(co)
	}
	co.log = logger.OrGet(co.log, "batch")
	return co
}

// Features builds the classifier input for a stored product. The description,
// when present, stands in for the product group; counters are always zero.
func Features(in model.ProductInput) features.Input {
	return features.ServingInput(in.Name, in.Category, in.GroupText())
}

// Route classifies one product and stores it in the matching partition.
func (c *Coordinator) Route(ctx context.Context, in model.ProductInput) (Routed, error) {
	res, err := c.classifier.Classify(ctx, Features(in))
	if err != nil {
		return Routed{}, err
	}
	product, partition, err := c.dispatcher.Dispatch(ctx, res.Label, in)
	if err != nil {
		return Routed{Partition: partition, Result: res}, err
	}
	return Routed{Product: product, Partition: partition, Result: res}, nil
}

// Run processes items strictly in order. A failing item, panics included, is
// recorded and never stops the batch, so Total == Homme + Femme + len(Errors).
func (c *Coordinator) Run(ctx context.Context, items []model.ProductInput) model.BatchOutcome {
	batchID := uuid.NewString()
	log := c.log.With(logger.String("batch_id", batchID))
	start := time.Now()

	out := model.BatchOutcome{Total: len(items), Errors: []model.BatchFailure{}}
	log.Info(ctx, "bulk import started", logger.Int("items", len(items)))

	for i, item := range items {
		partition, err := c.runOne(ctx, item)
		if err != nil {
			out.Errors = append(out.Errors, model.BatchFailure{Index: i, ProductName: item.Name, Error: err.Error()})
			log.Warn(ctx, "bulk item failed",
				logger.Int("index", i),
				logger.String("product_name", item.Name),
				logger.Error(err),
			)
			continue
		}
		switch partition {
		case types.PartitionHomme:
			out.Homme++
		default:
			out.Femme++
		}
	}

	metrics.RecordBatch(out.Total, out.Homme, out.Femme, len(out.Errors))
	log.Info(ctx, "bulk import finished",
		logger.Int("total", out.Total),
		logger.Int("homme", out.Homme),
		logger.Int("femme", out.Femme),
		logger.Int("failed", len(out.Errors)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return out
}

func (c *Coordinator) runOne(ctx context.Context, item model.ProductInput) (partition types.Partition, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if c.validate != nil {
		if err := c.validate(item); err != nil {
			return "", err
		}
	}
	routed, err := c.Route(ctx, item)
	if err != nil {
		return "", err
	}
	return routed.Partition, nil
}
