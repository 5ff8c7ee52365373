// Package classifier predicts the target gender of a product from its encoded
// features and reduces the prediction to a binary Homme/Femme decision.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zainab-hr/ProjetProduits/internal/domain/decision"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
	"github.com/zainab-hr/ProjetProduits/pkg/metrics"
)

// Result is the classification of one product. Label is always Homme or
// Femme; Probabilities holds every fitted class, Unisexe included.
type Result struct {
	Label         types.Label
	Confidence    float64
	Probabilities map[types.Label]float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the classifier logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// WithPolicy replaces the default decision policy.
func WithPolicy(p *decision.Policy) Option {
	return func(c *Classifier) {
		if p != nil {
			c.policy = p
		}
	}
}

// Classifier runs encoder, model and decision policy. It is safe for
// concurrent use: the bundle is never mutated.
type Classifier struct {
	bundle *Bundle
	policy *decision.Policy
	log    logger.Logger
}

// New creates a Classifier. A nil bundle is allowed; Classify then fails with
// ErrModelUnavailable.
func New(bundle *Bundle, opts ...Option) *Classifier {
	c := &Classifier{bundle: bundle}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrGet(c.log, "classifier")
	if c.policy == nil {
		c.policy = decision.NewPolicy(decision.WithLogger(c.log))
	}
	return c
}

// Ready reports whether a bundle is loaded.
func (c *Classifier) Ready() bool { return c != nil && c.bundle != nil }

// Components reports which fitted parts of the bundle are present.
func (c *Classifier) Components() map[string]bool {
	if c == nil {
		return (*Bundle)(nil).Components()
	}
	return c.bundle.Components()
}

// Classify predicts the gender of one product.
func (c *Classifier) Classify(ctx context.Context, in features.Input) (Result, error) {
	if !c.Ready() {
		metrics.RecordClassificationError("model_unavailable")
		return Result{}, ErrModelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	start := time.Now()

	vec, err := c.bundle.encoder.Encode(in)
	if err != nil {
		return Result{}, c.fail(ctx, in, err)
	}
	probs, err := c.bundle.model.PredictProba(vec)
	if err != nil {
		return Result{}, c.fail(ctx, in, err)
	}

	d := c.policy.Decide(ctx, probs)
	metrics.RecordClassification(d.Label.String(), d.Confidence, float64(time.Since(start).Microseconds())/1000)

	return Result{Label: d.Label, Confidence: d.Confidence, Probabilities: d.Probabilities}, nil
}

func (c *Classifier) fail(ctx context.Context, in features.Input, err error) error {
	kind := "predict"
	if errors.Is(err, features.ErrEncoding) {
		kind = "encoding"
	}
	metrics.RecordClassificationError(kind)
	c.log.Error(ctx, "classification failed",
		logger.String("product_name", in.Name),
		logger.String("kind", kind),
		logger.Error(err),
	)
	return fmt.Errorf("classify %q: %w", in.Name, err)
}
