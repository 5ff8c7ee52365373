// Package decision turns class probabilities into a binary Homme/Femme
// decision with a renormalized confidence.
package decision

import (
	"context"

	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

// tieConfidence is reported when neither Homme nor Femme has any mass.
const tieConfidence = 0.5

// Decision is the outcome of the policy. Probabilities is the map that was
// decided on, returned as-is.
type Decision struct {
	Label         types.Label
	Confidence    float64
	Probabilities map[types.Label]float64
}

// Decide applies the binary rule to probs. Missing classes count as 0, ties go
// to Homme, and Unisexe never wins: its mass is only excluded from the
// confidence denominator.
func Decide(probs map[types.Label]float64) Decision {
	pH := probs[types.Homme]
	pF := probs[types.Femme]

	label, winner := types.Homme, pH
	if pF > pH {
		label, winner = types.Femme, pF
	}

	confidence := tieConfidence
	if sum := pH + pF; sum > 0 {
		confidence = winner / sum
	}

	return Decision{Label: label, Confidence: confidence, Probabilities: probs}
}

// Option configures a Policy.
type Option func(*Policy)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(p *Policy) { p.log = l }
}

// Policy wraps Decide with debug diagnostics.
type Policy struct {
	log logger.Logger
}

// NewPolicy creates a Policy.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.OrGet(p.log, "decision")
	return p
}

// Decide runs Decide and logs its inputs and outputs.
func (p *Policy) Decide(ctx context.Context, probs map[types.Label]float64) Decision {
	d := Decide(probs)
	p.log.Debug(ctx, "gender decision",
		logger.Float64("p_homme", probs[types.Homme]),
		logger.Float64("p_femme", probs[types.Femme]),
		logger.Float64("p_unisexe", probs[types.Unisexe]),
		logger.String("label", d.Label.String()),
		logger.Float64("confidence", d.Confidence),
	)
	return d
}
