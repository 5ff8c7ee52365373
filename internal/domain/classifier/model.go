package classifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
)

// Multi-class strategies of a fitted logistic regression.
const (
	Multinomial = "multinomial"
	OVR         = "ovr"
)

// Model maps an encoded row to class probabilities.
type Model interface {
	// Classes lists the labels in fitted order.
	Classes() []types.Label
	// InputWidth is the row width the model was fitted on.
	InputWidth() int
	// PredictProba returns one probability per class, summing to 1.
	PredictProba(x features.Vector) (map[types.Label]float64, error)
}

// LogisticRegression is a fitted linear classifier: z = coef·x + intercept per
// class, followed by softmax (multinomial) or per-class sigmoids (ovr). With
// two classes a single coefficient row scores classes[1].
type LogisticRegression struct {
	classes    []types.Label
	coef       [][]float64
	intercept  []float64
	multiClass string
	width      int
}

// NewLogisticRegression validates and copies fitted parameters. Class names
// that are gender synonyms are normalized to their canonical label.
func NewLogisticRegression(classes []string, coef [][]float64, intercept []float64, multiClass string) (*LogisticRegression, error) {
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidModel, len(classes))
	}
	multiClass = strings.ToLower(strings.TrimSpace(multiClass))
	switch multiClass {
	case "", "auto", "deprecated", "warn":
		// Resolved the way the fitting library does for lbfgs: ovr for a
		// binary problem, multinomial otherwise.
		multiClass = Multinomial
		if len(classes) <= 2 {
			multiClass = OVR
		}
	case Multinomial, OVR:
	default:
		return nil, fmt.Errorf("%w: unsupported multi_class %q", ErrInvalidModel, multiClass)
	}

	rows := len(classes)
	if len(classes) == 2 {
		rows = 1
	}
	if len(coef) != rows || len(intercept) != rows {
		return nil, fmt.Errorf("%w: %d classes need %d coef rows and intercepts, got %d and %d",
			ErrInvalidModel, len(classes), rows, len(coef), len(intercept))
	}
	width := len(coef[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: empty coefficient row", ErrInvalidModel)
	}

	m := &LogisticRegression{
		classes:    make([]types.Label, len(classes)),
		coef:       make([][]float64, rows),
		intercept:  append([]float64(nil), intercept...),
		multiClass: multiClass,
		width:      width,
	}
	seen := make(map[types.Label]bool, len(classes))
	for i, c := range classes {
		label := types.Label(strings.TrimSpace(c))
		if canonical, ok := types.ParseGender(c); ok {
			label = canonical
		}
		if seen[label] {
			return nil, fmt.Errorf("%w: duplicate class %q", ErrInvalidModel, label)
		}
		seen[label] = true
		m.classes[i] = label
	}
	for i, row := range coef {
		if len(row) != width {
			return nil, fmt.Errorf("%w: coef row %d has width %d, want %d", ErrInvalidModel, i, len(row), width)
		}
		m.coef[i] = append([]float64(nil), row...)
	}
	return m, nil
}

// Classes implements Model.
func (m *LogisticRegression) Classes() []types.Label {
	return append([]types.Label(nil), m.classes...)
}

// InputWidth implements Model.
func (m *LogisticRegression) InputWidth() int { return m.width }

// MultiClass reports the fitted strategy.
func (m *LogisticRegression) MultiClass() string { return m.multiClass }

// PredictProba implements Model.
func (m *LogisticRegression) PredictProba(x features.Vector) (map[types.Label]float64, error) {
	if x.Width != m.width {
		return nil, fmt.Errorf("%w: row width %d, model expects %d", features.ErrEncoding, x.Width, m.width)
	}

	scores := make([]float64, len(m.coef))
	for i, row := range m.coef {
		scores[i] = x.Dot(row) + m.intercept[i]
	}

	probs := make([]float64, len(m.classes))
	switch {
	case len(m.coef) == 1 && m.multiClass == Multinomial:
		// softmax over (-z, z)
		probs[1] = sigmoid(2 * scores[0])
		probs[0] = 1 - probs[1]
	case len(m.coef) == 1:
		probs[1] = sigmoid(scores[0])
		probs[0] = 1 - probs[1]
	case m.multiClass == Multinomial:
		softmax(scores, probs)
	default:
		var sum float64
		for i, z := range scores {
			probs[i] = sigmoid(z)
			sum += probs[i]
		}
		for i := range probs {
			probs[i] /= sum
		}
	}

	out := make(map[types.Label]float64, len(m.classes))
	for i, c := range m.classes {
		out[c] = probs[i]
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(z, out []float64) {
	peak := math.Inf(-1)
	for _, v := range z {
		peak = math.Max(peak, v)
	}
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
}
