package features

import "fmt"

// Counter column names, in the order the scaler was fitted.
const (
	PurchaseCount = "purchase_count"
	LikeCount     = "like_count"
	CartCount     = "cart_count"
)

// CounterNames lists the numeric counters in fitted order.
func CounterNames() []string {
	return []string{PurchaseCount, LikeCount, CartCount}
}

// Input is what the encoder needs for one product.
type Input struct {
	Name  string
	Type  string
	Group string

	PurchaseCount float64
	LikeCount     float64
	CartCount     float64
}

// ServingInput builds an Input for a product with no interaction history.
// The serving path never has counters, so they are always zero there even
// though the classifier was fitted on real counts.
func ServingInput(name, typ, group string) Input {
	return Input{Name: name, Type: typ, Group: group}
}

// Text joins name, type and group with single spaces. An empty group leaves a
// trailing separator; the tokenizer ignores it.
func (in Input) Text() string {
	return in.Name + " " + in.Type + " " + in.Group
}

// Counters returns the raw numeric counters in fitted order.
func (in Input) Counters() []float64 {
	return []float64{in.PurchaseCount, in.LikeCount, in.CartCount}
}

// Encoder combines the fitted vectorizer and scaler into one row vector.
type Encoder struct {
	vectorizer *Vectorizer
	scaler     *Scaler
}

// NewEncoder pairs a vectorizer with the scaler it was trained alongside.
func NewEncoder(vectorizer *Vectorizer, scaler *Scaler) *Encoder {
	return &Encoder{vectorizer: vectorizer, scaler: scaler}
}

// Width is lexical width + numeric width, or 0 when incomplete.
func (e *Encoder) Width() int {
	if e == nil || e.vectorizer == nil || e.scaler == nil {
		return 0
	}
	return e.vectorizer.Width() + e.scaler.Width()
}

// LexicalWidth is the vectorizer width.
func (e *Encoder) LexicalWidth() int {
	if e == nil || e.vectorizer == nil {
		return 0
	}
	return e.vectorizer.Width()
}

// Encode returns [tfidf(text) | scale(counters)].
func (e *Encoder) Encode(in Input) (Vector, error) {
	if e == nil || e.vectorizer == nil || e.scaler == nil {
		return Vector{}, fmt.Errorf("%w: artifact bundle not loaded", ErrEncoding)
	}
	lexical := e.vectorizer.Transform(in.Text())
	numeric, err := e.scaler.Transform(in.Counters())
	if err != nil {
		return Vector{}, err
	}
	return hstack(lexical, numeric), nil
}
