package features

import "fmt"

// Scaler standardizes the numeric counters with fitted per-column mean and
// scale: (x - mean) / scale.
type Scaler struct {
	names []string
	mean  []float64
	scale []float64
}

// NewScaler builds a scaler. Nil mean means centering was disabled, nil scale
// means unit variance was disabled. A zero scale is treated as 1, which is
// what the fitting side does for constant columns.
func NewScaler(names []string, mean, scale []float64) (*Scaler, error) {
	width := len(names)
	if width == 0 {
		width = max(len(mean), len(scale))
	}
	if width == 0 {
		return nil, fmt.Errorf("%w: scaler has no columns", ErrEncoding)
	}
	if mean == nil {
		mean = make([]float64, width)
	}
	if scale == nil {
		scale = make([]float64, width)
		for i := range scale {
			scale[i] = 1
		}
	}
	if len(mean) != width || len(scale) != width {
		return nil, fmt.Errorf("%w: scaler shape mismatch (names=%d mean=%d scale=%d)", ErrEncoding, len(names), len(mean), len(scale))
	}

	s := &Scaler{
		names: append([]string(nil), names...),
		mean:  append([]float64(nil), mean...),
		scale: make([]float64, width),
	}
	for i, sc := range scale {
		if sc == 0 {
			sc = 1
		}
		s.scale[i] = sc
	}
	return s, nil
}

// Width is the number of numeric columns.
func (s *Scaler) Width() int { return len(s.mean) }

// Names returns the fitted column names, if any.
func (s *Scaler) Names() []string { return append([]string(nil), s.names...) }

// Transform standardizes one row of raw counters.
func (s *Scaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler expects %d values, got %d", ErrEncoding, len(s.mean), len(values))
	}
	out := make([]float64, len(values))
	for i, x := range values {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}
