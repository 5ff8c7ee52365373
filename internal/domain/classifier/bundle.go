package classifier

import (
	"fmt"

	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
)

// Bundle pairs the fitted encoder with the model trained on its output. The
// two are only ever replaced together.
type Bundle struct {
	encoder *features.Encoder
	model   Model
}

// NewBundle checks that the encoder produces rows of the width the model was
// fitted on.
func NewBundle(encoder *features.Encoder, model Model) (*Bundle, error) {
	if encoder == nil || encoder.Width() == 0 {
		return nil, fmt.Errorf("%w: bundle has no encoder", features.ErrEncoding)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: bundle has no model", ErrModelUnavailable)
	}
	if encoder.Width() != model.InputWidth() {
		return nil, fmt.Errorf("%w: encoder width %d (lexical %d), model input width %d",
			features.ErrEncoding, encoder.Width(), encoder.LexicalWidth(), model.InputWidth())
	}
	return &Bundle{encoder: encoder, model: model}, nil
}

// Encoder returns the bundle's encoder.
func (b *Bundle) Encoder() *features.Encoder { return b.encoder }

// Model returns the bundle's model.
func (b *Bundle) Model() Model { return b.model }

// Components reports which fitted parts are present.
func (b *Bundle) Components() map[string]bool {
	if b == nil {
		return map[string]bool{"vectorizer": false, "scaler": false, "classifier": false}
	}
	return map[string]bool{
		"vectorizer": b.encoder.LexicalWidth() > 0,
		"scaler":     b.encoder.Width() > b.encoder.LexicalWidth(),
		"classifier": b.model != nil,
	}
}
