// Package artifact loads the trained artifact bundle (vectorizer, scaler and
// classifier exported from the training job) from disk.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when the bundle file does not exist.
	ErrNotFound = errors.New("artifact bundle not found")
	// ErrCorrupt is returned when the file cannot be decoded or its parts do
	// not fit together.
	ErrCorrupt = errors.New("artifact bundle corrupt")
)

// File is the on-disk bundle layout.
type File struct {
	Vectorizer VectorizerFile `json:"vectorizer" yaml:"vectorizer"`
	Scaler     ScalerFile     `json:"scaler" yaml:"scaler"`
	Classifier ClassifierFile `json:"classifier" yaml:"classifier"`
}

// VectorizerFile holds the fitted TF-IDF parameters.
type VectorizerFile struct {
	Vocabulary map[string]int `json:"vocabulary" yaml:"vocabulary"`
	IDF        []float64      `json:"idf" yaml:"idf"`
	NGramRange []int          `json:"ngram_range" yaml:"ngram_range"`
	Lowercase  *bool          `json:"lowercase" yaml:"lowercase"`
	// Norm is "l2", "l1" or null for none. Absent means l2.
	Norm        *string `json:"norm" yaml:"norm"`
	SublinearTF bool    `json:"sublinear_tf" yaml:"sublinear_tf"`
}

// ScalerFile holds the fitted standardization parameters.
type ScalerFile struct {
	FeatureNames []string  `json:"feature_names" yaml:"feature_names"`
	Mean         []float64 `json:"mean" yaml:"mean"`
	Scale        []float64 `json:"scale" yaml:"scale"`
}

// ClassifierFile holds the fitted logistic regression.
type ClassifierFile struct {
	Classes    []string    `json:"classes" yaml:"classes"`
	Coef       [][]float64 `json:"coef" yaml:"coef"`
	Intercept  []float64   `json:"intercept" yaml:"intercept"`
	MultiClass string      `json:"multi_class" yaml:"multi_class"`
}

// Load reads and validates the bundle at path. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func Load(ctx context.Context, path string) (*classifier.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read artifact bundle %s: %w", path, err)
	}

	isYAML := false
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		isYAML = true
	}

	var f File
	if err := decode(data, isYAML, &f); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrCorrupt, path, err)
	}
	// An explicit null norm disables normalization; only a missing key means l2.
	if f.Vectorizer.Norm == nil {
		var raw struct {
			Vectorizer map[string]any `json:"vectorizer" yaml:"vectorizer"`
		}
		if err := decode(data, isYAML, &raw); err == nil {
			if v, ok := raw.Vectorizer["norm"]; ok && v == nil {
				none := features.NormNone
				f.Vectorizer.Norm = &none
			}
		}
	}

	bundle, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	return bundle, nil
}

func decode(data []byte, isYAML bool, v any) error {
	if isYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// Build assembles the bundle, checking every width along the way.
func (f File) Build() (*classifier.Bundle, error) {
	var vopts []features.VectorizerOption
	if n := len(f.Vectorizer.NGramRange); n > 0 {
		if n != 2 {
			return nil, fmt.Errorf("%w: ngram_range needs 2 values, got %d", features.ErrEncoding, n)
		}
		vopts = append(vopts, features.WithNGramRange(f.Vectorizer.NGramRange[0], f.Vectorizer.NGramRange[1]))
	}
	if f.Vectorizer.Lowercase != nil {
		vopts = append(vopts, features.WithLowercase(*f.Vectorizer.Lowercase))
	}
	if f.Vectorizer.Norm != nil {
		vopts = append(vopts, features.WithNorm(*f.Vectorizer.Norm))
	}
	vopts = append(vopts, features.WithSublinearTF(f.Vectorizer.SublinearTF))

	vectorizer, err := features.NewVectorizer(f.Vectorizer.Vocabulary, f.Vectorizer.IDF, vopts...)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	scaler, err := features.NewScaler(f.Scaler.FeatureNames, f.Scaler.Mean, f.Scaler.Scale)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	model, err := classifier.NewLogisticRegression(f.Classifier.Classes, f.Classifier.Coef, f.Classifier.Intercept, f.Classifier.MultiClass)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return classifier.NewBundle(features.NewEncoder(vectorizer, scaler), model)
}
