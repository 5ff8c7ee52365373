package features

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Supported row normalizations.
const (
	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = ""
)

// Vectorizer applies a fitted TF-IDF vocabulary to text. It is never refit at
// serving time: n-grams missing from the vocabulary contribute nothing.
type Vectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	minN, maxN  int
	lowercase   bool
	norm        string
	sublinearTF bool
}

// VectorizerOption configures a Vectorizer.
type VectorizerOption func(*Vectorizer)

// WithNGramRange sets the inclusive n-gram range. Default (1, 2).
func WithNGramRange(minN, maxN int) VectorizerOption {
	return func(v *Vectorizer) {
		v.minN, v.maxN = minN, maxN
	}
}

// WithLowercase toggles lowercasing before tokenization. Default true.
func WithLowercase(on bool) VectorizerOption {
	return func(v *Vectorizer) { v.lowercase = on }
}

// WithNorm selects "l2" (default), "l1" or "" for no row normalization.
func WithNorm(norm string) VectorizerOption {
	return func(v *Vectorizer) { v.norm = strings.ToLower(norm) }
}

// WithSublinearTF replaces raw term counts with 1+ln(tf).
func WithSublinearTF(on bool) VectorizerOption {
	return func(v *Vectorizer) { v.sublinearTF = on }
}

// NewVectorizer builds a vectorizer from a fitted vocabulary (term -> column)
// and its idf weights. A nil idf means idf weighting was disabled at fit time.
func NewVectorizer(vocabulary map[string]int, idf []float64, opts ...VectorizerOption) (*Vectorizer, error) {
	v := &Vectorizer{
		vocabulary: vocabulary,
		idf:        idf,
		minN:       1,
		maxN:       2,
		lowercase:  true,
		norm:       NormL2,
	}
	for _, opt := range opts {
		opt(v)
	}

	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrEncoding)
	}
	if v.minN < 1 || v.maxN < v.minN {
		return nil, fmt.Errorf("%w: invalid ngram range (%d, %d)", ErrEncoding, v.minN, v.maxN)
	}
	switch v.norm {
	case NormL2, NormL1, NormNone:
	default:
		return nil, fmt.Errorf("%w: unsupported norm %q", ErrEncoding, v.norm)
	}
	if idf != nil && len(idf) != len(vocabulary) {
		return nil, fmt.Errorf("%w: %d idf weights for %d terms", ErrEncoding, len(idf), len(vocabulary))
	}
	seen := make([]bool, len(vocabulary))
	for term, idx := range vocabulary {
		if idx < 0 || idx >= len(vocabulary) || seen[idx] {
			return nil, fmt.Errorf("%w: bad column %d for term %q", ErrEncoding, idx, term)
		}
		seen[idx] = true
	}
	return v, nil
}

// Width is the number of lexical columns.
func (v *Vectorizer) Width() int { return len(v.vocabulary) }

// Transform maps text to its TF-IDF row.
func (v *Vectorizer) Transform(text string) Vector {
	if v.lowercase {
		text = strings.ToLower(text)
	}
	tokens := tokenize(text)

	counts := make(map[int]float64)
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := tokens[i]
			if n > 1 {
				gram = strings.Join(tokens[i:i+n], " ")
			}
			if idx, ok := v.vocabulary[gram]; ok {
				counts[idx]++
			}
		}
	}

	out := Vector{Width: v.Width()}
	if len(counts) == 0 {
		return out
	}
	out.Indices = make([]int, 0, len(counts))
	for idx := range counts {
		out.Indices = append(out.Indices, idx)
	}
	sort.Ints(out.Indices)

	out.Values = make([]float64, len(out.Indices))
	var norm float64
	for k, idx := range out.Indices {
		tf := counts[idx]
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		if v.idf != nil {
			tf *= v.idf[idx]
		}
		out.Values[k] = tf
		switch v.norm {
		case NormL2:
			norm += tf * tf
		case NormL1:
			norm += math.Abs(tf)
		}
	}
	if v.norm == NormL2 {
		norm = math.Sqrt(norm)
	}
	if v.norm != NormNone && norm > 0 {
		for k := range out.Values {
			out.Values[k] /= norm
		}
	}
	return out
}

// tokenize returns the maximal runs of word characters (letters, numbers,
// underscore) that are at least two runes long.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	runes := 0

	flush := func() {
		if runes >= 2 {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		runes = 0
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			current.WriteRune(r)
			runes++
			continue
		}
		flush()
	}
	flush()
	return tokens
}
