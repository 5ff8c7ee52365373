// Package types contains the label and partition vocabulary shared across the application.
package types

import "strings"

// Label is a class produced by the gender classifier.
type Label string

// Labels known to the trained classifier. Only Homme and Femme are ever
// returned as a final decision.
const (
	Homme   Label = "Homme"
	Femme   Label = "Femme"
	Unisexe Label = "Unisexe"
)

// String implements fmt.Stringer.
func (l Label) String() string { return string(l) }

// Partition identifies one of the two independent storage backends.
type Partition string

// Storage partitions.
const (
	PartitionHomme Partition = "homme"
	PartitionFemme Partition = "femme"
)

// String implements fmt.Stringer.
func (p Partition) String() string { return string(p) }

// Valid reports whether p names one of the two partitions.
func (p Partition) Valid() bool {
	return p == PartitionHomme || p == PartitionFemme
}

// Partitions lists every partition in a stable order.
func Partitions() []Partition {
	return []Partition{PartitionHomme, PartitionFemme}
}

var (
	hommeSynonyms = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup table
		"homme": {}, "h": {}, "male": {}, "m": {}, "man": {}, "men": {}, "masculin": {},
	}
	femmeSynonyms = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup table
		"femme": {}, "f": {}, "female": {}, "woman": {}, "women": {}, "feminin": {},
	}
)

// ParseGender normalizes a free-form gender string (model label or partition
// name). Matching is trimmed and case-insensitive.
// Returns false when s is neither a Homme nor a Femme synonym.
func ParseGender(s string) (Label, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if _, ok := hommeSynonyms[key]; ok {
		return Homme, true
	}
	if _, ok := femmeSynonyms[key]; ok {
		return Femme, true
	}
	return "", false
}

// ParseCustomerGender normalizes the gender attribute of a customer in an
// interaction log. It accepts the ParseGender synonyms except the plural
// "men" and "women", which the training labels never counted.
func ParseCustomerGender(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "men", "women":
		return "", false
	}
	return ParseGender(s)
}

// PartitionFor maps a label to its storage partition. Every Homme synonym maps
// to PartitionHomme; anything else, Unisexe and unknown strings included, maps
// to PartitionFemme.
func PartitionFor(label string) Partition {
	if l, ok := ParseGender(label); ok && l == Homme {
		return PartitionHomme
	}
	return PartitionFemme
}
