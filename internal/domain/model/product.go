// Package model contains domain models passed between layers.
package model

import "time"

// ProductInput is the caller-supplied part of a product record.
// JSON names follow the storage schema (nom, categorie, prix, ...).
type ProductInput struct {
	Name        string   `json:"nom" validate:"required,max=255"`
	Category    string   `json:"categorie" validate:"required,max=255"`
	Price       *float64 `json:"prix" validate:"required,gte=0"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=4000"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,max=2048"`
}

// GroupText returns the text used as the product group when classifying.
func (p ProductInput) GroupText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// PriceValue returns the price, or 0 when unset.
func (p ProductInput) PriceValue() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// Product is a record persisted in one storage partition. ID and the two
// timestamps are assigned by the partition.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nom"`
	Category    string    `json:"categorie"`
	Price       float64   `json:"prix"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BatchFailure records one bulk import item that did not make it into a partition.
type BatchFailure struct {
	Index       int    `json:"index"`
	ProductName string `json:"product_name"`
	Error       string `json:"error"`
}

// BatchOutcome aggregates a bulk import. It lives for one request only.
// Invariant: Total == Homme + Femme + len(Errors).
type BatchOutcome struct {
	Total  int            `json:"total"`
	Homme  int            `json:"homme"`
	Femme  int            `json:"femme"`
	Errors []BatchFailure `json:"errors"`
}

// Succeeded returns the number of items persisted in either partition.
func (o BatchOutcome) Succeeded() int { return o.Homme + o.Femme }
