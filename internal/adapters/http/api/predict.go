package api

import (
	"net/http"

	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
)

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	ProductName  string `json:"product_name" validate:"required,max=255"`
	ProductType  string `json:"product_type" validate:"required,max=255"`
	ProductGroup string `json:"product_group" validate:"max=255"`
}

// PredictResponse is the classification of one product.
type PredictResponse struct {
	ProductName     string                  `json:"product_name"`
	PredictedGender types.Label             `json:"predicted_gender"`
	Confidence      float64                 `json:"confidence"`
	Probabilities   map[types.Label]float64 `json:"probabilities"`
}

// PredictAndSaveResponse is returned once a product is classified and stored.
// PredictedGender is the lowercase partition name.
type PredictAndSaveResponse struct {
	Message         string                  `json:"message"`
	PredictedGender types.Partition         `json:"predicted_gender"`
	Partition       types.Partition         `json:"partition"`
	Confidence      float64                 `json:"confidence"`
	Probabilities   map[types.Label]float64 `json:"probabilities"`
	Product         model.Product           `json:"product"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"

	var req PredictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateStruct(req); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	res, err := s.deps.Predict(r.Context(), features.ServingInput(req.ProductName, req.ProductType, req.ProductGroup))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, PredictResponse{
		ProductName:     req.ProductName,
		PredictedGender: res.Label,
		Confidence:      res.Confidence,
		Probabilities:   res.Probabilities,
	})
}

func (s *Server) handlePredictAndSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.predictAndSave"

	var in model.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := ValidateProduct(in); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	routed, err := s.deps.CreateProduct(r.Context(), in)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, PredictAndSaveResponse{
		Message:         "Produit créé avec succès dans la base " + string(routed.Partition),
		PredictedGender: routed.Partition,
		Partition:       routed.Partition,
		Confidence:      routed.Result.Confidence,
		Probabilities:   routed.Result.Probabilities,
		Product:         routed.Product,
	})
}
