package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
)

func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulkImport"

	var items []model.ProductInput
	if err := decodeJSON(w, r, &items); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(items) > s.maxBatchSize {
		s.fail(w, r, WrapKind(op, ErrBatchTooLarge,
			fmt.Errorf("%d items, maximum is %d", len(items), s.maxBatchSize)))
		return
	}

	writeJSON(w, http.StatusOK, s.deps.BulkImport(r.Context(), items))
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "api.listProducts"

	p := types.Partition(chi.URLParam(r, "partition"))
	if !p.Valid() {
		s.fail(w, r, WrapKind(op, ErrNotFound, fmt.Errorf("unknown partition %q", p)))
		return
	}

	limit := s.listLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > s.listLimit {
			s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be between 1 and %d", s.listLimit)))
			return
		}
		limit = n
	}

	products, err := s.deps.ListProducts(r.Context(), p, limit)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}
