package api

import (
	"net/http"

	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
)

// handleHealth reports model and partition status. Degraded still answers 200
// so orchestrators use /readyz for gating.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health(r.Context())
	if report.Status == "" {
		report.Status = model.StatusOK
		if !report.Healthy() {
			report.Status = model.StatusDegraded
		}
	}
	if report.ModelComponents == nil {
		report.ModelComponents = []string{}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": model.StatusOK})
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if !s.deps.Ready() {
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": model.StatusOK})
}
