package api

import "net/http"

type serviceDescription struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

var description = serviceDescription{
	Service: "Classification automatique de produits Homme/Femme",
	Version: "1.0.0",
	Endpoints: map[string]string{
		"POST /predict":              "classify a product without storing it",
		"POST /predict-and-save":     "classify a product and store it in its partition",
		"POST /products/bulk-import": "classify and store a list of products",
		"GET /products/{partition}":  "list stored products of homme or femme",
		"GET /health":                "model and database status",
		"GET /healthz":               "liveness",
		"GET /readyz":                "readiness",
		"GET /metrics":               "prometheus metrics",
		"GET /stats":                 "service statistics",
		"GET /api-docs":              "API documentation",
	},
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, description)
}
