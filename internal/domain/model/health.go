package model

// Partition probe results.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

// HealthReport summarizes the model and both storage partitions.
type HealthReport struct {
	Status          string   `json:"status"`
	ModelLoaded     bool     `json:"model_loaded"`
	ModelComponents []string `json:"model_components"`
	DBHomme         string   `json:"db_homme"`
	DBFemme         string   `json:"db_femme"`
}

// Healthy reports whether the model and every partition are up.
func (h HealthReport) Healthy() bool {
	return h.ModelLoaded && h.DBHomme == StatusOK && h.DBFemme == StatusOK
}
