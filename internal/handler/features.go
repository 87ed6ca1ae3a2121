package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// FeatureCollector defines the aggregation operations the handler needs
type FeatureCollector interface {
	CollectAll(ctx context.Context) ([]model.FeatureObject, error)
	CollectFull(ctx context.Context, name string) (json.RawMessage, error)
}

// FeatureHandler handles fleet feature endpoints
type FeatureHandler struct {
	collector FeatureCollector
}

// NewFeatureHandler creates a new feature handler
func NewFeatureHandler(collector FeatureCollector) *FeatureHandler {
	return &FeatureHandler{collector: collector}
}

// RegisterRoutes registers feature routes on the mux
func (h *FeatureHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /features", h.CollectAll)
	mux.HandleFunc("GET /services/{name}/config", h.CollectFull)
}

// CollectAll handles GET /features - merged feature list of the fleet
func (h *FeatureHandler) CollectAll(w http.ResponseWriter, r *http.Request) {
	features, err := h.collector.CollectAll(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, features)
}

// CollectFull handles GET /services/{name}/config - one service's /internal body
func (h *FeatureHandler) CollectFull(w http.ResponseWriter, r *http.Request) {
	body, err := h.collector.CollectFull(r.Context(), r.PathValue("name"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteRaw(w, http.StatusOK, body)
}
