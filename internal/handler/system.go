package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// healthTimeout bounds the store ping behind GET /health
const healthTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the endpoints every fleet member exposes
type SystemHandler struct {
	descriptor model.InternalDescriptor
	store      Pinger
}

// SystemHandlerConfig holds dependencies for the system handler
type SystemHandlerConfig struct {
	Name     string
	Version  string
	URL      string
	Features []model.FeatureObject
	Store    Pinger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(cfg SystemHandlerConfig) *SystemHandler {
	features := cfg.Features
	if features == nil {
		features = []model.FeatureObject{}
	}
	return &SystemHandler{
		descriptor: model.InternalDescriptor{
			Name:    cfg.Name,
			Version: cfg.Version,
			URL:     cfg.URL,
			Config:  model.InternalConfig{Features: features},
		},
		store: cfg.Store,
	}
}

// RegisterRoutes registers system routes on the mux
func (h *SystemHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /internal", h.Internal)
	mux.HandleFunc("GET /health", h.Health)
}

// Internal handles GET /internal - this service's own descriptor
func (h *SystemHandler) Internal(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.descriptor)
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			WriteError(w, model.NewServiceUnavailableError("config store unavailable"))
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
