package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// ConfigService defines the config operations the handler needs
type ConfigService interface {
	Get(ctx context.Context, key string) model.ConfigEntry
	GetAll(ctx context.Context) ([]model.ConfigEntry, error)
	Set(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error)
	Update(ctx context.Context, key string, content interface{}) (*model.StoredConfigEntry, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// ConfigHandler handles config entry endpoints
type ConfigHandler struct {
	configService ConfigService
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configService ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// RegisterRoutes registers config routes on the mux
func (h *ConfigHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /config/{key}", h.Get)
	mux.HandleFunc("GET /config", h.GetAll)
	mux.HandleFunc("POST /config", h.Create)
	mux.HandleFunc("PUT /config", h.Update)
	mux.HandleFunc("DELETE /config/{key}", h.Delete)
	mux.HandleFunc("DELETE /config", h.DeleteAll)
}

// Get handles GET /config/{key} - resolve one key; never 404
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry := h.configService.Get(r.Context(), r.PathValue("key"))
	WriteJSON(w, http.StatusOK, entry.Resolved())
}

// GetAll handles GET /config - list persisted entries
func (h *ConfigHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.configService.GetAll(r.Context())
	if err != nil {
		slog.Error("failed to list config entries", slog.String("error", err.Error()))
		WriteError(w, MapServiceErrorWithContext(err, "list config entries"))
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

// Create handles POST /config - create-only write
func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	created, err := h.configService.Set(r.Context(), req.Key, req.Content)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create config entry"))
		return
	}
	WriteJSON(w, http.StatusOK, created.ConfigEntry)
}

// Update handles PUT /config - replace content of an existing entry
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}

	updated, err := h.configService.Update(r.Context(), req.Key, req.Content)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "update config entry"))
		return
	}
	WriteJSON(w, http.StatusOK, updated.ConfigEntry)
}

// Delete handles DELETE /config/{key}
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.configService.Delete(r.Context(), r.PathValue("key")); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete config entry"))
		return
	}
	WriteJSON(w, http.StatusOK, true)
}

// DeleteAll handles DELETE /config
func (h *ConfigHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.configService.DeleteAll(r.Context()); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete config entries"))
		return
	}
	WriteJSON(w, http.StatusOK, true)
}

func (h *ConfigHandler) decodeEntry(w http.ResponseWriter, r *http.Request) (*model.ConfigEntryRequest, bool) {
	var req model.ConfigEntryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return nil, false
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return nil, false
	}
	return &req, true
}
