package handler

import (
	"errors"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Conflict → 409 =====
	case errors.Is(err, service.ErrConfigExists):
		return model.NewAlreadyExistsError("config entry already exists")

	// ===== Not Found → 404 =====
	case errors.Is(err, service.ErrConfigNotFound):
		return model.NewNotFoundError("config entry")
	case errors.Is(err, service.ErrServiceNotFound):
		return model.NewNotFoundError("service")

	// ===== Validation → 422 =====
	case errors.Is(err, service.ErrKeyRequired):
		return model.NewValidationError([]model.FieldError{{Field: "key", Message: "key is required"}})

	// ===== Upstream → 502 =====
	case errors.Is(err, service.ErrUpstream):
		return model.NewUpstreamError("problem in load config from service")

	// ===== Aggregation → 500 =====
	case errors.Is(err, service.ErrAggregation):
		return model.NewAggregationError("can't load services config")

	// ===== Store unavailable → 503 =====
	case errors.Is(err, database.ErrConnection):
		return model.NewServiceUnavailableError("config store unavailable")

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 && pd.Code == model.ErrCodeInternal {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
