package model

import "time"

// ConfigEntry is one persisted configuration override.
// Content may be a string, number, timestamp or structured object.
type ConfigEntry struct {
	Key     string      `json:"key"`
	Content interface{} `json:"content"`
}

// Resolved renders the entry the way the broker answers single-key reads:
// a one-field object keyed by the config key.
func (e ConfigEntry) Resolved() map[string]interface{} {
	return map[string]interface{}{e.Key: e.Content}
}

// StoredConfigEntry is a ConfigEntry as persisted, with bookkeeping fields.
type StoredConfigEntry struct {
	ConfigEntry
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// ConfigEntryRequest is the body of POST /config and PUT /config.
type ConfigEntryRequest struct {
	Key     string      `json:"key"`
	Content interface{} `json:"content"`
}

// Validate validates the config entry request
func (r *ConfigEntryRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Key == "" {
		errors = append(errors, FieldError{
			Field:   "key",
			Message: "key is required",
		})
	}

	if len(r.Key) > MaxConfigKeyLength {
		errors = append(errors, FieldError{
			Field:   "key",
			Message: "key exceeds maximum length",
		})
	}

	if r.Content == nil {
		errors = append(errors, FieldError{
			Field:   "content",
			Message: "content is required",
		})
	}

	return errors
}

// Business constraints for config entries
const (
	MaxConfigKeyLength = 256
)
