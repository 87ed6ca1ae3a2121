package handler

import (
	"encoding/json"
	"net/http"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// maxRequestBody caps request bodies accepted by DecodeJSON
const maxRequestBody = 1 << 20

// WriteJSON writes a JSON response with the given status code.
// Fleet clients expect bare bodies, so no envelope is added.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteRaw writes an already encoded JSON body
func WriteRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
