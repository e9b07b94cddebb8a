package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"CadenceFM/config"
	"CadenceFM/core/catalog"
	"CadenceFM/logger"
	"CadenceFM/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	service  *catalog.Service
	uploader *storage.Uploader
	cfg      *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(service *catalog.Service, uploader *storage.Uploader, cfg *config.Config) *APIHandler {
	return &APIHandler{
		service:  service,
		uploader: uploader,
		cfg:      cfg,
	}
}

// respondWithJSON writes a JSON response body with the given status.
func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// respondWithError maps a catalog error class to its HTTP status and writes
// an {"error": ...} body. Validation and not-found are caller mistakes;
// upstream and storage failures are operational.
func respondWithError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var validationErr *catalog.ValidationError
	var notFoundErr *catalog.NotFoundError
	var upstreamErr *catalog.UpstreamStorageError
	var storageErr *catalog.StorageError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
	case errors.As(err, &storageErr):
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		logger.Error("Request failed", logger.ErrorField(err))
	}
	respondWithJSON(w, status, map[string]string{"error": err.Error()})
}

// decodePayload decodes a JSON request body into an untyped payload map.
func decodePayload(r *http.Request) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
