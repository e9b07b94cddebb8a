package server

import (
	"net/http"
	"time"

	"CadenceFM/core/catalog"

	"github.com/gorilla/mux"
)

// ListEventsHandler returns every event, sorted by start time ascending.
func (h *APIHandler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}

// CreateEventHandler creates an event from a JSON payload.
func (h *APIHandler) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		respondWithError(w, &catalog.ValidationError{Field: "body", Reason: "invalid JSON payload"})
		return
	}

	event, err := h.service.CreateEvent(r.Context(), payload)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, event)
}

// UpdateEventHandler applies a partial update to one event. Only fields
// present in the payload change.
func (h *APIHandler) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	payload, err := decodePayload(r)
	if err != nil {
		respondWithError(w, &catalog.ValidationError{Field: "body", Reason: "invalid JSON payload"})
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), id, payload)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, event)
}

// DeleteEventHandler deletes one event and its assets.
func (h *APIHandler) DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	deletedID, err := h.service.DeleteEvent(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"deletedId": deletedID})
}

// DeleteAllEventsHandler clears the whole catalog and its assets.
func (h *APIHandler) DeleteAllEventsHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.DeleteAllEvents(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"deletedCount": count})
}

// SweepExpiredEventsHandler deletes every event whose window has passed.
// The sweep is always triggered externally; there is no internal scheduler.
func (h *APIHandler) SweepExpiredEventsHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.DeleteExpiredEvents(r.Context(), time.Now().UTC())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"deletedCount": count})
}
