package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finform/finform/internal/adapter/http/dto"
	"github.com/finform/finform/internal/domain"
)

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.Envelope{Success: true, Data: data})
}

// writeMessage writes a success envelope with a message and no data.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.Envelope{Success: true, Message: message})
}

// writeError writes a failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.Envelope{Success: false, Message: message})
}

// writeDomainError maps a domain error to a status and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapDomainError(err), err.Error())
}

// mapDomainError maps domain errors to HTTP status codes. Anything
// unclassified is treated as an upstream failure, not a local bug.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownDocumentType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrMissingCounterparty),
		errors.Is(err, domain.ErrMissingAccountNumber),
		errors.Is(err, domain.ErrMissingAttachment),
		errors.Is(err, domain.ErrUnbalancedEntry),
		errors.Is(err, domain.ErrUnknownItem),
		errors.Is(err, domain.ErrUnknownTax),
		errors.Is(err, domain.ErrImmutableNumber),
		errors.Is(err, domain.ErrRemoteRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSubmitInFlight),
		errors.Is(err, domain.ErrNumberConflict):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
