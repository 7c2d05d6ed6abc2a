package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medagenda/backend/internal/domain"
)

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"message": message})
}

// respondError maps domain sentinels to HTTP statuses; anything unexpected
// becomes a logged 500 with a generic body.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(w, http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrConflict):
		respondMessage(w, http.StatusConflict, domain.ErrConflict.Error())
	case errors.Is(err, domain.ErrRegistryUnavailable):
		respondMessage(w, http.StatusServiceUnavailable, domain.ErrRegistryUnavailable.Error())
	default:
		log.Printf("[HTTP] Internal error: %v", err)
		respondMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func urlID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
