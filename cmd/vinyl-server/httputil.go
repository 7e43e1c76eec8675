package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tmercier/vinyl-vault/internal/review"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// intQuery reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// respondServiceError maps a classified orchestration error onto an HTTP
// response. Unclassified errors become a plain 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var revErr *review.Error
	if !errors.As(err, &revErr) {
		httpError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpError(w, statusForKind(revErr.Kind), revErr.Message)
}

// statusForKind maps the error taxonomy onto HTTP statuses.
func statusForKind(kind review.Kind) int {
	switch kind {
	case review.KindUnauthenticated:
		return http.StatusUnauthorized
	case review.KindCredentialsNotFound:
		return http.StatusNotFound
	case review.KindValidation:
		return http.StatusUnprocessableEntity
	case review.KindTimeout:
		return http.StatusGatewayTimeout
	case review.KindIncompleteGeneration:
		return http.StatusBadGateway
	case review.KindUpstreamRateLimited:
		return http.StatusTooManyRequests
	case review.KindUpstreamUnauthorized:
		return http.StatusBadGateway
	case review.KindUpstreamNotFound:
		return http.StatusNotFound
	case review.KindGenerationMisconfigured:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
