package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tmercier/vinyl-vault/internal/review"
)

const (
	// maxReviewRetries bounds regeneration attempts on transient
	// upstream failures.
	maxReviewRetries = 2

	// reviewRetryBase is the backoff unit between attempts (2s, then 4s).
	reviewRetryBase = 2 * time.Second
)

// handleReviewGet returns the stored review without triggering generation.
func (s *server) handleReviewGet(w http.ResponseWriter, r *http.Request) {
	result, err := s.reviews.Cached(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if result == nil {
		respondJSON(w, http.StatusOK, map[string]any{"review": nil, "cached": false})
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleReviewCreate returns the cached review or generates a fresh one.
// Transient upstream failures are retried with a growing backoff before the
// error reaches the client.
func (s *server) handleReviewCreate(w http.ResponseWriter, r *http.Request) {
	albumID := r.PathValue("id")
	uid := userID(r)

	var lastErr error
	for attempt := 0; attempt <= maxReviewRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * reviewRetryBase
			log.Warn().Err(lastErr).Str("albumId", albumID).Int("attempt", attempt).
				Dur("backoff", backoff).Msg("Retrying review generation")
			if err := s.sleep(r.Context(), backoff); err != nil {
				respondServiceError(w, lastErr)
				return
			}
		}

		result, err := s.reviews.GetOrCreate(r.Context(), albumID, uid)
		if err == nil {
			respondJSON(w, http.StatusOK, result)
			return
		}
		lastErr = err

		var revErr *review.Error
		if !errors.As(err, &revErr) || !revErr.Retryable() {
			break
		}
	}
	respondServiceError(w, lastErr)
}

// handleReviewDelete clears the review for the album. The valuation, when
// present, survives the delete.
func (s *server) handleReviewDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.reviews.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
