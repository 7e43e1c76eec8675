package main

import (
	"net/http"

	"github.com/tmercier/vinyl-vault/internal/gemini"
)

// handleHealth reports liveness plus the build and model in use, so a
// deployment can be verified with a single unauthenticated request.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"commit": commitHash,
		"model":  gemini.GetModelName(),
	})
}
