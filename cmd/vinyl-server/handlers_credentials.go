package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tmercier/vinyl-vault/internal/store"
)

// handleCredentialsGet returns the caller's stored Discogs credentials.
func (s *server) handleCredentialsGet(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requireCredentials(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, creds)
}

// handleCredentialsPut stores or replaces the caller's Discogs credentials.
func (s *server) handleCredentialsPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	body.Token = strings.TrimSpace(body.Token)
	if body.Username == "" || body.Token == "" {
		httpError(w, http.StatusBadRequest, "username and token are required")
		return
	}

	uid := userID(r)
	if err := s.creds.PutCredentials(r.Context(), &store.Credentials{
		UserID:   uid,
		Username: body.Username,
		Token:    body.Token,
	}); err != nil {
		log.Error().Err(err).Str("requestId", requestID(r)).Msg("Credentials save failed")
		httpError(w, http.StatusInternalServerError, "failed to save credentials")
		return
	}
	log.Info().Str("username", body.Username).Msg("Discogs credentials saved")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// requireCredentials loads the caller's Discogs credentials, writing the
// error response itself when they are missing or the lookup fails.
func (s *server) requireCredentials(w http.ResponseWriter, r *http.Request) (*store.Credentials, bool) {
	creds, err := s.creds.GetCredentials(r.Context(), userID(r))
	if err != nil {
		log.Error().Err(err).Str("requestId", requestID(r)).Msg("Credentials lookup failed")
		httpError(w, http.StatusInternalServerError, "failed to load credentials")
		return nil, false
	}
	if creds == nil {
		httpError(w, http.StatusNotFound, "No credentials found")
		return nil, false
	}
	return creds, true
}
