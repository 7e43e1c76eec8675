package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tmercier/vinyl-vault/internal/applemusic"
)

// handleAppleMusicSearch resolves an Apple Music link for an album. A failed
// iTunes lookup degrades to the search-page fallback rather than an error,
// so the frontend always has a link to render.
func (s *server) handleAppleMusicSearch(w http.ResponseWriter, r *http.Request) {
	artist := strings.TrimSpace(r.URL.Query().Get("artist"))
	album := strings.TrimSpace(r.URL.Query().Get("album"))
	if artist == "" || album == "" {
		httpError(w, http.StatusBadRequest, "artist and album are required")
		return
	}

	match, err := s.apple.FindAlbum(r.Context(), artist, album)
	if err != nil {
		log.Warn().Err(err).Str("artist", artist).Str("album", album).
			Msg("iTunes lookup failed, returning search fallback")
		match = applemusic.FallbackMatch(artist, album)
	}
	respondJSON(w, http.StatusOK, match)
}
