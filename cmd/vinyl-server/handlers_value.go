package main

import (
	"encoding/json"
	"net/http"

	"github.com/tmercier/vinyl-vault/internal/value"
)

// maxBulkRefreshAlbums caps one bulk refresh request. At the paced request
// rate a full batch takes about two minutes, which is as long as a single
// HTTP request should ever run.
const maxBulkRefreshAlbums = 100

// handleValueGet returns the stored estimate without calling Discogs.
func (s *server) handleValueGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.values.Cached(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if v == nil {
		respondJSON(w, http.StatusOK, &value.Value{})
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// handleValueRefresh fetches the current market estimate for the album and
// persists it.
func (s *server) handleValueRefresh(w http.ResponseWriter, r *http.Request) {
	v, err := s.values.Refresh(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// handleValuesRefreshAll refreshes estimates for a batch of albums in
// sequence and reports the per-album outcomes.
func (s *server) handleValuesRefreshAll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AlbumIDs []string `json:"albumIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.AlbumIDs) == 0 {
		httpError(w, http.StatusBadRequest, "albumIds is required")
		return
	}
	if len(body.AlbumIDs) > maxBulkRefreshAlbums {
		httpError(w, http.StatusBadRequest, "too many albums in one batch")
		return
	}

	results, err := s.values.RefreshAll(r.Context(), userID(r), body.AlbumIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}
