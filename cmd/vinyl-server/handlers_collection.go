package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tmercier/vinyl-vault/internal/review"
)

const (
	defaultCollectionPage    = 1
	defaultCollectionPerPage = 100
)

// handleCollection returns one page of the caller's Discogs collection.
// Query params: page, per_page, folder (0 = the implicit "All" folder).
func (s *server) handleCollection(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requireCredentials(w, r)
	if !ok {
		return
	}

	page := intQuery(r, "page", defaultCollectionPage)
	perPage := intQuery(r, "per_page", defaultCollectionPerPage)
	folder := intQuery(r, "folder", 0)

	collection, err := s.catalogue(creds.Token).CollectionReleases(r.Context(), creds.Username, folder, page, perPage)
	if err != nil {
		respondServiceError(w, review.ClassifyCatalogueError(err))
		return
	}
	respondJSON(w, http.StatusOK, collection)
}

// handleFolders lists the caller's collection folders.
func (s *server) handleFolders(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requireCredentials(w, r)
	if !ok {
		return
	}

	folders, err := s.catalogue(creds.Token).Folders(r.Context(), creds.Username)
	if err != nil {
		respondServiceError(w, review.ClassifyCatalogueError(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// handleAlbum returns the Discogs release detail for an album. When the
// release carries a marketplace price and no estimate is stored yet, it is
// persisted as a side effect so the value endpoint has it cached on the next
// read. A stored estimate is never overwritten from this path.
func (s *server) handleAlbum(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.requireCredentials(w, r)
	if !ok {
		return
	}

	albumID := r.PathValue("id")
	release, err := s.catalogue(creds.Token).GetRelease(r.Context(), albumID)
	if err != nil {
		respondServiceError(w, review.ClassifyCatalogueError(err))
		return
	}

	if _, err := s.values.StoreIfAbsent(r.Context(), albumID, userID(r), release); err != nil {
		log.Warn().Err(err).Str("albumId", albumID).Msg("Value auto-save failed")
	}

	respondJSON(w, http.StatusOK, release)
}
