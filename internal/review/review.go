// Package review orchestrates album review generation: cache lookup,
// catalogue fetch, prompt construction, Gemini generation, rating and
// recommendation extraction, and the read-merge-write upsert that keeps
// valuation data intact.
package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tmercier/vinyl-vault/internal/discogs"
	"github.com/tmercier/vinyl-vault/internal/metrics"
	"github.com/tmercier/vinyl-vault/internal/store"
)

// minReviewLength is the viability threshold for generated text. Anything
// shorter is treated as a truncated response and not stored.
const minReviewLength = 50

// Generator produces review text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Catalogue fetches album metadata.
type Catalogue interface {
	GetRelease(ctx context.Context, releaseID string) (*discogs.Release, error)
}

// CatalogueFactory builds a Catalogue bound to a user's Discogs token.
type CatalogueFactory func(token string) Catalogue

// AlbumInfo is the catalogue summary returned alongside a review.
type AlbumInfo struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Year    int      `json:"year,omitempty"`
	Genres  []string `json:"genres"`
	Styles  []string `json:"styles"`
}

// Result is a review with its extracted rating and album context.
type Result struct {
	Review         string          `json:"review"`
	Rating         float64         `json:"rating"`
	AlbumInfo      AlbumInfo       `json:"albumInfo"`
	Recommendation *Recommendation `json:"recommendedAlbum,omitempty"`
	Cached         bool            `json:"cached"`
}

// Service runs the review workflow against the stores and external clients.
type Service struct {
	reviews   store.ReviewStore
	creds     store.CredentialStore
	generator Generator
	catalogue CatalogueFactory
	now       func() time.Time
}

// NewService wires a review Service.
func NewService(reviews store.ReviewStore, creds store.CredentialStore, generator Generator, catalogue CatalogueFactory) *Service {
	return &Service{
		reviews:   reviews,
		creds:     creds,
		generator: generator,
		catalogue: catalogue,
		now:       time.Now,
	}
}

// Cached returns the stored review for the key without any external call.
// Returns (nil, nil) when no review exists.
func (s *Service) Cached(ctx context.Context, albumID, userID string) (*Result, error) {
	record, err := s.reviews.GetReview(ctx, albumID, userID)
	if err != nil {
		return nil, NewError(KindUpstream, "review lookup failed", err)
	}
	if !record.HasReview() {
		return nil, nil
	}
	return resultFromRecord(record, true), nil
}

// GetOrCreate returns the stored review for the key, generating and
// persisting one first if none exists. Repeated calls after the first
// success are pure reads.
func (s *Service) GetOrCreate(ctx context.Context, albumID, userID string) (*Result, error) {
	existing, err := s.reviews.GetReview(ctx, albumID, userID)
	if err != nil {
		return nil, NewError(KindUpstream, "review lookup failed", err)
	}
	if existing.HasReview() {
		log.Debug().Str("albumId", albumID).Msg("Review cache hit")
		metrics.New("VinylVault").Dimension("Operation", "review").Count("ReviewCacheHit").Flush()
		return resultFromRecord(existing, true), nil
	}

	creds, err := s.creds.GetCredentials(ctx, userID)
	if err != nil {
		return nil, NewError(KindUpstream, "credentials lookup failed", err)
	}
	if creds == nil {
		return nil, NewError(KindCredentialsNotFound, "no Discogs credentials on file", nil)
	}

	release, err := s.catalogue(creds.Token).GetRelease(ctx, albumID)
	if err != nil {
		return nil, ClassifyCatalogueError(err)
	}
	if strings.TrimSpace(release.Title) == "" || len(release.Artists) == 0 {
		return nil, NewError(KindValidation, "album metadata incomplete, cannot generate a review", nil)
	}

	prompt := BuildPrompt(release)
	genStart := s.now()
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, classifyGenerationError(err)
	}
	genDuration := time.Since(genStart)
	if len(text) < minReviewLength {
		return nil, NewError(KindIncompleteGeneration,
			fmt.Sprintf("generated text too short (%d chars)", len(text)), nil)
	}

	rating := ParseRating(text)
	recommendation := ParseRecommendation(text)

	generated := &store.AlbumReview{
		AlbumID:     albumID,
		UserID:      userID,
		Review:      text,
		Rating:      rating,
		AlbumTitle:  release.Title,
		AlbumArtist: strings.Join(release.ArtistNames(), ", "),
		AlbumYear:   release.Year,
		Genres:      release.Genres,
		Styles:      release.Styles,
	}
	if recommendation != nil {
		generated.RecommendedAlbum = recommendation.RecommendationString()
	}

	merged := store.MergeReview(existing, generated, s.now())
	if err := s.reviews.PutReview(ctx, merged); err != nil {
		return nil, NewError(KindUpstream, "review save failed", err)
	}

	log.Info().Str("albumId", albumID).Float64("rating", rating).
		Dur("generation", genDuration).Msg("Review generated and stored")
	metrics.New("VinylVault").Dimension("Operation", "review").
		Metric("GenerationMs", float64(genDuration.Milliseconds()), metrics.UnitMilliseconds).
		Count("ReviewGenerated").Flush()

	return resultFromRecord(merged, false), nil
}

// Delete clears the review fields for the key. A document that also holds a
// valuation keeps it; a review-only document is removed entirely. Deleting a
// missing review is a no-op.
func (s *Service) Delete(ctx context.Context, albumID, userID string) error {
	existing, err := s.reviews.GetReview(ctx, albumID, userID)
	if err != nil {
		return NewError(KindUpstream, "review lookup failed", err)
	}
	if existing == nil {
		return nil
	}
	cleared, keep := store.ClearReview(existing, s.now())
	if keep {
		if err := s.reviews.PutReview(ctx, cleared); err != nil {
			return NewError(KindUpstream, "review clear failed", err)
		}
		log.Info().Str("albumId", albumID).Msg("Review cleared, valuation kept")
		return nil
	}
	if err := s.reviews.DeleteReview(ctx, albumID, userID); err != nil {
		return NewError(KindUpstream, "review delete failed", err)
	}
	log.Info().Str("albumId", albumID).Msg("Review document deleted")
	return nil
}

// resultFromRecord reconstructs a Result from a stored document, reparsing
// the recommendation from the review text on demand.
func resultFromRecord(record *store.AlbumReview, cached bool) *Result {
	return &Result{
		Review: record.Review,
		Rating: record.Rating,
		AlbumInfo: AlbumInfo{
			Title:   record.AlbumTitle,
			Artists: splitArtists(record.AlbumArtist),
			Year:    record.AlbumYear,
			Genres:  record.Genres,
			Styles:  record.Styles,
		},
		Recommendation: ParseRecommendation(record.Review),
		Cached:         cached,
	}
}

func splitArtists(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
