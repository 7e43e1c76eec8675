// Package value orchestrates resale-value lookups: fetching the market
// estimate from Discogs, merging it into the album document without touching
// review fields, and pacing bulk refreshes under the upstream rate limit.
package value

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tmercier/vinyl-vault/internal/discogs"
	"github.com/tmercier/vinyl-vault/internal/metrics"
	"github.com/tmercier/vinyl-vault/internal/review"
	"github.com/tmercier/vinyl-vault/internal/store"
)

const (
	// refreshInterval paces bulk refresh requests to stay under the
	// Discogs per-minute cap.
	refreshInterval = 1100 * time.Millisecond

	// rateLimitBackoff is the pause after a 429 before retrying the
	// same album.
	rateLimitBackoff = 5 * time.Second

	// maxItemRetries bounds retries per album during bulk refresh.
	maxItemRetries = 2
)

// Value is a stored or freshly fetched estimate for one album.
type Value struct {
	EstimatedValue any    `json:"estimatedValue"`
	LastUpdated    string `json:"lastUpdated,omitempty"`
}

// Service runs the valuation workflow.
type Service struct {
	reviews   store.ReviewStore
	creds     store.CredentialStore
	catalogue review.CatalogueFactory
	limiter   *rate.Limiter
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

// NewService wires a valuation Service.
func NewService(reviews store.ReviewStore, creds store.CredentialStore, catalogue review.CatalogueFactory) *Service {
	return &Service{
		reviews:   reviews,
		creds:     creds,
		catalogue: catalogue,
		limiter:   rate.NewLimiter(rate.Every(refreshInterval), 1),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Cached returns the stored estimate without any external call.
// Returns (nil, nil) when no value has been fetched for the key yet.
func (s *Service) Cached(ctx context.Context, albumID, userID string) (*Value, error) {
	record, err := s.reviews.GetReview(ctx, albumID, userID)
	if err != nil {
		return nil, review.NewError(review.KindUpstream, "value lookup failed", err)
	}
	if !record.HasValue() {
		return nil, nil
	}
	return &Value{EstimatedValue: record.EstimatedValue, LastUpdated: record.ValueUpdatedAt}, nil
}

// Refresh fetches the current market estimate for the album and merges it
// into the stored document, preserving any review fields. An album with no
// marketplace price yields a Value with a nil estimate, not an error.
func (s *Service) Refresh(ctx context.Context, albumID, userID string) (*Value, error) {
	creds, err := s.creds.GetCredentials(ctx, userID)
	if err != nil {
		return nil, review.NewError(review.KindUpstream, "credentials lookup failed", err)
	}
	if creds == nil {
		return nil, review.NewError(review.KindCredentialsNotFound, "no Discogs credentials on file", nil)
	}

	release, err := s.catalogue(creds.Token).GetRelease(ctx, albumID)
	if err != nil {
		return nil, review.ClassifyCatalogueError(err)
	}
	return s.StoreFromRelease(ctx, albumID, userID, release)
}

// StoreFromRelease merges the market estimate of an already-fetched release
// into the stored document. Used by Refresh and by callers that have the
// release in hand and want to persist its value as a side effect.
func (s *Service) StoreFromRelease(ctx context.Context, albumID, userID string, release *discogs.Release) (*Value, error) {
	amount, ok := release.MarketValue()
	if !ok {
		log.Debug().Str("albumId", albumID).Msg("No marketplace price for release")
		return &Value{EstimatedValue: nil}, nil
	}

	existing, err := s.reviews.GetReview(ctx, albumID, userID)
	if err != nil {
		return nil, review.NewError(review.KindUpstream, "value lookup failed", err)
	}
	base := existing
	if base == nil {
		// First write for this key: seed the catalogue snapshot so list
		// views can render without a per-album fetch.
		base = &store.AlbumReview{
			AlbumID:     albumID,
			UserID:      userID,
			AlbumTitle:  release.Title,
			AlbumArtist: joinArtists(release),
			AlbumYear:   release.Year,
			Genres:      release.Genres,
			Styles:      release.Styles,
		}
	}

	merged := store.MergeValue(base, albumID, userID, amount, s.now())
	if err := s.reviews.PutReview(ctx, merged); err != nil {
		return nil, review.NewError(review.KindUpstream, "value save failed", err)
	}

	log.Info().Str("albumId", albumID).Float64("value", amount).Msg("Estimated value refreshed")
	metrics.New("VinylVault").Dimension("Operation", "value").Count("ValueRefreshed").Flush()

	return &Value{EstimatedValue: merged.EstimatedValue, LastUpdated: merged.ValueUpdatedAt}, nil
}

// StoreIfAbsent persists the release's market estimate only when the key has
// no stored value yet. An already-stored estimate is returned untouched, so
// opportunistic callers never overwrite an explicit refresh.
func (s *Service) StoreIfAbsent(ctx context.Context, albumID, userID string, release *discogs.Release) (*Value, error) {
	existing, err := s.reviews.GetReview(ctx, albumID, userID)
	if err != nil {
		return nil, review.NewError(review.KindUpstream, "value lookup failed", err)
	}
	if existing.HasValue() {
		return &Value{EstimatedValue: existing.EstimatedValue, LastUpdated: existing.ValueUpdatedAt}, nil
	}
	return s.StoreFromRelease(ctx, albumID, userID, release)
}

// ItemResult is the per-album outcome of a bulk refresh.
type ItemResult struct {
	AlbumID string `json:"albumId"`
	Value   any    `json:"estimatedValue,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RefreshAll refreshes every album in sequence, pacing calls with the rate
// limiter. A 429 pauses and retries the same album rather than skipping it,
// so the collection never ends up partially valued. Other errors are
// recorded per item and the sweep continues.
func (s *Service) RefreshAll(ctx context.Context, userID string, albumIDs []string) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(albumIDs))
	for _, albumID := range albumIDs {
		if err := s.limiter.Wait(ctx); err != nil {
			return results, err
		}

		value, err := s.refreshWithRetry(ctx, albumID, userID)
		item := ItemResult{AlbumID: albumID}
		if err != nil {
			item.Error = err.Error()
			var revErr *review.Error
			if errors.As(err, &revErr) && revErr.Kind == review.KindCredentialsNotFound {
				// No point sweeping the rest without a token.
				results = append(results, item)
				return results, err
			}
		} else {
			item.Value = value.EstimatedValue
		}
		results = append(results, item)
	}

	log.Info().Int("albums", len(albumIDs)).Msg("Bulk value refresh complete")
	return results, nil
}

// refreshWithRetry retries the same album after rate-limit backoff.
func (s *Service) refreshWithRetry(ctx context.Context, albumID, userID string) (*Value, error) {
	var lastErr error
	for attempt := 0; attempt <= maxItemRetries; attempt++ {
		value, err := s.Refresh(ctx, albumID, userID)
		if err == nil {
			return value, nil
		}
		lastErr = err

		var revErr *review.Error
		if !errors.As(err, &revErr) || revErr.Kind != review.KindUpstreamRateLimited {
			return nil, err
		}
		log.Warn().Str("albumId", albumID).Int("attempt", attempt+1).Msg("Rate limited, backing off")
		if sleepErr := s.sleep(ctx, rateLimitBackoff); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func joinArtists(release *discogs.Release) string {
	return strings.Join(release.ArtistNames(), ", ")
}
