package review

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tmercier/vinyl-vault/internal/discogs"
	"github.com/tmercier/vinyl-vault/internal/store"
)

// --- Fakes ---

type fakeReviewStore struct {
	records map[string]*store.AlbumReview
	getErr  error
	putErr  error
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{records: make(map[string]*store.AlbumReview)}
}

func (f *fakeReviewStore) key(albumID, userID string) string { return albumID + "#" + userID }

func (f *fakeReviewStore) GetReview(_ context.Context, albumID, userID string) (*store.AlbumReview, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[f.key(albumID, userID)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeReviewStore) PutReview(_ context.Context, review *store.AlbumReview) error {
	if f.putErr != nil {
		return f.putErr
	}
	copied := *review
	f.records[f.key(review.AlbumID, review.UserID)] = &copied
	return nil
}

func (f *fakeReviewStore) DeleteReview(_ context.Context, albumID, userID string) error {
	delete(f.records, f.key(albumID, userID))
	return nil
}

type fakeCredStore struct {
	creds map[string]*store.Credentials
}

func (f *fakeCredStore) GetCredentials(_ context.Context, userID string) (*store.Credentials, error) {
	return f.creds[userID], nil
}

func (f *fakeCredStore) PutCredentials(_ context.Context, creds *store.Credentials) error {
	f.creds[creds.UserID] = creds
	return nil
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeCatalogue struct {
	release *discogs.Release
	err     error
}

func (f *fakeCatalogue) GetRelease(_ context.Context, _ string) (*discogs.Release, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.release, nil
}

// --- Fixtures ---

const generatedText = "Une critique exigeante qui analyse l'intention, la technique et la cohérence de l'album en détail. " +
	"Note : 8.5/10\nALBUM RECOMMANDÉ : Kind of Blue - Miles Davis (1959)"

func testRelease() *discogs.Release {
	return &discogs.Release{
		ID:      12345,
		Title:   "Blue Train",
		Artists: []discogs.Artist{{Name: "John Coltrane"}},
		Year:    1957,
		Genres:  []string{"Jazz"},
		Styles:  []string{"Hard Bop"},
		Labels:  []discogs.Label{{Name: "Blue Note"}},
		Tracklist: []discogs.Track{
			{Position: "A1", Title: "Blue Train"},
			{Position: "A2", Title: "Moment's Notice"},
		},
	}
}

func newTestService(reviews *fakeReviewStore, gen *fakeGenerator, cat *fakeCatalogue) *Service {
	creds := &fakeCredStore{creds: map[string]*store.Credentials{
		"user-1": {UserID: "user-1", Username: "tester", Token: "discogs-token"},
	}}
	return NewService(reviews, creds, gen, func(token string) Catalogue { return cat })
}

// --- Tests ---

func TestGetOrCreate_FreshAlbum(t *testing.T) {
	reviews := newFakeReviewStore()
	gen := &fakeGenerator{text: generatedText}
	svc := newTestService(reviews, gen, &fakeCatalogue{release: testRelease()})

	result, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Review != generatedText {
		t.Error("review text should be stored verbatim")
	}
	if result.Rating != 8.5 {
		t.Errorf("rating = %v, want 8.5", result.Rating)
	}
	if result.Cached {
		t.Error("fresh generation should not be marked cached")
	}
	if result.AlbumInfo.Title != "Blue Train" || result.AlbumInfo.Year != 1957 {
		t.Errorf("unexpected album info: %+v", result.AlbumInfo)
	}
	if result.Recommendation == nil || result.Recommendation.Title != "Kind of Blue" {
		t.Errorf("unexpected recommendation: %+v", result.Recommendation)
	}

	stored := reviews.records["12345#user-1"]
	if stored == nil {
		t.Fatal("record should be persisted")
	}
	if stored.Rating != 8.5 || stored.AlbumArtist != "John Coltrane" {
		t.Errorf("unexpected stored record: %+v", stored)
	}
	if stored.CreatedAt == "" || stored.UpdatedAt == "" {
		t.Error("timestamps should be set on first write")
	}
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	reviews := newFakeReviewStore()
	gen := &fakeGenerator{text: generatedText}
	svc := newTestService(reviews, gen, &fakeCatalogue{release: testRelease()})

	first, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if gen.calls != 1 {
		t.Errorf("generator called %d times, want exactly 1", gen.calls)
	}
	if second.Review != first.Review || second.Rating != first.Rating {
		t.Error("second call must return identical review and rating")
	}
	if !second.Cached {
		t.Error("second call should be a cache hit")
	}
}

func TestGetOrCreate_PreservesValuation(t *testing.T) {
	reviews := newFakeReviewStore()
	reviews.records["12345#user-1"] = &store.AlbumReview{
		AlbumID:        "12345",
		UserID:         "user-1",
		EstimatedValue: 12.5,
		ValueUpdatedAt: "2025-01-01T00:00:00.000Z",
		CreatedAt:      "2024-12-01T00:00:00.000Z",
	}
	gen := &fakeGenerator{text: generatedText}
	svc := newTestService(reviews, gen, &fakeCatalogue{release: testRelease()})

	if _, err := svc.GetOrCreate(context.Background(), "12345", "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := reviews.records["12345#user-1"]
	if stored.EstimatedValue != 12.5 {
		t.Errorf("estimatedValue = %v, want 12.5 preserved", stored.EstimatedValue)
	}
	if stored.ValueUpdatedAt != "2025-01-01T00:00:00.000Z" {
		t.Errorf("valueUpdatedAt = %q, want unchanged", stored.ValueUpdatedAt)
	}
	if stored.CreatedAt != "2024-12-01T00:00:00.000Z" {
		t.Errorf("createdAt = %q, want unchanged", stored.CreatedAt)
	}
	if stored.Review != generatedText {
		t.Error("review should be written alongside the preserved valuation")
	}
}

func TestGetOrCreate_NoCredentials(t *testing.T) {
	svc := NewService(newFakeReviewStore(), &fakeCredStore{creds: map[string]*store.Credentials{}},
		&fakeGenerator{text: generatedText},
		func(string) Catalogue { return &fakeCatalogue{release: testRelease()} })

	_, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	var revErr *Error
	if !errors.As(err, &revErr) || revErr.Kind != KindCredentialsNotFound {
		t.Fatalf("expected CredentialsNotFound, got %v", err)
	}
	if revErr.Retryable() {
		t.Error("missing credentials must not be retryable")
	}
}

func TestGetOrCreate_IncompleteMetadata(t *testing.T) {
	release := testRelease()
	release.Artists = nil
	gen := &fakeGenerator{text: generatedText}
	svc := newTestService(newFakeReviewStore(), gen, &fakeCatalogue{release: release})

	_, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	var revErr *Error
	if !errors.As(err, &revErr) || revErr.Kind != KindValidation {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if gen.calls != 0 {
		t.Error("generation must not run on invalid metadata")
	}
}

func TestGetOrCreate_CatalogueNotFound(t *testing.T) {
	cat := &fakeCatalogue{err: &discogs.StatusError{Code: http.StatusNotFound}}
	svc := newTestService(newFakeReviewStore(), &fakeGenerator{text: generatedText}, cat)

	_, err := svc.GetOrCreate(context.Background(), "999", "user-1")
	var revErr *Error
	if !errors.As(err, &revErr) || revErr.Kind != KindUpstreamNotFound {
		t.Fatalf("expected UpstreamNotFound, got %v", err)
	}
}

func TestGetOrCreate_RateLimited(t *testing.T) {
	cat := &fakeCatalogue{err: &discogs.StatusError{Code: http.StatusTooManyRequests}}
	svc := newTestService(newFakeReviewStore(), &fakeGenerator{text: generatedText}, cat)

	_, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	var revErr *Error
	if !errors.As(err, &revErr) || revErr.Kind != KindUpstreamRateLimited {
		t.Fatalf("expected UpstreamRateLimited, got %v", err)
	}
	if !revErr.Retryable() {
		t.Error("rate limiting should be retryable")
	}
}

func TestGetOrCreate_GenerationTimeout(t *testing.T) {
	reviews := newFakeReviewStore()
	gen := &fakeGenerator{err: fmt.Errorf("generate content: %w", context.DeadlineExceeded)}
	svc := newTestService(reviews, gen, &fakeCatalogue{release: testRelease()})

	_, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	var revErr *Error
	if !errors.As(err, &revErr) || revErr.Kind != KindTimeout {
		t.Fatalf("expected Timeout, got %v", err)
	}
	if !revErr.Retryable() {
		t.Error("a timed-out generation should be retryable")
	}
	if len(reviews.records) != 0 {
		t.Error("nothing must be stored after a timed-out generation")
	}
}

func TestGetOrCreate_TruncatedGeneration(t *testing.T) {
	reviews := newFakeReviewStore()
	gen := &fakeGenerator{text: "Trop court."}
	svc := newTestService(reviews, gen, &fakeCatalogue{release: testRelease()})

	_, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	var revErr *Error
	if !errors.As(err, &revErr) || revErr.Kind != KindIncompleteGeneration {
		t.Fatalf("expected IncompleteGeneration, got %v", err)
	}
	if len(reviews.records) != 0 {
		t.Error("truncated response must not be stored")
	}
}

func TestGetOrCreate_MissingRatingDefaults(t *testing.T) {
	reviews := newFakeReviewStore()
	gen := &fakeGenerator{text: "Une critique détaillée et complète mais qui ne donne aucune note chiffrée à la fin du texte."}
	svc := newTestService(reviews, gen, &fakeCatalogue{release: testRelease()})

	result, err := svc.GetOrCreate(context.Background(), "12345", "user-1")
	if err != nil {
		t.Fatalf("a missing rating must not fail the operation: %v", err)
	}
	if result.Rating != DefaultRating {
		t.Errorf("rating = %v, want default %v", result.Rating, DefaultRating)
	}
}

func TestCached(t *testing.T) {
	reviews := newFakeReviewStore()
	reviews.records["12345#user-1"] = &store.AlbumReview{
		AlbumID: "12345", UserID: "user-1",
		Review: generatedText, Rating: 8.5, AlbumTitle: "Blue Train",
	}
	svc := newTestService(reviews, &fakeGenerator{}, &fakeCatalogue{})

	result, err := svc.Cached(context.Background(), "12345", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.Cached || result.Rating != 8.5 {
		t.Errorf("unexpected result: %+v", result)
	}

	missing, err := svc.Cached(context.Background(), "404", "user-1")
	if err != nil || missing != nil {
		t.Errorf("missing review should be (nil, nil), got (%v, %v)", missing, err)
	}
}

func TestDelete_KeepsValuation(t *testing.T) {
	reviews := newFakeReviewStore()
	reviews.records["12345#user-1"] = &store.AlbumReview{
		AlbumID: "12345", UserID: "user-1",
		Review: generatedText, Rating: 8.5,
		EstimatedValue: 30.0, ValueUpdatedAt: "2025-01-01T00:00:00.000Z",
	}
	svc := newTestService(reviews, &fakeGenerator{}, &fakeCatalogue{})

	if err := svc.Delete(context.Background(), "12345", "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := reviews.records["12345#user-1"]
	if stored == nil {
		t.Fatal("document with valuation should survive review delete")
	}
	if stored.HasReview() || stored.Rating != 0 {
		t.Error("review fields should be cleared")
	}
	if stored.EstimatedValue != 30.0 {
		t.Error("valuation should be untouched")
	}
}

func TestDelete_ReviewOnlyRemovesDocument(t *testing.T) {
	reviews := newFakeReviewStore()
	reviews.records["12345#user-1"] = &store.AlbumReview{
		AlbumID: "12345", UserID: "user-1", Review: generatedText, Rating: 8.5,
	}
	svc := newTestService(reviews, &fakeGenerator{}, &fakeCatalogue{})

	if err := svc.Delete(context.Background(), "12345", "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reviews.records["12345#user-1"]; ok {
		t.Error("review-only document should be removed")
	}
}

func TestDelete_Missing(t *testing.T) {
	svc := newTestService(newFakeReviewStore(), &fakeGenerator{}, &fakeCatalogue{})
	if err := svc.Delete(context.Background(), "nope", "user-1"); err != nil {
		t.Errorf("deleting a missing review should be a no-op, got %v", err)
	}
}
