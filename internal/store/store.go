// Package store persists album reviews and Discogs credentials in DynamoDB.
//
// The AlbumReviews table holds one document per (albumId, userId) pair. A
// document may carry a review, an estimated resale value, or both; the two
// halves are written by different workflows and must never clobber each other.
// The merge functions in merge.go encode that contract.
package store

import "context"

// AlbumReview is a single document in the AlbumReviews table, keyed by
// (albumId, userId). Zero-valued review or valuation fields mean that half
// of the document has not been written yet.
type AlbumReview struct {
	AlbumID          string  `dynamodbav:"albumId" json:"albumId"`
	UserID           string  `dynamodbav:"userId" json:"userId"`
	Review           string  `dynamodbav:"review,omitempty" json:"review,omitempty"`
	Rating           float64 `dynamodbav:"rating,omitempty" json:"rating,omitempty"`
	RecommendedAlbum string  `dynamodbav:"recommendedAlbum,omitempty" json:"recommendedAlbum,omitempty"`

	// Denormalized catalogue snapshot, taken at first write so the frontend
	// can render lists without a catalogue fetch per album.
	AlbumTitle  string   `dynamodbav:"albumTitle,omitempty" json:"albumTitle,omitempty"`
	AlbumArtist string   `dynamodbav:"albumArtist,omitempty" json:"albumArtist,omitempty"`
	AlbumYear   int      `dynamodbav:"albumYear,omitempty" json:"albumYear,omitempty"`
	Genres      []string `dynamodbav:"genres,omitempty" json:"genres,omitempty"`
	Styles      []string `dynamodbav:"styles,omitempty" json:"styles,omitempty"`

	// EstimatedValue is whatever the marketplace returned: usually a number,
	// sometimes a currency-formatted string. Stored as-is.
	EstimatedValue any    `dynamodbav:"estimatedValue,omitempty" json:"estimatedValue,omitempty"`
	ValueUpdatedAt string `dynamodbav:"valueUpdatedAt,omitempty" json:"valueUpdatedAt,omitempty"`

	CreatedAt string `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt string `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// HasReview reports whether the review half of the document is populated.
func (r *AlbumReview) HasReview() bool {
	return r != nil && r.Review != ""
}

// HasValue reports whether the valuation half of the document is populated.
func (r *AlbumReview) HasValue() bool {
	return r != nil && r.EstimatedValue != nil
}

// Credentials holds a user's Discogs personal access token and username,
// keyed by userId in the UserDiscogsCredentials table.
type Credentials struct {
	UserID    string `dynamodbav:"userId" json:"-"`
	Username  string `dynamodbav:"discogsUsername" json:"username"`
	Token     string `dynamodbav:"discogsToken" json:"token"`
	UpdatedAt string `dynamodbav:"updatedAt,omitempty" json:"-"`
}

// ReviewStore is the persistence interface for album review documents.
// Get returns (nil, nil) when no document exists for the key.
type ReviewStore interface {
	GetReview(ctx context.Context, albumID, userID string) (*AlbumReview, error)
	PutReview(ctx context.Context, review *AlbumReview) error
	DeleteReview(ctx context.Context, albumID, userID string) error
}

// CredentialStore is the persistence interface for Discogs credentials.
// Get returns (nil, nil) when the user has no stored credentials.
type CredentialStore interface {
	GetCredentials(ctx context.Context, userID string) (*Credentials, error)
	PutCredentials(ctx context.Context, creds *Credentials) error
}
