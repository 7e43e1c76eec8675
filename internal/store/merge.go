package store

import "time"

// isoMillis matches the timestamp format the tables have always used.
const isoMillis = "2006-01-02T15:04:05.000Z"

// ISOTime formats t as a millisecond-precision UTC ISO-8601 string.
func ISOTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// MergeReview folds a freshly generated review into the stored document for
// the same key. Valuation fields and createdAt from the existing document
// survive unchanged; the review fields are replaced wholesale.
func MergeReview(existing, generated *AlbumReview, now time.Time) *AlbumReview {
	out := *generated
	ts := ISOTime(now)
	out.UpdatedAt = ts
	if existing != nil {
		out.EstimatedValue = existing.EstimatedValue
		out.ValueUpdatedAt = existing.ValueUpdatedAt
		out.CreatedAt = existing.CreatedAt
	}
	if out.CreatedAt == "" {
		out.CreatedAt = ts
	}
	return &out
}

// MergeValue writes a new estimated value into the stored document for the
// key, preserving any review fields and createdAt already there.
func MergeValue(existing *AlbumReview, albumID, userID string, value any, now time.Time) *AlbumReview {
	ts := ISOTime(now)
	out := &AlbumReview{AlbumID: albumID, UserID: userID}
	if existing != nil {
		copied := *existing
		out = &copied
		out.AlbumID = albumID
		out.UserID = userID
	}
	out.EstimatedValue = value
	out.ValueUpdatedAt = ts
	out.UpdatedAt = ts
	if out.CreatedAt == "" {
		out.CreatedAt = ts
	}
	return out
}

// ClearReview strips the review fields from a stored document. When nothing
// besides the review remains, it returns (nil, false) to signal that the
// whole document should be deleted rather than rewritten empty.
func ClearReview(existing *AlbumReview, now time.Time) (*AlbumReview, bool) {
	if existing == nil || !existing.HasValue() {
		return nil, false
	}
	out := *existing
	out.Review = ""
	out.Rating = 0
	out.RecommendedAlbum = ""
	out.UpdatedAt = ISOTime(now)
	return &out, true
}
