package review

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"github.com/tmercier/vinyl-vault/internal/discogs"
)

// Kind categorizes orchestration failures so HTTP handlers and retry logic
// can act without inspecting upstream error shapes.
type Kind int

const (
	// KindUnauthenticated means the caller presented no valid session.
	KindUnauthenticated Kind = iota
	// KindCredentialsNotFound means the user has no Discogs token on file.
	KindCredentialsNotFound
	// KindValidation means the album metadata is too incomplete to review.
	KindValidation
	// KindTimeout means the generation call exceeded its bounded wait.
	KindTimeout
	// KindIncompleteGeneration means the generated text was too short to trust.
	KindIncompleteGeneration
	// KindUpstreamRateLimited means Discogs or Gemini returned a 429-class error.
	KindUpstreamRateLimited
	// KindUpstreamUnauthorized means the stored Discogs token was rejected.
	KindUpstreamUnauthorized
	// KindUpstreamNotFound means the album id is unknown to Discogs.
	KindUpstreamNotFound
	// KindGenerationMisconfigured means the Gemini credential is missing or invalid.
	KindGenerationMisconfigured
	// KindUpstream covers remaining upstream failures (5xx, network).
	KindUpstream
)

// Error is the taxonomy-classified failure surfaced by the orchestrators.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether an automatic bounded retry of the same request
// is worthwhile. Validation and credential problems need user action first.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindIncompleteGeneration, KindUpstreamRateLimited, KindUpstream:
		return true
	}
	return false
}

// NewError builds a classified Error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ClassifyCatalogueError maps a Discogs client failure into the taxonomy.
func ClassifyCatalogueError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "catalogue request timed out", err)
	}
	var statusErr *discogs.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return NewError(KindUpstreamUnauthorized, "Discogs token rejected", err)
		case http.StatusNotFound:
			return NewError(KindUpstreamNotFound, "album not found on Discogs", err)
		case http.StatusTooManyRequests:
			return NewError(KindUpstreamRateLimited, "Discogs rate limit hit", err)
		}
	}
	return NewError(KindUpstream, "catalogue request failed", err)
}

// classifyGenerationError maps a Gemini failure into the taxonomy.
func classifyGenerationError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "review generation timed out", err)
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return NewError(KindGenerationMisconfigured, "Gemini API key rejected", err)
		case http.StatusTooManyRequests:
			return NewError(KindUpstreamRateLimited, "Gemini rate limit hit", err)
		}
	}
	return NewError(KindUpstream, "review generation failed", err)
}
