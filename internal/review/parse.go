package review

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultRating is stored when no rating pattern matches the generated text.
// A missing rating must not discard an otherwise valid review.
const DefaultRating = 5.0

// Rating patterns, tried in priority order. The prompt asks for
// "Note : X.X/10" but models drift, so progressively looser shapes follow.
var ratingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)note\s*:?\s*(\d+(?:\.\d+)?)\s*/\s*10`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*10`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*sur\s*10`),
	regexp.MustCompile(`(?i)note\s*:?\s*(\d+(?:\.\d+)?)`),
}

// recommendedPattern matches "ALBUM RECOMMANDÉ : <title> - <artist> (<year>)".
var recommendedPattern = regexp.MustCompile(`(?i)ALBUM RECOMMANDÉ\s*:\s*(.+?)\s*-\s*(.+?)\s*\((\d{4})\)`)

// ParseRating extracts the numeric rating from generated review text.
// The first matching pattern wins; out-of-range captures are clamped to
// [0, 10]. Returns DefaultRating when nothing matches.
func ParseRating(text string) float64 {
	for _, pattern := range ratingPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		rating, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		if rating < 0 {
			rating = 0
		}
		if rating > 10 {
			rating = 10
		}
		return rating
	}
	return DefaultRating
}

// Recommendation is the comparable album named in the review text.
type Recommendation struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Year   int    `json:"year"`
}

// ParseRecommendation extracts the recommended-album marker from review
// text. Returns nil when the marker is absent or malformed; a missing
// recommendation is not an error.
func ParseRecommendation(text string) *Recommendation {
	match := recommendedPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	title := cleanField(match[1])
	artist := cleanField(match[2])
	if title == "" || artist == "" {
		return nil
	}
	year, err := strconv.Atoi(match[3])
	if err != nil {
		return nil
	}
	return &Recommendation{Title: title, Artist: artist, Year: year}
}

// cleanField strips the markdown-ish decoration models sneak around album
// and artist names despite the prompt's format rules.
func cleanField(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'‘’“”_`")
	return strings.TrimSpace(s)
}

// RecommendationString renders a recommendation back into the canonical
// marker body, used for the stored recommendedAlbum field.
func (r *Recommendation) RecommendationString() string {
	return r.Title + " - " + r.Artist + " (" + strconv.Itoa(r.Year) + ")"
}
