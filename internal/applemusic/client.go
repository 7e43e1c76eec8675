// Package applemusic resolves Apple Music links for albums via the public
// iTunes Search API. When no match is found, callers still get a usable
// Apple Music search URL to fall back on.
package applemusic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// defaultBaseURL is the public iTunes Search API base URL.
	defaultBaseURL = "https://itunes.apple.com"

	// searchBaseURL is the Apple Music storefront search page, used as the
	// fallback link when no direct match exists.
	searchBaseURL = "https://music.apple.com/search"

	// albumBaseURL is the Apple Music album page prefix for direct links.
	albumBaseURL = "https://music.apple.com/album"

	defaultTimeout = 15 * time.Second
)

// Client queries the iTunes Search API. The zero value is not usable;
// create one with NewClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an iTunes Search API client. No authentication needed.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: defaultBaseURL,
	}
}

// Match is the outcome of an album lookup. When Found is false, DirectURL is
// empty and SearchURL still points at an Apple Music search for the query.
type Match struct {
	Found      bool   `json:"found"`
	DirectURL  string `json:"directUrl,omitempty"`
	SearchURL  string `json:"searchUrl"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Year       int    `json:"year,omitempty"`
	Artwork    string `json:"artwork,omitempty"`
	Genre      string `json:"genre,omitempty"`
	TrackCount int    `json:"trackCount,omitempty"`
}

type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []searchResult `json:"results"`
}

type searchResult struct {
	CollectionID     int64  `json:"collectionId"`
	CollectionName   string `json:"collectionName"`
	ArtistName       string `json:"artistName"`
	ReleaseDate      string `json:"releaseDate"`
	ArtworkURL100    string `json:"artworkUrl100"`
	PrimaryGenreName string `json:"primaryGenreName"`
	TrackCount       int    `json:"trackCount"`
}

// FindAlbum looks up "<artist> <album>" on iTunes and returns the best match.
// A lookup that finds nothing is not an error; the Match carries the search
// URL fallback either way.
func (c *Client) FindAlbum(ctx context.Context, artist, album string) (*Match, error) {
	term := artist + " " + album
	searchURL := searchBaseURL + "?term=" + url.QueryEscape(term)

	params := url.Values{
		"term":   {term},
		"entity": {"album"},
		"limit":  {"1"},
	}

	startTime := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	log.Debug().Int("statusCode", httpResp.StatusCode).Dur("duration", time.Since(startTime)).
		Str("artist", artist).Str("album", album).Msg("iTunes search response")

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes search: unexpected status %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		log.Debug().Str("artist", artist).Str("album", album).Msg("No iTunes match, falling back to search link")
		return &Match{
			Found:     false,
			SearchURL: searchURL,
			Artist:    artist,
			Album:     album,
		}, nil
	}

	result := resp.Results[0]
	return &Match{
		Found:      true,
		DirectURL:  fmt.Sprintf("%s/%d", albumBaseURL, result.CollectionID),
		SearchURL:  searchURL,
		Artist:     result.ArtistName,
		Album:      result.CollectionName,
		Year:       releaseYear(result.ReleaseDate),
		Artwork:    result.ArtworkURL100,
		Genre:      result.PrimaryGenreName,
		TrackCount: result.TrackCount,
	}, nil
}

// FallbackMatch builds the not-found result used when the lookup itself
// fails. The frontend still gets a clickable search link.
func FallbackMatch(artist, album string) *Match {
	return &Match{
		Found:     false,
		SearchURL: searchBaseURL + "?term=" + url.QueryEscape(artist+" "+album),
		Artist:    artist,
		Album:     album,
	}
}

// releaseYear extracts the year from an iTunes release date (RFC 3339).
func releaseYear(date string) int {
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return 0
	}
	return t.Year()
}
