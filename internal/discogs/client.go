// Package discogs provides a client for the Discogs REST API endpoints the
// collection manager needs: release details, collection pages, collection
// folders, and marketplace price suggestions.
//
// Authenticated requests are allowed 60 per minute; the client paces itself
// with a token bucket so bulk operations stay under the cap, and surfaces
// 429 responses as StatusError so callers can back off and retry.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// defaultBaseURL is the Discogs REST API base URL.
	defaultBaseURL = "https://api.discogs.com"

	// defaultTimeout is the HTTP client timeout for API calls.
	defaultTimeout = 30 * time.Second

	// userAgent identifies the app as Discogs requires.
	userAgent = "VinylVault/1.0 +https://github.com/tmercier/vinyl-vault"

	// Authenticated clients get 60 requests per minute.
	requestInterval = time.Second
)

// StatusError reports a non-2xx Discogs response. Callers inspect Code to
// distinguish not-found (404) from rate limiting (429).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discogs: unexpected status %d", e.Code)
}

// Client provides methods for the Discogs REST API, authenticated with a
// user's personal access token.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a Discogs API client for the given personal access token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		token:   token,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

// --- API response types ---

// Artist is a credited artist on a release.
type Artist struct {
	Name string `json:"name"`
}

// Label is a record label entry on a release.
type Label struct {
	Name      string `json:"name"`
	CatNo     string `json:"catno,omitempty"`
	EntityTag string `json:"entity_type_name,omitempty"`
}

// Track is a tracklist entry.
type Track struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration,omitempty"`
}

// Image is release artwork.
type Image struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Release is the detail document for a single Discogs release. Marketplace
// fields may be absent; a zero EstimatedValue and LowestPrice means Discogs
// reported no price.
type Release struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Artists        []Artist `json:"artists"`
	Year           int      `json:"year"`
	Country        string   `json:"country,omitempty"`
	Genres         []string `json:"genres"`
	Styles         []string `json:"styles"`
	Labels         []Label  `json:"labels"`
	Tracklist      []Track  `json:"tracklist"`
	Images         []Image  `json:"images,omitempty"`
	EstimatedValue float64  `json:"estimated_value,omitempty"`
	LowestPrice    float64  `json:"lowest_price,omitempty"`
	NumForSale     int      `json:"num_for_sale,omitempty"`
}

// ArtistNames flattens the credited artists to their display names.
func (r *Release) ArtistNames() []string {
	names := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		names = append(names, a.Name)
	}
	return names
}

// MarketValue returns the resale estimate for the release: the estimated
// value when Discogs provides one, otherwise the lowest marketplace price.
// Returns (0, false) when neither is available.
func (r *Release) MarketValue() (float64, bool) {
	if r.EstimatedValue > 0 {
		return r.EstimatedValue, true
	}
	if r.LowestPrice > 0 {
		return r.LowestPrice, true
	}
	return 0, false
}

// Pagination is the paging block Discogs returns on list endpoints.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// CollectionItem is one release instance in a collection folder. The basic
// information block is kept raw and passed through to the frontend untouched.
type CollectionItem struct {
	ID               int             `json:"id"`
	InstanceID       int64           `json:"instance_id"`
	Rating           int             `json:"rating"`
	BasicInformation json.RawMessage `json:"basic_information"`
}

// CollectionPage is one page of a user's collection folder.
type CollectionPage struct {
	Pagination Pagination       `json:"pagination"`
	Releases   []CollectionItem `json:"releases"`
}

// Folder is one of a user's collection folders. Folder 0 is the implicit
// "All" folder.
type Folder struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type foldersResponse struct {
	Folders []Folder `json:"folders"`
}

// --- API operations ---

// GetRelease fetches the detail document for a release.
func (c *Client) GetRelease(ctx context.Context, releaseID string) (*Release, error) {
	var release Release
	if err := c.getJSON(ctx, "/releases/"+url.PathEscape(releaseID), nil, &release); err != nil {
		return nil, fmt.Errorf("get release %s: %w", releaseID, err)
	}
	return &release, nil
}

// CollectionReleases fetches one page of a user's collection folder.
// Folder 0 covers the whole collection.
func (c *Client) CollectionReleases(ctx context.Context, username string, folderID, page, perPage int) (*CollectionPage, error) {
	endpoint := fmt.Sprintf("/users/%s/collection/folders/%d/releases", url.PathEscape(username), folderID)
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	var result CollectionPage
	if err := c.getJSON(ctx, endpoint, params, &result); err != nil {
		return nil, fmt.Errorf("collection releases for %s: %w", username, err)
	}
	return &result, nil
}

// Folders fetches a user's collection folders.
func (c *Client) Folders(ctx context.Context, username string) ([]Folder, error) {
	var result foldersResponse
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(username)+"/collection/folders", nil, &result); err != nil {
		return nil, fmt.Errorf("folders for %s: %w", username, err)
	}
	return result.Folders, nil
}

// getJSON sends a GET request and decodes the JSON response into out.
// Waits on the rate limiter before each request.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	startTime := time.Now()
	log.Debug().Str("method", http.MethodGet).Str("path", endpoint).Msg("Discogs API request")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+c.token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Int("statusCode", 0).Dur("duration", duration).Err(err).Msg("Discogs API response")
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	log.Debug().Int("statusCode", httpResp.StatusCode).Dur("duration", duration).Msg("Discogs API response")

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return &StatusError{Code: httpResp.StatusCode, Body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w (body: %s)", err, truncate(string(body), 200))
	}
	return nil
}

// truncate shortens a string for log/error output.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
