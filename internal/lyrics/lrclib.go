package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/errors"
)

const (
	// DefaultBaseURL is the public LRCLIB instance.
	DefaultBaseURL = "https://lrclib.net"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Record is a lyrics record as returned by the LRCLIB API.
type Record struct {
	ID           int64   `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// LRCLIB is a lyric catalog backed by an LRCLIB HTTP API.
type LRCLIB struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retryWait  time.Duration
	log        zerolog.Logger
}

// LRCLIBOption configures an LRCLIB client.
type LRCLIBOption func(*LRCLIB)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) LRCLIBOption {
	return func(l *LRCLIB) {
		l.httpClient = c
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) LRCLIBOption {
	return func(l *LRCLIB) {
		l.log = log
	}
}

// WithRetryWait sets the initial backoff between retries.
func WithRetryWait(d time.Duration) LRCLIBOption {
	return func(l *LRCLIB) {
		l.retryWait = d
	}
}

// NewLRCLIB creates a client for the LRCLIB instance at baseURL.
func NewLRCLIB(baseURL string, timeout time.Duration, opts ...LRCLIBOption) *LRCLIB {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	l := &LRCLIB{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "cadence (https://github.com/tessro/cadence)",
		retryWait:  baseRetryWait,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FetchLyrics implements core.LyricCatalog. It asks for an exact match first
// and falls back to a search; the first candidate with synced lyrics wins.
func (l *LRCLIB) FetchLyrics(ctx context.Context, track core.Track) ([]core.LyricLine, error) {
	if track.Title == "" {
		return nil, fmt.Errorf("%w: track has no title", errors.ErrLyricsNotFound)
	}

	var candidates []Record

	rec, err := l.Get(ctx, track)
	switch {
	case err == nil:
		candidates = append(candidates, *rec)
	case IsNotFound(err):
		// fall through to search
	default:
		return nil, err
	}

	if len(candidates) == 0 || candidates[0].SyncedLyrics == "" {
		found, err := l.Search(ctx, track)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}

	for _, c := range candidates {
		if c.Instrumental || c.SyncedLyrics == "" {
			continue
		}
		if lines := Parse(c.SyncedLyrics); len(lines) > 0 {
			l.log.Debug().Int64("id", c.ID).Int("lines", len(lines)).Msg("lrclib match")
			return lines, nil
		}
	}
	return nil, nil
}

// Get looks up the record that exactly matches track.
func (l *LRCLIB) Get(ctx context.Context, track core.Track) (*Record, error) {
	params := map[string]string{
		"track_name":  track.Title,
		"artist_name": track.Artist(),
	}
	if track.Album != "" {
		params["album_name"] = track.Album
	}
	if d := track.DurationSeconds(); d > 0 {
		params["duration"] = strconv.Itoa(int(d + 0.5))
	}

	var rec Record
	if err := l.request(ctx, BuildURL("/api/get", params), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Search returns records loosely matching track.
func (l *LRCLIB) Search(ctx context.Context, track core.Track) ([]Record, error) {
	params := map[string]string{"track_name": track.Title}
	if a := track.Artist(); a != "" {
		params["artist_name"] = a
	}

	var recs []Record
	if err := l.request(ctx, BuildURL("/api/search", params), &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (l *LRCLIB) request(ctx context.Context, path string, result interface{}) error {
	fullURL := l.baseURL + path
	l.log.Debug().Str("url", fullURL).Msg("lrclib request")

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := l.retryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			l.log.Debug().Int("attempt", attempt).Dur("wait", wait).AnErr("last", lastErr).Msg("lrclib retry")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", l.userAgent)

		resp, err := l.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", errors.ErrNetworkError, err)
			continue // Retry on network error
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		// Retry on 5xx server errors and rate limiting
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = decodeAPIError(resp.StatusCode, body)
			continue
		}

		// Don't retry other 4xx errors
		if resp.StatusCode >= 400 {
			return decodeAPIError(resp.StatusCode, body)
		}

		if result != nil && len(body) > 0 {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// APIError represents an LRCLIB error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lrclib error %d", e.Status)
	}
	return fmt.Sprintf("lrclib error %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return errors.ErrLyricsNotFound
	case e.Status == http.StatusTooManyRequests:
		return errors.ErrRateLimited
	}
	return nil
}

// IsNotFound reports whether err is an LRCLIB "not found" response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
	}
	apiErr.Status = status
	return apiErr
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
