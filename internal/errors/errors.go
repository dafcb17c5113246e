package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrLyricsNotFound     = errors.New("no lyrics found")
	ErrBackendUnavailable = errors.New("playback backend unavailable")
	ErrBackendClosed      = errors.New("playback backend closed")
	ErrTrackNotFound      = errors.New("track not found")
	ErrEmptyLibrary       = errors.New("no playable tracks")
	ErrNoTerminal         = errors.New("not a terminal")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetworkError       = errors.New("network error")
	ErrTimeout            = errors.New("request timeout")
	ErrCacheMiss          = errors.New("cache miss")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// CadenceError wraps an error with a user-friendly suggestion.
type CadenceError struct {
	Err        error
	Suggestion string
}

func (e *CadenceError) Error() string {
	return e.Err.Error()
}

func (e *CadenceError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &CadenceError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// New returns an error with the given text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join returns an error that wraps errs, or nil if all are nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var cadenceErr *CadenceError
	if errors.As(err, &cadenceErr) && cadenceErr.Suggestion != "" {
		return cadenceErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Backend errors
	if errors.Is(err, ErrBackendUnavailable) || strings.Contains(errStr, "executable file not found") ||
		strings.Contains(errStr, "mpv") {
		return "Install mpv, set playback.mpv_path, or run with --backend sim"
	}

	if errors.Is(err, ErrLyricsNotFound) {
		return "Place a .lrc file next to the track, or check lyrics.provider in your config"
	}

	if errors.Is(err, ErrNoTerminal) {
		return "Pass a track path or --query instead of using the interactive picker"
	}

	if errors.Is(err, ErrTrackNotFound) || errors.Is(err, ErrEmptyLibrary) {
		return "Check the path, or set library.dir to a folder with audio files"
	}

	// Rate limiting
	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	// Network errors
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'cadence config path' to find your config file and check its values"
	}

	// Server errors
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "The lyrics service is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures, such as
// a library scan where some files could not be read.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// Err joins all errors into one, or returns nil.
func (p *PartialResult[T]) Err() error {
	return errors.Join(p.Errors...)
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(p.Errors))
	for i, err := range p.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}
