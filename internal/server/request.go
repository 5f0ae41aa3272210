package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/colorfetch/internal/cache"
	"github.com/ironsheep/colorfetch/internal/extract"
)

// ValidationError is a client input fault. It is reported before the cache
// is consulted and never cached.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// colorArgs are the query parameters shared by every color operation.
type colorArgs struct {
	URL       string   `json:"url"`
	Strategy  string   `json:"strategy"`
	Normalize *float64 `json:"normalize"`
}

// key validates the arguments and builds the cache key. An empty strategy
// selects median cut.
func (a colorArgs) key() (cache.Key, error) {
	url := strings.TrimSpace(a.URL)
	if url == "" {
		return cache.Key{}, &ValidationError{Field: "url", Reason: "required"}
	}

	strategy := extract.MedianCut
	if strings.TrimSpace(a.Strategy) != "" {
		s, err := extract.ParseStrategy(a.Strategy)
		if err != nil {
			return cache.Key{}, &ValidationError{
				Field:  "strategy",
				Reason: fmt.Sprintf("%q (want median_cut or named_palette)", a.Strategy),
				Err:    err,
			}
		}
		strategy = s
	}

	if a.Normalize != nil {
		v := *a.Normalize
		// NaN fails both comparisons.
		if !(v >= 0 && v <= 1) {
			return cache.Key{}, &ValidationError{Field: "normalize", Reason: "must be between 0 and 1"}
		}
	}

	return cache.Key{SourceURL: url, Strategy: strategy, NormalizeFloor: a.Normalize}, nil
}

// parseNormalize parses the optional normalize query value. An empty string
// means absent.
func parseNormalize(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &ValidationError{Field: "normalize", Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return &v, nil
}
