// Package ai defines the contract of the natural-language skill classifier.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/hire-labor/internal/taxonomy"
)

// ErrUnavailable means the classifier could not produce an answer: no credential,
// transport failure, bad status, timeout or an unparseable reply.
// It is distinct from an empty category set, which is a valid "nothing matches".
var ErrUnavailable = errors.New("classifier unavailable")

// Classifier turns a free-text query into skill categories.
type Classifier interface {
	ExtractCategories(ctx context.Context, query string) ([]taxonomy.Category, error)
}

// Unavailable wraps cause with ErrUnavailable.
func Unavailable(cause error) error {
	if cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, cause)
}

// IsUnavailable reports whether err carries ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
