package document

import (
	"context"
	"errors"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// Repository defines persistence operations for the document.
type Repository interface {
	// Save replaces the stored document.
	Save(ctx context.Context, doc *environment.Document) error
	// Load returns the stored document bytes verbatim.
	Load(ctx context.Context) ([]byte, error)
	// Remove deletes every artifact of the store. Missing artifacts are not an error.
	Remove(ctx context.Context) error
}

// ErrNotFound is returned when no document has been stored yet.
var ErrNotFound = errors.New("document not found")
