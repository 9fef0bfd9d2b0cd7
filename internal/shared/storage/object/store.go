package object

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a storage key does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrExists is returned by Create when the storage key is already taken.
	ErrExists = errors.New("object already exists")
)

// ObjectStore defines the contract for saving, listing and retrieving binary objects.
type ObjectStore interface {
	// Save stores an upload under the user's namespace with a random prefix.
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey writes r at exactly storageKey, replacing any previous object.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	// Create writes r at storageKey only if no object exists there yet.
	Create(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// URL returns a reference an external service can fetch the object from.
	URL(ctx context.Context, storageKey string) (string, error)
}
