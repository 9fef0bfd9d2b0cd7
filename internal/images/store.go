package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"openlabel-backend/internal/shared/storage/object"
)

// MaxBytes caps a single label image.
const MaxBytes int64 = 10 << 20

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("image exceeds 10 MiB")
	ErrEmpty    = errors.New("image is empty")
	ErrUnknown  = errors.New("unknown image reference")
)

// Image is a stored upload and the reference external services fetch it by.
type Image struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type keyResolver interface {
	KeyFromURL(ref string) (string, bool)
}

// Store saves label images into an object store and resolves references back to bytes.
type Store struct {
	objects  object.ObjectStore
	maxBytes int64
}

// New constructs a Store over objects.
func New(objects object.ObjectStore) *Store {
	return &Store{objects: objects, maxBytes: MaxBytes}
}

// Save validates and persists one image. contentType is the client's declared type;
// empty and application/octet-stream defer to content sniffing.
func (s *Store) Save(ctx context.Context, userID, fileName, contentType string, r io.Reader) (Image, error) {
	if declared := strings.TrimSpace(contentType); declared != "" && declared != "application/octet-stream" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err != nil || !strings.HasPrefix(mediaType, "image/") {
			return Image{}, ErrNotImage
		}
	}

	buf, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(buf)) > s.maxBytes {
		return Image{}, ErrTooLarge
	}
	if len(buf) == 0 {
		return Image{}, ErrEmpty
	}
	if !strings.HasPrefix(http.DetectContentType(buf), "image/") {
		return Image{}, ErrNotImage
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = "label"
	}

	key, size, mimeType, err := s.objects.Save(ctx, userID, fileName, bytes.NewReader(buf))
	if err != nil {
		return Image{}, fmt.Errorf("store image: %w", err)
	}
	ref, err := s.objects.URL(ctx, key)
	if err != nil {
		return Image{}, fmt.Errorf("image url: %w", err)
	}
	return Image{Key: key, URL: ref, Size: size, MimeType: mimeType}, nil
}

// Open resolves a URL issued by Save, or a bare storage key, to the image bytes.
func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	key := strings.TrimSpace(ref)
	if strings.Contains(key, "://") {
		resolver, ok := s.objects.(keyResolver)
		if !ok {
			return nil, ErrUnknown
		}
		key, ok = resolver.KeyFromURL(key)
		if !ok {
			return nil, ErrUnknown
		}
	}
	if !strings.HasPrefix(key, "images/") {
		return nil, ErrUnknown
	}
	return s.objects.Open(ctx, key)
}
