package images

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localstore "openlabel-backend/internal/shared/storage/object/local"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSaveAndOpenByURL(t *testing.T) {
	store := New(localstore.New(t.TempDir(), "http://api.test"))
	ctx := context.Background()

	img, err := store.Save(ctx, "guest:1", "label.png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.True(t, strings.HasPrefix(img.URL, "http://api.test/files/images/"))
	assert.Equal(t, int64(len(pngHeader)), img.Size)

	for _, ref := range []string{img.URL, img.Key} {
		rc, err := store.Open(ctx, ref)
		require.NoError(t, err)
		got, _ := io.ReadAll(rc)
		rc.Close()
		assert.Equal(t, pngHeader, got)
	}
}

func TestSaveRejections(t *testing.T) {
	store := New(localstore.New(t.TempDir(), "http://api.test"))
	store.maxBytes = 64
	ctx := context.Background()

	_, err := store.Save(ctx, "u", "a.txt", "text/plain", bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrNotImage, "declared type")

	_, err = store.Save(ctx, "u", "a.png", "", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage, "sniffed type")

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	_, err = store.Save(ctx, "u", "a.png", "image/png", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Save(ctx, "u", "a.png", "image/png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestOpenRejectsForeignReferences(t *testing.T) {
	store := New(localstore.New(t.TempDir(), "http://api.test"))
	ctx := context.Background()

	_, err := store.Open(ctx, "https://evil.example/files/images/x.png")
	assert.ErrorIs(t, err, ErrUnknown)
	_, err = store.Open(ctx, "reports/report_1.json")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestSaveAcceptsGenericDeclaredType(t *testing.T) {
	store := New(localstore.New(t.TempDir(), "http://api.test"))
	img, err := store.Save(context.Background(), "u", "photo", "application/octet-stream", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
}
