package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpass/internal/storage"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF")
	webpBytes = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

func TestValidateImage(t *testing.T) {
	ext, err := storage.ValidateImage(pngBytes)
	assert.NoError(t, err)
	assert.Equal(t, ".png", ext)

	ext, err = storage.ValidateImage(jpegBytes)
	assert.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	ext, err = storage.ValidateImage(webpBytes)
	assert.NoError(t, err)
	assert.Equal(t, ".webp", ext)
}

func TestValidateImageRejectsWrongType(t *testing.T) {
	// Type is sniffed from the bytes, so a renamed GIF or plain text is
	// caught regardless of what the upload claimed.
	_, err := storage.ValidateImage([]byte("GIF89a..."))
	assert.ErrorIs(t, err, storage.ErrImageType)

	_, err = storage.ValidateImage([]byte("just some text"))
	assert.ErrorIs(t, err, storage.ErrImageType)
}

func TestValidateImageRejectsOversize(t *testing.T) {
	big := make([]byte, storage.MaxImageSize+1)
	copy(big, pngBytes)

	_, err := storage.ValidateImage(big)
	assert.ErrorIs(t, err, storage.ErrImageTooLarge)
}

func TestImageStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewImageStore(dir, "https://flowpass.app")
	require.NoError(t, err)

	url, err := store.Save(pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://flowpass.app/media/store-headers/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	// The file landed under the prefix with the key from the URL.
	key := url[strings.LastIndex(url, "/")+1:]
	data, err := os.ReadFile(filepath.Join(dir, "store-headers", key))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestImageStoreSaveRejectsInvalid(t *testing.T) {
	store, err := storage.NewImageStore(t.TempDir(), "https://flowpass.app")
	require.NoError(t, err)

	_, err = store.Save([]byte("not an image"))
	assert.ErrorIs(t, err, storage.ErrImageType)
}
