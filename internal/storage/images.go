package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"flowpass/internal/utils"
)

// Header images are capped at 5MB and must be one of the allowed raster
// formats, enforced by sniffing the bytes rather than trusting the upload's
// declared type.
const MaxImageSize = 5 * 1024 * 1024

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	ErrImageTooLarge = errors.New("image must be less than 5MB")
	ErrImageType     = errors.New("please upload a JPG, PNG, or WebP image")
)

const headerPrefix = "store-headers"

// ValidateImage checks size and sniffed MIME type, returning the detected
// file extension for use in the object key.
func ValidateImage(data []byte) (string, error) {
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return mt.Extension(), nil
		}
	}
	return "", ErrImageType
}

// ImageStore persists store header images under a local directory served at
// {baseURL}/media/ and hands back the public URL.
type ImageStore struct {
	dir     string
	baseURL string
}

func NewImageStore(dir, baseURL string) (*ImageStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, headerPrefix), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageStore{dir: dir, baseURL: baseURL}, nil
}

func (s *ImageStore) Save(data []byte) (string, error) {
	ext, err := ValidateImage(data)
	if err != nil {
		return "", err
	}

	key := utils.NewObjectKey() + ext
	path := filepath.Join(s.dir, headerPrefix, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return fmt.Sprintf("%s/media/%s/%s", s.baseURL, headerPrefix, key), nil
}
