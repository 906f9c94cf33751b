package utils

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
)

// NewPublicID returns an opaque short identifier safe to embed in URLs and
// payment metadata. Used for store and pass identifiers.
func NewPublicID() string {
	return shortuuid.New()
}

// NewObjectKey returns a key for stored blobs such as header images.
func NewObjectKey() string {
	return uuid.NewString()
}
