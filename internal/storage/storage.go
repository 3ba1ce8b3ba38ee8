// Package storage holds uploaded media (section and element images) in
// an object store, behind a backend-agnostic interface.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
	URL(key string) string
}

// Media wraps an ObjectStorage backend with a stable API.
type Media struct {
	backend ObjectStorage
}

// NewMedia constructs a Media store for the provided backend.
func NewMedia(backend ObjectStorage) *Media {
	return &Media{backend: backend}
}

// Key builds the object key for an uploaded image: media/<kind>/<uuid><ext>,
// where kind names the owning aggregate (sections, elements) and ext is
// taken from the uploaded filename.
func Key(kind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("media/%s/%s%s", kind, uuid.NewString(), ext)
}

// EnsureBucket ensures the configured bucket exists.
func (m *Media) EnsureBucket(ctx context.Context) error {
	return m.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (m *Media) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for an object in the configured bucket.
func (m *Media) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return m.backend.Get(ctx, key)
}

// Delete removes an object from the configured bucket.
func (m *Media) Delete(ctx context.Context, key string) error {
	return m.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (m *Media) Bucket() string {
	return m.backend.Bucket()
}

// URL returns the public address of a stored object. Editors embed it
// directly when rendering uploaded images.
func (m *Media) URL(key string) string {
	return m.backend.URL(key)
}
