package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/appetiteclub/apt"
)

// DefaultUploadsDir is used when storage.local.directory is not set.
var DefaultUploadsDir = filepath.Join("static", "uploads")

// MediaStorage persists uploaded dish media.
type MediaStorage interface {
	// Save stores the content under a unique name derived from filename and
	// returns the path relative to the static root (e.g. "uploads/x.jpg").
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
	// Open resolves a stored relative path for reading.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// FromProperties builds the storage backend from apt.Config.
func FromProperties(config *apt.Config) (MediaStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("storage: properties required")
	}

	backend, _ := config.GetString("storage.backend")
	directory := config.GetStringOrDef("storage.local.directory", "")
	if directory == "" {
		staticDir := config.GetStringOrDef("static.dir", "static")
		directory = filepath.Join(staticDir, "uploads")
	}
	return New(backend, directory)
}

// New builds a backend by name. An empty name selects the local backend.
func New(backend, directory string) (MediaStorage, error) {
	switch backend {
	case "", "local":
		local, err := NewLocalBackend(directory)
		if err != nil {
			return nil, fmt.Errorf("storage: local backend: %w", err)
		}
		return local, nil
	case "noop":
		return NewNoopBackend(), nil
	default:
		return nil, fmt.Errorf("storage: unsupported backend %q", backend)
	}
}
