package storage

import (
	"context"
	"fmt"
	"io"
)

// NoopBackend accepts uploads and discards them. Useful for tests and
// deployments that do not keep dish media.
type NoopBackend struct{}

func NewNoopBackend() *NoopBackend {
	return &NoopBackend{}
}

func (NoopBackend) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", fmt.Errorf("cannot read upload: %w", err)
	}
	return "", nil
}

func (NoopBackend) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("noop storage: %w", ErrInvalidPath)
}

func (NoopBackend) Delete(ctx context.Context, path string) error {
	return nil
}
