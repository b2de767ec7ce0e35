package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidPath is returned for paths that escape the uploads directory.
var ErrInvalidPath = errors.New("storage: invalid path")

const uploadsPrefix = "uploads"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalBackend writes uploads to a directory on disk.
type LocalBackend struct {
	dir string
}

func NewLocalBackend(dir string) (*LocalBackend, error) {
	if dir == "" {
		dir = DefaultUploadsDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create uploads directory: %w", err)
	}
	return &LocalBackend{dir: dir}, nil
}

func (b *LocalBackend) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	name := UniqueName(filename)

	f, err := os.Create(filepath.Join(b.dir, name))
	if err != nil {
		return "", fmt.Errorf("cannot create upload: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("cannot write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("cannot close upload: %w", err)
	}
	return uploadsPrefix + "/" + name, nil
}

func (b *LocalBackend) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("cannot open upload: %w", err)
	}
	return f, nil
}

func (b *LocalBackend) Delete(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot delete upload: %w", err)
	}
	return nil
}

// LocalPath maps a stored relative path to a file on disk, or "" when the
// path is not one this backend produced.
func (b *LocalBackend) LocalPath(path string) string {
	full, err := b.resolve(path)
	if err != nil {
		return ""
	}
	return full
}

func (b *LocalBackend) resolve(path string) (string, error) {
	name := strings.TrimPrefix(path, uploadsPrefix+"/")
	if name == "" || name != filepath.Base(name) || name == ".." {
		return "", ErrInvalidPath
	}
	return filepath.Join(b.dir, name), nil
}

// UniqueName returns a sanitized file name prefixed with a random id so
// repeated uploads of the same file never collide.
func UniqueName(filename string) string {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "._")
	ext = unsafeChars.ReplaceAllString(ext, "")
	if stem == "" {
		stem = "file"
	}
	return fmt.Sprintf("%s_%s%s", uuid.NewString()[:8], stem, ext)
}
