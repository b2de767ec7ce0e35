package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUniqueName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantSfx  string
	}{
		{
			name:     "plainName",
			filename: "pizza.JPG",
			wantSfx:  "_pizza.jpg",
		},
		{
			name:     "pathTraversal",
			filename: "../../etc/passwd",
			wantSfx:  "_passwd",
		},
		{
			name:     "unsafeCharacters",
			filename: "my dish (1).png",
			wantSfx:  "_my_dish_1.png",
		},
		{
			name:     "emptyStem",
			filename: ".png",
			wantSfx:  "_file.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UniqueName(tt.filename)
			if !strings.HasSuffix(got, tt.wantSfx) {
				t.Errorf("UniqueName(%q) = %q, want suffix %q", tt.filename, got, tt.wantSfx)
			}
			if strings.ContainsAny(got, `/\`) {
				t.Errorf("UniqueName(%q) = %q contains a separator", tt.filename, got)
			}
		})
	}

	if UniqueName("a.png") == UniqueName("a.png") {
		t.Error("UniqueName() should not repeat")
	}
}

func TestLocalBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}
	ctx := context.Background()

	path, err := backend.Save(ctx, "cake.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(path, "uploads/") {
		t.Errorf("Save() path = %q, want uploads/ prefix", path)
	}

	rc, err := backend.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png-bytes" {
		t.Errorf("Open() content = %q", data)
	}

	if got := backend.LocalPath(path); filepath.Dir(got) != dir {
		t.Errorf("LocalPath() = %q, want file in %q", got, dir)
	}

	if _, err := backend.Open(ctx, "uploads/../secret"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Open() traversal error = %v, want ErrInvalidPath", err)
	}

	if err := backend.Delete(ctx, path); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(backend.LocalPath(path)); !os.IsNotExist(err) {
		t.Errorf("file still present after Delete()")
	}
	if err := backend.Delete(ctx, path); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := FromProperties(nil); err == nil {
		t.Error("FromProperties(nil) should fail")
	}

	tests := []struct {
		name    string
		backend string
		wantErr bool
		check   func(MediaStorage) bool
	}{
		{
			name:    "defaultIsLocal",
			backend: "",
			check:   func(m MediaStorage) bool { _, ok := m.(*LocalBackend); return ok },
		},
		{
			name:    "noopBackend",
			backend: "noop",
			check:   func(m MediaStorage) bool { _, ok := m.(*NoopBackend); return ok },
		},
		{
			name:    "unknownBackend",
			backend: "s3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.backend, t.TempDir())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(got) {
				t.Errorf("New(%q) = %T", tt.backend, got)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLocalBackendSaveFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}

	if _, err := backend.Save(context.Background(), "cake.png", failingReader{}); err == nil {
		t.Fatal("Save() error = nil, want write error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("uploads dir has %d entries after failed Save()", len(entries))
	}
}
