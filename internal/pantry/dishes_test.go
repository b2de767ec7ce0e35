package pantry

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/appetiteclub/pantry/internal/storage"
	"github.com/appetiteclub/pantry/pkg/enums/role"
)

// dishUpload builds a multipart dish form carrying one image.
func dishUpload(t *testing.T, target string, cookie *http.Cookie) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", "Pancakes"); err != nil {
		t.Fatalf("cannot write field: %v", err)
	}
	fw, err := mw.CreateFormFile("image", "pancakes.png")
	if err != nil {
		t.Fatalf("cannot create file part: %v", err)
	}
	if _, err := fw.Write([]byte("png")); err != nil {
		t.Fatalf("cannot write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("cannot close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	return req
}

func uploadedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cannot read uploads: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCreateDishUploads(t *testing.T) {
	cook := testUser(7, role.Roles.CookLB)

	tests := []struct {
		name       string
		createErr  error
		wantStatus int
		wantFiles  int
	}{
		{name: "saved", wantStatus: http.StatusSeeOther, wantFiles: 1},
		{name: "invalid", createErr: ErrInvalid, wantStatus: http.StatusUnprocessableEntity},
		{name: "failure", createErr: errors.New("database is locked"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := withUsers(newMockRepos(), cook)
			var created *Dish
			repos.DishRepo.(*MockDishRepo).CreateFunc = func(ctx context.Context, d *Dish) error {
				created = d
				return tt.createErr
			}
			h, _ := newTestHandler(t, repos)
			dir := t.TempDir()
			backend, err := storage.NewLocalBackend(dir)
			if err != nil {
				t.Fatalf("cannot create backend: %v", err)
			}
			h.media = backend

			rec := serve(h, dishUpload(t, "/dishes/add", signIn(t, h, cook)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if created == nil || created.ImagePath == "" {
				t.Fatal("dish was not saved with the uploaded image")
			}
			files := uploadedFiles(t, dir)
			if len(files) != tt.wantFiles {
				t.Errorf("uploads = %v, want %d files", files, tt.wantFiles)
			}
		})
	}
}

func TestUpdateDishKeepsOldMediaWhenSaveFails(t *testing.T) {
	cook := testUser(7, role.Roles.CookLB)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.png"), []byte("old"), 0o644); err != nil {
		t.Fatalf("cannot seed upload: %v", err)
	}
	backend, err := storage.NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("cannot create backend: %v", err)
	}

	repos := withUsers(newMockRepos(), cook)
	dishes := repos.DishRepo.(*MockDishRepo)
	dishes.GetFunc = func(ctx context.Context, id uint) (*Dish, error) {
		return &Dish{ID: id, Name: "Pancakes", ImagePath: "uploads/old.png"}, nil
	}
	dishes.SaveFunc = func(ctx context.Context, d *Dish) error {
		return errors.New("database is locked")
	}
	h, _ := newTestHandler(t, repos)
	h.media = backend

	rec := serve(h, dishUpload(t, "/dishes/5/edit", signIn(t, h, cook)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	files := uploadedFiles(t, dir)
	if len(files) != 1 || files[0] != "old.png" {
		t.Errorf("uploads = %v, want only old.png", files)
	}
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		forwarded string
		tls       bool
		want      string
	}{
		{name: "plain", want: "http://pantry.local"},
		{name: "tls", tls: true, want: "https://pantry.local"},
		{name: "forwardedHTTPS", forwarded: "https", want: "https://pantry.local"},
		{name: "forwardedUpperCase", forwarded: "HTTPS", want: "https://pantry.local"},
		{name: "forwardedHTTPOverTLS", forwarded: "http", tls: true, want: "http://pantry.local"},
		{name: "forwardedScript", forwarded: "javascript", want: "http://pantry.local"},
		{name: "forwardedURL", forwarded: "https://evil.example", tls: true, want: "https://pantry.local"},
		{name: "configured", baseURL: "https://pantry.example/", forwarded: "javascript", want: "https://pantry.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, newMockRepos())
			h.baseURL = tt.baseURL

			req := httptest.NewRequest(http.MethodGet, "http://pantry.local/dishes/5/download", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if got := h.publicBaseURL(req); got != tt.want {
				t.Errorf("publicBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
