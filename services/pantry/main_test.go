package main

import (
	"context"
	"io/fs"
	"testing"

	"github.com/appetiteclub/apt/template"
)

func TestEmbeddedTemplates(t *testing.T) {
	mgr := template.NewManager(assetsFS)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, name := range []string{"products.html", "inventory.html", "not_found.html"} {
		if _, err := mgr.Get(name); err != nil {
			t.Errorf("Get(%q) error = %v", name, err)
		}
	}
}

func TestEmbeddedStatic(t *testing.T) {
	static, err := fs.Sub(assetsFS, "assets/static")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Stat(static, "css/app.css"); err != nil {
		t.Errorf("stylesheet not embedded: %v", err)
	}
}
