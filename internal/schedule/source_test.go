package schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramadan_data.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	if src.Name() != path {
		t.Errorf("Name() = %q, want %q", src.Name(), path)
	}

	data, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(data.Days("natore")) != 2 {
		t.Errorf("expected 2 natore days, got %d", len(data.Days("natore")))
	}
}

func TestFileSourceMissing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rafy" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	data, err := NewHTTPSource(srv.URL, "rafy", "secret").Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(data.Districts) != 2 {
		t.Errorf("expected 2 districts, got %d", len(data.Districts))
	}

	if _, err := NewHTTPSource(srv.URL, "", "").Fetch(context.Background()); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestHTTPSourceCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTPSource(srv.URL, "", "").Fetch(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
