package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mree-music/mree/internal/api"
	"github.com/mree-music/mree/internal/shared"
)

func newTestCatalog(serverURL string) *Client {
	apiClient := api.NewClient(api.NewResolver(serverURL, nil), nil, nil, nil)
	return NewClient(apiClient, nil, nil)
}

func TestSearch(t *testing.T) {
	t.Run("Queries Both Catalogs", func(t *testing.T) {
		var paths []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			switch r.URL.Path {
			case "/api/search/local":
				json.NewEncoder(w).Encode([]map[string]any{
					{"id": 1, "title": "One More Time", "artist": "Daft Punk", "duration": 320,
						"spotify_id": "0DiWol3AO6WpXZgp0goxAV", "file_path": "/music/omt.mp3",
						"download_status": "completed"},
				})
			case "/api/search/spotify":
				json.NewEncoder(w).Encode(map[string]any{
					"results": []map[string]any{
						{"spotify_id": "5W3cjX2J3tjhG8zb6u0qHn", "title": "Around the World",
							"artist": "Daft Punk", "duration": 428},
					},
					"total": 412,
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		cat := newTestCatalog(server.URL)
		results, err := cat.Search(context.Background(), "daft punk", 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(paths) != 2 {
			t.Fatalf("expected 2 requests, got %v", paths)
		}
		if len(results.Library) != 1 || len(results.External) != 1 {
			t.Fatalf("expected labeled results, got %+v", results)
		}
		if results.Total != 412 {
			t.Errorf("expected provider total, got %d", results.Total)
		}
		if !results.Library[0].CanPlay() {
			t.Error("library result should be playable")
		}
		if results.External[0].Track().CanPlay() {
			t.Error("external result must not be playable")
		}
	})

	t.Run("Rejects Invalid Query Before Any Request", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		defer server.Close()

		cat := newTestCatalog(server.URL)
		for _, query := range []string{"", "   ", strings.Repeat("x", 201)} {
			if _, err := cat.Search(context.Background(), query, 10); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for %q, got %v", query, err)
			}
		}
		if calls != 0 {
			t.Errorf("expected zero requests, got %d", calls)
		}
	})

	t.Run("Trims Query", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Query string `json:"query"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotQuery = body.Query
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		cat := newTestCatalog(server.URL)
		if _, err := cat.SearchLocal(context.Background(), "  daft punk  ", 10); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotQuery != "daft punk" {
			t.Errorf("expected trimmed query, got %q", gotQuery)
		}
	})

	t.Run("Clamps Limit", func(t *testing.T) {
		var gotLimits []int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Limit int `json:"limit"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			gotLimits = append(gotLimits, body.Limit)
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		cat := newTestCatalog(server.URL)
		cat.SearchLocal(context.Background(), "q", 0)
		cat.SearchLocal(context.Background(), "q", -3)
		cat.SearchLocal(context.Background(), "q", 500)
		cat.SearchLocal(context.Background(), "q", 25)

		want := []int{DefaultLimit, DefaultLimit, MaxLimit, 25}
		for i, limit := range want {
			if gotLimits[i] != limit {
				t.Errorf("call %d: expected limit %d, got %d", i, limit, gotLimits[i])
			}
		}
	})
}

func TestLibrary(t *testing.T) {
	t.Run("Lists Server Library", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/search/library" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": 1, "title": "Song", "artist": "Artist", "duration": 100,
					"spotify_id": "0DiWol3AO6WpXZgp0goxAV", "download_status": "completed"},
			})
		}))
		defer server.Close()

		cat := newTestCatalog(server.URL)
		tracks, err := cat.Library(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
	})

	t.Run("No Cache Configured", func(t *testing.T) {
		cat := newTestCatalog("http://example.com")
		if _, err := cat.CachedLibrary(); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestByArtist(t *testing.T) {
	t.Run("Escapes Artist Name", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		cat := newTestCatalog(server.URL)
		if _, err := cat.ByArtist(context.Background(), "AC/DC", 10); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(gotPath, "AC%2FDC") {
			t.Errorf("expected escaped artist in path, got %s", gotPath)
		}
	})

	t.Run("Rejects Blank Artist", func(t *testing.T) {
		cat := newTestCatalog("http://example.com")
		if _, err := cat.ByArtist(context.Background(), "  ", 10); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPopular(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cat := newTestCatalog(server.URL)
	if _, err := cat.Popular(context.Background(), 5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotQuery != "limit=5" {
		t.Errorf("expected limit query param, got %q", gotQuery)
	}
}
