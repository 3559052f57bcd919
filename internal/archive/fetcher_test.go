package archive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcher_fetch_returns_body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#EXTM3U\n"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	raw, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if raw != "#EXTM3U\n" {
		t.Errorf("unexpected body: %q", raw)
	}
}

func TestFetcher_non2xx_is_network_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestFetcher_transport_failure_is_network_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	f := NewFetcher(time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestIsFinalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/done.m3u8" {
			_, _ = w.Write([]byte("#EXTM3U\n#EXTINF:6.0,\na.ts\n#EXT-X-ENDLIST\n"))
			return
		}
		_, _ = w.Write([]byte("#EXTM3U\n#EXTINF:6.0,\na.ts\n"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)

	done, err := IsFinalized(context.Background(), f, srv.URL+"/done.m3u8")
	if err != nil || !done {
		t.Errorf("finalized manifest: done=%v err=%v", done, err)
	}

	live, err := IsFinalized(context.Background(), f, srv.URL+"/live.m3u8")
	if err != nil || live {
		t.Errorf("growing manifest: done=%v err=%v", live, err)
	}
}

func TestContainsEndList(t *testing.T) {
	if ContainsEndList("#EXTM3U\n") {
		t.Error("marker reported where none exists")
	}
	if !ContainsEndList("#EXTM3U\n#EXT-X-ENDLIST\n") {
		t.Error("marker not detected")
	}
}
