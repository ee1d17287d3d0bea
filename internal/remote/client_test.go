package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
)

func newHost(url string) domain.Host {
	return domain.Host{ID: "h1", Name: "nvr", URL: url, Enabled: true}
}

func TestFetchStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultStatusPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`"0.13.2"`))
	}))
	defer ts.Close()

	ok, err := New(Options{}).FetchStatus(context.Background(), newHost(ts.URL))
	if err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}
	if !ok {
		t.Error("FetchStatus() = false, want true")
	}
}

func TestFetchStatusNonSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	ok, err := New(Options{}).FetchStatus(context.Background(), newHost(ts.URL))
	if !errors.Is(err, ErrFetch) {
		t.Errorf("FetchStatus() error = %v, want ErrFetch", err)
	}
	if ok {
		t.Error("FetchStatus() = true on 502")
	}
}

func TestFetchStatusTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := New(Options{StatusTimeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := c.FetchStatus(context.Background(), newHost(ts.URL))
	if !errors.Is(err, ErrFetch) {
		t.Errorf("FetchStatus() error = %v, want ErrFetch", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("FetchStatus() took %v, timeout not applied", elapsed)
	}
}

func TestDisabledHostIsNeverContacted(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	host := newHost(ts.URL)
	host.Enabled = false
	c := New(Options{})

	if _, err := c.FetchStatus(context.Background(), host); !errors.Is(err, ErrHostDisabled) {
		t.Errorf("FetchStatus() error = %v, want ErrHostDisabled", err)
	}
	if _, err := c.FetchConfig(context.Background(), host); !errors.Is(err, ErrHostDisabled) {
		t.Errorf("FetchConfig() error = %v, want ErrHostDisabled", err)
	}
	if _, err := c.FetchStats(context.Background(), host); !errors.Is(err, ErrHostDisabled) {
		t.Errorf("FetchStats() error = %v, want ErrHostDisabled", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("disabled host received %d requests", n)
	}
}

func TestFetchConfigAndStats(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case DefaultConfigPath:
			_, _ = w.Write([]byte(`{"cameras":{"garage":{"enabled":true}}}`))
		case DefaultStatsPath:
			_, _ = w.Write([]byte(`{"garage":{"camera_fps":5}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := New(Options{})
	host := newHost(ts.URL + "/")

	cfg, err := c.FetchConfig(context.Background(), host)
	if err != nil {
		t.Fatalf("FetchConfig() error = %v", err)
	}
	if _, ok := cfg.Cameras()["garage"]; !ok {
		t.Error("FetchConfig() missing garage")
	}

	stats, err := c.FetchStats(context.Background(), host)
	if err != nil {
		t.Fatalf("FetchStats() error = %v", err)
	}
	if !stats.Activity()["garage"] {
		t.Error("FetchStats() garage should be active")
	}
}

func TestFetchConfigMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cameras":`))
	}))
	defer ts.Close()

	if _, err := New(Options{}).FetchConfig(context.Background(), newHost(ts.URL)); !errors.Is(err, ErrFetch) {
		t.Errorf("FetchConfig() error = %v, want ErrFetch", err)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://nvr:5000", "/api/config", "http://nvr:5000/api/config"},
		{"http://nvr:5000/", "/api/config", "http://nvr:5000/api/config"},
		{"http://nvr:5000/frigate", "api/stats", "http://nvr:5000/frigate/api/stats"},
	}
	for _, tt := range tests {
		if got := Endpoint(tt.base, tt.path); got != tt.want {
			t.Errorf("Endpoint(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
