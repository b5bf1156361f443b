package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff"

	"go.ngs.io/seaice-api/internal/adapter/store"
)

func TestURL(t *testing.T) {
	f := NewHTTPFetcher("https://mirror.example/v206/nh/")
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{
			name: "monthly folder",
			date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			want: "https://mirror.example/v206/nh/2023/03/W_XX-ESA%2CSMOS_CS2%2CNH_25KM_EASE2_20230226_20230304_r_v206_01_l4sit.nc",
		},
		{
			name: "latest folder",
			date: time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC),
			want: "https://mirror.example/v206/nh/LATEST/W_XX-ESA%2CSMOS_CS2%2CNH_25KM_EASE2_20241107_20241113_o_v206_01_l4sit.nc",
		},
		{
			name: "republished day uses previous name",
			date: time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC),
			want: "https://mirror.example/v206/nh/LATEST/W_XX-ESA%2CSMOS_CS2%2CNH_25KM_EASE2_20250321_20250327_o_v206_01_l4sit.nc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.URL(tt.date); got != tt.want {
				t.Errorf("URL:\n got  %s\n want %s", got, tt.want)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	date := time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/LATEST/") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("netcdf-bytes"))
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "data", "product.nc")
	f := NewHTTPFetcher(srv.URL, WithClient(srv.Client()))
	if err := f.Fetch(context.Background(), date, dst); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("failed to read download: %v", err)
	}
	if string(data) != "netcdf-bytes" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "product.nc")
	f := NewHTTPFetcher(srv.URL, WithClient(srv.Client()))
	err := f.Fetch(context.Background(), time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC), dst)
	if !errors.Is(err, store.ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("expected no file to be written")
	}
}

func noWait(retries uint64) func() backoff.BackOff {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	}
}

func TestFetch_RetriesTransientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, WithClient(srv.Client()), WithBackOff(noWait(5)))
	dst := filepath.Join(t.TempDir(), "x.nc")
	if err := f.Fetch(context.Background(), time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC), dst); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, WithClient(srv.Client()), WithBackOff(noWait(5)))
	err := f.Fetch(context.Background(), time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC), filepath.Join(t.TempDir(), "x.nc"))
	if !errors.Is(err, store.ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, WithClient(srv.Client()), WithBackOff(noWait(2)))
	err := f.Fetch(context.Background(), time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC), filepath.Join(t.TempDir(), "x.nc"))
	if err == nil || errors.Is(err, store.ErrNotAvailable) {
		t.Fatalf("expected a plain error, got %v", err)
	}
}
