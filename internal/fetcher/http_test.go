package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hokejlab/hokejnews/internal/config"
	"github.com/hokejlab/hokejnews/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testFetcher(t *testing.T, delaySeconds float64) *PoliteFetcher {
	t.Helper()
	cfg := config.DefaultConfig().Scrape
	cfg.DelaySeconds = delaySeconds
	cfg.TimeoutSeconds = 5

	f, err := NewPoliteFetcher(&cfg, testLogger)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	// Tests must not sit through real backoff.
	f.baseBackoff = time.Millisecond
	f.maxBackoff = 8 * time.Millisecond
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFetchSucceedsOnThirdAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("article body"))
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if string(body) != "article body" {
		t.Errorf("unexpected body %q", body)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *types.FetchError, got %T", err)
	}
	if fe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 on error, got %d", fe.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", got)
	}
}

func TestFetchRetriesClientErrors(t *testing.T) {
	// The source occasionally serves 404 for pages that exist moments
	// later, so 4xx is retried like 5xx.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestFetchSendsIdentityHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := testFetcher(t, 0)
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotUA != f.cfg.UserAgent {
		t.Errorf("expected configured user agent, got %q", gotUA)
	}
	if gotLang == "" {
		t.Error("expected Accept-Language to be set")
	}
}

func TestFetchEnforcesPolitenessDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := testFetcher(t, 0.1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	// Three requests with a 100ms minimum spacing need at least 200ms.
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("expected politeness delay to space requests, elapsed %v", elapsed)
	}
}

func TestFetchContextCancelStopsRetrying(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := testFetcher(t, 0)
	f.baseBackoff = 50 * time.Millisecond

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := f.Fetch(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got > 1 {
		t.Errorf("expected no retry after cancellation, got %d attempts", got)
	}
}
