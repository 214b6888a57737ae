package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"github.com/hokejlab/hokejnews/internal/config"
	"github.com/hokejlab/hokejnews/internal/types"
)

// Backoff bounds between retry attempts.
const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 8 * time.Second
)

// PoliteFetcher issues GET requests with a fixed browser-like identity,
// retries transient failures with exponential backoff, and enforces a
// minimum delay between consecutive outbound requests. The delay is a
// correctness requirement for the pipeline: hammering the source risks the
// scraper getting blocked.
type PoliteFetcher struct {
	client      *http.Client
	cfg         *config.ScrapeConfig
	limiter     *rate.Limiter
	logger      *slog.Logger
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// NewPoliteFetcher builds a fetcher from scrape configuration. No ambient
// globals: the client and all its knobs live on the returned value.
func NewPoliteFetcher(cfg *config.ScrapeConfig, logger *slog.Logger) (*PoliteFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.Timeout(),
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay := cfg.Delay(); delay > 0 {
		// Burst 1 with rate 1/delay spaces every outbound request by at
		// least the politeness delay.
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &PoliteFetcher{
		client:      client,
		cfg:         cfg,
		limiter:     limiter,
		logger:      logger.With("component", "fetcher"),
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}, nil
}

// Fetch GETs the URL, retrying on network failures and HTTP status >= 400
// up to the configured attempt count. A terminal failure is returned as
// *types.FetchError.
func (f *PoliteFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	attempts := f.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := f.baseBackoff
	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &types.FetchError{URL: url, StatusCode: lastStatus, Attempts: attempt - 1, Err: ctx.Err()}
			}
			backoff *= 2
			if backoff > f.maxBackoff {
				backoff = f.maxBackoff
			}
		}

		// Every attempt is a request to the site, so every attempt pays
		// the politeness delay.
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &types.FetchError{URL: url, Attempts: attempt - 1, Err: err}
		}

		body, status, err := f.doGet(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = err
		lastStatus = status

		// The client's own timeout also surfaces as DeadlineExceeded, so
		// only the caller's context decides whether retrying is pointless.
		if ctx.Err() != nil {
			break
		}

		f.logger.Debug("fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"status", status,
			"error", err,
		)
	}

	return nil, &types.FetchError{URL: url, StatusCode: lastStatus, Attempts: attempts, Err: lastErr}
}

// doGet performs a single GET attempt.
func (f *PoliteFetcher) doGet(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "sk-SK,sk;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(snippet))
	}

	var reader io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}

	reader, err = decompressReader(resp, reader)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	f.logger.Debug("fetch complete",
		"url", url,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)

	return body, resp.StatusCode, nil
}

// Close releases idle connections.
func (f *PoliteFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
