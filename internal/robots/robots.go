// Package robots enforces the source site's published crawl policy. The
// policy is fetched once per run, through the same polite fetcher as every
// other request.
package robots

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/hokejlab/hokejnews/internal/fetcher"
)

// Gate answers allow/deny for URLs under the configured client identity.
type Gate struct {
	group  *robotstxt.Group
	logger *slog.Logger
}

// BuildGate fetches and parses <baseURL>/robots.txt. The fetch goes through
// the polite fetcher, so it is subject to the same retry and delay
// discipline as page fetches. A robots.txt that cannot be fetched or parsed
// yields a permissive gate (standard practice: missing policy allows all).
func BuildGate(ctx context.Context, f fetcher.Fetcher, baseURL, userAgent string, logger *slog.Logger) *Gate {
	logger = logger.With("component", "robots")

	robotsURL := strings.TrimRight(baseURL, "/") + "/robots.txt"

	body, err := f.Fetch(ctx, robotsURL)
	if err != nil {
		logger.Warn("robots.txt unavailable, allowing all", "url", robotsURL, "error", err)
		return &Gate{logger: logger}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		logger.Warn("robots.txt unparsable, allowing all", "url", robotsURL, "error", err)
		return &Gate{logger: logger}
	}

	return &Gate{
		group:  data.FindGroup(userAgent),
		logger: logger,
	}
}

// NewGateFromBytes builds a gate from raw robots.txt content.
func NewGateFromBytes(body []byte, userAgent string, logger *slog.Logger) (*Gate, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, err
	}
	return &Gate{
		group:  data.FindGroup(userAgent),
		logger: logger.With("component", "robots"),
	}, nil
}

// Allows reports whether the policy permits fetching the URL.
func (g *Gate) Allows(rawURL string) bool {
	if g.group == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return g.group.Test(path)
}
