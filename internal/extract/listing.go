// Package extract turns the source site's HTML into structured values.
// Listing pages yield ordered candidate article URLs; detail pages yield
// scraped items. Every lookup runs an ordered chain of strategies, strictest
// first, and the first strategy that matches wins.
package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hokejlab/hokejnews/internal/types"
)

// articlePathPrefix is the URL shape shared by all article detail pages.
const articlePathPrefix = "/sk/article/"

// minSlugLength rejects bare or truncated slugs that are never real
// articles.
const minSlugLength = 8

// nonArticleSlugs are known static/informational pages that share the
// article URL shape.
var nonArticleSlugs = map[string]bool{
	"kontakt":                 true,
	"o-nas":                   true,
	"gdpr":                    true,
	"cookies":                 true,
	"reklama":                 true,
	"ochrana-osobnych-udajov": true,
	"vseobecne-podmienky":     true,
}

// listingStrategies is the ordered selector chain for candidate anchors.
// The tile pass avoids navigation and footer noise; the loose pass catches
// layouts where tiles are missing.
var listingStrategies = []struct {
	name     string
	selector string
}{
	{"article tiles", `.article-box a[href^="` + articlePathPrefix + `"]`},
	{"any article anchors", `a[href^="` + articlePathPrefix + `"]`},
}

// backgroundImageRe pulls the URL out of an inline background-image
// declaration used for lazy-loaded tile thumbnails.
var backgroundImageRe = regexp.MustCompile(`background-image\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// ListingExtractor parses a category listing page into an ordered,
// deduplicated, capped sequence of article candidates.
type ListingExtractor struct {
	base      *url.URL
	maxPerRun int
	logger    *slog.Logger
}

// NewListingExtractor builds a listing extractor resolving relative links
// against baseURL and returning at most maxPerRun candidates.
func NewListingExtractor(baseURL string, maxPerRun int, logger *slog.Logger) (*ListingExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &ListingExtractor{
		base:      base,
		maxPerRun: maxPerRun,
		logger:    logger.With("component", "listing_extractor"),
	}, nil
}

// Extract returns candidate article URLs in document order (the source
// lists newest first), without duplicates, capped at the per-run maximum.
func (e *ListingExtractor) Extract(listingHTML []byte) ([]types.ListingCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(listingHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	// Commit to the first strategy whose selector matches anything, even
	// when the filter then rejects every anchor: falling through to the
	// loose pass would resurrect the nav and footer noise the tile pass
	// was scoped to exclude.
	for _, strat := range listingStrategies {
		sel := doc.Find(strat.selector)
		if sel.Length() == 0 {
			continue
		}

		candidates := e.collect(sel)
		e.logger.Debug("listing strategy matched",
			"strategy", strat.name,
			"anchors", sel.Length(),
			"candidates", len(candidates),
		)
		return candidates, nil
	}

	e.logger.Debug("no article anchors found on listing page")
	return nil, nil
}

// collect resolves, filters, dedups, and caps anchors from one strategy.
func (e *ListingExtractor) collect(sel *goquery.Selection) []types.ListingCandidate {
	seen := make(map[string]bool)
	var out []types.ListingCandidate

	sel.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return true
		}

		abs, ok := e.resolve(href)
		if !ok || !e.IsLikelyArticleURL(abs) {
			return true
		}
		if seen[abs] {
			return true
		}
		seen[abs] = true

		out = append(out, types.ListingCandidate{
			OriginURL: abs,
			ImageHint: e.thumbnailHint(a),
		})
		return len(out) < e.maxPerRun
	})

	return out
}

// resolve turns href into an absolute URL on the configured host.
func (e *ListingExtractor) resolve(href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := e.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

// IsLikelyArticleURL reports whether a URL has the article detail shape:
// correct path prefix, a slug of plausible length, and not a known
// static page.
func (e *ListingExtractor) IsLikelyArticleURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Host != "" && u.Host != e.base.Host {
		return false
	}
	if !strings.HasPrefix(u.Path, articlePathPrefix) {
		return false
	}

	slug := strings.Trim(strings.TrimPrefix(u.Path, articlePathPrefix), "/")
	if len(slug) < minSlugLength {
		return false
	}
	return !nonArticleSlugs[strings.ToLower(slug)]
}

// thumbnailHint extracts a lazy-loaded tile thumbnail from an inline
// background-image declaration on the anchor, its descendants, or the
// enclosing tile.
func (e *ListingExtractor) thumbnailHint(a *goquery.Selection) string {
	scopes := []*goquery.Selection{
		a,
		a.Find(`[style*="background-image"]`),
		a.Closest(".article-box").Find(`[style*="background-image"]`),
	}

	for _, scope := range scopes {
		hint := ""
		scope.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			style, ok := s.Attr("style")
			if !ok {
				return true
			}
			m := backgroundImageRe.FindStringSubmatch(style)
			if m == nil {
				return true
			}
			if abs, ok := e.resolve(m[1]); ok {
				hint = abs
				return false
			}
			return true
		})
		if hint != "" {
			return hint
		}
	}

	return ""
}
