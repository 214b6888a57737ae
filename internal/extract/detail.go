package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/hokejlab/hokejnews/internal/types"
)

// lazyImageAttrs is the fixed priority order of attributes a lazy-loaded
// image may carry its real URL in.
var lazyImageAttrs = []string{"src", "data-src", "data-original", "data-lazy-src"}

// containerStrategies is the ordered fallback chain for locating the
// article body container: the exact layout class combination first, then
// progressively looser matches.
var containerStrategies = []struct {
	name string
	kind string // css or xpath
	expr string
}{
	{"content column", "css", ".col-md-8.col-lg-9.col-content"},
	{"loose content class", "css", `[class*="col-content"]`},
	{"semantic container", "xpath", "//article | //main"},
}

// DetailExtractor parses one article detail page into a ScrapedItem. Pages
// whose extracted body is shorter than minContentLength are judged not to
// be real articles.
type DetailExtractor struct {
	minContentLength int
	logger           *slog.Logger
}

// NewDetailExtractor builds a detail extractor with the given minimum body
// length gate.
func NewDetailExtractor(minContentLength int, logger *slog.Logger) *DetailExtractor {
	return &DetailExtractor{
		minContentLength: minContentLength,
		logger:           logger.With("component", "detail_extractor"),
	}
}

// Extract pulls title, optional meta text, optional image, and the
// assembled body text out of a detail page. The returned error (if any) is
// a *types.ExtractError whose kind decides whether the caller skips the
// item.
func (e *DetailExtractor) Extract(detailHTML []byte, pageURL string) (types.ScrapedItem, error) {
	var item types.ScrapedItem

	root, err := html.Parse(bytes.NewReader(detailHTML))
	if err != nil {
		return item, fmt.Errorf("parse detail html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	title := nodeText(doc.Find("h1").First().Text())
	if title == "" {
		return item, &types.ExtractError{URL: pageURL, Kind: types.ErrMissingTitle}
	}

	// Byline/date block. Absence is tolerated.
	meta := doc.Find(".article-meta.clearfix").First()
	if meta.Length() == 0 {
		meta = doc.Find(".article-meta").First()
	}

	container := findContainer(doc, root)
	if container == nil {
		return item, &types.ExtractError{URL: pageURL, Kind: types.ErrMissingContentContainer}
	}

	content := bodyText(container)
	if utf8.RuneCountInString(content) < e.minContentLength {
		e.logger.Debug("page rejected as non-article",
			"url", pageURL,
			"content_length", utf8.RuneCountInString(content),
		)
		return item, &types.ExtractError{URL: pageURL, Kind: types.ErrContentTooShort}
	}

	item = types.ScrapedItem{
		OriginURL:   pageURL,
		Title:       title,
		MetaText:    nodeText(meta.Text()),
		ImageURL:    extractImage(doc, container, pageURL),
		ContentText: content,
	}
	return item, nil
}

// findContainer runs the container strategy chain and returns the first
// match, or nil when no strategy matches.
func findContainer(doc *goquery.Document, root *html.Node) *goquery.Selection {
	for _, strat := range containerStrategies {
		switch strat.kind {
		case "xpath":
			node, err := htmlquery.Query(root, strat.expr)
			if err == nil && node != nil {
				return goquery.NewDocumentFromNode(node).Selection
			}
		default:
			if sel := doc.Find(strat.expr); sel.Length() > 0 {
				return sel.First()
			}
		}
	}
	return nil
}

// extractImage runs the image strategy chain: gallery hero image, any
// gallery image, then any image inside the content container. First hit
// wins; no hit leaves the field empty.
func extractImage(doc *goquery.Document, container *goquery.Selection, pageURL string) string {
	scopes := []*goquery.Selection{
		doc.Find(".document-gallery.margin-bottom-30 img"),
		doc.Find(".document-gallery img"),
		container.Find("img"),
	}

	for _, imgs := range scopes {
		found := ""
		imgs.EachWithBreak(func(_ int, img *goquery.Selection) bool {
			if src := imageSource(img, pageURL); src != "" {
				found = src
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// imageSource reads the first populated lazy-load attribute and resolves
// it to an absolute URL.
func imageSource(img *goquery.Selection, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	for _, attr := range lazyImageAttrs {
		val, ok := img.Attr(attr)
		val = strings.TrimSpace(val)
		if !ok || val == "" || strings.HasPrefix(val, "data:") {
			continue
		}
		ref, err := url.Parse(val)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		return abs.String()
	}
	return ""
}

// bodyText assembles the visible text of paragraph, sub-heading, and
// list-item nodes in document order. When the container holds none of
// those, all of its visible text is used instead.
func bodyText(container *goquery.Selection) string {
	var parts []string
	container.Find("p, h2, h3, li").Each(func(_ int, node *goquery.Selection) {
		if t := nodeText(node.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	if len(parts) > 0 {
		return CleanText(strings.Join(parts, "\n"))
	}
	return CleanText(blockText(container))
}

// blockText walks the container's nodes collecting text, inserting line
// breaks at block element boundaries so unmarked prose keeps its shape.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		writeBlockText(&b, node)
	}
	return b.String()
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tr": true, "blockquote": true, "section": true, "article": true,
}

func writeBlockText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
			return
		}
		if blockTags[n.Data] {
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeBlockText(b, c)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}
