package types

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArticleRecord is a persisted article, keyed by its canonical origin URL.
// It is mutated only through reconciliation decisions.
type ArticleRecord struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// Category is the listing the article was scraped under
	// (e.g. "extraliga", "reprezentacia").
	Category string `bson:"category" json:"category"`

	// OriginURL is the canonical absolute URL of the detail page.
	// Unique per record, immutable once created.
	OriginURL string `bson:"origin_url" json:"origin_url"`

	Title string `bson:"title" json:"title"`

	// MetaText is the byline/date block. Empty means absent.
	MetaText string `bson:"meta_text,omitempty" json:"meta_text,omitempty"`

	// ImageURL is an absolute URL. Empty means absent.
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`

	// ContentText is the normalized article body. Never empty for a
	// persisted record.
	ContentText string `bson:"content_text" json:"content_text"`

	// ScrapedAt advances only when a field of the record actually changes.
	ScrapedAt time.Time `bson:"scraped_at" json:"scraped_at"`
}

// ScrapedItem is the transient result of extracting one detail page.
type ScrapedItem struct {
	OriginURL   string
	Category    string
	Title       string
	MetaText    string
	ImageURL    string
	ContentText string
}

// ListingCandidate is one article link found on a listing page. ImageHint
// carries the listing tile's thumbnail, used only when the detail page
// yields no image of its own.
type ListingCandidate struct {
	OriginURL string
	ImageHint string
}

// RunSummary aggregates counters for a single pipeline run.
type RunSummary struct {
	Scanned   int `json:"scanned"`
	Inserted  int `json:"inserted_new"`
	Updated   int `json:"updated_existing"`
	Unchanged int `json:"skipped_existing"`
	Errors    int `json:"errors"`
}

// IsMissing reports whether an optional string field is absent.
// Whitespace-only values count as absent.
func IsMissing(s string) bool {
	return strings.TrimSpace(s) == ""
}
