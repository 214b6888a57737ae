// Package reconcile decides how a freshly scraped item merges into the
// stored record for its origin URL. The policy is fill-or-improve: a field
// is only ever filled when empty or replaced by a strictly better value,
// never regressed.
package reconcile

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hokejlab/hokejnews/internal/types"
)

// Action is the outcome kind of a reconciliation.
type Action int

const (
	// ActionNoOp means the stored record already holds everything the
	// item offers; scraped_at is left untouched.
	ActionNoOp Action = iota

	// ActionInsert means no record exists for the origin URL yet.
	ActionInsert

	// ActionUpdate means one or more fields improve the stored record.
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	default:
		return "noop"
	}
}

// Decision is the result of reconciling one item against stored state.
type Decision struct {
	Action Action

	// Record is the full record to persist for ActionInsert.
	Record types.ArticleRecord

	// Fields holds the changed field values for ActionUpdate, keyed by
	// the stored field name. The store adds scraped_at itself.
	Fields map[string]any
}

// Engine applies the fill-or-improve merge policy.
type Engine struct {
	// contentImproveMargin is how many characters longer new body text
	// must be before it replaces existing text. Guards against
	// overwriting a good body with a shorter, noisier re-scrape.
	contentImproveMargin int
}

// NewEngine builds a reconciliation engine with the given content
// improvement margin.
func NewEngine(contentImproveMargin int) *Engine {
	return &Engine{contentImproveMargin: contentImproveMargin}
}

// Reconcile compares item against the existing record (nil when absent)
// and returns the persistence decision. now is stamped onto inserts and
// updates only.
func (e *Engine) Reconcile(existing *types.ArticleRecord, item types.ScrapedItem, now time.Time) Decision {
	if existing == nil {
		return Decision{
			Action: ActionInsert,
			Record: types.ArticleRecord{
				Category:    item.Category,
				OriginURL:   item.OriginURL,
				Title:       item.Title,
				MetaText:    item.MetaText,
				ImageURL:    item.ImageURL,
				ContentText: item.ContentText,
				ScrapedAt:   now,
			},
		}
	}

	fields := make(map[string]any)

	// category, title, meta_text: fill only, never overwrite.
	if types.IsMissing(existing.Category) && !types.IsMissing(item.Category) {
		fields["category"] = item.Category
	}
	if types.IsMissing(existing.Title) && !types.IsMissing(item.Title) {
		fields["title"] = item.Title
	}
	if types.IsMissing(existing.MetaText) && !types.IsMissing(item.MetaText) {
		fields["meta_text"] = item.MetaText
	}

	if shouldReplaceImage(existing.ImageURL, item.ImageURL) {
		fields["image_url"] = item.ImageURL
	}

	if e.shouldReplaceText(existing.ContentText, item.ContentText) {
		fields["content_text"] = item.ContentText
	}

	if len(fields) == 0 {
		return Decision{Action: ActionNoOp}
	}
	return Decision{Action: ActionUpdate, Fields: fields}
}

// shouldReplaceImage implements the image preference: fill when empty, and
// otherwise only ever trade up to a differing high-quality URL. An existing
// high-quality image is never discarded for a non-qualifying one.
func shouldReplaceImage(existing, candidate string) bool {
	if types.IsMissing(candidate) {
		return false
	}
	if types.IsMissing(existing) {
		return true
	}
	return candidate != existing && IsHighQualityImage(candidate)
}

// IsHighQualityImage reports whether an image URL comes from the site's
// upload/gallery asset paths, which serve full-size article photos rather
// than layout graphics.
func IsHighQualityImage(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	return strings.Contains(lower, "/upload/") || strings.Contains(lower, "/gallery/")
}

// shouldReplaceText replaces body text when the stored one is missing or
// the new one is longer by more than the margin.
func (e *Engine) shouldReplaceText(existing, candidate string) bool {
	if types.IsMissing(candidate) {
		return false
	}
	if types.IsMissing(existing) {
		return true
	}
	return utf8.RuneCountInString(candidate) > utf8.RuneCountInString(existing)+e.contentImproveMargin
}
