package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/hokejlab/hokejnews/internal/types"
)

var now = time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)

func fullItem() types.ScrapedItem {
	return types.ScrapedItem{
		OriginURL:   "https://www.hockeyslovakia.sk/sk/article/100-prvy-zapas",
		Category:    "extraliga",
		Title:       "Prvý zápas",
		MetaText:    "12. 3. 2026",
		ImageURL:    "https://www.hockeyslovakia.sk/upload/gallery/a.jpg",
		ContentText: strings.Repeat("text ", 100),
	}
}

func existingFor(item types.ScrapedItem) *types.ArticleRecord {
	return &types.ArticleRecord{
		Category:    item.Category,
		OriginURL:   item.OriginURL,
		Title:       item.Title,
		MetaText:    item.MetaText,
		ImageURL:    item.ImageURL,
		ContentText: item.ContentText,
		ScrapedAt:   now.Add(-24 * time.Hour),
	}
}

func TestReconcileInsertWhenAbsent(t *testing.T) {
	e := NewEngine(80)
	item := fullItem()

	d := e.Reconcile(nil, item, now)
	if d.Action != ActionInsert {
		t.Fatalf("expected insert, got %v", d.Action)
	}
	if d.Record.OriginURL != item.OriginURL || d.Record.Title != item.Title {
		t.Errorf("insert record does not carry item fields: %+v", d.Record)
	}
	if !d.Record.ScrapedAt.Equal(now) {
		t.Errorf("insert must be stamped with now, got %v", d.Record.ScrapedAt)
	}
}

func TestReconcileIdenticalIsNoOp(t *testing.T) {
	e := NewEngine(80)
	item := fullItem()

	d := e.Reconcile(existingFor(item), item, now)
	if d.Action != ActionNoOp {
		t.Fatalf("expected noop for identical re-scrape, got %v with %v", d.Action, d.Fields)
	}
}

func TestReconcileFillsMissingFields(t *testing.T) {
	e := NewEngine(80)
	item := fullItem()

	existing := existingFor(item)
	existing.MetaText = ""
	existing.ImageURL = ""

	d := e.Reconcile(existing, item, now)
	if d.Action != ActionUpdate {
		t.Fatalf("expected update, got %v", d.Action)
	}
	if d.Fields["meta_text"] != item.MetaText {
		t.Errorf("expected meta_text fill, fields: %v", d.Fields)
	}
	if d.Fields["image_url"] != item.ImageURL {
		t.Errorf("expected image_url fill, fields: %v", d.Fields)
	}
	if _, ok := d.Fields["title"]; ok {
		t.Error("title must not change when already present")
	}
}

func TestReconcileNeverOverwritesTitle(t *testing.T) {
	e := NewEngine(80)
	item := fullItem()

	existing := existingFor(item)
	existing.Title = "Pôvodný titulok"

	d := e.Reconcile(existing, item, now)
	if _, ok := d.Fields["title"]; ok {
		t.Error("existing non-empty title must never be overwritten")
	}
}

func TestReconcileContentMargin(t *testing.T) {
	e := NewEngine(80)
	base := strings.Repeat("a", 500)

	cases := []struct {
		name    string
		newLen  int
		replace bool
	}{
		{"shorter", 400, false},
		{"longer within margin", 560, false},
		{"longer beyond margin", 600, true},
	}
	for _, tc := range cases {
		item := fullItem()
		item.ContentText = strings.Repeat("b", tc.newLen)

		existing := existingFor(item)
		existing.ContentText = base

		d := e.Reconcile(existing, item, now)
		_, replaced := d.Fields["content_text"]
		if replaced != tc.replace {
			t.Errorf("%s (len %d): replaced=%v, want %v", tc.name, tc.newLen, replaced, tc.replace)
		}
	}
}

func TestReconcileContentFillWhenEmpty(t *testing.T) {
	e := NewEngine(80)
	item := fullItem()

	existing := existingFor(item)
	existing.ContentText = "   "

	d := e.Reconcile(existing, item, now)
	if d.Fields["content_text"] != item.ContentText {
		t.Errorf("expected content fill for blank existing text, fields: %v", d.Fields)
	}
}

func TestReconcileImagePreference(t *testing.T) {
	e := NewEngine(80)

	cases := []struct {
		name     string
		existing string
		new      string
		replace  bool
	}{
		{"fill empty", "", "https://site/misc/banner.png", true},
		{"gallery beats misc", "https://site/misc/banner.png", "https://site/upload/gallery/x.jpg", true},
		{"misc never beats gallery", "https://site/upload/gallery/x.jpg", "https://site/misc/banner.png", false},
		{"differing gallery wins", "https://site/upload/gallery/x.jpg", "https://site/upload/gallery/y.jpg", true},
		{"differing misc ignored", "https://site/misc/a.png", "https://site/misc/b.png", false},
		{"same url noop", "https://site/upload/gallery/x.jpg", "https://site/upload/gallery/x.jpg", false},
		{"empty new ignored", "https://site/misc/banner.png", "", false},
	}
	for _, tc := range cases {
		item := fullItem()
		item.ImageURL = tc.new

		existing := existingFor(item)
		existing.ImageURL = tc.existing

		d := e.Reconcile(existing, item, now)
		_, replaced := d.Fields["image_url"]
		if replaced != tc.replace {
			t.Errorf("%s: replaced=%v, want %v", tc.name, replaced, tc.replace)
		}
	}
}

func TestReconcileCategoryFillOnly(t *testing.T) {
	e := NewEngine(80)
	item := fullItem()

	existing := existingFor(item)
	existing.Category = ""

	d := e.Reconcile(existing, item, now)
	if d.Fields["category"] != "extraliga" {
		t.Errorf("expected category fill, fields: %v", d.Fields)
	}

	existing.Category = "reprezentacia"
	d = e.Reconcile(existing, item, now)
	if _, ok := d.Fields["category"]; ok {
		t.Error("existing category must not be overwritten")
	}
}
