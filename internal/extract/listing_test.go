package extract

import (
	"log/slog"
	"os"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testBase = "https://www.hockeyslovakia.sk"

func newListingExtractor(t *testing.T, max int) *ListingExtractor {
	t.Helper()
	e, err := NewListingExtractor(testBase, max, testLogger)
	if err != nil {
		t.Fatalf("new listing extractor: %v", err)
	}
	return e
}

const listingHTML = `<!DOCTYPE html>
<html>
<body>
  <nav>
    <a href="/sk/articles/extraliga">Extraliga</a>
    <a href="/sk/article/kontakt">Kontakt</a>
  </nav>
  <div class="articles">
    <div class="article-box">
      <div class="img" style="background-image: url('/upload/thumbs/a.jpg')"></div>
      <a href="/sk/article/100-prvy-zapas-sezony">Prvý zápas sezóny</a>
    </div>
    <div class="article-box">
      <a href="/sk/article/101-druhy-zapas-sezony">Druhý zápas sezóny</a>
    </div>
    <div class="article-box">
      <a href="/sk/article/100-prvy-zapas-sezony">Prvý zápas (duplikát)</a>
    </div>
    <div class="article-box">
      <a href="/sk/article/102-treti-zapas-sezony">Tretí zápas sezóny</a>
    </div>
  </div>
  <footer>
    <a href="/sk/article/gdpr">GDPR</a>
  </footer>
</body>
</html>`

func TestListingExtractOrderAndDedup(t *testing.T) {
	e := newListingExtractor(t, 10)

	candidates, err := e.Extract([]byte(listingHTML))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := []string{
		testBase + "/sk/article/100-prvy-zapas-sezony",
		testBase + "/sk/article/101-druhy-zapas-sezony",
		testBase + "/sk/article/102-treti-zapas-sezony",
	}
	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(candidates))
	}
	for i, w := range want {
		if candidates[i].OriginURL != w {
			t.Errorf("candidate %d: got %s, want %s", i, candidates[i].OriginURL, w)
		}
	}
}

func TestListingExtractCap(t *testing.T) {
	e := newListingExtractor(t, 2)

	candidates, err := e.Extract([]byte(listingHTML))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected cap of 2 candidates, got %d", len(candidates))
	}
	if candidates[0].OriginURL != testBase+"/sk/article/100-prvy-zapas-sezony" {
		t.Errorf("cap must keep document order, got %s first", candidates[0].OriginURL)
	}
}

func TestListingExtractThumbnailHint(t *testing.T) {
	e := newListingExtractor(t, 10)

	candidates, err := e.Extract([]byte(listingHTML))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if got := candidates[0].ImageHint; got != testBase+"/upload/thumbs/a.jpg" {
		t.Errorf("expected resolved thumbnail hint, got %q", got)
	}
	if got := candidates[1].ImageHint; got != "" {
		t.Errorf("expected empty hint for tile without thumbnail, got %q", got)
	}
}

func TestListingExtractFallbackStrategy(t *testing.T) {
	// No tile containers at all: the loose anchor strategy takes over.
	html := `<html><body>
	  <a href="/sk/article/200-nominacia-na-turnaj">Nominácia</a>
	</body></html>`

	e := newListingExtractor(t, 10)
	candidates, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate from fallback strategy, got %d", len(candidates))
	}
}

func TestListingExtractCommitsToMatchedStrategy(t *testing.T) {
	// Tiles exist but hold only static-page links. The loose pass must not
	// run: it would pick the footer noise the tile pass excluded.
	html := `<html><body>
	  <div class="article-box"><a href="/sk/article/kontakt">Kontakt</a></div>
	  <div class="article-box"><a href="/sk/article/gdpr">GDPR</a></div>
	  <footer>
	    <a href="/sk/article/300-stary-clanok-v-patke">Archív</a>
	  </footer>
	</body></html>`

	e := newListingExtractor(t, 10)
	candidates, err := e.Extract([]byte(html))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates once the tile strategy matched, got %d", len(candidates))
	}
}

func TestListingExtractEmptyPage(t *testing.T) {
	e := newListingExtractor(t, 10)
	candidates, err := e.Extract([]byte("<html><body><p>nothing here</p></body></html>"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestIsLikelyArticleURL(t *testing.T) {
	e := newListingExtractor(t, 10)

	cases := []struct {
		url  string
		want bool
	}{
		{testBase + "/sk/article/123-vyhra-v-predlzeni", true},
		{testBase + "/sk/article/kontakt", false},       // denylisted slug
		{testBase + "/sk/article/abc", false},           // slug too short
		{testBase + "/sk/articles/extraliga", false},    // listing, not detail
		{"https://other.example.com/sk/article/123-vyhra-v-predlzeni", false},
	}
	for _, tc := range cases {
		if got := e.IsLikelyArticleURL(tc.url); got != tc.want {
			t.Errorf("IsLikelyArticleURL(%s) = %v, want %v", tc.url, got, tc.want)
		}
	}
}
