// Package scraper wires the pipeline together: robots gate, polite fetch,
// listing and detail extraction, and reconciliation against the article
// store. One run is strictly sequential — one category at a time, one
// article at a time — so the politeness delay is the only throttle the
// source ever sees.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hokejlab/hokejnews/internal/config"
	"github.com/hokejlab/hokejnews/internal/extract"
	"github.com/hokejlab/hokejnews/internal/fetcher"
	"github.com/hokejlab/hokejnews/internal/reconcile"
	"github.com/hokejlab/hokejnews/internal/robots"
	"github.com/hokejlab/hokejnews/internal/storage"
	"github.com/hokejlab/hokejnews/internal/types"
)

// Runner executes one scrape run over the configured categories.
type Runner struct {
	cfg     *config.ScrapeConfig
	fetcher fetcher.Fetcher
	listing *extract.ListingExtractor
	detail  *extract.DetailExtractor
	engine  *reconcile.Engine
	store   storage.ArticleStore
	logger  *slog.Logger
	clock   func() time.Time
}

// NewRunner builds a runner around the given fetcher and store.
func NewRunner(cfg *config.ScrapeConfig, f fetcher.Fetcher, store storage.ArticleStore, logger *slog.Logger) (*Runner, error) {
	listing, err := extract.NewListingExtractor(cfg.BaseURL, cfg.MaxArticlesPerRun, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:     cfg,
		fetcher: f,
		listing: listing,
		detail:  extract.NewDetailExtractor(cfg.MinContentLength, logger),
		engine:  reconcile.NewEngine(cfg.ContentImproveMargin),
		store:   store,
		logger:  logger.With("component", "runner"),
		clock:   time.Now,
	}, nil
}

// Run scrapes every configured category in order and returns the aggregated
// run summary. Per-item and per-category failures are counted, logged, and
// never abort the run.
func (r *Runner) Run(ctx context.Context) (types.RunSummary, error) {
	var sum types.RunSummary

	started := r.clock()
	gate := robots.BuildGate(ctx, r.fetcher, r.cfg.BaseURL, r.cfg.UserAgent, r.logger)

	now := started.UTC()
	for _, cat := range r.cfg.Categories {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}

		if err := r.scrapeCategory(ctx, gate, cat, now, &sum); err != nil {
			sum.Errors++
			r.logger.Error("category failed",
				"category", cat.Name,
				"listing_url", cat.ListingURL,
				"error", err,
			)
		}
	}

	r.logger.Info("run complete",
		"scanned", sum.Scanned,
		"inserted", sum.Inserted,
		"updated", sum.Updated,
		"unchanged", sum.Unchanged,
		"errors", sum.Errors,
		"duration", time.Since(started),
	)
	return sum, nil
}

// scrapeCategory processes one listing page and its candidates. A returned
// error aborts only this category.
func (r *Runner) scrapeCategory(ctx context.Context, gate *robots.Gate, cat config.Category, now time.Time, sum *types.RunSummary) error {
	if !gate.Allows(cat.ListingURL) {
		return fmt.Errorf("listing %s: %w", cat.ListingURL, types.ErrRobotsDisallowed)
	}

	listingHTML, err := r.fetcher.Fetch(ctx, cat.ListingURL)
	if err != nil {
		return err
	}

	candidates, err := r.listing.Extract(listingHTML)
	if err != nil {
		return err
	}

	r.logger.Info("listing scraped", "category", cat.Name, "candidates", len(candidates))

	for _, cand := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A detail URL the policy forbids is silently skipped: not
		// fetched, not scanned, not an error.
		if !gate.Allows(cand.OriginURL) {
			r.logger.Debug("detail disallowed by robots", "url", cand.OriginURL)
			continue
		}

		r.processCandidate(ctx, cat.Name, cand, now, sum)
	}

	return nil
}

// processCandidate fetches, extracts, reconciles, and commits one article.
// All failures are absorbed here; the run moves on to the next candidate.
// Scanned counts only items that survive extraction: failed or skipped
// candidates show up in Errors or nowhere, never as scanned.
func (r *Runner) processCandidate(ctx context.Context, category string, cand types.ListingCandidate, now time.Time, sum *types.RunSummary) {
	detailHTML, err := r.fetcher.Fetch(ctx, cand.OriginURL)
	if err != nil {
		sum.Errors++
		r.logger.Warn("detail fetch failed", "url", cand.OriginURL, "error", err)
		return
	}

	item, err := r.detail.Extract(detailHTML, cand.OriginURL)
	if err != nil {
		if errors.Is(err, types.ErrContentTooShort) {
			// Not an article; the listing filter let a static page through.
			r.logger.Debug("skipping non-article page", "url", cand.OriginURL)
			return
		}
		sum.Errors++
		r.logger.Warn("detail extraction failed", "url", cand.OriginURL, "error", err)
		return
	}

	sum.Scanned++

	item.Category = category
	if item.ImageURL == "" && cand.ImageHint != "" {
		item.ImageURL = cand.ImageHint
	}

	existing, err := r.store.FindByURL(ctx, item.OriginURL)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		sum.Errors++
		r.logger.Error("lookup failed", "url", item.OriginURL, "error", err)
		return
	}

	decision := r.engine.Reconcile(existing, item, now)
	r.commit(ctx, decision, item.OriginURL, now, sum)
}

// commit applies a reconciliation decision to the store, one item at a
// time so a failure cannot block progress on the rest of the run.
func (r *Runner) commit(ctx context.Context, decision reconcile.Decision, originURL string, now time.Time, sum *types.RunSummary) {
	switch decision.Action {
	case reconcile.ActionInsert:
		err := r.store.Insert(ctx, &decision.Record)
		if errors.Is(err, types.ErrDuplicate) {
			// Lost an insert race; the record exists, which is all we wanted.
			sum.Unchanged++
			return
		}
		if err != nil {
			sum.Errors++
			r.logger.Error("insert failed", "url", originURL, "error", err)
			return
		}
		sum.Inserted++
		r.logger.Info("article inserted", "url", originURL)

	case reconcile.ActionUpdate:
		if err := r.store.Update(ctx, originURL, decision.Fields, now); err != nil {
			sum.Errors++
			r.logger.Error("update failed", "url", originURL, "error", err)
			return
		}
		sum.Updated++
		r.logger.Info("article updated", "url", originURL, "fields", len(decision.Fields))

	default:
		sum.Unchanged++
	}
}
