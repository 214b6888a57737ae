package storage

import (
	"context"
	"time"

	"github.com/hokejlab/hokejnews/internal/types"
)

// ArticleStore is the persistence collaborator for scraped articles. Lookups
// that match nothing return types.ErrNotFound; inserts that collide on
// origin_url return types.ErrDuplicate. Each operation is individually
// atomic; there is no cross-item transaction.
type ArticleStore interface {
	// FindByURL returns the record for an origin URL.
	FindByURL(ctx context.Context, originURL string) (*types.ArticleRecord, error)

	// Insert persists a new record.
	Insert(ctx context.Context, record *types.ArticleRecord) error

	// Update applies changed fields to the record for originURL and
	// advances scraped_at to now.
	Update(ctx context.Context, originURL string, fields map[string]any, now time.Time) error

	// List returns records newest first, optionally filtered by category.
	List(ctx context.Context, category string, limit, offset int) ([]types.ArticleRecord, error)

	// GetByID returns a single record by its store identifier.
	GetByID(ctx context.Context, id string) (*types.ArticleRecord, error)

	// Stats summarizes the store for health reporting.
	Stats(ctx context.Context) (StoreStats, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}

// StoreStats is the health snapshot of the article store.
type StoreStats struct {
	Articles      int64      `json:"articles_count"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
	LastOriginURL string     `json:"last_origin_url,omitempty"`
}
