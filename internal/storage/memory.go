package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hokejlab/hokejnews/internal/types"
)

// MemoryStore is an in-process ArticleStore used by dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*types.ArticleRecord // keyed by origin_url
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*types.ArticleRecord)}
}

func (s *MemoryStore) FindByURL(_ context.Context, originURL string) (*types.ArticleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[originURL]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Insert(_ context.Context, record *types.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.OriginURL]; ok {
		return types.ErrDuplicate
	}

	cp := *record
	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	s.records[cp.OriginURL] = &cp
	return nil
}

func (s *MemoryStore) Update(_ context.Context, originURL string, fields map[string]any, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[originURL]
	if !ok {
		return types.ErrNotFound
	}

	for k, v := range fields {
		val, _ := v.(string)
		switch k {
		case "category":
			rec.Category = val
		case "title":
			rec.Title = val
		case "meta_text":
			rec.MetaText = val
		case "image_url":
			rec.ImageURL = val
		case "content_text":
			rec.ContentText = val
		}
	}
	rec.ScrapedAt = now
	return nil
}

func (s *MemoryStore) List(_ context.Context, category string, limit, offset int) ([]types.ArticleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.ArticleRecord
	for _, rec := range s.records {
		if category != "" && rec.Category != category {
			continue
		}
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScrapedAt.After(out[j].ScrapedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*types.ArticleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.ID.Hex() == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, types.ErrNotFound
}

func (s *MemoryStore) Stats(_ context.Context) (StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := StoreStats{Articles: int64(len(s.records))}
	for _, rec := range s.records {
		if stats.LastScrapedAt == nil || rec.ScrapedAt.After(*stats.LastScrapedAt) {
			t := rec.ScrapedAt
			stats.LastScrapedAt = &t
			stats.LastOriginURL = rec.OriginURL
		}
	}
	return stats, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }
