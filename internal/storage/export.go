package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hokejlab/hokejnews/internal/types"
)

// exportPageSize is how many records one List call pulls during export.
const exportPageSize = 200

// Exporter dumps the article store to a file.
type Exporter struct {
	store  ArticleStore
	logger *slog.Logger
}

// NewExporter creates an exporter over the given store.
func NewExporter(store ArticleStore, logger *slog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		logger: logger.With("component", "exporter"),
	}
}

// Export writes all stored articles to outputPath in the given format
// ("json" or "csv") and returns the number of records written.
func (e *Exporter) Export(ctx context.Context, outputPath, format string) (int, error) {
	records, err := e.collect(ctx)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}

	switch format {
	case "json":
		err = writeJSON(outputPath, records)
	case "csv":
		err = writeCSV(outputPath, records)
	default:
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return 0, err
	}

	e.logger.Info("export complete", "path", outputPath, "format", format, "records", len(records))
	return len(records), nil
}

func (e *Exporter) collect(ctx context.Context) ([]types.ArticleRecord, error) {
	var all []types.ArticleRecord
	for offset := 0; ; offset += exportPageSize {
		page, err := e.store.List(ctx, "", exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}

func writeJSON(path string, records []types.ArticleRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeCSV(path string, records []types.ArticleRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"id", "category", "origin_url", "title", "meta_text", "image_url", "content_text", "scraped_at"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.ID.Hex(),
			r.Category,
			r.OriginURL,
			r.Title,
			r.MetaText,
			r.ImageURL,
			r.ContentText,
			r.ScrapedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
