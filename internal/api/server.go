// Package api serves the read-only query surface over the article store.
// It never writes: scraping is the only writer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hokejlab/hokejnews/internal/config"
	"github.com/hokejlab/hokejnews/internal/storage"
	"github.com/hokejlab/hokejnews/internal/types"
)

// Pagination bounds for the article list endpoint.
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Server exposes stored articles over HTTP.
type Server struct {
	mux         *http.ServeMux
	store       storage.ArticleStore
	corsOrigins []string
	appName     string
	logger      *slog.Logger
	httpSrv     *http.Server
}

// NewServer builds the API server over the given store.
func NewServer(cfg config.APIConfig, store storage.ArticleStore, logger *slog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		store:   store,
		appName: "hokejnews",
		logger:  logger.With("component", "api_server"),
	}

	for _, o := range strings.Split(cfg.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			s.corsOrigins = append(s.corsOrigins, o)
		}
	}

	s.registerRoutes()

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.cors(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api server starting", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /", s.handleHome)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/articles", s.handleListArticles)
	s.mux.HandleFunc("GET /api/articles/{id}", s.handleGetArticle)
}

// cors applies the configured allowed origins to every response.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range s.corsOrigins {
			if allowed == "*" || allowed == origin {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "*")
				break
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html>
  <head><title>%[1]s</title></head>
  <body style="font-family: Arial; padding: 24px;">
    <h1>%[1]s</h1>
    <ul>
      <li><a href="/health">/health</a></li>
      <li><a href="/api/articles">/api/articles</a></li>
    </ul>
  </body>
</html>
`, s.appName)
}

// healthOut is the /health payload.
type healthOut struct {
	OK   bool   `json:"ok"`
	App  string `json:"app"`
	DB   bool   `json:"db"`
	storage.StoreStats
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.store.Ping(r.Context()) == nil

	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("store stats failed", "error", err)
	}

	s.jsonResponse(w, http.StatusOK, healthOut{
		OK:         true,
		App:        s.appName,
		DB:         dbOK,
		StoreStats: stats,
	})
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := intParam(q.Get("limit"), defaultPageLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := intParam(q.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	records, err := s.store.List(r.Context(), q.Get("category"), limit, offset)
	if err != nil {
		s.logger.Error("list articles failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}

	// The list view omits full bodies.
	out := make([]articleOut, 0, len(records))
	for _, rec := range records {
		out = append(out, newArticleOut(rec))
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, types.ErrNotFound) {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "article not found"})
		return
	}
	if err != nil {
		s.logger.Error("get article failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}

	out := newArticleOut(*record)
	out.ContentText = record.ContentText
	s.jsonResponse(w, http.StatusOK, out)
}

// articleOut is the JSON view of a record; ContentText is populated only on
// the detail endpoint.
type articleOut struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	OriginURL   string    `json:"origin_url"`
	Title       string    `json:"title"`
	MetaText    string    `json:"meta_text,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	ContentText string    `json:"content_text,omitempty"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

func newArticleOut(rec types.ArticleRecord) articleOut {
	return articleOut{
		ID:        rec.ID.Hex(),
		Category:  rec.Category,
		OriginURL: rec.OriginURL,
		Title:     rec.Title,
		MetaText:  rec.MetaText,
		ImageURL:  rec.ImageURL,
		ScrapedAt: rec.ScrapedAt,
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
