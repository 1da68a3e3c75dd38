package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"thermalprint/internal/config"
	"thermalprint/internal/job"
	appLog "thermalprint/internal/log"
	"thermalprint/internal/printer"
)

const previewCacheTTL = 30 * time.Second

// Server renders the reports as UTF-8 text so a receipt can be checked
// without wasting paper.
type Server struct {
	cfg     *config.Config
	reports map[string]job.Report
	now     func() time.Time
	mux     *http.ServeMux

	mu    sync.Mutex
	cache map[string]cachedPreview
}

type cachedPreview struct {
	body      []byte
	updatedAt time.Time
}

// NewServer serves previews of reports, keyed by their Name.
func NewServer(cfg *config.Config, reports ...job.Report) *Server {
	s := &Server{
		cfg:     cfg,
		reports: make(map[string]job.Report, len(reports)),
		now:     time.Now,
		mux:     http.NewServeMux(),
		cache:   make(map[string]cachedPreview),
	}
	for _, r := range reports {
		s.reports[r.Name()] = r
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/preview/{report}", s.handlePreview)
	return s
}

// Handler returns the mux, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(s.mux)
	}
	return s.mux
}

// ListenAndServe serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting preview server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	return s.cfg != nil && s.cfg.BasicAuth != nil &&
		s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="thermalprint", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview renders GET /api/preview/{report}. ?fresh=1 bypasses the
// short-lived cache.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("report")
	rep, ok := s.reports[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown report")
		return
	}

	fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh"))
	now := s.now()

	s.mu.Lock()
	c, hit := s.cache[name]
	s.mu.Unlock()
	if hit && !fresh && now.Sub(c.updatedAt) < previewCacheTTL {
		writeText(w, c.body)
		return
	}

	segs, err := rep.Build(r.Context(), now)
	if err != nil {
		appLog.Error("preview build failed", err, "report", name)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	var buf bytes.Buffer
	tp := printer.NewTextPrinter(&buf, s.cfg.Printer.Columns)
	if err := tp.Print(r.Context(), segs...); err != nil {
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	_ = tp.Close()

	s.mu.Lock()
	s.cache[name] = cachedPreview{body: buf.Bytes(), updatedAt: now}
	s.mu.Unlock()

	writeText(w, buf.Bytes())
}

func writeText(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
