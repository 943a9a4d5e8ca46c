package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Arthur2500/ConvertZ/internal/config"
	"github.com/Arthur2500/ConvertZ/internal/middleware"
	"github.com/Arthur2500/ConvertZ/internal/routes"
)

func New(cfg *config.Config, h *routes.Handler) *http.Server {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoadCORS())
	if cfg.SecureMode {
		r.Use(securityHeaders)
	}

	h.Routes(r)

	r.Group(func(api chi.Router) {
		if cfg.SecureMode {
			limiter := middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
			limiter.StartCleanup()
			api.Use(limiter.Handler)
		}
		h.APIRoutes(api)
	})

	r.Handle("/metrics", promhttp.Handler())

	publicDir := filepath.Join(filepath.Dir(os.Args[0]), "public")
	if info, err := os.Stat(publicDir); err == nil && info.IsDir() {
		fileServer := http.FileServer(http.Dir(publicDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			cleaned := filepath.Clean(filepath.Join(publicDir, strings.TrimPrefix(r.URL.Path, "/")))
			if !strings.HasPrefix(cleaned, publicDir) {
				http.NotFound(w, r)
				return
			}
			if _, err := os.Stat(cleaned); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(publicDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	}

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       0,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func PrintBanner() {
	fmt.Printf(`
  ┌──────────────────────────────────┐
  │        convertz %s         │
  │    media conversion gateway      │
  └──────────────────────────────────┘
`, padVersion(config.Version))
}

func padVersion(v string) string {
	for len(v) < 10 {
		v += " "
	}
	return v
}
