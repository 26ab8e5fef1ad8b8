package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"sitepulse/internal/httpapi/middleware"
	"sitepulse/internal/repo"
	"sitepulse/internal/stats"
)

type Server struct {
	Logger   *zap.Logger
	Websites repo.WebsiteStore
	Stats    *stats.Aggregator

	// Per-IP rate limit; RatePerMin <= 0 disables it.
	RatePerMin int
	RateBurst  int
}

func NewServer(l *zap.Logger, ws repo.WebsiteStore, agg *stats.Aggregator, ratePerMin, rateBurst int) *Server {
	return &Server{
		Logger:     l,
		Websites:   ws,
		Stats:      agg,
		RatePerMin: ratePerMin,
		RateBurst:  rateBurst,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(s.RatePerMin, s.RateBurst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/websites", s.handleListWebsites)
	r.Post("/api/websites", s.handleRegisterWebsite)
	r.Get("/api/websites/{alias}", s.handleGetWebsite)
	r.Delete("/api/websites/{alias}", s.handleDeleteWebsite)

	return r
}
