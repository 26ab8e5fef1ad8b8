package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sitepulse/internal/domain"
	"sitepulse/internal/repo"
	"sitepulse/internal/stats"
)

type registerPayload struct {
	URL   string `json:"url"`
	Alias string `json:"alias"`
}

type websiteSummary struct {
	domain.Website
	Uptime24h *float64 `json:"uptime_24h"`
}

type websiteDetail struct {
	domain.Website
	Uptime24h *float64       `json:"uptime_24h"`
	Uptime30d *float64       `json:"uptime_30d"`
	Hourly    []stats.Bucket `json:"hourly"`
	Daily     []stats.Bucket `json:"daily"`
	Incidents []domain.Log   `json:"incidents"`
}

func (s *Server) handleRegisterWebsite(w http.ResponseWriter, r *http.Request) {
	var p registerPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if p.Alias == "" || len(p.Alias) > 75 {
		http.Error(w, "alias must be 1-75 characters", http.StatusBadRequest)
		return
	}
	if u, err := url.ParseRequestURI(p.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		http.Error(w, "url must be a valid http(s) URL", http.StatusBadRequest)
		return
	}

	site, err := s.Websites.Register(r.Context(), p.URL, p.Alias)
	if errors.Is(err, repo.ErrConflict) {
		http.Error(w, "alias already registered", http.StatusConflict)
		return
	}
	if err != nil {
		s.Logger.Error("register_error", zap.String("alias", p.Alias), zap.Error(err))
		http.Error(w, "could not register", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("registered_website",
		zap.String("alias", site.Alias),
		zap.String("url", site.URL),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(site)
}

func (s *Server) handleListWebsites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Websites.List(r.Context())
	if err != nil {
		s.Logger.Error("list_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}

	out := make([]websiteSummary, 0, len(sites))
	for _, site := range sites {
		sum := websiteSummary{Website: site}
		pct, err := s.Stats.UptimePercent(r.Context(), site.Alias, stats.Window24h)
		switch {
		case err == nil:
			sum.Uptime24h = &pct
		case errors.Is(err, stats.ErrNoData):
			// no probes yet, leave nil
		default:
			s.Logger.Error("uptime_error", zap.String("alias", site.Alias), zap.Error(err))
			http.Error(w, "stats error", http.StatusInternalServerError)
			return
		}
		out = append(out, sum)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleGetWebsite(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")

	site, err := s.Websites.GetByAlias(r.Context(), alias)
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "unknown alias", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Logger.Error("get_error", zap.String("alias", alias), zap.Error(err))
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}

	detail := websiteDetail{Website: *site}
	for _, q := range []struct {
		window time.Duration
		into   **float64
	}{
		{stats.Window24h, &detail.Uptime24h},
		{stats.Window30d, &detail.Uptime30d},
	} {
		pct, err := s.Stats.UptimePercent(r.Context(), alias, q.window)
		if err == nil {
			v := pct
			*q.into = &v
		} else if !errors.Is(err, stats.ErrNoData) {
			s.Logger.Error("uptime_error", zap.String("alias", alias), zap.Error(err))
			http.Error(w, "stats error", http.StatusInternalServerError)
			return
		}
	}

	if detail.Hourly, err = s.Stats.Buckets(r.Context(), alias, stats.ByHour); err != nil {
		s.Logger.Error("buckets_error", zap.String("alias", alias), zap.Error(err))
		http.Error(w, "stats error", http.StatusInternalServerError)
		return
	}
	if detail.Daily, err = s.Stats.Buckets(r.Context(), alias, stats.ByDay); err != nil {
		s.Logger.Error("buckets_error", zap.String("alias", alias), zap.Error(err))
		http.Error(w, "stats error", http.StatusInternalServerError)
		return
	}
	if detail.Incidents, err = s.Stats.Incidents(r.Context(), alias, stats.Window30d); err != nil {
		s.Logger.Error("incidents_error", zap.String("alias", alias), zap.Error(err))
		http.Error(w, "stats error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(detail)
}

func (s *Server) handleDeleteWebsite(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")

	err := s.Websites.Delete(r.Context(), alias)
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "unknown alias", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Logger.Error("delete_error", zap.String("alias", alias), zap.Error(err))
		http.Error(w, "could not delete", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("deleted_website", zap.String("alias", alias))
	w.WriteHeader(http.StatusNoContent)
}
