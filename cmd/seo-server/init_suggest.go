package main

import (
	"net/http"
	"time"

	"seoassist-backend/lib/fetchcache"
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/serviceutil"
	"seoassist-backend/services/suggest"

	"github.com/go-chi/chi/v5"
)

type SuggestConfig struct {
	// path of the suggest response cache, caching is disabled when empty
	CacheDatabase string `json:"cache_database"`
	CacheTtlHours int    `json:"cache_ttl_hours"`
}

func InitSuggest(router chi.Router, cfg SuggestConfig, fetcher *proxyfetch.Fetcher) (suggest.Service, error) {
	var cache *fetchcache.Cache
	if cfg.CacheDatabase != "" {
		ttl := time.Hour * 6
		if cfg.CacheTtlHours > 0 {
			ttl = time.Hour * time.Duration(cfg.CacheTtlHours)
		}
		opened, err := fetchcache.Open(cfg.CacheDatabase, ttl)
		if err != nil {
			return suggest.Service{}, err
		}
		cache = &opened
	}

	service := suggest.NewService(suggest.Options{
		Fetcher: fetcher,
		Cache:   cache,
	})
	api := suggestApi{service: service}

	router.Get("/api/suggest", api.handleSuggest)
	router.Get("/api/questions", api.handleQuestions)

	return service, nil
}

type suggestApi struct {
	service suggest.Service
}

func (s suggestApi) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		serviceutil.WriteError(w, http.StatusBadRequest, "q must not be empty")
		return
	}
	suggestions, err := s.service.Expand(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, suggestions)
}

func (s suggestApi) handleQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		serviceutil.WriteError(w, http.StatusBadRequest, "q must not be empty")
		return
	}
	suggestions, err := s.service.Questions(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, suggestions)
}
