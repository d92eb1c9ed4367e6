package main

import (
	"net/http"
	"strconv"

	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/serviceutil"
	"seoassist-backend/lib/sqliteutil"
	"seoassist-backend/lib/textgen"
	"seoassist-backend/services/research"
	"seoassist-backend/services/research/db"
	"seoassist-backend/services/suggest"

	"github.com/go-chi/chi/v5"
)

type ResearchConfig struct {
	Database string               `json:"database"`
	Ai       textgen.Config       `json:"ai"`
	Smtp     research.EmailConfig `json:"smtp"`
}

func InitResearch(router chi.Router, cfg ResearchConfig, fetcher *proxyfetch.Fetcher, suggestService suggest.Service) error {
	database, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
	if err != nil {
		return err
	}

	service := research.NewService(database, research.Options{
		Suggest: suggestService,
		Fetcher: fetcher,
		Ai:      textgen.NewClient(cfg.Ai),
		Email:   cfg.Smtp,
	})
	api := researchApi{service: service}

	router.Post("/api/competition", api.handleCompetition)
	router.Post("/api/rank", api.handleRank)
	router.Post("/api/strategy", api.handleStrategy)
	router.Get("/api/reports", api.handleHistory)
	router.Get("/api/reports/{slug}", api.handleGetReport)
	router.Post("/api/reports/{slug}/email", api.handleEmailReport)

	return nil
}

type researchApi struct {
	service research.Service
}

type keywordRequest struct {
	Keyword string `json:"keyword"`
}

func (s researchApi) handleCompetition(w http.ResponseWriter, r *http.Request) {
	req, err := serviceutil.ReadJSON[keywordRequest](r)
	if err != nil {
		serviceutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.service.ScoreCompetition(r.Context(), req.Keyword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, report)
}

type rankRequest struct {
	Keyword string `json:"keyword"`
	Url     string `json:"url"`
}

func (s researchApi) handleRank(w http.ResponseWriter, r *http.Request) {
	req, err := serviceutil.ReadJSON[rankRequest](r)
	if err != nil {
		serviceutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ranking, err := s.service.RankBlog(r.Context(), req.Keyword, req.Url)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, ranking)
}

func (s researchApi) handleStrategy(w http.ResponseWriter, r *http.Request) {
	req, err := serviceutil.ReadJSON[keywordRequest](r)
	if err != nil {
		serviceutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.service.PlanContent(r.Context(), req.Keyword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, report)
}

func (s researchApi) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			serviceutil.WriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}
	reports, err := s.service.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, reports)
}

func (s researchApi) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.GetReport(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, report)
}

type emailRequest struct {
	To string `json:"to"`
}

type emailResponse struct {
	Sent bool `json:"sent"`
}

func (s researchApi) handleEmailReport(w http.ResponseWriter, r *http.Request) {
	req, err := serviceutil.ReadJSON[emailRequest](r)
	if err != nil {
		serviceutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = s.service.EmailReport(r.Context(), chi.URLParam(r, "slug"), req.To)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, emailResponse{Sent: true})
}
