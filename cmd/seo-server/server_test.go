package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/testutil"
	"seoassist-backend/lib/textgen"
	"seoassist-backend/services/research"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

// setupServer assembles the full router the way main does, swapping the
// relays and the model endpoint for local fakes.
func setupServer(t *testing.T, completion string) http.Handler {
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{Name: "cmd/seo-server"})
	t.Cleanup(cleanup)

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target, err := url.Parse(r.URL.Query().Get("target"))
		require.Nil(t, err)

		if target.Host == "suggestqueries.google.com" {
			q := target.Query().Get("q")
			payload, err := json.Marshal([]any{q, []string{q + " guide", q + " tips"}})
			require.Nil(t, err)
			w.Write(payload)
			return
		}

		fmt.Fprint(w, `<html><head><title>Test page</title></head><body><h1>Test</h1><p>pour over pour over</p></body></html>`)
	}))
	t.Cleanup(relay.Close)

	ai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		err := json.NewEncoder(w).Encode(map[string]any{
			"id": "cmpl-test",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": completion},
				"finish_reason": "stop",
			}},
		})
		require.Nil(t, err)
	}))
	t.Cleanup(ai.Close)

	fetcher := proxyfetch.NewFetcher(proxyfetch.Config{
		Strategies: []proxyfetch.Strategy{{
			Name: "test",
			BuildURL: func(target string) string {
				return relay.URL + "/?target=" + url.QueryEscape(target)
			},
			Unwrap: proxyfetch.UnwrapRaw,
		}},
		AttemptsPerStrategy: 1,
		AttemptTimeout:      time.Second * 2,
		RetryDelay:          time.Millisecond,
	})

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/health", handleHealth)

	suggestService, err := InitSuggest(router, SuggestConfig{}, fetcher)
	require.Nil(t, err)
	err = InitResearch(router, ResearchConfig{
		Database: ":memory:",
		Ai: textgen.Config{
			BaseUrl: ai.URL,
			ApiKey:  "test-key",
			Model:   "test-model",
		},
	}, fetcher, suggestService)
	require.Nil(t, err)

	return router
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := setupServer(t, `{"score": 1}`)

	rec := do(t, router, "GET", "/health", "")
	require.Equal(t, rec.Code, http.StatusOK)
	require.JSONEq(t, rec.Body.String(), `{"status": "ok"}`)
}

func TestSuggestEndpoint(t *testing.T) {
	router := setupServer(t, `{"score": 1}`)

	rec := do(t, router, "GET", "/api/suggest?q=coffee", "")
	require.Equal(t, rec.Code, http.StatusOK)

	var suggestions []map[string]any
	err := json.Unmarshal(rec.Body.Bytes(), &suggestions)
	require.Nil(t, err)
	require.NotEmpty(t, suggestions)

	rec = do(t, router, "GET", "/api/suggest", "")
	require.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestQuestionsEndpoint(t *testing.T) {
	router := setupServer(t, `{"score": 1}`)

	rec := do(t, router, "GET", "/api/questions?q=coffee", "")
	require.Equal(t, rec.Code, http.StatusOK)
}

func TestCompetitionEndpoint(t *testing.T) {
	router := setupServer(t,
		`{"score": 55, "tier": "medium", "rationale": "mixed field", "top_competitors": [], "easier_alternatives": []}`)

	rec := do(t, router, "POST", "/api/competition", `{"keyword": "coffee grinder"}`)
	require.Equal(t, rec.Code, http.StatusOK)

	var report research.CompetitionReport
	err := json.Unmarshal(rec.Body.Bytes(), &report)
	require.Nil(t, err)
	require.Equal(t, report.Keyword, "coffee grinder")
	require.Equal(t, report.Score, 55)

	rec = do(t, router, "GET", "/api/reports", "")
	require.Equal(t, rec.Code, http.StatusOK)

	var history []research.StoredReport
	err = json.Unmarshal(rec.Body.Bytes(), &history)
	require.Nil(t, err)
	require.Len(t, history, 1)

	rec = do(t, router, "GET", "/api/reports/"+history[0].Slug, "")
	require.Equal(t, rec.Code, http.StatusOK)
}

func TestCompetitionRejectsBadBody(t *testing.T) {
	router := setupServer(t, `{"score": 1}`)

	rec := do(t, router, "POST", "/api/competition", `{"keyword": `)
	require.Equal(t, rec.Code, http.StatusBadRequest)

	rec = do(t, router, "POST", "/api/competition", `{"keyword": "   "}`)
	require.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestRankEndpoint(t *testing.T) {
	router := setupServer(t,
		`{"score": 70, "strengths": ["direct"], "weaknesses": [], "actions": []}`)

	rec := do(t, router, "POST", "/api/rank",
		`{"keyword": "pour over", "url": "https://blog.example.com/pour-over"}`)
	require.Equal(t, rec.Code, http.StatusOK)

	var ranking research.BlogRanking
	err := json.Unmarshal(rec.Body.Bytes(), &ranking)
	require.Nil(t, err)
	require.Equal(t, ranking.Profile.Title, "Test page")
	require.GreaterOrEqual(t, ranking.Profile.KeywordHits, 2)

	rec = do(t, router, "POST", "/api/rank", `{"keyword": "pour over", "url": "ftp://nope"}`)
	require.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestStrategyEndpoint(t *testing.T) {
	router := setupServer(t,
		`{"clusters": [{"topic": "basics", "intent": "informational", "titles": ["Getting started"]}], "summary": "cover the basics"}`)

	rec := do(t, router, "POST", "/api/strategy", `{"keyword": "pour over"}`)
	require.Equal(t, rec.Code, http.StatusOK)

	var report research.StrategyReport
	err := json.Unmarshal(rec.Body.Bytes(), &report)
	require.Nil(t, err)
	require.Len(t, report.Clusters, 1)
}

func TestMalformedModelOutputMapsToBadGateway(t *testing.T) {
	router := setupServer(t, "I'd rather chat about something else.")

	rec := do(t, router, "POST", "/api/competition", `{"keyword": "coffee"}`)
	require.Equal(t, rec.Code, http.StatusBadGateway)

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.Nil(t, err)
	require.Equal(t, body["error"], "The AI returned a response that could not be understood. Try again.")
}

func TestReportNotFound(t *testing.T) {
	router := setupServer(t, `{"score": 1}`)

	rec := do(t, router, "GET", "/api/reports/missing", "")
	require.Equal(t, rec.Code, http.StatusNotFound)
}

func TestEmailRejectsBadRecipient(t *testing.T) {
	router := setupServer(t, `{"score": 1}`)

	rec := do(t, router, "POST", "/api/reports/whatever/email", `{"to": "not-an-address"}`)
	require.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	router := setupServer(t, `{"score": 1}`)

	rec := do(t, router, "GET", "/api/reports?limit=abc", "")
	require.Equal(t, rec.Code, http.StatusBadRequest)
}
