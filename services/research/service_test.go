package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"seoassist-backend/lib/jsonextract"
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/testutil"
	"seoassist-backend/lib/textgen"
	"seoassist-backend/services/research/db"
	"seoassist-backend/services/suggest"

	"github.com/stretchr/testify/require"
)

const testPageHtml = `<!DOCTYPE html>
<html>
<head>
<title>Brewing Pour Over Coffee</title>
<meta name="description" content="A practical pour over guide.">
</head>
<body>
<h1>Pour over basics</h1>
<p>Pour over coffee rewards patience. This pour over guide covers grind size and pouring technique.</p>
<h2>Gear</h2>
<p>A gooseneck kettle <a href="/kettle">helps</a>. So does a good <a href="https://example.com/grinder">grinder</a>.</p>
</body>
</html>`

// setupResearch wires the service against three fakes: a relay that
// serves both suggest payloads and the audited page, and a model endpoint
// that always answers with completion.
func setupResearch(t *testing.T, completion string) Service {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/research",
		DbSchema: db.Schema,
	})
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

		// anything else is the page under audit
		fmt.Fprint(w, testPageHtml)
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

	return NewService(res.DB, Options{
		Suggest: suggest.NewService(suggest.Options{Fetcher: fetcher}),
		Fetcher: fetcher,
		Ai: textgen.NewClient(textgen.Config{
			BaseUrl: ai.URL,
			ApiKey:  "test-key",
			Model:   "test-model",
		}),
	})
}

func TestScoreCompetition(t *testing.T) {
	service := setupResearch(t, "```json\n"+
		`{"score": 140, "rationale": "Large brands dominate the first page.", "top_competitors": ["national review sites"], "easier_alternatives": ["best manual grinder"]}`+
		"\n```")

	report, err := service.ScoreCompetition(context.Background(), "  Coffee   Grinder ")
	require.Nil(t, err)

	require.Equal(t, report.Keyword, "coffee grinder")
	// out-of-range model scores get clamped
	require.Equal(t, report.Score, 100)
	// tier was omitted by the model, derived from the score instead
	require.Equal(t, report.Tier, "high")
	require.Equal(t, report.TopCompetitors, []string{"national review sites"})

	history, err := service.History(context.Background(), 10)
	require.Nil(t, err)
	require.Len(t, history, 1)
	require.Equal(t, history[0].Kind, KindCompetition)
	require.Equal(t, history[0].Keyword, "coffee grinder")

	stored, err := service.GetReport(context.Background(), history[0].Slug)
	require.Nil(t, err)

	var persisted CompetitionReport
	err = json.Unmarshal(stored.Payload, &persisted)
	require.Nil(t, err)
	require.Equal(t, persisted, *report)
}

func TestRankBlog(t *testing.T) {
	service := setupResearch(t, "Sure! Here's my analysis:\n\n"+
		`{"score": 72, "strengths": ["clear structure"], "weaknesses": ["thin content"], "actions": ["add a brew-ratio table"]}`)

	ranking, err := service.RankBlog(context.Background(), "pour over", "https://blog.example.com/pour-over")
	require.Nil(t, err)

	require.Equal(t, ranking.Keyword, "pour over")
	require.Equal(t, ranking.Url, "https://blog.example.com/pour-over")
	require.Equal(t, ranking.Score, 72)
	require.Equal(t, ranking.Profile.Title, "Brewing Pour Over Coffee")
	require.Equal(t, ranking.Profile.Description, "A practical pour over guide.")
	require.Equal(t, ranking.Profile.HeadingCount, 2)
	require.Equal(t, ranking.Profile.LinkCount, 2)
	require.GreaterOrEqual(t, ranking.Profile.KeywordHits, 2)
	require.Greater(t, ranking.Profile.WordCount, 10)

	history, err := service.History(context.Background(), 10)
	require.Nil(t, err)
	require.Len(t, history, 1)
	require.Equal(t, history[0].Kind, KindRanking)
}

func TestPlanContent(t *testing.T) {
	service := setupResearch(t,
		`{"clusters": [{"topic": "equipment", "intent": "commercial", "titles": ["The only kettle guide you need"]}], "summary": "Equipment content is the gap."}`)

	report, err := service.PlanContent(context.Background(), "pour over")
	require.Nil(t, err)

	require.Equal(t, report.Keyword, "pour over")
	require.Len(t, report.Clusters, 1)
	require.Equal(t, report.Clusters[0].Topic, "equipment")
	require.Equal(t, report.Clusters[0].Intent, "commercial")
	require.Equal(t, report.Summary, "Equipment content is the gap.")

	history, err := service.History(context.Background(), 10)
	require.Nil(t, err)
	require.Len(t, history, 1)
	require.Equal(t, history[0].Kind, KindStrategy)
}

func TestMalformedModelOutput(t *testing.T) {
	service := setupResearch(t, "Sorry, I can't produce that right now.")

	_, err := service.ScoreCompetition(context.Background(), "coffee grinder")
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, upstreamErr.Message, malformedResponseMessage)
	require.True(t, jsonextract.IsMalformed(upstreamErr.Err))

	// nothing half-finished gets persisted
	history, err := service.History(context.Background(), 10)
	require.Nil(t, err)
	require.Len(t, history, 0)
}

func TestRankBlogRejectsBadUrl(t *testing.T) {
	service := setupResearch(t, `{"score": 1}`)

	_, err := service.RankBlog(context.Background(), "pour over", "not a url")
	require.ErrorIs(t, err, ErrBadInput)

	_, err = service.RankBlog(context.Background(), "pour over", "ftp://example.com/x")
	require.ErrorIs(t, err, ErrBadInput)

	_, err = service.RankBlog(context.Background(), "", "https://example.com/x")
	require.ErrorIs(t, err, ErrBadInput)
}

func TestGetReportNotFound(t *testing.T) {
	service := setupResearch(t, `{"score": 1}`)

	_, err := service.GetReport(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEmailReportRejectsBadRecipient(t *testing.T) {
	service := setupResearch(t, `{"score": 1}`)

	err := service.EmailReport(context.Background(), "whatever", "not-an-address")
	require.ErrorIs(t, err, ErrBadInput)
}

func TestRenderReportText(t *testing.T) {
	payload, err := json.Marshal(CompetitionReport{
		Keyword:            "coffee grinder",
		Score:              62,
		Tier:               "medium",
		Rationale:          "Mid-size review sites hold the first page.",
		TopCompetitors:     []string{"review aggregators"},
		EasierAlternatives: []string{"best hand grinder under 50"},
	})
	require.Nil(t, err)

	text, err := renderReportText(StoredReport{
		Slug:      "abc123",
		Kind:      KindCompetition,
		Keyword:   "coffee grinder",
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	require.Nil(t, err)

	require.Contains(t, text, "Keyword: coffee grinder")
	require.Contains(t, text, "Competition score: 62/100 (medium)")
	require.Contains(t, text, "- review aggregators")
	require.Contains(t, text, "- best hand grinder under 50")
}
