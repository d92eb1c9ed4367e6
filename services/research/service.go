// Package research holds the AI-backed features: keyword competition
// scoring, page ranking audits and content planning. Every operation
// gathers evidence first (suggestion data, a fetched page profile), asks
// the model for a JSON verdict, recovers the JSON tolerantly, persists the
// report and returns it.
package research

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"seoassist-backend/lib/jsonextract"
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/textgen"
	"seoassist-backend/lib/textutil"
	"seoassist-backend/services/research/db"
	"seoassist-backend/services/suggest"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("seoassist.services.research")

type Options struct {
	Suggest suggest.Service
	Fetcher *proxyfetch.Fetcher
	Ai      textgen.Client
	Email   EmailConfig
}

type Service struct {
	db      *sql.DB
	qry     *db.Queries
	suggest suggest.Service
	fetcher *proxyfetch.Fetcher
	ai      textgen.Client
	email   EmailConfig
}

func NewService(database *sql.DB, options Options) Service {
	return Service{
		db:      database,
		qry:     db.New(database),
		suggest: options.Suggest,
		fetcher: options.Fetcher,
		ai:      options.Ai,
		email:   options.Email,
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func tierForScore(score int) string {
	switch {
	case score < 34:
		return "low"
	case score < 67:
		return "medium"
	default:
		return "high"
	}
}

// fetchFailureMessage digs the classified fetch error out of a (possibly
// joined) error so the user sees one actionable sentence instead of a
// relay-by-relay dump.
func fetchFailureMessage(err error) string {
	var fetchErr *proxyfetch.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Error()
	}
	return err.Error()
}

// completeInto asks the model for a JSON verdict and decodes it. AI
// transport failures and malformed output map to distinct user-facing
// upstream errors; the raw output only ever lands in logs.
func completeInto[T any](ctx context.Context, ai textgen.Client, system, user string) (*T, error) {
	raw, err := ai.Complete(ctx, system, user)
	if err != nil {
		return nil, upstream(textgen.UserFacingMessage(err), err)
	}

	out, err := jsonextract.Unmarshal[T](raw)
	if err != nil {
		slog.ErrorContext(ctx, "model output failed json extraction", "err", err)
		slog.DebugContext(ctx, "malformed model output", "raw", raw)
		var malformed *jsonextract.MalformedError
		if errors.As(err, &malformed) {
			slog.DebugContext(ctx, "sliced candidate", "candidate", malformed.Candidate)
		}
		return nil, upstream(malformedResponseMessage, err)
	}
	return &out, nil
}

func (s Service) storeReport(ctx context.Context, kind, keyword string, payload any) error {
	ctx, span := tracer.Start(ctx, "storeReport")
	defer span.End()

	serialized, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize report")
		return err
	}

	slug, err := random.String(10)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate slug")
		return err
	}
	slug = strings.ToLower(slug)
	span.SetAttributes(attribute.String("slug", slug))

	err = s.qry.CreateReport(ctx, db.CreateReportParams{
		Slug:      slug,
		Kind:      kind,
		Keyword:   keyword,
		Payload:   string(serialized),
		Createdat: time.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert report row")
		return err
	}

	slog.InfoContext(ctx, "stored report", "kind", kind, "keyword", keyword, "slug", slug)
	return nil
}

// ScoreCompetition estimates how contested a keyword is, using the
// expanded suggestion set as evidence.
func (s Service) ScoreCompetition(ctx context.Context, keyword string) (*CompetitionReport, error) {
	ctx, span := tracer.Start(ctx, "ScoreCompetition")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", keyword))

	keyword = textutil.NormalizePhrase(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword must not be empty", ErrBadInput)
	}

	suggestions, err := s.suggest.Expand(ctx, keyword)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to gather suggestion evidence")
		return nil, upstream(fetchFailureMessage(err), err)
	}

	report, err := completeInto[CompetitionReport](
		ctx, s.ai,
		competitionSystemPrompt,
		competitionPrompt(keyword, suggestions),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate verdict")
		return nil, err
	}

	report.Keyword = keyword
	report.Score = clampScore(report.Score)
	if report.Tier == "" {
		report.Tier = tierForScore(report.Score)
	}

	err = s.storeReport(ctx, KindCompetition, keyword, report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// RankBlog audits how well pageUrl could rank for keyword. The page is
// fetched through the relays, reduced to a PageProfile and judged by the
// model.
func (s Service) RankBlog(ctx context.Context, keyword, pageUrl string) (*BlogRanking, error) {
	ctx, span := tracer.Start(ctx, "RankBlog")
	defer span.End()
	span.SetAttributes(
		attribute.String("keyword", keyword),
		attribute.String("url", pageUrl),
	)

	keyword = textutil.NormalizePhrase(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword must not be empty", ErrBadInput)
	}
	parsed, err := url.Parse(pageUrl)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: url must be an absolute http(s) address", ErrBadInput)
	}

	rawHtml, err := proxyfetch.FetchText(ctx, s.fetcher, pageUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return nil, upstream(fetchFailureMessage(err), err)
	}

	profile, err := buildPageProfile(ctx, parsed, rawHtml, keyword)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to profile page")
		return nil, err
	}

	ranking, err := completeInto[BlogRanking](
		ctx, s.ai,
		rankingSystemPrompt,
		rankingPrompt(keyword, profile),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate verdict")
		return nil, err
	}

	ranking.Keyword = keyword
	ranking.Url = pageUrl
	ranking.Profile = profile
	ranking.Score = clampScore(ranking.Score)

	err = s.storeReport(ctx, KindRanking, keyword, ranking)
	if err != nil {
		return nil, err
	}
	return ranking, nil
}

// PlanContent builds a topic-cluster strategy from both suggestion fan-outs.
// One evidence source failing is tolerable, both failing is not.
func (s Service) PlanContent(ctx context.Context, keyword string) (*StrategyReport, error) {
	ctx, span := tracer.Start(ctx, "PlanContent")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", keyword))

	keyword = textutil.NormalizePhrase(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword must not be empty", ErrBadInput)
	}

	expanded, expandErr := s.suggest.Expand(ctx, keyword)
	if expandErr != nil {
		slog.WarnContext(ctx, "expand evidence unavailable", "err", expandErr)
	}
	questions, questionsErr := s.suggest.Questions(ctx, keyword)
	if questionsErr != nil {
		slog.WarnContext(ctx, "question evidence unavailable", "err", questionsErr)
	}
	if expandErr != nil && questionsErr != nil {
		err := errors.Join(expandErr, questionsErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to gather any evidence")
		return nil, upstream(fetchFailureMessage(err), err)
	}

	report, err := completeInto[StrategyReport](
		ctx, s.ai,
		strategySystemPrompt,
		strategyPrompt(keyword, expanded, questions),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate verdict")
		return nil, err
	}

	report.Keyword = keyword

	err = s.storeReport(ctx, KindStrategy, keyword, report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func toStoredReport(row db.Report) StoredReport {
	return StoredReport{
		Slug:      row.Slug,
		Kind:      row.Kind,
		Keyword:   row.Keyword,
		Payload:   json.RawMessage(row.Payload),
		CreatedAt: time.Unix(row.Createdat, 0),
	}
}

// History lists stored reports, newest first.
func (s Service) History(ctx context.Context, limit int) ([]StoredReport, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := s.qry.ListReports(ctx, int64(limit))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list reports")
		return nil, err
	}

	out := make([]StoredReport, len(rows))
	for i, row := range rows {
		out[i] = toStoredReport(row)
	}
	return out, nil
}

func (s Service) GetReport(ctx context.Context, slug string) (*StoredReport, error) {
	ctx, span := tracer.Start(ctx, "GetReport")
	defer span.End()
	span.SetAttributes(attribute.String("slug", slug))

	row, err := s.qry.GetReport(ctx, slug)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read report")
		return nil, err
	}

	out := toStoredReport(row)
	return &out, nil
}
