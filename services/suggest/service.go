// Package suggest expands a seed keyword into the phrases real users type
// into the search box, by querying the public autocomplete endpoint with
// many variants of the seed and merging the results.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"

	"seoassist-backend/lib/fetchcache"
	"seoassist-backend/lib/proxyfetch"
	"seoassist-backend/lib/textutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("seoassist.services.suggest")

const suggestEndpoint = "https://suggestqueries.google.com/complete/search?client=firefox&q="

// Suggestion is one autocomplete phrase scored against the seed keyword.
// Relevance is Jaro-Winkler similarity in [0, 1].
type Suggestion struct {
	Phrase    string
	Seed      string
	Relevance float64
}

type Options struct {
	Fetcher *proxyfetch.Fetcher
	// optional, nil disables caching
	Cache *fetchcache.Cache
}

type Service struct {
	fetcher *proxyfetch.Fetcher
	cache   *fetchcache.Cache
}

func NewService(options Options) Service {
	return Service{
		fetcher: options.Fetcher,
		cache:   options.Cache,
	}
}

// parseSuggestPayload unpacks the endpoint's response array. The first
// element echoes the query, the second holds the phrases; some responses
// carry extra trailing elements which are ignored.
func parseSuggestPayload(payload string) ([]string, error) {
	var parts []json.RawMessage
	err := json.Unmarshal([]byte(payload), &parts)
	if err != nil {
		return nil, fmt.Errorf("parse suggest response: %w", err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("parse suggest response: expected at least 2 elements, got %d", len(parts))
	}
	var phrases []string
	err = json.Unmarshal(parts[1], &phrases)
	if err != nil {
		return nil, fmt.Errorf("parse suggest response: %w", err)
	}
	return phrases, nil
}

func (s Service) fetchVariant(ctx context.Context, query string) ([]string, error) {
	target := suggestEndpoint + url.QueryEscape(query)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, "suggest", target)
		if err == nil {
			return parseSuggestPayload(cached)
		}
		if err != fetchcache.ErrNotFound {
			slog.WarnContext(ctx, "failed to read suggest cache", "err", err)
		}
	}

	payload, err := proxyfetch.FetchText(ctx, s.fetcher, target)
	if err != nil {
		return nil, err
	}
	phrases, err := parseSuggestPayload(payload)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		err = s.cache.Set(ctx, "suggest", target, payload)
		if err != nil {
			slog.WarnContext(ctx, "failed to write suggest cache", "err", err)
		}
	}
	return phrases, nil
}

// fanout fetches every variant concurrently and aggregates whatever
// succeeded. It fails only when every single variant failed.
func (s Service) fanout(ctx context.Context, seed string, variants []string) ([]Suggestion, error) {
	var phrases []string
	var errList []error
	resultLock := sync.Mutex{}
	wg := sync.WaitGroup{}

	for _, variant := range variants {
		wg.Add(1)
		go func() {
			defer wg.Done()

			fetched, err := s.fetchVariant(ctx, variant)

			resultLock.Lock()
			defer resultLock.Unlock()
			if err != nil {
				slog.ErrorContext(ctx, "failed to fetch suggest variant", "variant", variant, "err", err)
				errList = append(errList, err)
				return
			}
			phrases = append(phrases, fetched...)
		}()
	}

	wg.Wait()

	if len(errList) == len(variants) {
		return nil, errors.Join(errList...)
	}
	return rankSuggestions(seed, phrases), nil
}

// rankSuggestions normalizes, dedupes and sorts phrases by similarity to
// the seed, descending. Ties break alphabetically to keep output stable.
func rankSuggestions(seed string, phrases []string) []Suggestion {
	normalizedSeed := textutil.NormalizePhrase(seed)

	seen := map[string]bool{}
	var out []Suggestion
	for _, phrase := range phrases {
		normalized := textutil.NormalizePhrase(phrase)
		if normalized == "" {
			continue
		}
		key := textutil.Key(phrase)
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, Suggestion{
			Phrase:    normalized,
			Seed:      seed,
			Relevance: matchr.JaroWinkler(normalized, normalizedSeed, false),
		})
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		if a.Relevance > b.Relevance {
			return -1
		}
		if a.Relevance < b.Relevance {
			return 1
		}
		return strings.Compare(a.Phrase, b.Phrase)
	})
	return out
}

// Autocomplete runs a single suggest query for the keyword as typed.
func (s Service) Autocomplete(ctx context.Context, keyword string) ([]Suggestion, error) {
	ctx, span := tracer.Start(ctx, "Autocomplete")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", keyword))

	phrases, err := s.fetchVariant(ctx, keyword)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch suggestions")
		return nil, err
	}

	out := rankSuggestions(keyword, phrases)
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

func expandVariants(keyword string) []string {
	variants := []string{keyword}
	for letter := 'a'; letter <= 'z'; letter++ {
		variants = append(variants, fmt.Sprintf("%s %c", keyword, letter))
	}
	return variants
}

// Expand fans out over "keyword a" through "keyword z" plus the bare
// keyword, surfacing the long tail a single query never shows.
func (s Service) Expand(ctx context.Context, keyword string) ([]Suggestion, error) {
	ctx, span := tracer.Start(ctx, "Expand")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", keyword))

	out, err := s.fanout(ctx, keyword, expandVariants(keyword))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "every variant failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

var questionPrefixes = []string{"how", "what", "why", "when", "where", "which", "can"}

// comparison words read naturally after the keyword, not before it
var comparisonSuffixes = []string{"vs", "for", "without"}

func questionVariants(keyword string) []string {
	var variants []string
	for _, prefix := range questionPrefixes {
		variants = append(variants, prefix+" "+keyword)
	}
	for _, suffix := range comparisonSuffixes {
		variants = append(variants, keyword+" "+suffix)
	}
	return variants
}

// Questions fans out over question and comparison phrasings of the
// keyword, the data behind a "questions people ask" panel.
func (s Service) Questions(ctx context.Context, keyword string) ([]Suggestion, error) {
	ctx, span := tracer.Start(ctx, "Questions")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", keyword))

	out, err := s.fanout(ctx, keyword, questionVariants(keyword))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "every variant failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}
