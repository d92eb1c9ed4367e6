// Package proxyfetch fetches URLs through an ordered list of public CORS
// relays. Relays are unreliable in uncorrelated ways, so each one gets
// bounded retries before the next is tried; the first successful payload
// wins.
package proxyfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"seoassist-backend/lib/restyutil"
	"seoassist-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Strategy names one relay: how to wrap a target URL into the relay's
// request URL and how to unwrap the relay's response body back into the
// target's payload.
type Strategy struct {
	Name     string
	BuildURL func(target string) string
	Unwrap   func(body []byte) (string, error)
}

// Config is immutable after construction; tests inject strategy lists
// pointing at local servers.
type Config struct {
	// tried in order. order encodes observed reliability, not correctness.
	Strategies          []Strategy
	AttemptsPerStrategy int
	AttemptTimeout      time.Duration
	RetryDelay          time.Duration
}

func DefaultConfig() Config {
	return Config{
		Strategies:          DefaultStrategies(),
		AttemptsPerStrategy: 2,
		AttemptTimeout:      time.Second * 15,
		RetryDelay:          time.Second,
	}
}

// Attempt is the transient bookkeeping record for one relay request.
type Attempt struct {
	Strategy string
	Number   int
	Err      error
}

type Fetcher struct {
	cfg    Config
	client *resty.Client
}

func NewFetcher(cfg Config) *Fetcher {
	client := resty.New()
	client.SetTimeout(cfg.AttemptTimeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "seoassist.lib.proxyfetch")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	return &Fetcher{cfg: cfg, client: client}
}

// Fetch retrieves target through the relay list and applies interpret to
// the first successful payload. An interpreter failure returns
// immediately; retrying other relays would only re-fetch the same bytes.
func Fetch[T any](ctx context.Context, f *Fetcher, target string, interpret func(raw string) (T, error)) (T, error) {
	var zero T
	raw, err := f.fetchRaw(ctx, target)
	if err != nil {
		return zero, err
	}
	out, err := interpret(raw)
	if err != nil {
		return zero, err
	}
	return out, nil
}

func FetchText(ctx context.Context, f *Fetcher, target string) (string, error) {
	return Fetch(ctx, f, target, func(raw string) (string, error) {
		return raw, nil
	})
}

func FetchJSON[T any](ctx context.Context, f *Fetcher, target string) (T, error) {
	return Fetch(ctx, f, target, func(raw string) (T, error) {
		var out T
		err := json.Unmarshal([]byte(raw), &out)
		if err != nil {
			return out, fmt.Errorf("unmarshal payload: %w", err)
		}
		return out, nil
	})
}

func (f *Fetcher) fetchRaw(ctx context.Context, target string) (string, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("target", target))

	if len(f.cfg.Strategies) == 0 {
		err := fmt.Errorf("no proxy strategies configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var attempts []Attempt
	record := func(strategy string, number int, err error) {
		attempts = append(attempts, Attempt{Strategy: strategy, Number: number, Err: err})
		slog.WarnContext(
			ctx, "relay attempt failed",
			"relay", strategy,
			"attempt", number,
			"err", err,
		)
		span.AddEvent("attempt failed", trace.WithAttributes(
			attribute.String("relay", strategy),
			attribute.Int("attempt", number),
			attribute.String("err", err.Error()),
		))
	}

	for _, strategy := range f.cfg.Strategies {
		for number := 1; number <= f.cfg.AttemptsPerStrategy; number++ {
			res, err := f.client.R().
				SetContext(ctx).
				Get(strategy.BuildURL(target))
			if err != nil {
				if ctx.Err() != nil {
					// the caller gave up, not the relay
					span.RecordError(ctx.Err())
					span.SetStatus(codes.Error, "context done")
					return "", ctx.Err()
				}
				record(strategy.Name, number, fmt.Errorf("request: %w", err))
				if number < f.cfg.AttemptsPerStrategy {
					err = f.waitRetry(ctx)
					if err != nil {
						return "", err
					}
					continue
				}
				break
			}

			if res.IsError() {
				// a relay that answers with an error status will keep
				// answering with it, skip straight to the next one
				record(strategy.Name, number, fmt.Errorf(
					"relay %s: unexpected status %d",
					strategy.Name, res.StatusCode(),
				))
				break
			}

			raw, err := strategy.Unwrap(res.Body())
			if err == nil && strings.TrimSpace(raw) == "" {
				err = fmt.Errorf("relay %s: empty payload", strategy.Name)
			}
			if err != nil {
				record(strategy.Name, number, err)
				if number < f.cfg.AttemptsPerStrategy {
					err = f.waitRetry(ctx)
					if err != nil {
						return "", err
					}
					continue
				}
				break
			}

			slog.DebugContext(
				ctx, "fetch succeeded",
				"relay", strategy.Name,
				"attempt", number,
				"bytes", len(raw),
			)
			span.SetAttributes(
				attribute.String("relay", strategy.Name),
				attribute.Int("failed_attempts", len(attempts)),
			)
			return raw, nil
		}
	}

	err := newFetchError(attempts)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return "", err
}

func (f *Fetcher) waitRetry(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.cfg.RetryDelay):
		return nil
	}
}
