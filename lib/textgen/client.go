// Package textgen wraps an OpenAI-compatible chat completion endpoint
// behind a single Complete call. Providers are interchangeable as long as
// they speak the same wire format, the base url picks which one answers.
package textgen

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mazen160/go-random"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("seoassist.lib.textgen")

type Config struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

type Client struct {
	ai    openai.Client
	model string
}

func NewClient(config Config) Client {
	opts := []option.RequestOption{
		option.WithAPIKey(config.ApiKey),
	}
	if config.BaseUrl != "" {
		opts = append(opts, option.WithBaseURL(config.BaseUrl))
	}
	opts = append(opts, option.WithMiddleware(traceMiddleware))

	return Client{
		ai:    openai.NewClient(opts...),
		model: config.Model,
	}
}

func traceMiddleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	start := time.Now()

	requestId := req.Header.Get("x-request-id")
	if requestId == "" {
		generated, err := random.String(12)
		if err == nil {
			requestId = "seo_" + generated
			req.Header.Set("x-request-id", requestId)
		}
	}

	res, err := next(req)
	if err != nil {
		slog.ErrorContext(
			req.Context(), "model request failed",
			"request_id", requestId,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"err", err,
		)
		return nil, err
	}
	slog.DebugContext(
		req.Context(), "model request",
		"request_id", requestId,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"status", res.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Complete sends one system+user exchange and returns the assistant text.
func (c Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", c.model),
		attribute.Int("prompt_chars", len(user)),
	)

	res, err := c.ai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(res.Choices) == 0 {
		err := fmt.Errorf("chat completion: model returned no choices")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	out := strings.TrimSpace(res.Choices[0].Message.Content)
	if out == "" {
		err := fmt.Errorf("chat completion: model returned an empty message")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("completion_chars", len(out)))
	return out, nil
}
