package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/metrics"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
	Logger            *zap.Logger
}

// Loader opens an OpenAI-compatible embedding model (e.g. Nebius, OpenAI).
type Loader struct {
	cfg    Config
	client *openai.Client
}

// NewLoader creates a loader. No network calls are made until Load.
func NewLoader(cfg *Config) *Loader {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	c := *cfg
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &Loader{cfg: c, client: openai.NewClientWithConfig(clientCfg)}
}

// Load probes the provider and returns a model handle.
// Providers that list models must list the configured one.
func (l *Loader) Load(ctx context.Context) (domain.EmbeddingModel, error) {
	start := time.Now()
	list, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", l.cfg.Model, parseAPIError(err, domain.ErrModelUnavailable))
	}
	if len(list.Models) > 0 && !slices.ContainsFunc(list.Models, func(m openai.Model) bool {
		return m.ID == l.cfg.Model
	}) {
		return nil, fmt.Errorf("model %q not served by provider: %w", l.cfg.Model, domain.ErrModelUnavailable)
	}

	l.cfg.Logger.Info("Embedding model loaded",
		zap.String("model", l.cfg.Model),
		zap.Int("dimensions", l.cfg.Dimensions),
		zap.Duration("took", time.Since(start)),
	)
	return newModel(l.client, &l.cfg), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (l *Loader) HealthCheck(ctx context.Context) error {
	if _, err := l.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Model embeds text batches with one provider request per batch.
type Model struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func newModel(client *openai.Client, cfg *Config) *Model {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Model{
		client:     client,
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     cfg.Logger,
	}
}

// Embed implements domain.EmbeddingModel. Vectors come back in input order.
func (m *Model) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding throttle: %w", err)
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          m.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           m.user,
	}
	if m.dimensions > 0 {
		req.Dimensions = m.dimensions
	}

	model := string(m.model)
	start := time.Now()
	resp, err := m.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(model, "api_error").Inc()
		return nil, parseAPIError(err, domain.ErrEmbeddingFailed)
	}

	if len(resp.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(model, "count_mismatch").Inc()
		return nil, fmt.Errorf("got %d embeddings for %d texts: %w",
			len(resp.Data), len(texts), domain.ErrEmbeddingFailed)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			metrics.EmbeddingErrorsTotal.WithLabelValues(model, "bad_index").Inc()
			return nil, fmt.Errorf("unexpected embedding index %d: %w", d.Index, domain.ErrEmbeddingFailed)
		}
		out[d.Index] = d.Embedding
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	metrics.EmbeddingTextsTotal.WithLabelValues(model).Add(float64(len(texts)))
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(model).Add(float64(resp.Usage.TotalTokens))
	}

	m.logger.Debug("Embedded batch",
		zap.Int("texts", len(texts)),
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Duration("took", duration),
	)
	return out, nil
}

// parseAPIError extracts a human-readable error from the API response and wraps it with sentinel.
func parseAPIError(err, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("%w: %w", sentinel, err)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
