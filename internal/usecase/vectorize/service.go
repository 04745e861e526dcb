package vectorize

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// Service turns text batches into fixed-dimension vectors.
// The model is loaded on first use and kept for the process lifetime.
type Service struct {
	loader ModelLoader
	dim    int
	skip   bool
	logger *zap.Logger

	model atomic.Pointer[handle]
	group singleflight.Group
}

type handle struct{ m domain.EmbeddingModel }

// Option configures a Service.
type Option func(*Service)

// WithSkip makes every call return zero vectors without touching the model.
func WithSkip(skip bool) Option {
	return func(s *Service) { s.skip = skip }
}

// New creates a vectorizer. dim <= 0 falls back to domain.DefaultVectorDimensions.
func New(loader ModelLoader, dim int, logger *zap.Logger, opts ...Option) *Service {
	if dim <= 0 {
		dim = domain.DefaultVectorDimensions
	}
	s := &Service{loader: loader, dim: dim, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dimensions returns the vector length produced by Embed.
func (s *Service) Dimensions() int { return s.dim }

// Skipped reports whether embedding is disabled.
func (s *Service) Skipped() bool { return s.skip }

// Loaded reports whether the model handle is ready.
func (s *Service) Loaded() bool { return s.model.Load() != nil }

// Embed returns one vector per text, in order.
// A load failure is returned as domain.ErrModelUnavailable and retried on the next call.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.skip {
		return domain.ZeroVectors(len(texts), s.dim), nil
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	m, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	vecs, err := m.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: %d texts, %d vectors", domain.ErrLengthMismatch, len(texts), len(vecs))
	}
	for i, v := range vecs {
		if len(v) != s.dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, want %d",
				domain.ErrVectorDimMismatch, i, len(v), s.dim)
		}
	}
	return vecs, nil
}

// EmbedOne embeds a single text.
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *Service) load(ctx context.Context) (domain.EmbeddingModel, error) {
	if h := s.model.Load(); h != nil {
		return h.m, nil
	}

	v, err, _ := s.group.Do("model", func() (any, error) {
		if h := s.model.Load(); h != nil {
			return h.m, nil
		}
		s.logger.Info("Loading embedding model")
		m, err := s.loader.Load(ctx)
		if err != nil {
			s.logger.Error("Embedding model load failed", zap.Error(err))
			return nil, err
		}
		s.model.Store(&handle{m: m})
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	return v.(domain.EmbeddingModel), nil
}
