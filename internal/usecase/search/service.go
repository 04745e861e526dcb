package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

// Service handles keyword/facet search and similarity ranking.
type Service struct {
	repo         Repository
	records      RecordReader
	vectors      Vectorizer
	defaultLimit int
	similarLimit int
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultLimit sets the page size used when a request has no limit.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithSimilarLimit caps the number of similarity results.
func WithSimilarLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.similarLimit = n
		}
	}
}

// New creates a search service.
func New(repo Repository, records RecordReader, vectors Vectorizer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		records:      records,
		vectors:      vectors,
		defaultLimit: query.DefaultLimit,
		similarLimit: query.DefaultSimilarLimit,
		logger:       logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search returns one window of matching ids plus the exact total.
// Engine failures propagate.
func (s *Service) Search(ctx context.Context, p query.Params) (result.Page, error) {
	if p.Limit == 0 {
		p.Limit = s.defaultLimit
	}
	expr, count, err := query.Build(p)
	if err != nil {
		return result.Page{}, err
	}
	page, err := s.repo.Find(ctx, &expr, &count)
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}
	return page, nil
}

// Similar ranks records by cosine similarity to text, optionally within one portal.
// Engine failures are logged and yield no results.
func (s *Service) Similar(ctx context.Context, text, portal string) ([]result.Scored, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidRequest)
	}

	vec, err := s.vectors.EmbedOne(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	expr := query.Similar(vec, portal, s.similarLimit)
	hits, err := s.repo.Rank(ctx, &expr)
	if err != nil {
		s.logger.Error("Similarity search failed, returning no results",
			zap.String("portal", portal),
			zap.Error(err),
		)
		return []result.Scored{}, nil
	}
	if len(hits) == 0 {
		return []result.Scored{}, nil
	}

	records, err := s.records.FindByIDs(ctx, result.IDs(hits))
	if err != nil {
		return nil, fmt.Errorf("resolve records: %w", err)
	}
	return result.Pair(hits, records), nil
}

// SimilarToRecord ranks records similar to an existing one.
func (s *Service) SimilarToRecord(ctx context.Context, id, portal string) ([]result.Scored, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return s.Similar(ctx, rec.EmbeddingText(), portal)
}
