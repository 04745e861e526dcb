package search

import (
	"context"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

// Repository executes query expressions against the index.
type Repository interface {
	Find(ctx context.Context, expr *query.Expression, count *query.CountExpression) (result.Page, error)
	Rank(ctx context.Context, expr *query.Expression) ([]result.Hit, error)
}

// RecordReader resolves ids to records.
type RecordReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Record, error)
	Get(ctx context.Context, id string) (domain.Record, error)
}

// Vectorizer embeds a query text.
type Vectorizer interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}
