package indexsync

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/repository/index"
)

// RecordReader reads eligible records from the record store.
type RecordReader interface {
	CountAll(ctx context.Context, watermark time.Time) (int, error)
	CountForPortals(ctx context.Context, portalIDs []string, watermark time.Time) (int, error)
	FindPage(ctx context.Context, limit, offset int, portalIDs []string, watermark time.Time) ([]domain.Record, error)
}

// IndexWriter applies documents to the search index.
type IndexWriter interface {
	Name() string
	EnsureIndex(ctx context.Context, recreate bool) (index.Outcome, error)
	WriteBatch(ctx context.Context, batch int, docs []domain.IndexDocument) error
	DeleteBatch(ctx context.Context, batch int, ids []string) error
}

// Vectorizer embeds record texts.
type Vectorizer interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
