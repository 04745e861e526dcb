package index

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
)

// store is the consumer interface for index mutation (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	BulkUpsert(ctx context.Context, index string, docs []db.Document) error
	BulkDelete(ctx context.Context, index string, ids []string) error
}

// Outcome describes what EnsureIndex did.
type Outcome string

// EnsureIndex outcomes.
const (
	OutcomeExisting  Outcome = "existing"
	OutcomeCreated   Outcome = "created"
	OutcomeRecreated Outcome = "recreated"
	// OutcomeCreateFailed means creation failed and was logged. Writes will
	// surface the problem.
	OutcomeCreateFailed Outcome = "create_failed"
)

// Writer owns index lifecycle and bulk mutation for one index.
type Writer struct {
	store     store
	name      string
	prefix    string
	vectorDim int
	logger    *zap.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithKeyPrefix sets the key prefix for keyspace-based engines.
func WithKeyPrefix(prefix string) Option {
	return func(w *Writer) { w.prefix = prefix }
}

// New creates an index writer.
func New(s store, name string, vectorDim int, logger *zap.Logger, opts ...Option) *Writer {
	w := &Writer{store: s, name: name, vectorDim: vectorDim, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the index name.
func (w *Writer) Name() string { return w.name }

// EnsureIndex creates the index if it is missing, dropping it first when
// recreate is set. A failed create is logged and reported as
// OutcomeCreateFailed without an error.
func (w *Writer) EnsureIndex(ctx context.Context, recreate bool) (Outcome, error) {
	exists, err := w.store.IndexExists(ctx, w.name)
	if err != nil {
		return "", fmt.Errorf("check index %s: %w", w.name, err)
	}

	if exists && !recreate {
		w.logger.Info("Index exists, not recreating", zap.String("index", w.name))
		return OutcomeExisting, nil
	}

	outcome := OutcomeCreated
	if exists {
		w.logger.Info("Deleting index to recreate it", zap.String("index", w.name))
		if err := w.store.DropIndex(ctx, w.name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return "", fmt.Errorf("drop index %s: %w", w.name, err)
		}
		outcome = OutcomeRecreated
	}

	def, err := Schema(w.name, w.vectorDim, w.prefix)
	if err != nil {
		return "", fmt.Errorf("build schema: %w", err)
	}

	if err := w.store.CreateIndex(ctx, def); err != nil {
		w.logger.Error("Index creation failed, continuing",
			zap.String("index", w.name),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrIndexCreationFailed, err)),
		)
		return OutcomeCreateFailed, nil
	}

	w.logger.Info("Index created", zap.String("index", w.name), zap.String("outcome", string(outcome)))
	return outcome, nil
}

// WriteBatch upserts one batch of documents. batch is the zero-based
// position used in the returned *domain.BatchError.
func (w *Writer) WriteBatch(ctx context.Context, batch int, docs []domain.IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}
	payload := make([]db.Document, len(docs))
	for i := range docs {
		payload[i] = toDocument(&docs[i])
	}
	if err := w.store.BulkUpsert(ctx, w.name, payload); err != nil {
		return domain.NewBatchError(domain.BatchWrite, batch, len(docs), err)
	}
	return nil
}

// DeleteBatch removes one batch of documents by id.
func (w *Writer) DeleteBatch(ctx context.Context, batch int, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.store.BulkDelete(ctx, w.name, ids); err != nil {
		return domain.NewBatchError(domain.BatchDelete, batch, len(ids), err)
	}
	return nil
}
