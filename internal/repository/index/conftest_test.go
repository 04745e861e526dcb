package index

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	bulkUpsertFn  func(ctx context.Context, index string, docs []db.Document) error
	bulkDeleteFn  func(ctx context.Context, index string, ids []string) error

	calls []string
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	m.calls = append(m.calls, "exists")
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	m.calls = append(m.calls, "create")
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	m.calls = append(m.calls, "drop")
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) BulkUpsert(ctx context.Context, index string, docs []db.Document) error {
	m.calls = append(m.calls, "upsert")
	if m.bulkUpsertFn != nil {
		return m.bulkUpsertFn(ctx, index, docs)
	}
	return nil
}

func (m *mockStore) BulkDelete(ctx context.Context, index string, ids []string) error {
	m.calls = append(m.calls, "delete")
	if m.bulkDeleteFn != nil {
		return m.bulkDeleteFn(ctx, index, ids)
	}
	return nil
}

func newTestWriter(t *testing.T) (*Writer, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "datasets", 512, zap.NewNop()), ms
}
