package vecsync

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	"github.com/kailas-cloud/vecsync/internal/usecase/indexsync"
)

// --- syncUseCase mock ---

type mockSyncUC struct {
	runFn func(ctx context.Context, opts indexsync.Options) (indexsync.Report, error)
}

func (m *mockSyncUC) Run(ctx context.Context, opts indexsync.Options) (indexsync.Report, error) {
	return m.runFn(ctx, opts)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn          func(ctx context.Context, p query.Params) (result.Page, error)
	similarFn         func(ctx context.Context, text, portal string) ([]result.Scored, error)
	similarToRecordFn func(ctx context.Context, id, portal string) ([]result.Scored, error)
}

func (m *mockSearchUC) Search(ctx context.Context, p query.Params) (result.Page, error) {
	return m.searchFn(ctx, p)
}

func (m *mockSearchUC) Similar(ctx context.Context, text, portal string) ([]result.Scored, error) {
	return m.similarFn(ctx, text, portal)
}

func (m *mockSearchUC) SimilarToRecord(ctx context.Context, id, portal string) ([]result.Scored, error) {
	return m.similarToRecordFn(ctx, id, portal)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- recordStore mock ---

type mockRecordStore struct {
	calls [][]domain.Record
	err   error
}

func (m *mockRecordStore) Upsert(_ context.Context, records ...domain.Record) error {
	m.calls = append(m.calls, records)
	return m.err
}

// --- in-memory engine ---

type memEngine struct {
	mu      sync.Mutex
	indexes map[string]bool
	docs    map[string]db.Document
	pingErr error
}

func newMemEngine() *memEngine {
	return &memEngine{indexes: map[string]bool{}, docs: map[string]db.Document{}}
}

func (e *memEngine) Ping(context.Context) error { return e.pingErr }

func (e *memEngine) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indexes[def.Name] = true
	return nil
}

func (e *memEngine) DropIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.indexes, name)
	return nil
}

func (e *memEngine) IndexExists(_ context.Context, name string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexes[name], nil
}

func (e *memEngine) BulkUpsert(_ context.Context, _ string, docs []db.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range docs {
		e.docs[d.ID] = d
	}
	return nil
}

func (e *memEngine) BulkDelete(_ context.Context, _ string, ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		delete(e.docs, id)
	}
	return nil
}

func (e *memEngine) Search(context.Context, string, *query.Expression) (*db.SearchResult, error) {
	return &db.SearchResult{}, nil
}

func (e *memEngine) Count(context.Context, string, *query.CountExpression) (int, error) {
	return 0, nil
}

func (e *memEngine) Close() {}

func (e *memEngine) WaitForReady(context.Context, time.Duration) error { return nil }

func (e *memEngine) docCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.docs)
}
