package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
)

// Engine is the search engine facade combining all sub-interfaces.
type Engine interface {
	Pinger
	IndexManager
	BulkWriter
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Document is one upsert payload. Field values are string, []string,
// bool or []float32.
type Document struct {
	ID     string
	Fields map[string]any
}

// BulkWriter submits one bulk request per call.
type BulkWriter interface {
	// BulkUpsert creates missing documents and merges fields into existing ones.
	BulkUpsert(ctx context.Context, index string, docs []Document) error
	BulkDelete(ctx context.Context, index string, ids []string) error
}

// Searcher runs ranked and count queries.
type Searcher interface {
	Search(ctx context.Context, index string, expr *query.Expression) (*SearchResult, error)
	Count(ctx context.Context, index string, expr *query.CountExpression) (int, error)
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	ID     string
	Score  float64
	Fields map[string]string
}
