package vecsync

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain"
	dombatch "github.com/kailas-cloud/vecsync/internal/domain/batch"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
	"github.com/kailas-cloud/vecsync/internal/usecase/indexsync"
)

// Record is a dataset record as stored and indexed.
type Record struct {
	ID           string
	Name         string
	Description  string
	PortalID     string
	Department   string
	Categories   []string
	ColumnFields []string
	IsTest       bool
	UpdatedAt    time.Time
}

// SyncOptions are the per-run sync parameters.
type SyncOptions struct {
	// Recreate drops the index before populating it.
	Recreate bool
	// Watermark limits population to records updated at or after it. Zero means all.
	Watermark time.Time
	// DeleteIDs are purged from the index after population.
	DeleteIDs []string
	// PortalIDs scopes population. Nil means every portal.
	PortalIDs []string
	// SkipEmbedding writes zero vectors for this run.
	SkipEmbedding bool
}

// BatchResult is the outcome of one bulk batch.
type BatchResult struct {
	Index int
	Size  int
	OK    bool
	Err   error
}

// SyncReport summarizes a sync run. On failure it covers the applied prefix.
type SyncReport struct {
	RunID        string
	State        string
	IndexOutcome string
	Total        int
	Pages        int
	Applied      int
	Written      int
	Deleted      int
	Batches      []BatchResult
	Duration     time.Duration
}

// SearchQuery is a keyword search with facet filters.
type SearchQuery struct {
	Term        string
	Portal      string
	Columns     []string
	Categories  []string
	Departments []string
	Offset      int
	Limit       int
}

// SearchPage is one window of keyword results. Total counts every match.
type SearchPage struct {
	IDs   []string
	Total int
}

// ScoredRecord is a similarity hit.
type ScoredRecord struct {
	Record Record
	Score  float64
}

func toDomainRecord(r *Record) (domain.Record, error) {
	if r.ID == "" {
		return domain.Record{}, fmt.Errorf("%w: record id is required", domain.ErrInvalidRequest)
	}
	return domain.Record{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		PortalID:          r.PortalID,
		Department:        r.Department,
		Categories:        r.Categories,
		ColumnFields:      r.ColumnFields,
		IsTest:            r.IsTest,
		MetadataUpdatedAt: r.UpdatedAt,
	}, nil
}

func fromDomainRecord(r *domain.Record) Record {
	return Record{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		PortalID:     r.PortalID,
		Department:   r.Department,
		Categories:   r.Categories,
		ColumnFields: r.ColumnFields,
		IsTest:       r.IsTest,
		UpdatedAt:    r.MetadataUpdatedAt,
	}
}

func toSyncOptions(o *SyncOptions) indexsync.Options {
	return indexsync.Options{
		Recreate:      o.Recreate,
		Watermark:     o.Watermark,
		IDsToDelete:   o.DeleteIDs,
		PortalIDs:     o.PortalIDs,
		SkipEmbedding: o.SkipEmbedding,
	}
}

func fromSyncReport(r *indexsync.Report) SyncReport {
	out := SyncReport{
		RunID:        r.RunID,
		State:        string(r.State),
		IndexOutcome: string(r.Index),
		Total:        r.Total,
		Pages:        r.Pages,
		Applied:      r.Applied,
		Written:      r.Written,
		Deleted:      r.Deleted,
		Duration:     r.Duration,
	}
	if len(r.Batches) > 0 {
		out.Batches = make([]BatchResult, len(r.Batches))
		for i, b := range r.Batches {
			out.Batches[i] = BatchResult{
				Index: b.Index(),
				Size:  b.Size(),
				OK:    b.Status() == dombatch.StatusOK,
				Err:   b.Err(),
			}
		}
	}
	return out
}

func toQueryParams(q *SearchQuery) query.Params {
	return query.Params{
		Term:        q.Term,
		Portal:      q.Portal,
		Columns:     q.Columns,
		Categories:  q.Categories,
		Departments: q.Departments,
		Offset:      q.Offset,
		Limit:       q.Limit,
	}
}

func fromScored(items []result.Scored) []ScoredRecord {
	out := make([]ScoredRecord, len(items))
	for i := range items {
		out[i] = ScoredRecord{Record: fromDomainRecord(&items[i].Record), Score: items[i].Score}
	}
	return out
}
