package vecsync

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain"
	dombatch "github.com/kailas-cloud/vecsync/internal/domain/batch"
	"github.com/kailas-cloud/vecsync/internal/usecase/indexsync"
)

// syncUseCase is the internal interface for sync runs.
type syncUseCase interface {
	Run(ctx context.Context, opts indexsync.Options) (indexsync.Report, error)
}

// recordStore is the internal interface for record imports.
type recordStore interface {
	Upsert(ctx context.Context, records ...domain.Record) error
}

// Sync ensures the index exists, writes every in-scope record and purges
// opts.DeleteIDs. On failure the report covers what was applied and the
// error is a *StageError.
func (c *Client) Sync(ctx context.Context, opts SyncOptions) (_ SyncReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sync", start, err) }()

	report, err := c.syncSvc.Run(ctx, toSyncOptions(&opts))
	return fromSyncReport(&report), err
}

// Import upserts records into the local record store.
func (c *Client) Import(ctx context.Context, records []Record) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("import", start, err) }()

	converted := make([]domain.Record, len(records))
	for i := range records {
		if converted[i], err = toDomainRecord(&records[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	for i, chunk := range dombatch.Partition(converted, importBatchSize) {
		if err = c.records.Upsert(ctx, chunk...); err != nil {
			return fmt.Errorf("import batch %d: %w", i+1, err)
		}
	}
	return nil
}
