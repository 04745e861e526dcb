package indexsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	dombatch "github.com/kailas-cloud/vecsync/internal/domain/batch"
	"github.com/kailas-cloud/vecsync/internal/metrics"
	"github.com/kailas-cloud/vecsync/internal/repository/index"
)

// Defaults for Config.
const (
	DefaultPageSize        = 500
	DefaultUploadBatchSize = 100
	DefaultDeleteBatchSize = 100
)

// Config holds the sizing of a sync run.
type Config struct {
	PageSize        int
	UploadBatchSize int
	DeleteBatchSize int
}

func (c *Config) applyDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.UploadBatchSize <= 0 {
		c.UploadBatchSize = DefaultUploadBatchSize
	}
	if c.DeleteBatchSize <= 0 {
		c.DeleteBatchSize = DefaultDeleteBatchSize
	}
}

// Options are the per-run parameters.
type Options struct {
	// Recreate drops an existing index before population. Default false.
	Recreate bool
	// Watermark limits population to records updated at or after it.
	Watermark time.Time
	// IDsToDelete are purged from the index after population. Default empty.
	IDsToDelete []string
	// PortalIDs scopes population. Nil means every portal; an empty
	// non-nil slice matches nothing.
	PortalIDs []string
	// SkipEmbedding writes zero vectors instead of calling the model. Default false.
	SkipEmbedding bool
}

// Report summarizes a run. On failure it describes the applied prefix.
type Report struct {
	RunID    string
	State    State
	Index    index.Outcome
	Total    int
	Pages    int
	Applied  int
	Written  int
	Deleted  int
	Batches  []dombatch.Result
	Duration time.Duration
}

// Service runs the EnsuringIndex, Populating and Deleting stages in order.
type Service struct {
	records RecordReader
	writer  IndexWriter
	vectors Vectorizer
	cfg     Config
	logger  *zap.Logger
}

// New creates a sync service.
func New(records RecordReader, writer IndexWriter, vectors Vectorizer, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	return &Service{records: records, writer: writer, vectors: vectors, cfg: cfg, logger: logger}
}

// run carries the mutable state of one invocation.
type run struct {
	opts   Options
	state  State
	report Report
	batch  int
	logger *zap.Logger
}

// Run executes one sync. The first error aborts the run; it is returned as a
// *domain.StageError and the report's State is StateFailed.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()
	id := uuid.NewString()
	r := &run{
		opts:   opts,
		state:  StateIdle,
		report: Report{RunID: id},
		logger: s.logger.With(zap.String("run_id", id), zap.String("index", s.writer.Name())),
	}
	r.logger.Info("Sync started",
		zap.Bool("recreate", opts.Recreate),
		zap.Time("watermark", opts.Watermark),
		zap.Int("ids_to_delete", len(opts.IDsToDelete)),
		zap.Strings("portal_ids", opts.PortalIDs),
		zap.Bool("skip_embedding", opts.SkipEmbedding),
	)

	err := s.execute(ctx, r)

	r.report.Duration = time.Since(start)
	r.report.State = r.state
	metrics.SyncRunDuration.Observe(r.report.Duration.Seconds())
	metrics.SyncRunsTotal.WithLabelValues(string(r.state)).Inc()

	if err != nil {
		r.logger.Error("Sync failed",
			zap.Int("pages_applied", r.report.Applied),
			zap.Int("written", r.report.Written),
			zap.Int("deleted", r.report.Deleted),
			zap.Duration("took", r.report.Duration),
			zap.Error(err),
		)
		return r.report, err
	}
	r.logger.Info("Sync completed",
		zap.Int("total", r.report.Total),
		zap.Int("written", r.report.Written),
		zap.Int("deleted", r.report.Deleted),
		zap.Duration("took", r.report.Duration),
	)
	return r.report, nil
}

func (s *Service) execute(ctx context.Context, r *run) error {
	stages := []struct {
		state State
		fn    func(context.Context, *run) error
	}{
		{StateEnsuringIndex, s.ensureIndex},
		{StatePopulating, s.populate},
		{StateDeleting, s.purge},
	}
	for _, st := range stages {
		r.transition(st.state)
		if err := st.fn(ctx, r); err != nil {
			r.transition(StateFailed)
			return &domain.StageError{Stage: string(st.state), Err: err}
		}
	}
	r.transition(StateDone)
	return nil
}

func (r *run) transition(to State) {
	if !canTransition(r.state, to) {
		panic(fmt.Sprintf("indexsync: invalid transition %s -> %s", r.state, to))
	}
	r.logger.Info("Sync state changed", zap.String("from", string(r.state)), zap.String("to", string(to)))
	r.state = to
	publishState(to)
}

func (s *Service) ensureIndex(ctx context.Context, r *run) error {
	outcome, err := s.writer.EnsureIndex(ctx, r.opts.Recreate)
	if err != nil {
		return err
	}
	r.report.Index = outcome
	return nil
}

func (s *Service) populate(ctx context.Context, r *run) error {
	total, err := s.count(ctx, r.opts)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	r.report.Total = total
	r.report.Pages = dombatch.Count(total, s.cfg.PageSize)
	r.logger.Info("Populating index",
		zap.Int("total", total),
		zap.Int("pages", r.report.Pages),
		zap.Int("page_size", s.cfg.PageSize),
	)

	for page := range r.report.Pages {
		records, err := s.records.FindPage(ctx, s.cfg.PageSize, page*s.cfg.PageSize, r.opts.PortalIDs, r.opts.Watermark)
		if err != nil {
			return fmt.Errorf("page %d: fetch: %w", page+1, err)
		}
		if len(records) == 0 {
			r.logger.Warn("Empty page, record set shrank since counting",
				zap.Int("page", page+1),
				zap.Int("pages", r.report.Pages),
			)
			return nil
		}
		r.logger.Info("Processing page",
			zap.Int("page", page+1),
			zap.Int("pages", r.report.Pages),
			zap.Int("records", len(records)),
			zap.String("first_id", records[0].ID),
		)

		if err = s.applyPage(ctx, r, records); err != nil {
			return fmt.Errorf("page %d: %w", page+1, err)
		}
		r.report.Applied++
		metrics.SyncPagesTotal.Inc()
	}
	return nil
}

func (s *Service) count(ctx context.Context, opts Options) (int, error) {
	if opts.PortalIDs != nil {
		return s.records.CountForPortals(ctx, opts.PortalIDs, opts.Watermark)
	}
	return s.records.CountAll(ctx, opts.Watermark)
}

func (s *Service) applyPage(ctx context.Context, r *run, records []domain.Record) error {
	var vectors [][]float32
	if !r.opts.SkipEmbedding {
		var err error
		vectors, err = s.vectors.Embed(ctx, domain.EmbeddingTexts(records))
		if err != nil {
			return fmt.Errorf("vectorize: %w", err)
		}
	}

	docs, err := domain.BuildDocuments(records, vectors, s.vectors.Dimensions())
	if err != nil {
		return err
	}

	chunks := dombatch.Partition(docs, s.cfg.UploadBatchSize)
	for j, chunk := range chunks {
		r.logger.Debug("Uploading sub-batch",
			zap.Int("sub_batch", j+1),
			zap.Int("sub_batches", len(chunks)),
			zap.Int("size", len(chunk)),
		)
		if err := s.writer.WriteBatch(ctx, r.batch, chunk); err != nil {
			r.record(dombatch.NewError(r.batch, len(chunk), err), domain.BatchWrite)
			return err
		}
		r.record(dombatch.NewOK(r.batch, len(chunk)), domain.BatchWrite)
		r.report.Written += len(chunk)
		metrics.SyncDocumentsTotal.WithLabelValues(string(domain.BatchWrite)).Add(float64(len(chunk)))
		r.batch++
	}
	return nil
}

func (s *Service) purge(ctx context.Context, r *run) error {
	if len(r.opts.IDsToDelete) == 0 {
		return nil
	}

	chunks := dombatch.Partition(r.opts.IDsToDelete, s.cfg.DeleteBatchSize)
	r.logger.Info("Deleting documents",
		zap.Int("ids", len(r.opts.IDsToDelete)),
		zap.Int("batches", len(chunks)),
	)
	for i, chunk := range chunks {
		if err := s.writer.DeleteBatch(ctx, i, chunk); err != nil {
			r.record(dombatch.NewError(i, len(chunk), err), domain.BatchDelete)
			return err
		}
		r.record(dombatch.NewOK(i, len(chunk)), domain.BatchDelete)
		r.report.Deleted += len(chunk)
		metrics.SyncDocumentsTotal.WithLabelValues(string(domain.BatchDelete)).Add(float64(len(chunk)))
	}
	return nil
}

func (r *run) record(res dombatch.Result, op domain.BatchOp) {
	r.report.Batches = append(r.report.Batches, res)
	metrics.SyncBatchesTotal.WithLabelValues(string(op), string(res.Status())).Inc()
}
