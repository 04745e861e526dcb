package vecsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
	dbOpenSearch "github.com/kailas-cloud/vecsync/internal/db/opensearch"
	dbRedis "github.com/kailas-cloud/vecsync/internal/db/redis"
	indexrepo "github.com/kailas-cloud/vecsync/internal/repository/index"
	recordrepo "github.com/kailas-cloud/vecsync/internal/repository/record"
	searchrepo "github.com/kailas-cloud/vecsync/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/vecsync/internal/transport/openai"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	"github.com/kailas-cloud/vecsync/internal/usecase/indexsync"
	searchuc "github.com/kailas-cloud/vecsync/internal/usecase/search"
	"github.com/kailas-cloud/vecsync/internal/usecase/vectorize"
)

const (
	driverOpenSearch = "opensearch"
	driverRedis      = "redis"

	defaultReadinessTimeout = 30 * time.Second
	defaultIndex            = "datasets"
	defaultKeyPrefix        = "dataset:"
	defaultDimensions       = domain.DefaultVectorDimensions
	defaultRecordsPath      = ":memory:"
	importBatchSize         = 500
)

// Client keeps a search index in step with a local record store and queries it.
type Client struct {
	engine  db.Engine
	closer  func() error
	records recordStore

	syncSvc   syncUseCase
	searchSvc searchUseCase
	healthSvc healthUseCase

	obs *observer
}

// New connects the record store and the search engine and wires the services.
// One of WithOpenSearch or WithRedis is required.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		index:       defaultIndex,
		keyPrefix:   defaultKeyPrefix,
		dimensions:  defaultDimensions,
		recordsPath: defaultRecordsPath,
		vectorType:  "knn_vector",
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("vecsync: engine address required (use WithOpenSearch or WithRedis)")
	}
	if cfg.model == nil && cfg.openAI == nil && !cfg.skipEmbedding {
		return nil, errors.New("vecsync: embedding model required (use WithOpenAI, WithEmbeddingModel or WithSkipEmbedding)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	engine, err := createEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := engine.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		engine.Close()
		return nil, fmt.Errorf("vecsync: engine not ready: %w", err)
	}

	records, err := recordrepo.Open(ctx, cfg.recordsPath)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("vecsync: open record store: %w", err)
	}

	c := wireClient(engine, records, cfg, obs)
	c.closer = records.Close
	return c, nil
}

func createEngine(ctx context.Context, cfg *clientConfig) (db.Engine, error) {
	switch cfg.driver {
	case driverOpenSearch:
		s, err := dbOpenSearch.NewStore(ctx, dbOpenSearch.Config{
			Addrs:      cfg.addrs,
			Username:   cfg.username,
			Password:   cfg.password,
			VectorType: cfg.vectorType,
			AWSSigV4:   cfg.awsSigV4,
			AWSRegion:  cfg.awsRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("vecsync: create opensearch store: %w", err)
		}
		return s, nil
	case driverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.addrs,
			Username:  cfg.username,
			Password:  cfg.password,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("vecsync: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("vecsync: unknown driver %q", cfg.driver)
	}
}

func wireClient(engine db.Engine, records *recordrepo.Repo, cfg *clientConfig, obs *observer) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// A nil loader is never touched in skip mode.
	var loader vectorize.ModelLoader
	var embeddingCheck healthuc.EmbeddingChecker
	switch {
	case cfg.model != nil:
		loader = staticLoader{model: cfg.model}
	case cfg.openAI != nil:
		l := openaiEmb.NewLoader(&openaiEmb.Config{
			APIKey:     cfg.openAI.apiKey,
			BaseURL:    cfg.openAI.baseURL,
			Model:      cfg.openAI.model,
			Dimensions: cfg.dimensions,
			Logger:     logger,
		})
		loader = l
		embeddingCheck = l
	}
	vectors := vectorize.New(loader, cfg.dimensions, logger, vectorize.WithSkip(cfg.skipEmbedding))

	writer := indexrepo.New(engine, cfg.index, cfg.dimensions, logger, indexrepo.WithKeyPrefix(cfg.keyPrefix))
	syncSvc := indexsync.New(records, writer, vectors, indexsync.Config{
		PageSize:        cfg.pageSize,
		UploadBatchSize: cfg.uploadBatchSize,
		DeleteBatchSize: cfg.deleteBatchSize,
	}, logger)

	searchOpts := []searchuc.Option{}
	if cfg.similarLimit > 0 {
		searchOpts = append(searchOpts, searchuc.WithSimilarLimit(cfg.similarLimit))
	}
	searchSvc := searchuc.New(searchrepo.New(engine, cfg.index), records, vectors, logger, searchOpts...)

	return &Client{
		engine:    engine,
		records:   records,
		syncSvc:   syncSvc,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(engine, records, embeddingCheck),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.engine != nil {
		c.engine.Close()
	}
	if c.closer != nil {
		_ = c.closer()
	}
}

// Ping checks search engine connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
