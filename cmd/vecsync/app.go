package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/config"
	"github.com/kailas-cloud/vecsync/internal/db"
	dbOpenSearch "github.com/kailas-cloud/vecsync/internal/db/opensearch"
	dbRedis "github.com/kailas-cloud/vecsync/internal/db/redis"
	logpkg "github.com/kailas-cloud/vecsync/internal/logger"
	"github.com/kailas-cloud/vecsync/internal/metrics"
	indexrepo "github.com/kailas-cloud/vecsync/internal/repository/index"
	recordrepo "github.com/kailas-cloud/vecsync/internal/repository/record"
	searchrepo "github.com/kailas-cloud/vecsync/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/vecsync/internal/transport/openai"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	"github.com/kailas-cloud/vecsync/internal/usecase/indexsync"
	searchuc "github.com/kailas-cloud/vecsync/internal/usecase/search"
	"github.com/kailas-cloud/vecsync/internal/usecase/vectorize"
	"github.com/kailas-cloud/vecsync/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	engine  db.Engine
	records *recordrepo.Repo
	loader  *openaiEmb.Loader // nil when embedding is skipped
	vectors *vectorize.Service
	writer  *indexrepo.Writer
}

// newApp loads config, connects the record store and, unless recordsOnly, the engine.
func newApp(ctx context.Context, recordsOnly bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting vecsync",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.String("engine_driver", cfg.Engine.Driver),
		zap.Strings("engine_addrs", cfg.Engine.Addrs),
		zap.String("index", cfg.Engine.Index),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSyncMetrics()

	a := &app{cfg: cfg, logger: logger}

	a.records, err = recordrepo.Open(ctx, cfg.Records.Path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if err = a.records.Migrate(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("migrate record store: %w", err)
	}
	if recordsOnly {
		return a, nil
	}

	engine, err := newEngine(ctx, &cfg.Engine)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create engine store: %w", err)
	}
	a.engine = engine
	if err = a.engine.WaitForReady(ctx, cfg.Engine.ReadinessTimeoutDuration()); err != nil {
		a.close()
		return nil, fmt.Errorf("engine not ready: %w", err)
	}
	logger.Info("Connected to search engine")

	// Skipped embedding never touches the loader.
	var loader vectorize.ModelLoader
	if !cfg.Embedding.Skip {
		a.loader = openaiEmb.NewLoader(&openaiEmb.Config{
			APIKey:            cfg.Embedding.APIKey,
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			Dimensions:        cfg.Embedding.Dimensions,
			User:              cfg.Embedding.User,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
			Logger:            logger,
		})
		loader = a.loader
	}
	a.vectors = vectorize.New(loader, cfg.Embedding.Dimensions, logger, vectorize.WithSkip(cfg.Embedding.Skip))

	a.writer = indexrepo.New(a.engine, cfg.Engine.Index, cfg.Embedding.Dimensions, logger,
		indexrepo.WithKeyPrefix(cfg.Engine.KeyPrefix))
	return a, nil
}

func newEngine(ctx context.Context, cfg *config.EngineConfig) (db.Engine, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverOpenSearch:
		store, err := dbOpenSearch.NewStore(ctx, dbOpenSearch.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			VectorType: cfg.VectorType,
			AWSSigV4:   cfg.AWSSigV4,
			AWSRegion:  cfg.AWSRegion,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown engine driver %q", cfg.Driver)
	}
}

func (a *app) syncService() *indexsync.Service {
	return indexsync.New(a.records, a.writer, a.vectors, indexsync.Config{
		PageSize:        a.cfg.Sync.PageSize,
		UploadBatchSize: a.cfg.Sync.UploadBatchSize,
		DeleteBatchSize: a.cfg.Sync.DeleteBatchSize,
	}, a.logger)
}

func (a *app) searchService() *searchuc.Service {
	return searchuc.New(
		searchrepo.New(a.engine, a.cfg.Engine.Index),
		a.records,
		a.vectors,
		a.logger,
		searchuc.WithDefaultLimit(a.cfg.Search.DefaultLimit),
		searchuc.WithSimilarLimit(a.cfg.Search.SimilarLimit),
	)
}

func (a *app) healthService() *healthuc.Service {
	// Pass a nil interface, not a typed nil pointer, when embedding is skipped.
	var embedding healthuc.EmbeddingChecker
	if a.loader != nil {
		embedding = a.loader
	}
	return healthuc.New(a.engine, a.records, embedding)
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.records != nil {
		_ = a.records.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
