package vecsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "opensearch" or "redis"
	addrs      []string
	username   string
	password   string
	vectorType string
	awsSigV4   bool
	awsRegion  string

	index     string
	keyPrefix string

	recordsPath string

	model         EmbeddingModel
	openAI        *openAIConfig
	dimensions    int
	skipEmbedding bool

	pageSize        int
	uploadBatchSize int
	deleteBatchSize int
	similarLimit    int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

type openAIConfig struct {
	apiKey  string
	baseURL string
	model   string
}

// WithOpenSearch configures the client to index into an OpenSearch cluster.
func WithOpenSearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverOpenSearch
		c.addrs = addrs
	})
}

// WithRedis configures the client to index into Redis with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBasicAuth sets engine credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithAWSSigV4 signs OpenSearch requests for Amazon OpenSearch Service.
func WithAWSSigV4(region string) Option {
	return optionFunc(func(c *clientConfig) {
		c.awsSigV4 = true
		c.awsRegion = region
	})
}

// WithDenseVector maps vectors as dense_vector instead of knn_vector.
func WithDenseVector() Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorType = "dense_vector"
	})
}

// WithIndex sets the search index name. Default: "datasets".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithKeyPrefix sets the Redis key prefix for indexed records. Default: "dataset:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithRecordStore sets the SQLite record store path.
// Default ":memory:", a private database that lives as long as the client.
func WithRecordStore(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.recordsPath = path
	})
}

// WithOpenAI vectorizes through an OpenAI-compatible embeddings API.
// An empty baseURL uses the OpenAI default.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model}
	})
}

// WithEmbeddingModel vectorizes through a caller-supplied model.
// Takes precedence over WithOpenAI.
func WithEmbeddingModel(m EmbeddingModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = m
	})
}

// WithVectorDimensions sets the embedding vector length. Default: 512.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithSkipEmbedding writes zero vectors and never loads a model.
func WithSkipEmbedding() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipEmbedding = true
	})
}

// WithSyncBatching sets the record page size and the upload and delete batch sizes.
// Zero keeps the default (500, 100, 100).
func WithSyncBatching(pageSize, uploadBatch, deleteBatch int) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = pageSize
		c.uploadBatchSize = uploadBatch
		c.deleteBatchSize = deleteBatch
	})
}

// WithSimilarLimit caps similarity results. Default: 50.
func WithSimilarLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.similarLimit = n
	})
}

// WithLogger enables structured logging. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
