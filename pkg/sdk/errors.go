package vecsync

import "github.com/kailas-cloud/vecsync/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrInvalidRequest      = domain.ErrInvalidRequest
	ErrVectorDimMismatch   = domain.ErrVectorDimMismatch
	ErrModelUnavailable    = domain.ErrModelUnavailable
	ErrEmbeddingFailed     = domain.ErrEmbeddingFailed
	ErrLengthMismatch      = domain.ErrLengthMismatch
	ErrBulkWriteFailed     = domain.ErrBulkWriteFailed
	ErrBulkDeleteFailed    = domain.ErrBulkDeleteFailed
	ErrEngineQueryFailed   = domain.ErrEngineQueryFailed
	ErrIndexCreationFailed = domain.ErrIndexCreationFailed
)

// StageError names the sync stage that aborted a run. Use errors.As.
type StageError = domain.StageError

// BatchError names the bulk batch that failed. Use errors.As.
type BatchError = domain.BatchError
