package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector of the wrong length.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrModelUnavailable signals that the embedding model could not be loaded.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrEmbeddingFailed signals a failed embedding call against a loaded model.
	ErrEmbeddingFailed = errors.New("embedding request failed")
	// ErrLengthMismatch signals records and vectors that cannot be paired.
	ErrLengthMismatch = errors.New("records and vectors length mismatch")
	// ErrIndexCreationFailed signals a failed index creation. Logged, not fatal.
	ErrIndexCreationFailed = errors.New("index creation failed")
	// ErrBulkWriteFailed signals an engine-reported failure of an upsert batch.
	ErrBulkWriteFailed = errors.New("bulk write failed")
	// ErrBulkDeleteFailed signals an engine-reported failure of a delete batch.
	ErrBulkDeleteFailed = errors.New("bulk delete failed")
	// ErrEngineQueryFailed signals a failed search or count against the engine.
	ErrEngineQueryFailed = errors.New("engine query failed")
)

// BatchOp names the kind of bulk batch.
type BatchOp string

// Bulk batch kinds.
const (
	BatchWrite  BatchOp = "write"
	BatchDelete BatchOp = "delete"
)

// BatchError reports which batch failed. It matches ErrBulkWriteFailed or
// ErrBulkDeleteFailed with errors.Is, as well as the engine error.
type BatchError struct {
	Op    BatchOp
	Batch int // zero-based position within its sequence
	Size  int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: batch %d (%d ops): %v", e.sentinel(), e.Batch+1, e.Size, e.Err)
}

func (e *BatchError) Unwrap() []error { return []error{e.sentinel(), e.Err} }

func (e *BatchError) sentinel() error {
	if e.Op == BatchDelete {
		return ErrBulkDeleteFailed
	}
	return ErrBulkWriteFailed
}

// NewBatchError creates a BatchError.
func NewBatchError(op BatchOp, batch, size int, err error) error {
	return &BatchError{Op: op, Batch: batch, Size: size, Err: err}
}

// StageError names the sync stage that aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }
