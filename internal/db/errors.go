package db

import "errors"

// Sentinel errors for engine operations.
var (
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	// ErrUnsupportedClause is returned when a driver cannot render a query clause.
	ErrUnsupportedClause = errors.New("db: unsupported query clause")
)

// Op names used for error context.
const (
	OpPing        = "ping"
	OpIndexExists = "index_exists"
	OpCreateIndex = "create_index"
	OpDropIndex   = "drop_index"
	OpBulkUpsert  = "bulk_upsert"
	OpBulkDelete  = "bulk_delete"
	OpSearch      = "search"
	OpCount       = "count"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
