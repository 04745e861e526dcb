package batch

// Status is the processing outcome of a single batch.
type Status string

// Batch status values.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the outcome of submitting one batch to the engine.
type Result struct {
	index  int
	size   int
	status Status
	err    error
}

// NewOK creates a successful batch result.
func NewOK(index, size int) Result { return Result{index: index, size: size, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(index, size int, err error) Result {
	return Result{index: index, size: size, status: StatusError, err: err}
}

// Index returns the zero-based batch position.
func (r Result) Index() int { return r.index }

// Size returns the number of operations in the batch.
func (r Result) Size() int { return r.size }

// Status returns the processing outcome.
func (r Result) Status() Status { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
