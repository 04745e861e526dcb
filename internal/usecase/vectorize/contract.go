package vectorize

import (
	"context"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// ModelLoader opens the embedding model. Called at most once per successful load.
type ModelLoader interface {
	Load(ctx context.Context) (domain.EmbeddingModel, error)
}
