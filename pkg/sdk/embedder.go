package vecsync

import (
	"context"

	"github.com/kailas-cloud/vecsync/internal/domain"
)

// EmbeddingModel vectorizes a batch of texts, one vector per text, in order.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// staticLoader hands out a model the caller already holds.
type staticLoader struct {
	model EmbeddingModel
}

func (l staticLoader) Load(context.Context) (domain.EmbeddingModel, error) {
	return l.model, nil
}
