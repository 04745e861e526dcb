package domain

import "context"

// EmbeddingModel maps a batch of texts to vectors, one per text, in order.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelLoader produces an EmbeddingModel handle. Loading may be slow.
type ModelLoader interface {
	Load(ctx context.Context) (EmbeddingModel, error)
}

// HealthChecker verifies collaborator availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
