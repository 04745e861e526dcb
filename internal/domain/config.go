package domain

// Vectorization defaults. text-embedding-3-small supports shortened
// 512-dimension output.
const (
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultVectorDimensions = 512
)
