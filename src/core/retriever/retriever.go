package retriever

import (
	"context"
	"fmt"

	"docintel/src/storage/weaviate"
)

const DefaultTopK = 4

// Chunk is one retrieved span of document text with its provenance.
type Chunk struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
}

// VectorSearcher is the slice of the Weaviate SDK the retriever needs.
type VectorSearcher interface {
	QueryNearVector(ctx context.Context, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error)
	QueryHybrid(ctx context.Context, vector []float32, config weaviate.HybridConfig) ([]weaviate.QueryResult, error)
}

// Embedder turns the query into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever embeds a query and fetches the nearest chunks from the index.
type Retriever struct {
	vectors  VectorSearcher
	embedder Embedder
	hybrid   bool
	alpha    float32
}

type Option func(r *Retriever)

// WithHybrid switches retrieval to hybrid (vector + BM25) search.
func WithHybrid(alpha float32) Option {
	return func(r *Retriever) {
		r.hybrid = true
		r.alpha = alpha
	}
}

func NewRetriever(vectors VectorSearcher, embedder Embedder, opts ...Option) *Retriever {
	r := &Retriever{
		vectors:  vectors,
		embedder: embedder,
		alpha:    0.75,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve returns the top-k chunks most relevant to the query.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Chunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var results []weaviate.QueryResult
	if r.hybrid {
		config := weaviate.DefaultHybridConfig(query)
		config.Alpha = r.alpha
		config.Limit = k
		results, err = r.vectors.QueryHybrid(ctx, embedding, config)
	} else {
		results, err = r.vectors.QueryNearVector(ctx, embedding, weaviate.QueryConfig{Limit: k})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	chunks := make([]Chunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, Chunk{
			Content:    result.Content,
			Source:     result.Source,
			DocumentID: result.DocumentID,
			Page:       result.Page,
			Score:      result.Score,
		})
	}

	return chunks, nil
}
