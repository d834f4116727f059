package storage

import (
	"context"
	"fmt"

	"github.com/studyloop/course-rag-mcp/internal/retrieval"
)

// QueryEmbedder turns query text into an embedding vector. Implemented by
// embedding.Embedder.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever adapts the chunk store plus a query embedder to the retrieval
// collaborator ports (Searcher, Counter, NeighborSource).
type Retriever struct {
	store    *QdrantStorage
	embedder QueryEmbedder
}

// NewRetriever creates the retrieval-facing adapter.
func NewRetriever(store *QdrantStorage, embedder QueryEmbedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Search embeds the query variant and runs a scoped similarity search. It
// returns at most topK chunks in descending similarity order, filtered to
// similarity >= minSimilarity.
func (r *Retriever) Search(ctx context.Context, query, userID, courseID string, topK int, minSimilarity float64) ([]retrieval.Chunk, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.store.SearchChunks(ctx, embedding, userID, courseID, topK, minSimilarity)
	if err != nil {
		return nil, err
	}

	chunks := make([]retrieval.Chunk, 0, len(scored))
	for _, sc := range scored {
		chunk := toRetrievalChunk(sc.Chunk)
		chunk.Similarity = sc.Score
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// CountChunks reports the corpus size for strategy selection.
func (r *Retriever) CountChunks(ctx context.Context, userID, courseID string) (int, error) {
	return r.store.CountChunks(ctx, userID, courseID)
}

// Neighbors fetches a chunk_index window within one document scope for
// context expansion.
func (r *Retriever) Neighbors(ctx context.Context, userID, courseID, fileName string, fromIndex, toIndex int) ([]retrieval.Chunk, error) {
	stored, err := r.store.NeighborChunks(ctx, userID, courseID, fileName, fromIndex, toIndex)
	if err != nil {
		return nil, err
	}

	chunks := make([]retrieval.Chunk, 0, len(stored))
	for _, c := range stored {
		chunks = append(chunks, toRetrievalChunk(c))
	}
	return chunks, nil
}

func toRetrievalChunk(c *Chunk) retrieval.Chunk {
	return retrieval.Chunk{
		ID:           c.ID,
		CourseID:     c.CourseID,
		DocumentType: c.DocumentType,
		FileName:     c.FileName,
		ChunkIndex:   c.ChunkIndex,
		Content:      c.Content,
		Metadata:     c.Metadata,
	}
}
