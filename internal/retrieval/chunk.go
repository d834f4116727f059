// Package retrieval implements query-cost-adaptive multi-query retrieval
// over a per-user, per-course chunk corpus: strategy selection by corpus
// size, concurrent fan-out over query variants, Reciprocal Rank Fusion of
// the resulting ranked lists, and context-window expansion of the winners.
package retrieval

import "context"

// Chunk is a retrievable unit of course-document text. ChunkIndex defines
// document order within (FileName, CourseID) and is assigned at ingest
// time; this package never reassigns it.
type Chunk struct {
	ID           string
	CourseID     string // empty for course-agnostic chunks
	DocumentType string
	FileName     string
	ChunkIndex   int
	Content      string

	// Similarity is the backend-assigned relevance in [0,1]. It is only
	// meaningful within the single ranked list that produced it; fusion
	// never reads it.
	Similarity float64

	// RRFScore is set on fused output only. Zero means the chunk was not
	// ranked by fusion (e.g. it entered the result set through context
	// expansion).
	RRFScore float64

	Metadata map[string]string
}

// Searcher is the vector retrieval backend contract. Implementations return
// at most topK chunks sorted by descending similarity, filtered to
// similarity >= minSimilarity, scoped to (userID, courseID) when courseID is
// non-empty and to userID alone otherwise.
type Searcher interface {
	Search(ctx context.Context, query, userID, courseID string, topK int, minSimilarity float64) ([]Chunk, error)
}

// Counter reports the corpus size for a (userID, courseID) scope. Errors
// are tolerated by the orchestrator and mapped to a zero count.
type Counter interface {
	CountChunks(ctx context.Context, userID, courseID string) (int, error)
}

// QueryExpander generates alternate phrasings of a query. The returned
// slice is non-empty; the first element need not equal the input verbatim.
type QueryExpander interface {
	Expand(ctx context.Context, query string) ([]string, error)
}

// NeighborSource fetches chunks by chunkIndex range within a single
// document scope, ordered by ascending ChunkIndex.
type NeighborSource interface {
	Neighbors(ctx context.Context, userID, courseID, fileName string, fromIndex, toIndex int) ([]Chunk, error)
}
