package storage

// Chunk is a stored unit of course-document text with its embedding vector.
// ChunkIndex is dense within (UserID, CourseID, FileName) starting at zero
// and defines document order; neighborhood lookups rely on it.
type Chunk struct {
	ID           string // UUID
	UserID       string // owning user, always set
	CourseID     string // course scope, may be empty for user-wide material
	DocumentType string // logical type: "lecture_notes", "syllabus", "slides", ...
	FileName     string // source file name within the course
	ChunkIndex   int    // position in document (0, 1, 2...)
	Content      string
	Metadata     map[string]string // passthrough document metadata (summary, topics, source)
	Embedding    []float32         // 1536-dim vector (text-embedding-3-small)
}

// ScoredChunk pairs a chunk with its similarity score from a vector search.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// CollectionName is the single Qdrant collection for all course chunks.
const CollectionName = "course_chunks"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
