//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage creates a test storage instance and ensures collection exists.
// Skips test if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	storage, err := NewQdrantStorage("localhost", 6334)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	err = storage.EnsureCollection(context.Background())
	require.NoError(t, err, "Failed to ensure collection")

	return storage
}

// testEmbedding returns a uniform embedding of the given value.
func testEmbedding(value float32) []float32 {
	embedding := make([]float32, VectorDimension)
	for i := range embedding {
		embedding[i] = value
	}
	return embedding
}

// testChunk builds a chunk at the given index within a document scope.
func testChunk(userID, courseID, fileName string, index int, value float32) *Chunk {
	return &Chunk{
		ID:           uuid.New().String(),
		UserID:       userID,
		CourseID:     courseID,
		DocumentType: "lecture_notes",
		FileName:     fileName,
		ChunkIndex:   index,
		Content:      "Chunk content",
		Metadata:     map[string]string{"source": "test"},
		Embedding:    testEmbedding(value),
	}
}

func TestChunkSearchRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	// Use unique user to avoid conflicts with other tests
	userID := "test-search-" + uuid.New().String()
	courseID := "cs101"

	chunk := testChunk(userID, courseID, "lecture-01.md", 0, 0.1)
	chunk.Content = "Introduction to binary search trees"
	chunk.Metadata = map[string]string{
		"source": "dir:lecture-01.md",
		"topics": "trees, search",
	}

	err := storage.UpsertChunks(ctx, []*Chunk{chunk})
	require.NoError(t, err, "Failed to upsert chunks")

	// Search chunks with same embedding and scope filter
	results, err := storage.SearchChunks(ctx, testEmbedding(0.1), userID, courseID, 10, 0.3)
	require.NoError(t, err, "Failed to search chunks")

	// Assert chunk is found with full payload
	require.Len(t, results, 1, "Expected 1 search result")

	result := results[0]
	assert.Equal(t, chunk.ID, result.Chunk.ID)
	assert.Equal(t, chunk.UserID, result.Chunk.UserID)
	assert.Equal(t, chunk.CourseID, result.Chunk.CourseID)
	assert.Equal(t, chunk.DocumentType, result.Chunk.DocumentType)
	assert.Equal(t, chunk.FileName, result.Chunk.FileName)
	assert.Equal(t, chunk.ChunkIndex, result.Chunk.ChunkIndex)
	assert.Equal(t, chunk.Content, result.Chunk.Content)
	assert.Equal(t, chunk.Metadata, result.Chunk.Metadata)
	assert.Greater(t, result.Score, 0.0, "Score should be greater than 0")
	assert.LessOrEqual(t, result.Score, 1.0, "Score should be at most 1.0")
}

func TestScopeIsolation(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	userA := "test-iso-a-" + uuid.New().String()
	userB := "test-iso-b-" + uuid.New().String()

	err := storage.UpsertChunks(ctx, []*Chunk{
		testChunk(userA, "cs101", "notes.md", 0, 0.1),
		testChunk(userA, "cs102", "notes.md", 0, 0.1),
		testChunk(userB, "cs101", "notes.md", 0, 0.1),
	})
	require.NoError(t, err)

	// Search scoped to userA/cs101 must not see userB or cs102 chunks
	results, err := storage.SearchChunks(ctx, testEmbedding(0.1), userA, "cs101", 10, 0.0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, userA, results[0].Chunk.UserID)
	assert.Equal(t, "cs101", results[0].Chunk.CourseID)

	// Empty course scope searches the whole user corpus
	results, err = storage.SearchChunks(ctx, testEmbedding(0.1), userA, "", 10, 0.0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCountChunks(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	userID := "test-count-" + uuid.New().String()

	chunks := make([]*Chunk, 5)
	for i := range chunks {
		chunks[i] = testChunk(userID, "cs101", "notes.md", i, 0.2)
	}
	err := storage.UpsertChunks(ctx, chunks)
	require.NoError(t, err)

	count, err := storage.CountChunks(ctx, userID, "cs101")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Non-existent course counts zero
	count, err = storage.CountChunks(ctx, userID, "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNeighborChunks(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	userID := "test-neighbor-" + uuid.New().String()
	courseID := "cs101"
	fileName := "lecture-03.md"

	chunks := make([]*Chunk, 8)
	for i := range chunks {
		chunks[i] = testChunk(userID, courseID, fileName, i, 0.3)
	}
	err := storage.UpsertChunks(ctx, chunks)
	require.NoError(t, err)

	// Wait for Qdrant to index points (eventual consistency)
	time.Sleep(100 * time.Millisecond)

	neighbors, err := storage.NeighborChunks(ctx, userID, courseID, fileName, 2, 5)
	require.NoError(t, err, "Failed to fetch neighbors")

	require.Len(t, neighbors, 4)
	for i, neighbor := range neighbors {
		assert.Equal(t, 2+i, neighbor.ChunkIndex, "Neighbors should be ordered by chunk index")
		assert.Equal(t, fileName, neighbor.FileName)
	}

	// Negative lower bound clamps to the document start
	neighbors, err = storage.NeighborChunks(ctx, userID, courseID, fileName, -2, 1)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, 0, neighbors[0].ChunkIndex)
}

func TestListFileNames(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	userID := "test-list-" + uuid.New().String()
	files := []string{"assignment-1.md", "lecture-01.md", "syllabus.md"}

	var chunks []*Chunk
	for _, file := range files {
		// Two chunks per file to verify deduplication
		chunks = append(chunks,
			testChunk(userID, "cs101", file, 0, 0.4),
			testChunk(userID, "cs101", file, 1, 0.4),
		)
	}
	err := storage.UpsertChunks(ctx, chunks)
	require.NoError(t, err)

	// Wait for Qdrant to index points (eventual consistency)
	time.Sleep(100 * time.Millisecond)

	result, err := storage.ListFileNames(ctx, userID, "cs101")
	require.NoError(t, err, "Failed to list file names")
	assert.Equal(t, files, result, "File names should be deduplicated and sorted")
}

func TestClearCourse(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	userID := "test-clear-" + uuid.New().String()

	err := storage.UpsertChunks(ctx, []*Chunk{
		testChunk(userID, "cs101", "notes.md", 0, 0.5),
		testChunk(userID, "cs102", "notes.md", 0, 0.5),
	})
	require.NoError(t, err)

	err = storage.ClearCourse(ctx, userID, "cs101")
	require.NoError(t, err, "Failed to clear course")

	// Wait for the delete to apply
	time.Sleep(100 * time.Millisecond)

	count, err := storage.CountChunks(ctx, userID, "cs101")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "Cleared course should have no chunks")

	count, err = storage.CountChunks(ctx, userID, "cs102")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Other courses must be untouched")
}

func TestBatchChunkUpsert(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	userID := "test-batch-" + uuid.New().String()

	// Create 250 chunks (more than one batch of 100)
	chunks := make([]*Chunk, 250)
	for i := range chunks {
		chunks[i] = testChunk(userID, "cs101", "big-transcript.txt", i, 0.5)
	}

	err := storage.UpsertChunks(ctx, chunks)
	require.NoError(t, err, "Failed to upsert batch of chunks")

	count, err := storage.CountChunks(ctx, userID, "cs101")
	require.NoError(t, err)
	assert.Equal(t, 250, count)
}

func TestDimensionValidation(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	wrongChunk := testChunk("test-dim", "cs101", "notes.md", 0, 0.1)
	wrongChunk.Embedding = make([]float32, 512) // Wrong dimension

	err := storage.UpsertChunks(ctx, []*Chunk{wrongChunk})
	assert.ErrorIs(t, err, ErrDimensionMismatch, "Should reject wrong embedding dimension")

	_, err = storage.SearchChunks(ctx, make([]float32, 512), "test-dim", "cs101", 10, 0.0)
	assert.ErrorIs(t, err, ErrDimensionMismatch, "Should reject wrong query dimension")
}

func TestPersistence(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	userID := "test-persist-" + uuid.New().String()
	chunk := testChunk(userID, "cs101", "syllabus.md", 0, 0.6)
	chunk.Content = "This content must survive reconnection."

	err := storage.UpsertChunks(ctx, []*Chunk{chunk})
	require.NoError(t, err, "Failed to upsert chunk")

	// Close the connection (simulates application restart)
	err = storage.Close()
	require.NoError(t, err, "Failed to close storage")

	// Create NEW storage connection (simulates restart)
	storage2, err := NewQdrantStorage("localhost", 6334)
	require.NoError(t, err, "Failed to reconnect to Qdrant")
	defer storage2.Close()

	results, err := storage2.SearchChunks(ctx, testEmbedding(0.6), userID, "cs101", 10, 0.0)
	require.NoError(t, err, "Failed to search after reconnection")
	require.Len(t, results, 1)
	assert.Equal(t, chunk.ID, results[0].Chunk.ID)
	assert.Equal(t, chunk.Content, results[0].Chunk.Content)
}
