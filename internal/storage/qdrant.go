package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStorage wraps the Qdrant client with connection management and
// health checks. All chunk reads and writes go through this type.
type QdrantStorage struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs a health check with retry on startup and fails fast if Qdrant
// is unreachable.
func NewQdrantStorage(host string, port int) (*QdrantStorage, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client: client,
		host:   host,
		port:   port,
	}

	if err := storage.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, exponentialBackoff)
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection ensures the course chunk collection exists with proper
// configuration: a named 1536-dim cosine vector plus payload indexes for
// every filterable field. Idempotent - safe to call multiple times.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"content": {
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.createPayloadIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	return nil
}

// createPayloadIndexes creates indexes for all filterable fields. Without
// these, every scoped query degrades to a full payload scan.
func (s *QdrantStorage) createPayloadIndexes(ctx context.Context) error {
	keywordFields := []string{
		"user_id",       // Every query is user-scoped
		"course_id",     // Optional course scope
		"file_name",     // Neighborhood lookups within one document
		"document_type", // Filter by logical document kind
	}

	for _, field := range keywordFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	// chunk_index is queried by range, so it needs an integer index.
	_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: CollectionName,
		FieldName:      "chunk_index",
		FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create index for field chunk_index: %w", err)
	}

	return nil
}

// scopeFilter builds the user/course filter shared by every read path.
// CourseID is optional; when empty, the scope is the user's whole corpus.
func scopeFilter(userID, courseID string) *qdrant.Filter {
	must := []*qdrant.Condition{
		qdrant.NewMatch("user_id", userID),
	}
	if courseID != "" {
		must = append(must, qdrant.NewMatch("course_id", courseID))
	}
	return &qdrant.Filter{Must: must}
}

// upsertWithRetry performs upsert operation with exponential backoff retry.
func (s *QdrantStorage) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// UpsertChunks stores chunks with embeddings, batched in groups of 100.
func (s *QdrantStorage) UpsertChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, chunk := range batch {
			metadata := make(map[string]any, len(chunk.Metadata))
			for k, v := range chunk.Metadata {
				metadata[k] = v
			}

			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					"content": qdrant.NewVector(chunk.Embedding...),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					"user_id":       chunk.UserID,
					"course_id":     chunk.CourseID,
					"document_type": chunk.DocumentType,
					"file_name":     chunk.FileName,
					"chunk_index":   chunk.ChunkIndex,
					"content":       chunk.Content,
					"metadata":      metadata,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// chunkFromPayload rebuilds a chunk from a point payload.
func chunkFromPayload(id string, payload map[string]*qdrant.Value) *Chunk {
	chunk := &Chunk{
		ID:           id,
		UserID:       payload["user_id"].GetStringValue(),
		CourseID:     payload["course_id"].GetStringValue(),
		DocumentType: payload["document_type"].GetStringValue(),
		FileName:     payload["file_name"].GetStringValue(),
		ChunkIndex:   int(payload["chunk_index"].GetIntegerValue()),
		Content:      payload["content"].GetStringValue(),
	}

	if meta := payload["metadata"].GetStructValue(); meta != nil {
		chunk.Metadata = make(map[string]string, len(meta.GetFields()))
		for k, v := range meta.GetFields() {
			chunk.Metadata[k] = v.GetStringValue()
		}
	}

	return chunk
}

// SearchChunks performs vector similarity search scoped to (userID,
// courseID). Results are ordered by descending score and filtered to
// score >= minScore server-side.
func (s *QdrantStorage) SearchChunks(ctx context.Context, embedding []float32, userID, courseID string, limit int, minScore float64) ([]*ScoredChunk, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	vectorName := "content"
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(embedding...),
		Using:          &vectorName,
		Filter:         scopeFilter(userID, courseID),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(float32(minScore)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	scored := make([]*ScoredChunk, 0, len(results))
	for _, result := range results {
		scored = append(scored, &ScoredChunk{
			Chunk: chunkFromPayload(result.Id.GetUuid(), result.Payload),
			Score: float64(result.Score),
		})
	}

	return scored, nil
}

// CountChunks returns the exact number of chunks in a (userID, courseID)
// scope. Used for retrieval strategy selection.
func (s *QdrantStorage) CountChunks(ctx context.Context, userID, courseID string) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: CollectionName,
		Filter:         scopeFilter(userID, courseID),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}

// NeighborChunks fetches chunks with chunk_index in [fromIndex, toIndex]
// within one document scope, ordered by ascending chunk_index. Used for
// context-window expansion around retrieval anchors.
func (s *QdrantStorage) NeighborChunks(ctx context.Context, userID, courseID, fileName string, fromIndex, toIndex int) ([]*Chunk, error) {
	if fromIndex < 0 {
		fromIndex = 0
	}
	if toIndex < fromIndex {
		return nil, nil
	}

	filter := scopeFilter(userID, courseID)
	filter.Must = append(filter.Must,
		qdrant.NewMatch("file_name", fileName),
		qdrant.NewRange("chunk_index", &qdrant.Range{
			Gte: qdrant.PtrOf(float64(fromIndex)),
			Lte: qdrant.PtrOf(float64(toIndex)),
		}),
	)

	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: CollectionName,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(toIndex - fromIndex + 1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll neighbors: %w", err)
	}

	chunks := make([]*Chunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, chunkFromPayload(result.Id.GetUuid(), result.Payload))
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })

	return chunks, nil
}

// ListFileNames returns the distinct document file names in a scope,
// sorted alphabetically. Uses the Scroll API to page through all chunks.
func (s *QdrantStorage) ListFileNames(ctx context.Context, userID, courseID string) ([]string, error) {
	seen := make(map[string]bool)
	var offset *qdrant.PointId
	batchSize := uint32(256)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         scopeFilter(userID, courseID),
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("file_name"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll chunks: %w", err)
		}

		for _, result := range results {
			if name := result.Payload["file_name"].GetStringValue(); name != "" {
				seen[name] = true
			}
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ClearCourse deletes all chunks in a (userID, courseID) scope. Used by
// the sync CLI before re-ingesting a course.
func (s *QdrantStorage) ClearCourse(ctx context.Context, userID, courseID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points:         qdrant.NewPointsSelectorFilter(scopeFilter(userID, courseID)),
	})
	if err != nil {
		return fmt.Errorf("failed to clear course: %w", err)
	}
	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
