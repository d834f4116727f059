package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyloop/course-rag-mcp/internal/embedding"
	"github.com/studyloop/course-rag-mcp/internal/markdown"
	"github.com/studyloop/course-rag-mcp/internal/metadata"
	"github.com/studyloop/course-rag-mcp/internal/storage"
)

// Result contains statistics about one course ingestion.
type Result struct {
	TotalDocs      int
	TotalChunks    int
	SuccessfulDocs int
	FailedDocs     []FailedDoc
	Duration       time.Duration
}

// FailedDoc represents a document that failed to ingest.
type FailedDoc struct {
	Name   string
	Reason string
}

// Pipeline orchestrates the full ingestion process from source to storage.
type Pipeline struct {
	source    Source
	chunker   *markdown.Chunker
	embedder  *embedding.Embedder
	generator *metadata.Generator // nil skips document metadata generation
	storage   *storage.QdrantStorage
	logger    *slog.Logger
}

// NewPipeline creates an ingestion pipeline with the given components.
func NewPipeline(
	source Source,
	chunker *markdown.Chunker,
	embedder *embedding.Embedder,
	generator *metadata.Generator,
	storage *storage.QdrantStorage,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:    source,
		chunker:   chunker,
		embedder:  embedder,
		generator: generator,
		storage:   storage,
		logger:    logger,
	}
}

// IngestCourse ingests every document the source lists into the (userID,
// courseID) scope. Unparseable documents are skipped and reported, not
// fatal.
func (p *Pipeline) IngestCourse(ctx context.Context, userID, courseID string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	names, err := p.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	result.TotalDocs = len(names)
	p.logger.Info("starting ingestion",
		"user_id", userID, "course_id", courseID, "documents", len(names))

	for _, name := range names {
		chunks, err := p.processDocument(ctx, userID, courseID, name)
		if err != nil {
			p.logger.Warn("failed to ingest document", "name", name, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				Name:   name,
				Reason: err.Error(),
			})
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("ingestion complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	return result, nil
}

// processDocument handles the full pipeline for a single document and
// returns the number of chunks stored.
func (p *Pipeline) processDocument(ctx context.Context, userID, courseID, name string) (int, error) {
	doc, err := p.source.Fetch(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	p.logger.Debug("fetched document", "name", name, "size", len(doc.Content))

	docMeta := p.documentMetadata(ctx, doc)

	chunks, err := p.chunkDocument(doc)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document produced no chunks")
	}
	p.logger.Debug("chunked document", "name", name, "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content // header path prepended for markdown chunks
	}

	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embeddings: %w", err)
	}

	documentType := classifyDocumentType(doc.FileName)
	storageChunks := make([]*storage.Chunk, len(chunks))
	for i, chunk := range chunks {
		storageChunks[i] = &storage.Chunk{
			ID:           uuid.New().String(),
			UserID:       userID,
			CourseID:     courseID,
			DocumentType: documentType,
			FileName:     doc.FileName,
			ChunkIndex:   chunk.Index,
			Content:      chunk.RawContent,
			Metadata:     docMeta,
			Embedding:    embeddings[i],
		}
	}

	if err := p.storage.UpsertChunks(ctx, storageChunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	p.logger.Info("ingested document", "name", name, "type", documentType, "chunks", len(chunks))
	return len(chunks), nil
}

// chunkDocument dispatches on file extension: markdown is split at header
// boundaries, everything else by paragraph grouping.
func (p *Pipeline) chunkDocument(doc *Document) ([]markdown.Chunk, error) {
	switch strings.ToLower(filepath.Ext(doc.FileName)) {
	case ".md", ".markdown":
		return p.chunker.ChunkDocument([]byte(doc.Content))
	default:
		return markdown.SplitPlainText(doc.Content), nil
	}
}

// documentMetadata builds the passthrough metadata stored on every chunk of
// the document. Generation failures degrade to provenance-only metadata.
func (p *Pipeline) documentMetadata(ctx context.Context, doc *Document) map[string]string {
	meta := map[string]string{"source": doc.Origin}

	if p.generator == nil {
		return meta
	}
	generated, err := p.generator.GenerateMetadata(ctx, doc.FileName, doc.Content)
	if err != nil {
		p.logger.Warn("metadata generation failed, storing provenance only",
			"name", doc.FileName, "error", err)
		return meta
	}

	meta["summary"] = generated.Summary
	if len(generated.Topics) > 0 {
		meta["topics"] = strings.Join(generated.Topics, ", ")
	}
	return meta
}

// classifyDocumentType derives a logical document type from the file name.
func classifyDocumentType(fileName string) string {
	name := strings.ToLower(filepath.Base(fileName))
	switch {
	case strings.Contains(name, "syllabus"):
		return "syllabus"
	case strings.Contains(name, "slide"):
		return "slides"
	case strings.Contains(name, "assignment"), strings.Contains(name, "homework"):
		return "assignment"
	case strings.Contains(name, "transcript"):
		return "transcript"
	default:
		return "lecture_notes"
	}
}
