package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studyloop/course-rag-mcp/internal/retrieval"
	"github.com/studyloop/course-rag-mcp/internal/storage"
)

// makeRetrieveHandler creates the retrieve_course_context tool handler. It
// maps the tool input onto a retrieval request, applies the per-call
// timeout, and flattens the response envelope for the wire.
func makeRetrieveHandler(orchestrator *retrieval.Orchestrator, timeout time.Duration) func(
	context.Context, *mcp.CallToolRequest, RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RetrieveInput) (
		*mcp.CallToolResult, RetrieveOutput, error,
	) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		window := retrieval.DefaultContextWindow
		if input.ExpandContextWindow != nil {
			window = *input.ExpandContextWindow
		}

		result, err := orchestrator.Retrieve(ctx, retrieval.Request{
			Query:         input.Query,
			UserID:        input.UserID,
			CourseID:      input.CourseID,
			TopK:          input.TopK,
			ContextWindow: window,
		})
		if err != nil {
			return nil, RetrieveOutput{}, fmt.Errorf("retrieval failed: %w", err)
		}

		results := make([]ChunkResult, 0, len(result.Results))
		for _, chunk := range result.Results {
			results = append(results, ChunkResult{
				ID:           chunk.ID,
				CourseID:     chunk.CourseID,
				DocumentType: chunk.DocumentType,
				FileName:     chunk.FileName,
				ChunkIndex:   chunk.ChunkIndex,
				Content:      chunk.Content,
				Similarity:   chunk.Similarity,
				RRFScore:     chunk.RRFScore,
				Metadata:     chunk.Metadata,
			})
		}

		output := RetrieveOutput{
			Results:         results,
			QueryVariations: result.QueryVariations,
			FinalChunkCount: result.FinalChunkCount,
			Strategy:        string(result.Strategy),
		}
		if len(results) == 0 {
			output.Message = "No matching course material found. Try broader terms or check that the course has been ingested."
		}

		return nil, output, nil
	}
}

// makeStatusHandler creates the corpus_status tool handler. It reports the
// corpus size together with the retrieval tier that size maps to.
func makeStatusHandler(store *storage.QdrantStorage) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		count, err := store.CountChunks(ctx, input.UserID, input.CourseID)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to count chunks: %w", err)
		}

		return nil, StatusOutput{
			ChunkCount: count,
			Strategy:   string(retrieval.SelectStrategy(count)),
		}, nil
	}
}

// makeListDocumentsHandler creates the list_documents tool handler.
func makeListDocumentsHandler(store *storage.QdrantStorage) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		names, err := store.ListFileNames(ctx, input.UserID, input.CourseID)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}
		if names == nil {
			names = []string{}
		}

		return nil, ListDocumentsOutput{
			FileNames: names,
			Count:     len(names),
		}, nil
	}
}
