package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTopK is the result count used when the caller does not request
	// one.
	DefaultTopK = 10

	// MaxTopK is a hard ceiling on returned chunks regardless of caller
	// input.
	MaxTopK = 15

	// DefaultContextWindow is the neighborhood radius used by the full
	// strategy when the caller does not specify one.
	DefaultContextWindow = 2

	// MinSimilarity filters out weakly related chunks on every backend
	// search call.
	MinSimilarity = 0.3

	// fusionOverFetch is extra per-variant headroom requested under the
	// full strategy so fusion has enough candidates to reorder.
	fusionOverFetch = 5

	// mediumVariantCount caps fan-out width under the medium strategy.
	mediumVariantCount = 2
)

// Request carries the parameters of one retrieval call.
type Request struct {
	Query    string
	UserID   string
	CourseID string // empty scopes the search to the user's whole corpus

	// TopK is the requested result count. Values <= 0 use DefaultTopK;
	// the effective value is always capped at MaxTopK.
	TopK int

	// ContextWindow is the neighborhood radius for the full strategy.
	// Negative values use DefaultContextWindow; zero disables expansion.
	ContextWindow int
}

// Result is the response envelope of one retrieval call.
type Result struct {
	Results         []Chunk
	QueryVariations []string
	FinalChunkCount int
	Strategy        Strategy
}

// Orchestrator coordinates one retrieval call end to end: corpus sizing,
// strategy selection, concurrent fan-out over query variants, rank fusion,
// and context expansion. It holds no cross-call state and performs no
// writes; each call is a single pass with no retry loop.
type Orchestrator struct {
	searcher Searcher
	counter  Counter
	expander QueryExpander
	contexts *ContextExpander
	logger   *slog.Logger
}

// NewOrchestrator wires the orchestrator to its collaborators. The context
// expander may be nil when neighborhood expansion is not available; the
// full strategy then behaves like medium with wider fan-out.
func NewOrchestrator(searcher Searcher, counter Counter, expander QueryExpander, contexts *ContextExpander, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		searcher: searcher,
		counter:  counter,
		expander: expander,
		contexts: contexts,
		logger:   logger,
	}
}

// Retrieve runs one retrieval call and returns either a complete result or
// a single error; there is no partial-result mode. Any failure of a
// concurrent search branch or of query expansion fails the whole call.
func (o *Orchestrator) Retrieve(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUser
	}

	finalTopK := req.TopK
	if finalTopK <= 0 {
		finalTopK = DefaultTopK
	}
	if finalTopK > MaxTopK {
		finalTopK = MaxTopK
	}

	window := req.ContextWindow
	if window < 0 {
		window = DefaultContextWindow
	}

	chunkCount := o.chunkCount(ctx, req.UserID, req.CourseID)
	strategy := SelectStrategy(chunkCount)
	o.logger.Info("strategy selected",
		"strategy", strategy,
		"chunk_count", chunkCount,
		"user_id", req.UserID,
		"course_id", req.CourseID,
		"top_k", finalTopK,
	)

	var (
		results    []Chunk
		variations []string
		err        error
	)
	switch strategy {
	case StrategySimple:
		results, variations, err = o.retrieveSimple(ctx, query, req.UserID, req.CourseID, chunkCount, finalTopK)
	case StrategyMedium:
		results, variations, err = o.retrieveMedium(ctx, query, req.UserID, req.CourseID, finalTopK)
	default:
		results, variations, err = o.retrieveFull(ctx, query, req.UserID, req.CourseID, finalTopK, window)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Results:         results,
		QueryVariations: variations,
		FinalChunkCount: len(results),
		Strategy:        strategy,
	}, nil
}

// chunkCount resolves the corpus size for strategy selection. Lookup
// failures are swallowed and mapped to zero, which routes to the cheapest
// strategy; they never affect the correctness of returned chunks.
func (o *Orchestrator) chunkCount(ctx context.Context, userID, courseID string) int {
	count, err := o.counter.CountChunks(ctx, userID, courseID)
	if err != nil {
		o.logger.Warn("chunk count lookup failed, assuming empty corpus", "error", err)
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}

// retrieveSimple issues one search with the raw query. topK is bounded by
// the corpus size when the size is known.
func (o *Orchestrator) retrieveSimple(ctx context.Context, query, userID, courseID string, chunkCount, finalTopK int) ([]Chunk, []string, error) {
	topK := finalTopK
	if chunkCount > 0 && chunkCount < topK {
		topK = chunkCount
	}

	chunks, err := o.searcher.Search(ctx, query, userID, courseID, topK, MinSimilarity)
	if err != nil {
		return nil, nil, fmt.Errorf("search failed: %w", err)
	}
	return chunks, []string{query}, nil
}

// retrieveMedium fans out the first two query variants and fuses the two
// ranked lists.
func (o *Orchestrator) retrieveMedium(ctx context.Context, query, userID, courseID string, finalTopK int) ([]Chunk, []string, error) {
	variations, err := o.expandQuery(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	if len(variations) > mediumVariantCount {
		variations = variations[:mediumVariantCount]
	}

	lists, err := o.searchAll(ctx, variations, userID, courseID, finalTopK)
	if err != nil {
		return nil, nil, err
	}

	fused := FuseRanked(lists, DefaultRRFK)
	o.logger.Info("fusion complete", "lists", len(lists), "fused", len(fused))

	return truncate(fused, finalTopK), variations, nil
}

// retrieveFull fans out all variants with over-fetch headroom, fuses, then
// densifies the top anchors with contiguous neighbors before the final
// truncation.
func (o *Orchestrator) retrieveFull(ctx context.Context, query, userID, courseID string, finalTopK, window int) ([]Chunk, []string, error) {
	variations, err := o.expandQuery(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	lists, err := o.searchAll(ctx, variations, userID, courseID, finalTopK+fusionOverFetch)
	if err != nil {
		return nil, nil, err
	}

	fused := FuseRanked(lists, DefaultRRFK)
	o.logger.Info("fusion complete", "lists", len(lists), "fused", len(fused))

	anchors := truncate(fused, finalTopK+fusionOverFetch)

	merged := anchors
	if o.contexts != nil {
		merged, err = o.contexts.Expand(ctx, userID, anchors, window)
		if err != nil {
			return nil, nil, err
		}
		o.logger.Info("expansion complete", "anchors", len(anchors), "merged", len(merged), "window", window)
	}

	return truncate(merged, finalTopK), variations, nil
}

// expandQuery calls the query expansion backend, guarding against an empty
// variant list.
func (o *Orchestrator) expandQuery(ctx context.Context, query string) ([]string, error) {
	variations, err := o.expander.Expand(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query expansion failed: %w", err)
	}
	if len(variations) == 0 {
		variations = []string{query}
	}
	return variations, nil
}

// searchAll issues one search per variant concurrently and waits for all of
// them (fan-out/join barrier). The first branch error fails the whole call
// and cancels the remaining branches through the group context; list order
// follows variant order, never completion order.
func (o *Orchestrator) searchAll(ctx context.Context, variants []string, userID, courseID string, topK int) ([][]Chunk, error) {
	o.logger.Info("dispatching search fan-out", "variants", len(variants), "top_k", topK)

	lists := make([][]Chunk, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		g.Go(func() error {
			chunks, err := o.searcher.Search(gctx, variant, userID, courseID, topK, MinSimilarity)
			if err != nil {
				return fmt.Errorf("search variant %d failed: %w", i, err)
			}
			lists[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

func truncate(chunks []Chunk, limit int) []Chunk {
	if len(chunks) > limit {
		return chunks[:limit]
	}
	return chunks
}
