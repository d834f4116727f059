package retrieval

import (
	"context"
	"fmt"
	"sort"
)

// ContextExpander densifies a fused ranking with document-adjacent chunks.
// For each anchor it fetches the chunkIndex window [anchor-window,
// anchor+window] within the anchor's (fileName, courseID, userID) scope and
// merges the neighbors into the stream, deduplicating by id.
type ContextExpander struct {
	neighbors NeighborSource
}

// NewContextExpander creates an expander backed by the given neighbor
// source.
func NewContextExpander(neighbors NeighborSource) *ContextExpander {
	return &ContextExpander{neighbors: neighbors}
}

// Expand merges window neighbors into the anchor stream. Anchor relative
// order (hence fused rank) is preserved; neighbors sit adjacent to the
// anchor that introduced them, in ascending chunkIndex order. A chunk that
// is itself an anchor is only ever emitted at its own anchor position, and
// no id is emitted twice even when windows overlap. RRFScore survives on
// anchors only; expansion-only chunks carry none.
func (e *ContextExpander) Expand(ctx context.Context, userID string, anchors []Chunk, window int) ([]Chunk, error) {
	if window <= 0 || len(anchors) == 0 {
		return anchors, nil
	}

	isAnchor := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		isAnchor[a.ID] = true
	}

	emitted := make(map[string]bool, len(anchors))
	out := make([]Chunk, 0, len(anchors)*(2*window+1))

	for _, anchor := range anchors {
		if emitted[anchor.ID] {
			continue
		}

		win, err := e.neighbors.Neighbors(ctx, userID, anchor.CourseID, anchor.FileName,
			anchor.ChunkIndex-window, anchor.ChunkIndex+window)
		if err != nil {
			return nil, fmt.Errorf("expand context for chunk %s: %w", anchor.ID, err)
		}
		sort.Slice(win, func(i, j int) bool { return win[i].ChunkIndex < win[j].ChunkIndex })

		for _, n := range win {
			if n.ID == anchor.ID {
				// Keep the anchor's fused representation and score.
				emitted[anchor.ID] = true
				out = append(out, anchor)
				continue
			}
			if emitted[n.ID] || isAnchor[n.ID] {
				continue
			}
			n.RRFScore = 0
			emitted[n.ID] = true
			out = append(out, n)
		}

		// The anchor's own row can be missing from the neighbor scan if the
		// document changed between search and expansion; emit it regardless.
		if !emitted[anchor.ID] {
			emitted[anchor.ID] = true
			out = append(out, anchor)
		}
	}

	return out, nil
}
