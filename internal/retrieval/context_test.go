package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// docNeighborSource serves neighbor lookups from in-memory documents keyed
// by file name. Each document is a dense run of chunk indexes from zero.
type docNeighborSource struct {
	docs map[string]int // fileName -> chunk count
	err  error
}

func (s *docNeighborSource) Neighbors(_ context.Context, _, courseID, fileName string, from, to int) ([]Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	total := s.docs[fileName]
	var out []Chunk
	for i := from; i <= to; i++ {
		if i < 0 || i >= total {
			continue
		}
		out = append(out, Chunk{
			ID:         fmt.Sprintf("%s-%d", fileName, i),
			CourseID:   courseID,
			FileName:   fileName,
			ChunkIndex: i,
			Content:    fmt.Sprintf("section %d of %s", i, fileName),
		})
	}
	return out, nil
}

func anchorChunk(fileName string, index int, score float64) Chunk {
	return Chunk{
		ID:         fmt.Sprintf("%s-%d", fileName, index),
		FileName:   fileName,
		ChunkIndex: index,
		RRFScore:   score,
	}
}

func TestContextExpander_NeighborsAttachedInIndexOrder(t *testing.T) {
	source := &docNeighborSource{docs: map[string]int{"lectures.md": 20}}
	expander := NewContextExpander(source)

	anchors := []Chunk{anchorChunk("lectures.md", 5, 0.03)}
	merged, err := expander.Expand(context.Background(), "user-1", anchors, 2)
	require.NoError(t, err)

	wantIDs := []string{"lectures.md-3", "lectures.md-4", "lectures.md-5", "lectures.md-6", "lectures.md-7"}
	require.Len(t, merged, len(wantIDs))
	for i, want := range wantIDs {
		assert.Equal(t, want, merged[i].ID)
	}

	// Only the anchor keeps its fused score.
	for _, c := range merged {
		if c.ID == "lectures.md-5" {
			assert.Equal(t, 0.03, c.RRFScore)
		} else {
			assert.Zero(t, c.RRFScore, "expansion-only chunk %s should carry no fused score", c.ID)
		}
	}
}

func TestContextExpander_OverlappingWindowsDeduplicate(t *testing.T) {
	source := &docNeighborSource{docs: map[string]int{"lectures.md": 20}}
	expander := NewContextExpander(source)

	// Windows of anchors 5 and 7 overlap on index 6 (and on each other).
	anchors := []Chunk{
		anchorChunk("lectures.md", 5, 0.05),
		anchorChunk("lectures.md", 7, 0.04),
	}
	merged, err := expander.Expand(context.Background(), "user-1", anchors, 2)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, c := range merged {
		assert.False(t, seen[c.ID], "duplicate id %s in merged stream", c.ID)
		seen[c.ID] = true
	}

	// Anchor 7 must not be emitted as a neighbor of anchor 5; it appears
	// once, after anchor 5, holding its fused score.
	var at5, at7 = -1, -1
	for i, c := range merged {
		switch c.ID {
		case "lectures.md-5":
			at5 = i
		case "lectures.md-7":
			at7 = i
			assert.Equal(t, 0.04, c.RRFScore)
		}
	}
	require.NotEqual(t, -1, at5)
	require.NotEqual(t, -1, at7)
	assert.Less(t, at5, at7, "anchor relative order must be preserved")
}

func TestContextExpander_WindowEdgesClamped(t *testing.T) {
	source := &docNeighborSource{docs: map[string]int{"slides.md": 3}}
	expander := NewContextExpander(source)

	anchors := []Chunk{anchorChunk("slides.md", 0, 0.02)}
	merged, err := expander.Expand(context.Background(), "user-1", anchors, 2)
	require.NoError(t, err)

	wantIDs := []string{"slides.md-0", "slides.md-1", "slides.md-2"}
	require.Len(t, merged, len(wantIDs))
	for i, want := range wantIDs {
		assert.Equal(t, want, merged[i].ID)
	}
}

func TestContextExpander_ZeroWindowReturnsAnchors(t *testing.T) {
	source := &docNeighborSource{docs: map[string]int{"lectures.md": 20}}
	expander := NewContextExpander(source)

	anchors := []Chunk{anchorChunk("lectures.md", 5, 0.05), anchorChunk("lectures.md", 9, 0.04)}
	merged, err := expander.Expand(context.Background(), "user-1", anchors, 0)
	require.NoError(t, err)
	assert.Equal(t, anchors, merged)
}

func TestContextExpander_BackendErrorPropagates(t *testing.T) {
	wantErr := errors.New("scroll timeout")
	expander := NewContextExpander(&docNeighborSource{err: wantErr})

	_, err := expander.Expand(context.Background(), "user-1", []Chunk{anchorChunk("lectures.md", 5, 0.05)}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}
