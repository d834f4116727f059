package retrieval

import (
	"math"
	"testing"
)

func chunkWithID(id string) Chunk {
	return Chunk{ID: id, FileName: "notes.md", Content: "content " + id}
}

// TestFuseRanked_ScoreAccumulation verifies the textbook RRF case: with
// A = [x, y, z] and B = [y, x, w] and k=60, x and y tie with 1/61 + 1/62
// and rank above z and w (1/63 each); equal scores break by id.
func TestFuseRanked_ScoreAccumulation(t *testing.T) {
	listA := []Chunk{chunkWithID("x"), chunkWithID("y"), chunkWithID("z")}
	listB := []Chunk{chunkWithID("y"), chunkWithID("x"), chunkWithID("w")}

	fused := FuseRanked([][]Chunk{listA, listB}, 60)

	if len(fused) != 4 {
		t.Fatalf("expected 4 fused chunks, got %d", len(fused))
	}

	wantOrder := []string{"x", "y", "w", "z"}
	for i, want := range wantOrder {
		if fused[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, fused[i].ID)
		}
	}

	pairScore := 1.0/61.0 + 1.0/62.0
	singleScore := 1.0 / 63.0
	if math.Abs(fused[0].RRFScore-pairScore) > 1e-12 {
		t.Errorf("score(x): expected %v, got %v", pairScore, fused[0].RRFScore)
	}
	if math.Abs(fused[1].RRFScore-pairScore) > 1e-12 {
		t.Errorf("score(y): expected %v, got %v", pairScore, fused[1].RRFScore)
	}
	if math.Abs(fused[2].RRFScore-singleScore) > 1e-12 {
		t.Errorf("score(w): expected %v, got %v", singleScore, fused[2].RRFScore)
	}
}

// TestFuseRanked_SelfFusionPreservesOrder verifies fusing a list with
// itself keeps the original relative order.
func TestFuseRanked_SelfFusionPreservesOrder(t *testing.T) {
	list := []Chunk{chunkWithID("a"), chunkWithID("b"), chunkWithID("c"), chunkWithID("d")}

	fused := FuseRanked([][]Chunk{list, list}, 60)

	if len(fused) != len(list) {
		t.Fatalf("expected %d chunks, got %d", len(list), len(fused))
	}
	for i := range list {
		if fused[i].ID != list[i].ID {
			t.Errorf("position %d: expected %s, got %s", i, list[i].ID, fused[i].ID)
		}
	}
	for i := 1; i < len(fused); i++ {
		if fused[i].RRFScore >= fused[i-1].RRFScore {
			t.Errorf("scores not strictly descending at position %d", i)
		}
	}
}

// TestFuseRanked_BestRankRepresentationWins verifies that when the same id
// carries differing snapshots across lists, the one from the list with the
// better rank is kept.
func TestFuseRanked_BestRankRepresentationWins(t *testing.T) {
	stale := Chunk{ID: "shared", Content: "stale snapshot", Similarity: 0.4}
	fresh := Chunk{ID: "shared", Content: "fresh snapshot", Similarity: 0.9}

	listA := []Chunk{chunkWithID("a"), chunkWithID("b"), stale} // rank 2
	listB := []Chunk{fresh, chunkWithID("c")}                   // rank 0

	fused := FuseRanked([][]Chunk{listA, listB}, 60)

	for _, c := range fused {
		if c.ID == "shared" {
			if c.Content != "fresh snapshot" {
				t.Errorf("expected best-rank representation, got %q", c.Content)
			}
			return
		}
	}
	t.Fatal("shared chunk missing from fused output")
}

// TestFuseRanked_EmptyInput verifies fusing nothing yields nothing.
func TestFuseRanked_EmptyInput(t *testing.T) {
	if got := FuseRanked(nil, 60); len(got) != 0 {
		t.Errorf("expected empty output, got %d chunks", len(got))
	}
	if got := FuseRanked([][]Chunk{{}, {}}, 60); len(got) != 0 {
		t.Errorf("expected empty output for empty lists, got %d chunks", len(got))
	}
}
