package retrieval

import "sort"

// DefaultRRFK dampens the dominance of rank-1 hits so that moderate
// agreement across variants can outrank a single variant's top hit. 60 is
// the value from the original RRF paper and the common default.
const DefaultRRFK = 60

// fusedEntry accumulates per-chunk state during fusion.
type fusedEntry struct {
	chunk    Chunk
	score    float64
	bestRank int
}

// FuseRanked merges N ranked lists into one ranking using Reciprocal Rank
// Fusion. Each chunk id accumulates 1/(k+rank+1) per list it appears in,
// with rank the 0-indexed position. Raw similarity scores are never read:
// they are not comparable across independently generated query variants.
//
// When the same id appears in several lists, the representation from the
// list where it achieved its best (lowest) rank is kept. Output is sorted
// by score descending, ties broken by best single-list rank ascending, then
// id ascending. The function is pure; it never touches the backend.
func FuseRanked(lists [][]Chunk, k int) []Chunk {
	if k <= 0 {
		k = DefaultRRFK
	}

	entries := make(map[string]*fusedEntry)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, chunk := range list {
			entry, seen := entries[chunk.ID]
			if !seen {
				entry = &fusedEntry{chunk: chunk, bestRank: rank}
				entries[chunk.ID] = entry
				order = append(order, chunk.ID)
			} else if rank < entry.bestRank {
				// Better rank wins the representation.
				entry.chunk = chunk
				entry.bestRank = rank
			}
			entry.score += 1.0 / float64(k+rank+1)
		}
	}

	fused := make([]Chunk, 0, len(order))
	for _, id := range order {
		entry := entries[id]
		entry.chunk.RRFScore = entry.score
		fused = append(fused, entry.chunk)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].RRFScore != fused[j].RRFScore {
			return fused[i].RRFScore > fused[j].RRFScore
		}
		ri, rj := entries[fused[i].ID].bestRank, entries[fused[j].ID].bestRank
		if ri != rj {
			return ri < rj
		}
		return fused[i].ID < fused[j].ID
	})

	return fused
}
