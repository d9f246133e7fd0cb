// Package candidate implements the blocking step that turns a query's
// sparse entries into a small candidate set, by unioning the posting lists
// of the first K dims the query touches — instead of scanning every dim,
// which would let high-frequency dims dominate cost.
package candidate

import (
	"streamann/internal/index"
	"streamann/internal/vector"
)

// Generate produces the candidate ordinal set for query, to be scored
// against ordinal i (not yet assigned to the index). It also appends i into
// every dim's posting list for query — including dims beyond the first
// querySize — so a later query with any overlap can find this vector.
//
// Candidate selection reads dims in the order they appear in query.
// Producers that want deterministic blocking behavior should emit dims in a
// canonical order upstream; this function makes no attempt to reorder them.
func Generate(idx *index.Index, query vector.Vector, i uint64, querySize int) map[uint64]struct{} {
	candidates := make(map[uint64]struct{})

	for pos, e := range query.Entries {
		if pos < querySize {
			idx.Ensure(e.Dim)
			for _, ord := range idx.Posting(e.Dim) {
				candidates[ord] = struct{}{}
			}
		}
		idx.Append(e.Dim, i)
	}

	return candidates
}
