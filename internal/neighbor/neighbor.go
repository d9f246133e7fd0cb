// Package neighbor implements the Neighbor Finder: it scores every
// candidate ordinal against a loaded Scatter Scorer, filters by the
// distance threshold, and returns the argmin with ties broken toward the
// lowest candidate ordinal. Scoring is a read-only, side-effect-free
// map-then-reduce over the candidate set, so it is safe to fan out across a
// worker pool — the reduction (min, tie-break on ordinal) is commutative
// and associative, which keeps results identical regardless of worker
// count.
package neighbor

import (
	"math"
	"runtime"

	"streamann/internal/scatter"
	"streamann/internal/vector"
	"streamann/internal/window"
)

// minCandidatesForWorkers is the smallest candidate-set size worth handing
// to more than one goroutine; below it, goroutine setup cost would dominate
// the scoring itself.
const minCandidatesForWorkers = 64

// Result is the best match for a query: Ordinal is the candidate ordinal
// achieving the minimum distance, Distance is that distance, and Found
// reports whether any candidate cleared the threshold.
type Result struct {
	Ordinal  uint64
	Distance float64
	Found    bool
}

// Find scores every ordinal in candidates against the vector already loaded
// into scorer, using store to fetch each candidate's vector. It returns the
// candidate with the smallest distance strictly below threshold, breaking
// ties toward the smaller ordinal. workers caps the worker-pool size; 0
// picks an adaptive count from runtime.NumCPU().
//
// A malformed candidate vector that produces a NaN distance is treated as
// rejected (distance >= threshold), never as a minimum — NaN must not win
// an argmin by comparison quirks.
func Find(scorer *scatter.Scorer, candidates map[uint64]struct{}, store *window.Store, threshold float64, workers int) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, nil
	}

	ordinals := make([]uint64, 0, len(candidates))
	for ord := range candidates {
		ordinals = append(ordinals, ord)
	}

	numWorkers := pickWorkerCount(len(ordinals), workers)
	if numWorkers <= 1 {
		return reduceRange(scorer, store, threshold, ordinals)
	}

	chunkSize := (len(ordinals) + numWorkers - 1) / numWorkers
	type partial struct {
		res Result
		err error
	}
	resultsCh := make(chan partial, numWorkers)

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(ordinals) {
			end = len(ordinals)
		}
		if start >= end {
			resultsCh <- partial{}
			continue
		}
		go func(slice []uint64) {
			res, err := reduceRange(scorer, store, threshold, slice)
			resultsCh <- partial{res: res, err: err}
		}(ordinals[start:end])
	}

	var best Result
	for w := 0; w < numWorkers; w++ {
		p := <-resultsCh
		if p.err != nil {
			return Result{}, p.err
		}
		best = combine(best, p.res)
	}
	return best, nil
}

// reduceRange scores a slice of ordinals sequentially and returns the local
// argmin, applying the same tie-break rule the parallel path uses for its
// final merge.
func reduceRange(scorer *scatter.Scorer, store *window.Store, threshold float64, ordinals []uint64) (Result, error) {
	var best Result
	for _, ord := range ordinals {
		candVec, err := store.Get(ord)
		if err != nil {
			return Result{}, err
		}
		d := scoreDistance(scorer, candVec)
		if math.IsNaN(d) || d >= threshold {
			continue
		}
		best = combine(best, Result{Ordinal: ord, Distance: d, Found: true})
	}
	return best, nil
}

// scoreDistance returns Scorer.Distance for v unchanged. A NaN result
// (malformed input) passes through and is rejected by reduceRange.
func scoreDistance(scorer *scatter.Scorer, v vector.Vector) float64 {
	return scorer.Distance(v)
}

// combine reduces two partial results into one, keeping the lower distance
// and breaking ties toward the lower ordinal. An unfound operand is the
// identity element.
func combine(a, b Result) Result {
	if !a.Found {
		return b
	}
	if !b.Found {
		return a
	}
	if b.Distance < a.Distance {
		return b
	}
	if b.Distance == a.Distance && b.Ordinal < a.Ordinal {
		return b
	}
	return a
}

// pickWorkerCount mirrors the detector's adaptive worker-count heuristic:
// avoid goroutine overhead on small candidate sets, and let an explicit
// workers override take precedence over the CPU-count default.
func pickWorkerCount(n, workers int) int {
	if workers > 0 {
		if workers > n {
			return n
		}
		return workers
	}
	if n < minCandidatesForWorkers {
		return 1
	}
	numWorkers := runtime.NumCPU()
	if numWorkers > n/minCandidatesForWorkers {
		numWorkers = n / minCandidatesForWorkers
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	return numWorkers
}
