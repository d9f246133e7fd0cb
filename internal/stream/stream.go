// Package stream implements the Stream Driver: the single-threaded
// cooperative loop that ties the Scatter Scorer, Inverted Index, Window
// Store, Candidate Generator and Neighbor Finder together into one
// per-record protocol step. The only parallel region is candidate scoring,
// delegated to the neighbor package's worker pool; everything else in a
// step runs on the driving goroutine.
package stream

import (
	"fmt"

	"streamann/internal/candidate"
	"streamann/internal/index"
	"streamann/internal/neighbor"
	"streamann/internal/scatter"
	"streamann/internal/vector"
	"streamann/internal/window"
)

// Match is the outcome of processing one input record. A record with no
// acceptable neighbor reports itself: BestMatchOrdinal == Ordinal and
// Distance == 0.0.
type Match struct {
	Ordinal          uint64
	BestMatchOrdinal uint64
	Distance         float64
}

// Driver holds the live state of one detection run: the inverted index, the
// sliding window, a reusable scatter scorer, and the ordinal of the next
// record to arrive.
type Driver struct {
	idx       *index.Index
	win       *window.Store
	scorer    *scatter.Scorer
	threshold float64
	querySize int
	workers   int
	nextOrd   uint64

	processed uint64
	matched   uint64
}

// Config bundles the tunables a Driver needs at construction time.
type Config struct {
	VocSize   int
	Window    int
	QuerySize int
	Threshold float64
	Workers   int
}

// New creates a Driver with an empty index and window.
func New(cfg Config) *Driver {
	return &Driver{
		idx:       index.New(cfg.VocSize),
		win:       window.New(cfg.Window),
		scorer:    scatter.New(cfg.VocSize),
		threshold: cfg.Threshold,
		querySize: cfg.QuerySize,
		workers:   cfg.Workers,
	}
}

// Step runs one iteration of the protocol for the next incoming vector:
// load it into the scorer, generate candidates, find the best neighbor
// below threshold, push the vector into the window, and evict the oldest
// vector (trimming its dims out of the index) if the window just overflowed
// capacity.
//
// An empty vector (no entries) short-circuits: it can never match anything
// and never contributes candidates for later vectors, but it still consumes
// an ordinal and still occupies a window slot.
func (d *Driver) Step(v vector.Vector) (Match, error) {
	i := d.nextOrd
	d.nextOrd++
	d.processed++

	// Self-match sentinel: a record with no acceptable neighbor reports
	// itself at distance 0, per the documented output contract.
	match := Match{Ordinal: i, BestMatchOrdinal: i, Distance: 0.0}

	if !v.Empty() {
		d.scorer.Clear()
		d.scorer.Load(v)

		candidates := candidate.Generate(d.idx, v, i, d.querySize)
		res, err := neighbor.Find(d.scorer, candidates, d.win, d.threshold, d.workers)
		if err != nil {
			return Match{}, fmt.Errorf("stream: step %d: %w", i, err)
		}
		if res.Found {
			match.BestMatchOrdinal = res.Ordinal
			match.Distance = res.Distance
			d.matched++
		}
	}

	d.win.Push(v)
	if d.win.Full() {
		evicted := d.win.PopFront()
		for _, e := range evicted.Entries {
			d.idx.HeadPop(e.Dim)
		}
	}

	return match, nil
}

// Summary reports end-of-run counters: total records processed and the
// fraction that found a sub-threshold neighbor.
type Summary struct {
	Processed uint64
	Matched   uint64
	MatchRate float64
}

// Summary computes the current run summary. Safe to call at any point
// during or after a run.
func (d *Driver) Summary() Summary {
	s := Summary{Processed: d.processed, Matched: d.matched}
	if d.processed > 0 {
		s.MatchRate = float64(d.matched) / float64(d.processed)
	}
	return s
}

// IndexStats exposes the underlying index's operational counters.
func (d *Driver) IndexStats() index.Stats {
	return d.idx.Stats()
}
