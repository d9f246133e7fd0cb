// Package vector defines the sparse vector representation shared by every
// component of the streaming near-duplicate detector, and the `|`-delimited
// wire format the canonical CSV and SQLite record sources use to encode it.
package vector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Entry is a single non-zero coordinate of a SparseVector.
type Entry struct {
	Dim    uint32
	Weight float64
}

// Vector is an ordered sequence of (dim, weight) pairs. Dims are unique
// within a vector and assumed to come from an L2-normalized embedding —
// callers do not renormalize.
type Vector struct {
	Entries []Entry
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int {
	return len(v.Entries)
}

// Empty reports whether the vector has no non-zero entries.
func (v Vector) Empty() bool {
	return len(v.Entries) == 0
}

// Parse decodes a record's `dimensions` and `weights` fields — both
// `|`-delimited lists of equal length — into a Vector. Empty dimensions and
// weights strings decode to an empty Vector; an empty dimensions string with
// a non-empty weights string is an error. Every dim must be a non-negative
// integer strictly less than vocSize, and every weight must parse as a
// finite float64; any violation is a hard parse error per the record
// schema, since fields of mismatched length or out-of-range dims cannot be
// scored safely by the Scatter Scorer.
func Parse(dimensions, weights string, vocSize int) (Vector, error) {
	if dimensions == "" && weights == "" {
		return Vector{}, nil
	}

	dimToks := strings.Split(dimensions, "|")
	weightToks := strings.Split(weights, "|")
	if len(dimToks) != len(weightToks) {
		return Vector{}, fmt.Errorf("dimensions has %d fields but weights has %d", len(dimToks), len(weightToks))
	}

	entries := make([]Entry, len(dimToks))
	for i := range dimToks {
		dim, err := strconv.ParseUint(strings.TrimSpace(dimToks[i]), 10, 32)
		if err != nil {
			return Vector{}, fmt.Errorf("field %d: invalid dim %q: %w", i, dimToks[i], err)
		}
		if int(dim) >= vocSize {
			return Vector{}, fmt.Errorf("field %d: dim %d >= voc_size %d", i, dim, vocSize)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightToks[i]), 64)
		if err != nil {
			return Vector{}, fmt.Errorf("field %d: invalid weight %q: %w", i, weightToks[i], err)
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			return Vector{}, fmt.Errorf("field %d: weight %q is not finite", i, weightToks[i])
		}
		entries[i] = Entry{Dim: uint32(dim), Weight: weight}
	}
	return Vector{Entries: entries}, nil
}

// Encode renders a Vector back into the `|`-delimited dimensions/weights
// wire format, the inverse of Parse. It is used by the round-trip tests; the
// record sources only parse and the result sinks never write vectors.
func (v Vector) Encode() (dimensions, weights string) {
	if v.Empty() {
		return "", ""
	}
	dims := make([]string, len(v.Entries))
	ws := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		dims[i] = strconv.FormatUint(uint64(e.Dim), 10)
		ws[i] = strconv.FormatFloat(e.Weight, 'g', -1, 64)
	}
	return strings.Join(dims, "|"), strings.Join(ws, "|")
}
