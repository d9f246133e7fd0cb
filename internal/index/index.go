// Package index implements the inverted index that maps dimension id to the
// FIFO queue of ordinals of in-window vectors containing that dimension. It
// is the candidate generator's sole source of "who else has this dim".
package index

// postingList is a FIFO of strictly increasing ordinals, implemented as a
// slice with a head offset so head-pop is O(1) amortized without shifting
// the backing array on every eviction.
type postingList struct {
	ordinals []uint64
	head     int // index of the oldest live ordinal
}

func (p *postingList) append(ordinal uint64) {
	p.ordinals = append(p.ordinals, ordinal)
}

func (p *postingList) headPop() {
	if p.head < len(p.ordinals) {
		p.head++
	}
	// Reclaim the backing array once it is fully drained so a dim that
	// churns through many evictions doesn't hold onto dead slice capacity
	// forever.
	if p.head == len(p.ordinals) {
		p.ordinals = p.ordinals[:0]
		p.head = 0
	}
}

func (p *postingList) live() []uint64 {
	return p.ordinals[p.head:]
}

func (p *postingList) len() int {
	return len(p.ordinals) - p.head
}

// Index is the per-dimension posting list store. Lists are created lazily: a
// dim that has never been passed to Append or Ensure isn't a key in the map.
// A list that drains to empty stays in the map.
type Index struct {
	posting map[uint32]*postingList
}

// New creates an empty Index with room for roughly vocSizeHint dims.
func New(vocSizeHint int) *Index {
	return &Index{posting: make(map[uint32]*postingList, vocSizeHint)}
}

// Append pushes ordinal onto the tail of dim's posting list, creating the
// list on first use.
func (idx *Index) Append(dim uint32, ordinal uint64) {
	p, ok := idx.posting[dim]
	if !ok {
		p = &postingList{}
		idx.posting[dim] = p
	}
	p.append(ordinal)
}

// Ensure creates an empty posting list for dim if one doesn't exist yet,
// without appending anything. This is used by the candidate generator so a
// dim with no prior postings still has a well-defined list for the
// subsequent Append.
func (idx *Index) Ensure(dim uint32) {
	if _, ok := idx.posting[dim]; !ok {
		idx.posting[dim] = &postingList{}
	}
}

// HeadPop removes the front ordinal of dim's posting list. Called exactly
// once per dim of an evicted vector. A no-op if dim has no list or the list
// is already empty — both would indicate a caller bug, but HeadPop stays
// defensive since the eviction path must never panic mid-trim.
func (idx *Index) HeadPop(dim uint32) {
	if p, ok := idx.posting[dim]; ok {
		p.headPop()
	}
}

// Posting returns a read-only view of the live ordinals currently indexed
// under dim, oldest first. The returned slice must not be retained past the
// next mutation of the index.
func (idx *Index) Posting(dim uint32) []uint64 {
	p, ok := idx.posting[dim]
	if !ok {
		return nil
	}
	return p.live()
}

// Stats reports operational counters: the number of distinct dims with at
// least one live posting, and the total number of live ordinals across all
// posting lists.
type Stats struct {
	LiveDims     int
	LiveOrdinals int
}

// Stats computes the current Stats by walking every posting list. It is
// intended for periodic operational reporting, not the hot path.
func (idx *Index) Stats() Stats {
	var s Stats
	for _, p := range idx.posting {
		if n := p.len(); n > 0 {
			s.LiveDims++
			s.LiveOrdinals += n
		}
	}
	return s
}
