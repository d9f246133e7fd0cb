package index

import "testing"

func TestAppendAndPosting(t *testing.T) {
	idx := New(16)
	idx.Append(1, 0)
	idx.Append(1, 2)
	idx.Append(1, 5)

	got := idx.Posting(1)
	want := []uint64{0, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("Posting(1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Posting(1)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPosting_UnknownDim(t *testing.T) {
	idx := New(16)
	if got := idx.Posting(9); got != nil {
		t.Fatalf("Posting(unknown) = %v, want nil", got)
	}
}

func TestEnsure_CreatesEmptyListWithoutAppending(t *testing.T) {
	idx := New(16)
	idx.Ensure(3)
	if got := idx.Posting(3); len(got) != 0 {
		t.Fatalf("Posting(3) after Ensure = %v, want empty", got)
	}
	s := idx.Stats()
	if s.LiveDims != 0 {
		t.Fatalf("Stats().LiveDims = %d, want 0 (empty list isn't live)", s.LiveDims)
	}
}

func TestHeadPop_RemovesOldestFirst(t *testing.T) {
	idx := New(16)
	idx.Append(1, 0)
	idx.Append(1, 1)
	idx.Append(1, 2)

	idx.HeadPop(1)
	got := idx.Posting(1)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("Posting(1) after HeadPop = %v, want [1 2]", got)
	}
}

func TestHeadPop_DrainsToEmptyAndReclaims(t *testing.T) {
	idx := New(16)
	idx.Append(1, 0)
	idx.HeadPop(1)

	if got := idx.Posting(1); len(got) != 0 {
		t.Fatalf("Posting(1) after draining = %v, want empty", got)
	}

	idx.Append(1, 7)
	got := idx.Posting(1)
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("Posting(1) after re-append = %v, want [7]", got)
	}
}

func TestHeadPop_NoOpOnUnknownDim(t *testing.T) {
	idx := New(16)
	idx.HeadPop(42) // must not panic
}

func TestStats_CountsOnlyLiveLists(t *testing.T) {
	idx := New(16)
	idx.Append(1, 0)
	idx.Append(1, 1)
	idx.Append(2, 0)
	idx.HeadPop(2) // dim 2 now empty

	s := idx.Stats()
	if s.LiveDims != 1 {
		t.Fatalf("LiveDims = %d, want 1", s.LiveDims)
	}
	if s.LiveOrdinals != 2 {
		t.Fatalf("LiveOrdinals = %d, want 2", s.LiveOrdinals)
	}
}
