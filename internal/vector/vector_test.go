package vector

import "testing"

func TestParse_Empty(t *testing.T) {
	v, err := Parse("", "", 16)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !v.Empty() {
		t.Fatalf("expected empty vector, got %+v", v)
	}
}

func TestParse_WellFormed(t *testing.T) {
	v, err := Parse("1|2|3", "0.6|0.6|0.52915", 16)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", v.Len())
	}
	want := []Entry{{Dim: 1, Weight: 0.6}, {Dim: 2, Weight: 0.6}, {Dim: 3, Weight: 0.52915}}
	for i, e := range want {
		if v.Entries[i] != e {
			t.Errorf("entry %d: got %+v, want %+v", i, v.Entries[i], e)
		}
	}
}

func TestParse_MismatchedLength(t *testing.T) {
	if _, err := Parse("1|2", "0.5", 16); err == nil {
		t.Fatal("expected error for mismatched field counts")
	}
}

func TestParse_DimOutOfRange(t *testing.T) {
	if _, err := Parse("16", "0.5", 16); err == nil {
		t.Fatal("expected error for dim >= voc_size")
	}
}

func TestParse_InvalidDim(t *testing.T) {
	if _, err := Parse("x", "0.5", 16); err == nil {
		t.Fatal("expected error for non-numeric dim")
	}
}

func TestParse_InvalidWeight(t *testing.T) {
	if _, err := Parse("1", "x", 16); err == nil {
		t.Fatal("expected error for non-numeric weight")
	}
}

func TestParse_NonFiniteWeight(t *testing.T) {
	tests := []string{"NaN", "Inf", "-Inf"}
	for _, w := range tests {
		if _, err := Parse("1", w, 16); err == nil {
			t.Errorf("weight %q: expected error for non-finite weight", w)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	v, err := Parse("1|2|3", "0.6|0.6|0.52915", 16)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dims, weights := v.Encode()
	v2, err := Parse(dims, weights, 16)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if v2.Len() != v.Len() {
		t.Fatalf("round trip changed length: got %d want %d", v2.Len(), v.Len())
	}
	for i := range v.Entries {
		if v.Entries[i] != v2.Entries[i] {
			t.Errorf("entry %d changed across round trip: got %+v want %+v", i, v2.Entries[i], v.Entries[i])
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	dims, weights := Vector{}.Encode()
	if dims != "" || weights != "" {
		t.Fatalf("expected empty strings, got %q %q", dims, weights)
	}
}
