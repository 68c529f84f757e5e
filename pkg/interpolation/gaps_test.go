package interpolation

import (
	"testing"

	"seginterp/internal/models"
)

// fakeIndex marks content slices of the transversal orientation only
type fakeIndex struct {
	dim     int
	content map[int]bool
}

func (f fakeIndex) HasContent(o models.Orientation, index, t int) bool {
	return o == models.Transversal && t == 0 && f.content[index]
}

func (f fakeIndex) Dimension(o models.Orientation) int { return f.dim }

// TestFindBounds covers two-sided, one-sided and missing bounds
func TestFindBounds(t *testing.T) {
	idx := fakeIndex{dim: 10, content: map[int]bool{2: true, 3: true, 7: true}}

	tests := []struct {
		index    int
		lower    int
		upper    int
		hasLower bool
		hasUpper bool
	}{
		{0, 0, 2, false, true},
		{1, 0, 2, false, true},
		{4, 3, 7, true, true},
		{5, 3, 7, true, true},
		{6, 3, 7, true, true},
		{8, 7, 0, true, false},
		{9, 7, 0, true, false},
	}

	for _, tt := range tests {
		b := FindBounds(idx, models.Transversal, tt.index, 0)
		if b.HasLower != tt.hasLower || b.HasUpper != tt.hasUpper {
			t.Errorf("Slice %d: expected lower/upper presence %v/%v, got %v/%v",
				tt.index, tt.hasLower, tt.hasUpper, b.HasLower, b.HasUpper)
			continue
		}
		if tt.hasLower && b.Lower != tt.lower {
			t.Errorf("Slice %d: expected lower %d, got %d", tt.index, tt.lower, b.Lower)
		}
		if tt.hasUpper && b.Upper != tt.upper {
			t.Errorf("Slice %d: expected upper %d, got %d", tt.index, tt.upper, b.Upper)
		}
	}

	b := FindBounds(idx, models.Transversal, 5, 0)
	if !b.Complete() || b.Distance() != 4 {
		t.Errorf("Expected complete bound of distance 4, got %+v", b)
	}
	if !b.Contains(3) || !b.Contains(7) || b.Contains(8) {
		t.Errorf("Expected bound [3,7] containment, got %+v", b)
	}
}

// TestFindBoundsEmpty verifies that an empty index never finds bounds
func TestFindBoundsEmpty(t *testing.T) {
	idx := fakeIndex{dim: 5}
	for i := 0; i < 5; i++ {
		if b := FindBounds(idx, models.Transversal, i, 0); b.HasLower || b.HasUpper {
			t.Errorf("Expected no bounds for slice %d, got %+v", i, b)
		}
	}
	if b := FindBounds(idx, models.Sagittal, 2, 0); b.Complete() {
		t.Errorf("Expected incomplete bounds for other orientation, got %+v", b)
	}
}
