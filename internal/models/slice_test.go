package models

import "testing"

// TestOrientationPlaneAxes verifies that the in-plane axes exclude the slice axis
func TestOrientationPlaneAxes(t *testing.T) {
	for _, o := range Orientations {
		u, v := o.PlaneAxes()
		if u == o.Axis() || v == o.Axis() || u >= v {
			t.Errorf("%s: expected two ascending in-plane axes other than %d, got %d and %d", o, o.Axis(), u, v)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for invalid orientation")
		}
	}()
	Orientation(3).PlaneAxes()
}

// TestParseOrientation covers axis letters and names
func TestParseOrientation(t *testing.T) {
	tests := []struct {
		input    string
		expected Orientation
	}{
		{"x", Sagittal},
		{"Y", Frontal},
		{"coronal", Frontal},
		{" axial ", Transversal},
		{"transversal", Transversal},
	}
	for _, tt := range tests {
		got, err := ParseOrientation(tt.input)
		if err != nil || got != tt.expected {
			t.Errorf("For %q: expected %s, got %s (%v)", tt.input, tt.expected, got, err)
		}
	}
	if _, err := ParseOrientation("oblique"); err == nil {
		t.Error("Expected error for unknown orientation, got nil")
	}
	if Orientation(5).Valid() {
		t.Error("Expected orientation 5 to be invalid")
	}
}

// TestMaskOperations covers counting, borders and conversions
func TestMaskOperations(t *testing.T) {
	m := NewMask(5, 4)
	if !m.Empty() {
		t.Error("Expected new mask to be empty")
	}
	m.Set(0, 2, true)
	m.Set(2, 2, true)
	m.Set(4, 3, true)

	if m.Count() != 3 {
		t.Errorf("Expected 3 foreground pixels, got %d", m.Count())
	}
	if m.BorderCount() != 2 {
		t.Errorf("Expected 2 border pixels, got %d", m.BorderCount())
	}

	c := m.Clone()
	if !c.Equal(m) {
		t.Error("Expected clone to equal the original")
	}
	c.Set(1, 1, true)
	if m.At(1, 1) || c.Equal(m) {
		t.Error("Expected clone to be independent of the original")
	}
	if m.Equal(NewMask(4, 5)) || m.Equal(nil) {
		t.Error("Expected masks with other extents to differ")
	}

	s := m.ToSlice(7)
	if s.At(2, 2) != 7 || s.At(1, 2) != 0 {
		t.Errorf("Expected label 7 at (2,2) and 0 at (1,2), got %f and %f", s.At(2, 2), s.At(1, 2))
	}
	if !s.Mask().Equal(m) {
		t.Error("Expected slice mask to equal the original mask")
	}
}

// TestSliceKeyString verifies the key formatting used in logs
func TestSliceKeyString(t *testing.T) {
	k := SliceKey{Orientation: Frontal, Index: 4, TimeStep: 2}
	if k.String() != "frontal[4]@t2" {
		t.Errorf("Expected frontal[4]@t2, got %s", k.String())
	}
}
