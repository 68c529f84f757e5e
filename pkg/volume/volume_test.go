package volume

import (
	"errors"
	"math"
	"testing"

	"seginterp/internal/models"
)

// newPatternVolume fills every voxel with a value unique to its position
func newPatternVolume(t *testing.T, x, y, z, timeSteps int) *Volume {
	vol, err := New(x, y, z, timeSteps)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	for i := range vol.Data {
		vol.Data[i] = float64(i + 1)
	}
	return vol
}

// TestNew verifies dimension validation
func TestNew(t *testing.T) {
	vol, err := New(4, 5, 6, 2)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	if len(vol.Data) != 4*5*6*2 {
		t.Errorf("Expected %d voxels, got %d", 4*5*6*2, len(vol.Data))
	}

	if _, err := New(0, 5, 6, 1); err == nil {
		t.Error("Expected error for zero width, got nil")
	}
	if _, err := New(4, 5, 6, 0); err == nil {
		t.Error("Expected error for zero time steps, got nil")
	}
	if _, err := FromData(make([]float64, 10), 4, 5, 6, 1); err == nil {
		t.Error("Expected error for short data, got nil")
	}
}

// TestSliceExtents verifies the in-plane axes of each orientation
func TestSliceExtents(t *testing.T) {
	vol := newPatternVolume(t, 15, 20, 25, 1)

	tests := []struct {
		o             models.Orientation
		width, height int
		dim           int
	}{
		{models.Sagittal, 20, 25, 15},
		{models.Frontal, 15, 25, 20},
		{models.Transversal, 15, 20, 25},
	}

	for _, tt := range tests {
		w, h := vol.SliceExtents(tt.o)
		if w != tt.width || h != tt.height {
			t.Errorf("Expected %s extents %dx%d, got %dx%d", tt.o, tt.width, tt.height, w, h)
		}
		if d := vol.Dimension(tt.o); d != tt.dim {
			t.Errorf("Expected %s dimension %d, got %d", tt.o, tt.dim, d)
		}
	}
}

// TestExtractSlice verifies that extracted values come from the right voxels
func TestExtractSlice(t *testing.T) {
	vol := newPatternVolume(t, 4, 5, 6, 2)

	for _, o := range models.Orientations {
		for index := 0; index < vol.Dimension(o); index++ {
			s, err := vol.ExtractSlice(o, index, 1)
			if err != nil {
				t.Fatalf("Failed to extract %s slice %d: %v", o, index, err)
			}
			u, w := o.PlaneAxes()
			for row := 0; row < s.Height; row++ {
				for col := 0; col < s.Width; col++ {
					var p [3]int
					p[o.Axis()] = index
					p[u] = col
					p[w] = row
					expected := vol.Voxel(p[0], p[1], p[2], 1)
					if got := s.At(col, row); got != expected {
						t.Fatalf("Expected %s[%d] (%d,%d) = %f, got %f", o, index, col, row, expected, got)
					}
				}
			}
		}
	}

	if _, err := vol.ExtractSlice(models.Transversal, 6, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for slice beyond depth, got %v", err)
	}
	if _, err := vol.ExtractSlice(models.Transversal, 0, 2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for time step beyond volume, got %v", err)
	}
	if _, err := vol.ExtractSlice(models.Orientation(5), 0, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for invalid orientation, got %v", err)
	}
}

// TestOverwriteSliceRoundTrip verifies that an extracted, modified and
// rewritten slice reads back identically and leaves other voxels alone
func TestOverwriteSliceRoundTrip(t *testing.T) {
	for _, o := range models.Orientations {
		vol := newPatternVolume(t, 7, 8, 9, 1)
		original := vol.Clone()

		s, err := vol.ExtractSlice(o, 3, 0)
		if err != nil {
			t.Fatalf("Failed to extract slice: %v", err)
		}
		for i := range s.Data {
			s.Data[i] = -s.Data[i]
		}
		if err := vol.OverwriteSlice(s, o, 3, 0); err != nil {
			t.Fatalf("Failed to overwrite %s slice: %v", o, err)
		}

		back, err := vol.ExtractSlice(o, 3, 0)
		if err != nil {
			t.Fatalf("Failed to extract slice: %v", err)
		}
		for i := range back.Data {
			if back.Data[i] != s.Data[i] {
				t.Fatalf("Expected %s round trip value %f, got %f", o, s.Data[i], back.Data[i])
			}
		}

		changed := 0
		for i := range vol.Data {
			if vol.Data[i] != original.Data[i] {
				changed++
			}
		}
		if changed != len(s.Data) {
			t.Errorf("Expected %d changed voxels for %s, got %d", len(s.Data), o, changed)
		}
	}
}

// TestOverwriteSliceRejectsMismatch covers too large, too small and out of
// range writes; none of them may modify the volume
func TestOverwriteSliceRejectsMismatch(t *testing.T) {
	vol := newPatternVolume(t, 15, 20, 25, 1)
	original := vol.Clone()

	width, height := vol.SliceExtents(models.Transversal)

	tooLarge := models.NewSlice(width+1, height)
	if err := vol.OverwriteSlice(tooLarge, models.Transversal, 0, 0); !errors.Is(err, ErrExtentMismatch) {
		t.Errorf("Expected ErrExtentMismatch for too large slice, got %v", err)
	}

	tooSmall := models.NewSlice(width, height-1)
	if err := vol.OverwriteSlice(tooSmall, models.Transversal, 0, 0); !errors.Is(err, ErrExtentMismatch) {
		t.Errorf("Expected ErrExtentMismatch for too small slice, got %v", err)
	}

	short := &models.Slice{Width: width, Height: height, Data: make([]float64, 3)}
	if err := vol.OverwriteSlice(short, models.Transversal, 0, 0); !errors.Is(err, ErrExtentMismatch) {
		t.Errorf("Expected ErrExtentMismatch for truncated data, got %v", err)
	}

	fits := models.NewSlice(width, height)
	if err := vol.OverwriteSlice(fits, models.Transversal, 25, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for slice beyond volume, got %v", err)
	}
	if err := vol.OverwriteSlice(fits, models.Transversal, -1, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange for negative slice, got %v", err)
	}

	// A sagittal-sized slice must not fit a transversal plane
	sw, sh := vol.SliceExtents(models.Sagittal)
	if err := vol.OverwriteSlice(models.NewSlice(sw, sh), models.Transversal, 0, 0); !errors.Is(err, ErrExtentMismatch) {
		t.Errorf("Expected ErrExtentMismatch for sagittal slice in transversal plane, got %v", err)
	}

	for i := range vol.Data {
		if vol.Data[i] != original.Data[i] {
			t.Fatalf("Volume modified by rejected write at voxel %d", i)
		}
	}
}

// TestForegroundVoxels counts non-zero voxels per time step
func TestForegroundVoxels(t *testing.T) {
	vol, err := New(3, 3, 3, 2)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	vol.SetVoxel(1, 1, 1, 0, 1)
	vol.SetVoxel(0, 0, 0, 1, 2)
	vol.SetVoxel(2, 2, 2, 1, 3)

	if n := vol.ForegroundVoxels(0); n != 1 {
		t.Errorf("Expected 1 foreground voxel in t0, got %d", n)
	}
	if n := vol.ForegroundVoxels(1); n != 2 {
		t.Errorf("Expected 2 foreground voxels in t1, got %d", n)
	}
	for _, step := range []int{-1, 2} {
		if n := vol.ForegroundVoxels(step); n != 0 {
			t.Errorf("Expected 0 foreground voxels for missing time step %d, got %d", step, n)
		}
	}
}

// TestGeometry verifies the world to slice index mapping
func TestGeometry(t *testing.T) {
	vol := newPatternVolume(t, 10, 10, 5, 1)
	geom, err := NewGeometry(vol, [3]float64{-5, 0, 10}, [3]float64{0.5, 1, 2.5})
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}

	index, ok := geom.SliceIndex(models.Transversal, 15.2)
	if !ok || index != 2 {
		t.Errorf("Expected transversal slice 2, got %d (ok=%v)", index, ok)
	}
	if _, ok := geom.SliceIndex(models.Transversal, 30); ok {
		t.Error("Expected plane beyond volume to be rejected")
	}
	if pos := geom.SlicePosition(models.Sagittal, 4); math.Abs(pos-(-3)) > 1e-9 {
		t.Errorf("Expected sagittal slice 4 at -3, got %f", pos)
	}

	key, ok := geom.SliceKeyAt(models.Frontal, [3]float64{0, 7.4, 0}, 0)
	if !ok || key.Index != 7 || key.Orientation != models.Frontal {
		t.Errorf("Expected frontal slice 7, got %v (ok=%v)", key, ok)
	}

	invalid := models.Orientation(3)
	if _, ok := geom.SliceIndex(invalid, 0); ok {
		t.Error("Expected invalid orientation to be rejected by SliceIndex")
	}
	if pos := geom.SlicePosition(invalid, 1); !math.IsNaN(pos) {
		t.Errorf("Expected NaN position for invalid orientation, got %f", pos)
	}
	if _, ok := geom.SliceKeyAt(invalid, [3]float64{}, 0); ok {
		t.Error("Expected invalid orientation to be rejected by SliceKeyAt")
	}

	if _, err := NewGeometry(vol, [3]float64{}, [3]float64{1, 0, 1}); err == nil {
		t.Error("Expected error for zero spacing, got nil")
	}
}
