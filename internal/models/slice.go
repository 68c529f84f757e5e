package models

import (
	"fmt"
	"strings"
)

// Orientation is one of the three axes a slice can be taken perpendicular to.
// Its integer value is the volume axis the slice index runs along.
type Orientation int

const (
	// Sagittal slices are taken perpendicular to the x axis
	Sagittal Orientation = iota

	// Frontal (coronal) slices are taken perpendicular to the y axis
	Frontal

	// Transversal (axial) slices are taken perpendicular to the z axis
	Transversal
)

// Orientations lists every orientation in axis order
var Orientations = [3]Orientation{Sagittal, Frontal, Transversal}

// Axis returns the volume axis the slice index runs along
func (o Orientation) Axis() int { return int(o) }

// Valid reports whether o is one of the three known orientations
func (o Orientation) Valid() bool { return o >= Sagittal && o <= Transversal }

// PlaneAxes returns the two in-plane volume axes of a slice. The first is the
// slice column axis, the second the row axis.
func (o Orientation) PlaneAxes() (u, v int) {
	switch o {
	case Sagittal:
		return 1, 2
	case Frontal:
		return 0, 2
	case Transversal:
		return 0, 1
	default:
		panic("illegal orientation")
	}
}

func (o Orientation) String() string {
	switch o {
	case Sagittal:
		return "sagittal"
	case Frontal:
		return "frontal"
	case Transversal:
		return "transversal"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// ParseOrientation accepts an axis letter (x, y, z) or an orientation name
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "sagittal":
		return Sagittal, nil
	case "y", "frontal", "coronal":
		return Frontal, nil
	case "z", "transversal", "axial":
		return Transversal, nil
	default:
		return 0, fmt.Errorf("invalid orientation: %s (must be x, y, z or sagittal, frontal, transversal)", s)
	}
}

// SliceKey identifies one 2D plane of a (possibly time-resolved) volume
type SliceKey struct {
	Orientation Orientation
	Index       int
	TimeStep    int
}

func (k SliceKey) String() string {
	return fmt.Sprintf("%s[%d]@t%d", k.Orientation, k.Index, k.TimeStep)
}

// Slice is a copy of the scalar values of one plane of a volume
type Slice struct {
	// Width is the number of columns (extent along the first in-plane axis)
	Width int

	// Height is the number of rows (extent along the second in-plane axis)
	Height int

	// Data holds the values in row-major order
	Data []float64
}

// NewSlice creates a zero-filled slice
func NewSlice(width, height int) *Slice {
	return &Slice{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// At returns the value at column u, row v
func (s *Slice) At(u, v int) float64 { return s.Data[v*s.Width+u] }

// Set stores a value at column u, row v
func (s *Slice) Set(u, v int, value float64) { s.Data[v*s.Width+u] = value }

// Mask returns the foreground (value != 0) of the slice
func (s *Slice) Mask() *Mask {
	m := NewMask(s.Width, s.Height)
	for i, value := range s.Data {
		m.Pix[i] = value != 0
	}
	return m
}

// Mask is a binary 2D image. Foreground pixels are true.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask creates an all-background mask
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// At reports whether the pixel at column u, row v is foreground
func (m *Mask) At(u, v int) bool { return m.Pix[v*m.Width+u] }

// Set marks the pixel at column u, row v
func (m *Mask) Set(u, v int, fg bool) { m.Pix[v*m.Width+u] = fg }

// OnBorder reports whether column u, row v lies on the outer rectangle
func (m *Mask) OnBorder(u, v int) bool {
	return u == 0 || v == 0 || u == m.Width-1 || v == m.Height-1
}

// Count returns the number of foreground pixels
func (m *Mask) Count() int {
	n := 0
	for _, fg := range m.Pix {
		if fg {
			n++
		}
	}
	return n
}

// BorderCount returns the number of foreground pixels on the outer rectangle
func (m *Mask) BorderCount() int {
	n := 0
	for v := 0; v < m.Height; v++ {
		for u := 0; u < m.Width; u++ {
			if m.OnBorder(u, v) && m.At(u, v) {
				n++
			}
		}
	}
	return n
}

// Empty reports whether the mask has no foreground
func (m *Mask) Empty() bool {
	for _, fg := range m.Pix {
		if fg {
			return false
		}
	}
	return true
}

// SameExtents reports whether both masks have identical width and height
func (m *Mask) SameExtents(other *Mask) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// Equal reports whether both masks have identical extents and pixels
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || !m.SameExtents(other) {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy
func (m *Mask) Clone() *Mask {
	c := NewMask(m.Width, m.Height)
	copy(c.Pix, m.Pix)
	return c
}

// ToSlice converts the mask to a slice holding label for foreground and 0 elsewhere
func (m *Mask) ToSlice(label float64) *Slice {
	s := NewSlice(m.Width, m.Height)
	for i, fg := range m.Pix {
		if fg {
			s.Data[i] = label
		}
	}
	return s
}

// InterpolationResult is an interpolated mask together with the slice it was
// computed for and the two content slices that bounded the gap
type InterpolationResult struct {
	Key   SliceKey
	Lower int
	Upper int
	Mask  *Mask
}
