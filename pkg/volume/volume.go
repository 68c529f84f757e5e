// Package volume implements the voxel volume the interpolation core reads
// from and callers write accepted slices into.
package volume

import (
	"errors"
	"fmt"

	"seginterp/internal/models"
)

var (
	// ErrIndexOutOfRange is returned for slice indices, time steps or
	// orientations that do not exist in the volume
	ErrIndexOutOfRange = errors.New("slice index out of range")

	// ErrExtentMismatch is returned when a slice does not have the extents of
	// the volume's planes for the requested orientation
	ErrExtentMismatch = errors.New("slice extents do not match volume")
)

// Volume is a 3D grid of scalar voxels with an optional time axis. Each time
// step is an independent 3D volume.
type Volume struct {
	// Dims holds the extents along x, y and z
	Dims [3]int

	// TimeSteps is the number of 3D volumes stored back to back
	TimeSteps int

	// Data holds all voxels, index t*X*Y*Z + z*X*Y + y*X + x
	Data []float64
}

// New creates a zero-filled volume
func New(x, y, z, timeSteps int) (*Volume, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("volume dimensions must be positive, got %dx%dx%d", x, y, z)
	}
	if timeSteps <= 0 {
		return nil, fmt.Errorf("volume needs at least one time step, got %d", timeSteps)
	}
	return &Volume{
		Dims:      [3]int{x, y, z},
		TimeSteps: timeSteps,
		Data:      make([]float64, x*y*z*timeSteps),
	}, nil
}

// FromData wraps existing voxel data. The slice is used, not copied.
func FromData(data []float64, x, y, z, timeSteps int) (*Volume, error) {
	v, err := New(x, y, z, timeSteps)
	if err != nil {
		return nil, err
	}
	if len(data) != len(v.Data) {
		return nil, fmt.Errorf("expected %d voxels for %dx%dx%d with %d time steps, got %d",
			len(v.Data), x, y, z, timeSteps, len(data))
	}
	v.Data = data
	return v, nil
}

// Clone returns a deep copy
func (v *Volume) Clone() *Volume {
	c := &Volume{
		Dims:      v.Dims,
		TimeSteps: v.TimeSteps,
		Data:      make([]float64, len(v.Data)),
	}
	copy(c.Data, v.Data)
	return c
}

// TimeStepVoxels returns the number of voxels in one time step
func (v *Volume) TimeStepVoxels() int {
	return v.Dims[0] * v.Dims[1] * v.Dims[2]
}

// Dimension returns the number of slices along an orientation
func (v *Volume) Dimension(o models.Orientation) int {
	return v.Dims[o.Axis()]
}

// SliceExtents returns the width and height of every slice of an orientation
func (v *Volume) SliceExtents(o models.Orientation) (width, height int) {
	u, w := o.PlaneAxes()
	return v.Dims[u], v.Dims[w]
}

// CheckKey validates a slice key against the volume
func (v *Volume) CheckKey(key models.SliceKey) error {
	if !key.Orientation.Valid() {
		return fmt.Errorf("orientation %d: %w", int(key.Orientation), ErrIndexOutOfRange)
	}
	if key.Index < 0 || key.Index >= v.Dimension(key.Orientation) {
		return fmt.Errorf("%s slice %d exceeds dimension %d: %w",
			key.Orientation, key.Index, v.Dimension(key.Orientation), ErrIndexOutOfRange)
	}
	if key.TimeStep < 0 || key.TimeStep >= v.TimeSteps {
		return fmt.Errorf("time step %d exceeds %d time steps: %w", key.TimeStep, v.TimeSteps, ErrIndexOutOfRange)
	}
	return nil
}

// Index returns the offset of a voxel in Data
func (v *Volume) Index(x, y, z, t int) int {
	return t*v.TimeStepVoxels() + z*v.Dims[0]*v.Dims[1] + y*v.Dims[0] + x
}

// Voxel returns the value at x, y, z in time step t
func (v *Volume) Voxel(x, y, z, t int) float64 {
	return v.Data[v.Index(x, y, z, t)]
}

// SetVoxel stores a value at x, y, z in time step t
func (v *Volume) SetVoxel(x, y, z, t int, value float64) {
	v.Data[v.Index(x, y, z, t)] = value
}

// voxelOffset maps in-plane coordinates of a slice to a voxel offset
func (v *Volume) voxelOffset(o models.Orientation, index, t, col, row int) int {
	var p [3]int
	u, w := o.PlaneAxes()
	p[o.Axis()] = index
	p[u] = col
	p[w] = row
	return v.Index(p[0], p[1], p[2], t)
}

// ExtractSlice copies one plane out of the volume. Every slice of the same
// orientation has the same extents.
func (v *Volume) ExtractSlice(o models.Orientation, index, t int) (*models.Slice, error) {
	if err := v.CheckKey(models.SliceKey{Orientation: o, Index: index, TimeStep: t}); err != nil {
		return nil, err
	}

	width, height := v.SliceExtents(o)
	s := models.NewSlice(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			s.Data[row*width+col] = v.Data[v.voxelOffset(o, index, t, col, row)]
		}
	}
	return s, nil
}

// OverwriteSlice writes a slice into the volume. The key and the slice
// extents are validated first, so a failed call leaves the volume untouched.
func (v *Volume) OverwriteSlice(s *models.Slice, o models.Orientation, index, t int) error {
	if err := v.CheckKey(models.SliceKey{Orientation: o, Index: index, TimeStep: t}); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("nil slice: %w", ErrExtentMismatch)
	}

	width, height := v.SliceExtents(o)
	if s.Width != width || s.Height != height || len(s.Data) != width*height {
		return fmt.Errorf("%s slice is %dx%d (%d values), volume planes are %dx%d: %w",
			o, s.Width, s.Height, len(s.Data), width, height, ErrExtentMismatch)
	}

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			v.Data[v.voxelOffset(o, index, t, col, row)] = s.Data[row*width+col]
		}
	}
	return nil
}

// ForegroundVoxels counts the non-zero voxels of one time step. Time steps
// outside the volume have none.
func (v *Volume) ForegroundVoxels(t int) int {
	if t < 0 || t >= v.TimeSteps {
		return 0
	}
	n := 0
	start := t * v.TimeStepVoxels()
	for _, value := range v.Data[start : start+v.TimeStepVoxels()] {
		if value != 0 {
			n++
		}
	}
	return n
}
