package volume

import (
	"fmt"
	"math"

	"seginterp/internal/models"
)

// Geometry maps world coordinates (mm) to voxel indices for an axis-aligned
// volume. Origin is the world position of the center of voxel (0, 0, 0).
type Geometry struct {
	Origin  [3]float64
	Spacing [3]float64
	Dims    [3]int
}

// NewGeometry creates a geometry for vol with the given voxel spacing
func NewGeometry(vol *Volume, origin, spacing [3]float64) (*Geometry, error) {
	for axis, s := range spacing {
		if s <= 0 {
			return nil, fmt.Errorf("spacing along axis %d must be positive, got %f", axis, s)
		}
	}
	return &Geometry{
		Origin:  origin,
		Spacing: spacing,
		Dims:    vol.Dims,
	}, nil
}

// SliceIndex returns the slice of orientation o whose plane is nearest to the
// world coordinate along that orientation's axis. ok is false when the plane
// lies outside the volume or o is not an orientation.
func (g *Geometry) SliceIndex(o models.Orientation, world float64) (index int, ok bool) {
	if !o.Valid() {
		return 0, false
	}
	axis := o.Axis()
	index = int(math.Round((world - g.Origin[axis]) / g.Spacing[axis]))
	if index < 0 || index >= g.Dims[axis] {
		return 0, false
	}
	return index, true
}

// SlicePosition returns the world coordinate of a slice plane, NaN for an
// invalid orientation
func (g *Geometry) SlicePosition(o models.Orientation, index int) float64 {
	if !o.Valid() {
		return math.NaN()
	}
	axis := o.Axis()
	return g.Origin[axis] + float64(index)*g.Spacing[axis]
}

// SliceKeyAt maps a world point to the slice of orientation o that contains it
func (g *Geometry) SliceKeyAt(o models.Orientation, point [3]float64, t int) (models.SliceKey, bool) {
	if !o.Valid() {
		return models.SliceKey{}, false
	}
	index, ok := g.SliceIndex(o, point[o.Axis()])
	return models.SliceKey{Orientation: o, Index: index, TimeStep: t}, ok
}
