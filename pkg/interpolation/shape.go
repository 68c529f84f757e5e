// Package interpolation synthesizes segmentation slices between two manually
// segmented slices using shape-based interpolation of signed distance fields.
package interpolation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"seginterp/internal/models"
)

// ShapeInterpolator morphs between two binary slices. The zero value uses the
// exact Euclidean distance transform.
type ShapeInterpolator struct {
	Metric Metric
}

// NewShapeInterpolator creates an interpolator using the given metric
func NewShapeInterpolator(metric Metric) *ShapeInterpolator {
	return &ShapeInterpolator{Metric: metric}
}

// Interpolate returns the mask at position slices above lower, where upper
// lies distance slices above lower. Both distance fields are blended linearly
// with t = position/distance and the result is thresholded at zero.
//
// At position 0 and position == distance the bounding masks are returned
// unchanged, which is what the blend yields at t=0 and t=1.
//
// Masks with different extents, a non-positive distance, or a position
// outside [0, distance] are programming errors and panic.
func (s *ShapeInterpolator) Interpolate(lower, upper *models.Mask, distance, position int) *models.Mask {
	if lower == nil || upper == nil {
		panic("interpolation: nil mask")
	}
	if !lower.SameExtents(upper) {
		panic(fmt.Sprintf("interpolation: mismatched extents %dx%d and %dx%d",
			lower.Width, lower.Height, upper.Width, upper.Height))
	}
	if distance <= 0 || position < 0 || position > distance {
		panic(fmt.Sprintf("interpolation: position %d outside gap of %d slices", position, distance))
	}

	switch position {
	case 0:
		return lower.Clone()
	case distance:
		return upper.Clone()
	}

	return s.Blend(lower, upper, float64(position)/float64(distance))
}

// Blend thresholds (1-t)*d(lower) + t*d(upper) at zero, where d is the signed
// distance transform
func (s *ShapeInterpolator) Blend(lower, upper *models.Mask, t float64) *models.Mask {
	if !lower.SameExtents(upper) {
		panic(fmt.Sprintf("interpolation: mismatched extents %dx%d and %dx%d",
			lower.Width, lower.Height, upper.Width, upper.Height))
	}

	lowerField := SignedDistance(lower, s.Metric)
	upperField := SignedDistance(upper, s.Metric)

	var blended, weighted mat.Dense
	blended.Scale(1-t, lowerField)
	weighted.Scale(t, upperField)
	blended.Add(&blended, &weighted)

	out := models.NewMask(lower.Width, lower.Height)
	for v := 0; v < out.Height; v++ {
		for u := 0; u < out.Width; u++ {
			out.Set(u, v, blended.At(v, u) >= 0)
		}
	}
	return out
}
