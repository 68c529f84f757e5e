package interpolation

import "seginterp/internal/models"

// ContentIndex answers whether a slice contains drawn content
type ContentIndex interface {
	HasContent(o models.Orientation, index, t int) bool
	Dimension(o models.Orientation) int
}

// Bounds holds the nearest content slices below and above a queried slice
type Bounds struct {
	Lower    int
	Upper    int
	HasLower bool
	HasUpper bool
}

// Complete reports whether content was found on both sides
func (b Bounds) Complete() bool { return b.HasLower && b.HasUpper }

// Distance returns the number of slices between the two bounds
func (b Bounds) Distance() int { return b.Upper - b.Lower }

// Contains reports whether index lies within [Lower, Upper] of a complete bound
func (b Bounds) Contains(index int) bool {
	return b.Complete() && index >= b.Lower && index <= b.Upper
}

// FindBounds scans outward from index for the nearest content slice strictly
// below and strictly above it. The scan stops at the volume bounds; a side
// without content is reported as missing.
func FindBounds(idx ContentIndex, o models.Orientation, index, t int) Bounds {
	var b Bounds
	dim := idx.Dimension(o)

	for i := index - 1; i >= 0; i-- {
		if idx.HasContent(o, i, t) {
			b.Lower, b.HasLower = i, true
			break
		}
	}
	for i := index + 1; i < dim; i++ {
		if idx.HasContent(o, i, t) {
			b.Upper, b.HasUpper = i, true
			break
		}
	}
	return b
}
