package interpolation

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"

	"seginterp/internal/models"
)

// degenerateDistance is the field magnitude of a mask with a single class
const degenerateDistance = 0.5

// Metric selects the distance transform used for shape interpolation
type Metric int

const (
	// Euclidean computes exact distances to the nearest boundary pixel
	Euclidean Metric = iota

	// Chamfer approximates distances with a two-pass 3-4 chamfer mask
	Chamfer
)

func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Chamfer:
		return "chamfer"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ParseMetric converts a configuration string to a Metric
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "euclidean", "edt":
		return Euclidean, nil
	case "chamfer":
		return Chamfer, nil
	default:
		return 0, fmt.Errorf("invalid distance metric: %s (must be euclidean or chamfer)", s)
	}
}

// Pixel is an image coordinate usable as a k-d tree point
type Pixel struct {
	U, V float64
}

// Compare implements the kdtree.Comparable interface
func (p Pixel) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Pixel)
	switch d {
	case 0:
		return p.U - q.U
	case 1:
		return p.V - q.V
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Pixel) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two pixels
func (p Pixel) Distance(c kdtree.Comparable) float64 {
	q := c.(Pixel)
	du := p.U - q.U
	dv := p.V - q.V
	return du*du + dv*dv
}

// Pixels is a collection of Pixel that satisfies kdtree.Interface
type Pixels []Pixel

func (p Pixels) Index(i int) kdtree.Comparable         { return p[i] }
func (p Pixels) Len() int                              { return len(p) }
func (p Pixels) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Pixels) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pixelPlane{Pixels: p, Dim: d}, kdtree.MedianOfRandoms(pixelPlane{Pixels: p, Dim: d}, 100))
}

// pixelPlane implements sort.Interface and kdtree.SortSlicer for Pixels
type pixelPlane struct {
	Pixels
	kdtree.Dim
}

func (p pixelPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Pixels[i].U < p.Pixels[j].U
	case 1:
		return p.Pixels[i].V < p.Pixels[j].V
	default:
		panic("illegal dimension")
	}
}

func (p pixelPlane) Slice(start, end int) kdtree.SortSlicer {
	return pixelPlane{Pixels: p.Pixels[start:end], Dim: p.Dim}
}

func (p pixelPlane) Swap(i, j int) {
	p.Pixels[i], p.Pixels[j] = p.Pixels[j], p.Pixels[i]
}

// SignedDistance returns a Height x Width field that is positive inside the
// foreground and negative outside. The zero crossing lies half a pixel from
// the outermost foreground pixels. The image is surrounded by a one pixel
// background frame, so foreground touching the border is as deep as its
// distance to the border and never outweighs the other bound of a gap.
//
// A mask without foreground is uniformly -0.5, so a shape blended against it
// collapses over the whole gap instead of vanishing next to the bounding
// slice.
func SignedDistance(m *models.Mask, metric Metric) *mat.Dense {
	field := mat.NewDense(m.Height, m.Width, nil)

	if m.Empty() {
		fillDense(field, -degenerateDistance)
		return field
	}

	switch metric {
	case Chamfer:
		chamferField(m, field)
	default:
		euclideanField(m, field)
	}
	return field
}

func fillDense(d *mat.Dense, value float64) {
	r, c := d.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d.Set(i, j, value)
		}
	}
}

// euclideanField looks up, for every pixel, the nearest pixel of the opposite
// class in a k-d tree. The background tree also holds the frame around the
// image.
func euclideanField(m *models.Mask, field *mat.Dense) {
	var inside, outside Pixels
	for v := 0; v < m.Height; v++ {
		for u := 0; u < m.Width; u++ {
			p := Pixel{U: float64(u), V: float64(v)}
			if m.At(u, v) {
				inside = append(inside, p)
			} else {
				outside = append(outside, p)
			}
		}
	}

	// kdtree.New reorders its input, so the trees get their own copies
	background := append(Pixels(nil), outside...)
	background = append(background, frame(m.Width, m.Height)...)
	outsideTree := kdtree.New(background, false)
	for _, p := range inside {
		_, d2 := outsideTree.Nearest(p)
		field.Set(int(p.V), int(p.U), math.Sqrt(d2)-0.5)
	}

	if len(outside) == 0 {
		return
	}
	insideTree := kdtree.New(append(Pixels(nil), inside...), false)
	for _, p := range outside {
		_, d2 := insideTree.Nearest(p)
		field.Set(int(p.V), int(p.U), -(math.Sqrt(d2) - 0.5))
	}
}

// frame returns the ring of pixels just outside a width x height image
func frame(width, height int) Pixels {
	ring := make(Pixels, 0, 2*(width+height)+4)
	for u := -1; u <= width; u++ {
		ring = append(ring, Pixel{U: float64(u), V: -1}, Pixel{U: float64(u), V: float64(height)})
	}
	for v := 0; v < height; v++ {
		ring = append(ring, Pixel{U: -1, V: float64(v)}, Pixel{U: float64(width), V: float64(v)})
	}
	return ring
}

// chamfer weights for axial and diagonal steps
const (
	chamferAxial    = 3.0
	chamferDiagonal = 4.0
)

// chamferField runs two passes per class: forward (top-left to bottom-right)
// and backward. Distances are divided by the axial weight so that one axial
// step measures 1.
func chamferField(m *models.Mask, field *mat.Dense) {
	toBackground := chamferPasses(m, false)
	toForeground := chamferPasses(m, true)

	for v := 0; v < m.Height; v++ {
		for u := 0; u < m.Width; u++ {
			i := v*m.Width + u
			if m.Pix[i] {
				field.Set(v, u, toBackground[i]/chamferAxial-0.5)
			} else {
				field.Set(v, u, -(toForeground[i]/chamferAxial - 0.5))
			}
		}
	}
}

// chamferPasses returns, per pixel, the chamfer distance to the nearest pixel
// whose foreground state equals seed. Background seeds include the frame
// around the image.
func chamferPasses(m *models.Mask, seed bool) []float64 {
	w, h := m.Width, m.Height
	inf := chamferDiagonal * float64(w+h)
	d := make([]float64, w*h)
	for i, fg := range m.Pix {
		if fg == seed {
			d[i] = 0
		} else {
			d[i] = inf
		}
	}

	relax := func(u, v, du, dv int, weight float64) {
		nu, nv := u+du, v+dv
		if nu < 0 || nv < 0 || nu >= w || nv >= h {
			if !seed && weight < d[v*w+u] {
				d[v*w+u] = weight
			}
			return
		}
		if c := d[nv*w+nu] + weight; c < d[v*w+u] {
			d[v*w+u] = c
		}
	}

	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			relax(u, v, -1, 0, chamferAxial)
			relax(u, v, 0, -1, chamferAxial)
			relax(u, v, -1, -1, chamferDiagonal)
			relax(u, v, 1, -1, chamferDiagonal)
		}
	}
	for v := h - 1; v >= 0; v-- {
		for u := w - 1; u >= 0; u-- {
			relax(u, v, 1, 0, chamferAxial)
			relax(u, v, 0, 1, chamferAxial)
			relax(u, v, 1, 1, chamferDiagonal)
			relax(u, v, -1, 1, chamferDiagonal)
		}
	}
	return d
}
