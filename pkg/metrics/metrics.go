// Package metrics measures how well interpolated slices agree with manually
// segmented ones.
package metrics

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"github.com/golang/glog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"seginterp/internal/models"
	"seginterp/pkg/segmentation"
	"seginterp/pkg/volume"
)

// Dice returns 2|A∩B| / (|A|+|B|). Two empty masks agree perfectly.
func Dice(a, b *models.Mask) float64 {
	inter, sizeA, sizeB := overlap(a, b)
	if sizeA+sizeB == 0 {
		return 1
	}
	return 2 * float64(inter) / float64(sizeA+sizeB)
}

// Jaccard returns |A∩B| / |A∪B|. Two empty masks agree perfectly.
func Jaccard(a, b *models.Mask) float64 {
	inter, sizeA, sizeB := overlap(a, b)
	union := sizeA + sizeB - inter
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

func overlap(a, b *models.Mask) (inter, sizeA, sizeB int) {
	if !a.SameExtents(b) {
		panic(fmt.Sprintf("metrics: mismatched extents %dx%d and %dx%d", a.Width, a.Height, b.Width, b.Height))
	}
	for i := range a.Pix {
		if a.Pix[i] {
			sizeA++
		}
		if b.Pix[i] {
			sizeB++
		}
		if a.Pix[i] && b.Pix[i] {
			inter++
		}
	}
	return inter, sizeA, sizeB
}

// Correlation returns the Pearson correlation of the two masks as 0/1
// images. When either mask is constant the correlation is undefined and the
// result is 1 for identical masks and 0 otherwise.
func Correlation(a, b *models.Mask) float64 {
	if !a.SameExtents(b) {
		panic(fmt.Sprintf("metrics: mismatched extents %dx%d and %dx%d", a.Width, a.Height, b.Width, b.Height))
	}
	x := toFloat(a)
	y := toFloat(b)
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		if a.Equal(b) {
			return 1
		}
		return 0
	}
	return stat.Correlation(x, y, nil)
}

func toFloat(m *models.Mask) []float64 {
	out := make([]float64, len(m.Pix))
	for i, fg := range m.Pix {
		if fg {
			out[i] = 1
		}
	}
	return out
}

// Report summarizes a leave-one-out evaluation
type Report struct {
	Orientation models.Orientation
	TimeStep    int

	// Indices lists the evaluated slices, Dice their scores
	Indices []int
	Dice    []float64

	MeanDice    float64
	StdDice     float64
	MinDice     float64
	MeanJaccard float64

	// MeanCorrelation averages the Pearson correlation of each slice pair
	MeanCorrelation float64

	// WorstSlice is the index of the slice with the lowest Dice score
	WorstSlice int
}

// Slices returns the number of evaluated slices
func (r Report) Slices() int { return len(r.Indices) }

func (r Report) String() string {
	if r.Slices() == 0 {
		return fmt.Sprintf("%s t%d: no slice with content on both sides", r.Orientation, r.TimeStep)
	}
	return fmt.Sprintf("%s t%d: %d slices, Dice %.4f ± %.4f (min %.4f at slice %d), Jaccard %.4f, correlation %.4f",
		r.Orientation, r.TimeStep, r.Slices(), r.MeanDice, r.StdDice, r.MinDice, r.WorstSlice, r.MeanJaccard, r.MeanCorrelation)
}

// Evaluate removes each content slice that has content on both sides in
// turn, interpolates it from its neighbours and compares the result with the
// removed content. vol itself is not modified.
func Evaluate(vol *volume.Volume, o models.Orientation, t int, opts segmentation.Options) (Report, error) {
	report := Report{Orientation: o, TimeStep: t}
	if vol == nil {
		return report, fmt.Errorf("no volume to evaluate")
	}
	if err := vol.CheckKey(models.SliceKey{Orientation: o, TimeStep: t}); err != nil {
		return report, pfx.Err(err)
	}

	work := vol.Clone()
	ctrl := segmentation.NewController(opts)
	if err := ctrl.SetSegmentationVolume(work); err != nil {
		return report, pfx.Err(err)
	}

	var jaccard, correlation []float64
	width, height := work.SliceExtents(o)
	blank := models.NewSlice(width, height)

	for _, index := range ctrl.ContentSlices(o, t) {
		b := ctrl.Bounds(o, index, t)
		if !b.HasLower || !b.HasUpper {
			continue
		}

		original, err := work.ExtractSlice(o, index, t)
		if err != nil {
			return report, pfx.Err(err)
		}
		if err := replace(work, ctrl, o, index, t, blank); err != nil {
			return report, err
		}

		mask, err := ctrl.Interpolate(o, index, t)
		if err != nil {
			return report, pfx.Err(err)
		}
		if mask == nil {
			mask = models.NewMask(width, height)
		}

		truth := original.Mask()
		report.Indices = append(report.Indices, index)
		report.Dice = append(report.Dice, Dice(truth, mask))
		jaccard = append(jaccard, Jaccard(truth, mask))
		correlation = append(correlation, Correlation(truth, mask))

		if err := replace(work, ctrl, o, index, t, original); err != nil {
			return report, err
		}
		glog.V(1).Infof("metrics: %s slice %d Dice %.4f", o, index, report.Dice[len(report.Dice)-1])
	}

	if len(report.Dice) == 0 {
		return report, nil
	}

	report.MeanDice, report.StdDice = stat.MeanStdDev(report.Dice, nil)
	if len(report.Dice) == 1 {
		report.StdDice = 0
	}
	worst := floats.MinIdx(report.Dice)
	report.MinDice = report.Dice[worst]
	report.WorstSlice = report.Indices[worst]
	report.MeanJaccard = stat.Mean(jaccard, nil)
	report.MeanCorrelation = stat.Mean(correlation, nil)

	if math.IsNaN(report.MeanDice) {
		return report, fmt.Errorf("invalid Dice scores %v", report.Dice)
	}
	return report, nil
}

func replace(vol *volume.Volume, ctrl *segmentation.Controller, o models.Orientation, index, t int, s *models.Slice) error {
	if err := vol.OverwriteSlice(s, o, index, t); err != nil {
		return pfx.Err(err)
	}
	return ctrl.SliceChanged(o, index, t, s)
}
