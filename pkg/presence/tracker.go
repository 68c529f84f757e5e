// Package presence keeps track of which slices of a segmentation volume
// contain drawn content, per orientation and time step.
package presence

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"

	"seginterp/internal/models"
	"seginterp/pkg/volume"
)

// Record summarizes the content of one slice
type Record struct {
	// Foreground is the number of non-zero pixels in the slice
	Foreground int

	// BorderPixels is the number of foreground pixels on the slice's outer
	// rectangle, i.e. contours that were cut off at the image border
	BorderPixels int
}

// HasContent reports whether the slice contains any foreground
func (r Record) HasContent() bool { return r.Foreground > 0 }

// Changes lists, per orientation, the slice indices whose record changed
type Changes [3][]int

// Empty reports whether no record changed
func (c Changes) Empty() bool {
	return len(c[0]) == 0 && len(c[1]) == 0 && len(c[2]) == 0
}

// timeStep holds the bookkeeping of one 3D volume
type timeStep struct {
	// shadow is the binary copy of the volume the counts were derived from
	shadow  []bool
	records [3][]Record
}

// Tracker maintains slice presence records for every orientation and time
// step of one volume. It is not safe for concurrent use.
type Tracker struct {
	dims  [3]int
	steps []*timeStep
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset discards all records
func (tr *Tracker) Reset() {
	tr.dims = [3]int{}
	tr.steps = nil
}

// Dimension returns the number of slices along an orientation
func (tr *Tracker) Dimension(o models.Orientation) int {
	if !o.Valid() {
		return 0
	}
	return tr.dims[o.Axis()]
}

// TimeSteps returns the number of time steps the tracker was sized for
func (tr *Tracker) TimeSteps() int { return len(tr.steps) }

// RebuildAll sizes the tracker for vol and scans every time step
func (tr *Tracker) RebuildAll(vol *volume.Volume) error {
	tr.dims = vol.Dims
	tr.steps = make([]*timeStep, vol.TimeSteps)
	for t := 0; t < vol.TimeSteps; t++ {
		if err := tr.Rebuild(vol, t); err != nil {
			return err
		}
	}
	return nil
}

func (tr *Tracker) newTimeStep() *timeStep {
	ts := &timeStep{
		shadow: make([]bool, tr.dims[0]*tr.dims[1]*tr.dims[2]),
	}
	for axis := range ts.records {
		ts.records[axis] = make([]Record, tr.dims[axis])
	}
	return ts
}

// Rebuild rescans one time step of vol from scratch. Every voxel is visited
// once and counted into all three orientations.
func (tr *Tracker) Rebuild(vol *volume.Volume, t int) error {
	if vol.Dims != tr.dims || vol.TimeSteps != len(tr.steps) {
		return fmt.Errorf("volume %v with %d time steps does not match tracker %v with %d time steps",
			vol.Dims, vol.TimeSteps, tr.dims, len(tr.steps))
	}
	if t < 0 || t >= len(tr.steps) {
		return fmt.Errorf("time step %d: %w", t, volume.ErrIndexOutOfRange)
	}

	ts := tr.newTimeStep()
	nx, ny, nz := tr.dims[0], tr.dims[1], tr.dims[2]
	base := t * vol.TimeStepVoxels()
	foreground := 0
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			row := base + z*nx*ny + y*nx
			for x := 0; x < nx; x++ {
				if vol.Data[row+x] == 0 {
					continue
				}
				p := [3]int{x, y, z}
				ts.shadow[z*nx*ny+y*nx+x] = true
				tr.count(ts, p, 1)
				foreground++
			}
		}
	}
	tr.steps[t] = ts

	glog.V(1).Infof("presence: rebuilt t%d, %s foreground voxels of %s",
		t, humanize.Comma(int64(foreground)), humanize.Comma(int64(len(ts.shadow))))
	return nil
}

// count adds delta to the records of every slice containing voxel p
func (tr *Tracker) count(ts *timeStep, p [3]int, delta int) {
	for _, o := range models.Orientations {
		u, w := o.PlaneAxes()
		rec := &ts.records[o.Axis()][p[o.Axis()]]
		rec.Foreground += delta
		if p[u] == 0 || p[w] == 0 || p[u] == tr.dims[u]-1 || p[w] == tr.dims[w]-1 {
			rec.BorderPixels += delta
		}
	}
}

func (tr *Tracker) step(t int) *timeStep {
	if t < 0 || t >= len(tr.steps) {
		return nil
	}
	return tr.steps[t]
}

// MarkSliceChanged rescans a single slice that was written into the volume.
// Only voxels whose foreground state differs from the last scan are
// recounted; because those voxels also belong to slices of the other two
// orientations, their records are updated too. The returned Changes list
// every slice whose record changed.
func (tr *Tracker) MarkSliceChanged(o models.Orientation, index, t int, s *models.Slice) (Changes, error) {
	var changes Changes

	ts := tr.step(t)
	if ts == nil || !o.Valid() || index < 0 || index >= tr.dims[o.Axis()] {
		return changes, fmt.Errorf("%s slice %d at t%d: %w", o, index, t, volume.ErrIndexOutOfRange)
	}
	u, w := o.PlaneAxes()
	if s == nil || s.Width != tr.dims[u] || s.Height != tr.dims[w] || len(s.Data) != s.Width*s.Height {
		return changes, fmt.Errorf("%s slice %d: %w", o, index, volume.ErrExtentMismatch)
	}

	var touched [3]map[int]struct{}
	for axis := range touched {
		touched[axis] = make(map[int]struct{})
	}

	nx, ny := tr.dims[0], tr.dims[1]
	for row := 0; row < s.Height; row++ {
		for col := 0; col < s.Width; col++ {
			var p [3]int
			p[o.Axis()] = index
			p[u] = col
			p[w] = row

			offset := p[2]*nx*ny + p[1]*nx + p[0]
			fg := s.Data[row*s.Width+col] != 0
			if ts.shadow[offset] == fg {
				continue
			}
			ts.shadow[offset] = fg
			delta := -1
			if fg {
				delta = 1
			}
			tr.count(ts, p, delta)
			for axis := range touched {
				touched[axis][p[axis]] = struct{}{}
			}
		}
	}

	for axis := range touched {
		for i := range touched[axis] {
			changes[axis] = append(changes[axis], i)
		}
		sort.Ints(changes[axis])
	}
	if glog.V(2) {
		glog.Infof("presence: %s slice %d at t%d changed %d/%d/%d slices",
			o, index, t, len(changes[0]), len(changes[1]), len(changes[2]))
	}
	return changes, nil
}

// Record returns the record of one slice. Unknown slices have no content.
func (tr *Tracker) Record(o models.Orientation, index, t int) Record {
	ts := tr.step(t)
	if ts == nil || !o.Valid() || index < 0 || index >= tr.dims[o.Axis()] {
		return Record{}
	}
	return ts.records[o.Axis()][index]
}

// HasContent reports whether a slice contains any foreground
func (tr *Tracker) HasContent(o models.Orientation, index, t int) bool {
	return tr.Record(o, index, t).HasContent()
}

// ContentSlices lists the indices of every slice with content, ascending
func (tr *Tracker) ContentSlices(o models.Orientation, t int) []int {
	ts := tr.step(t)
	if ts == nil || !o.Valid() {
		return nil
	}
	var indices []int
	for i, rec := range ts.records[o.Axis()] {
		if rec.HasContent() {
			indices = append(indices, i)
		}
	}
	return indices
}
