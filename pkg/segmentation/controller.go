// Package segmentation drives slice interpolation for a segmentation volume:
// it keeps slice presence up to date as the caller edits the volume and
// answers interpolation queries for slices lying in a gap between two
// manually segmented slices.
package segmentation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"

	"seginterp/internal/models"
	"seginterp/pkg/cache"
	"seginterp/pkg/interpolation"
	"seginterp/pkg/presence"
	"seginterp/pkg/volume"
)

// ErrInvalidKey is returned for slice keys outside the current volume
var ErrInvalidKey = errors.New("invalid slice key")

// State is the lifecycle state of a Controller
type State int

const (
	// Uninitialized controllers have no volume and never produce results
	Uninitialized State = iota

	// Ready controllers track a volume
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Options configures a Controller
type Options struct {
	// Metric selects the distance transform of the shape interpolation
	Metric interpolation.Metric

	// CacheEntries bounds the number of cached results; 0 means unbounded
	CacheEntries int
}

// Controller tracks which slices of a segmentation volume contain content
// and interpolates the slices in between. The volume is owned by the caller;
// the controller only reads it. Every write the caller makes must be
// reported through SliceChanged or SetChangedVolume, otherwise the presence
// records go stale.
//
// All methods are serialized by an internal mutex.
type Controller struct {
	mu sync.Mutex

	opts         Options
	segmentation *volume.Volume
	reference    *volume.Volume
	tracker      *presence.Tracker
	cache        *cache.Cache
	shape        *interpolation.ShapeInterpolator
}

// NewController creates an uninitialized controller
func NewController(opts Options) *Controller {
	return &Controller{
		opts:    opts,
		tracker: presence.NewTracker(),
		cache:   cache.New(opts.CacheEntries),
		shape:   interpolation.NewShapeInterpolator(opts.Metric),
	}
}

// State returns the lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *Controller) state() State {
	if c.segmentation == nil {
		return Uninitialized
	}
	return Ready
}

// SetSegmentationVolume assigns the volume to track and rebuilds the
// presence records of every time step. Passing nil clears all state.
func (c *Controller) SetSegmentationVolume(vol *volume.Volume) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.InvalidateAll()
	c.tracker.Reset()
	c.segmentation = nil

	if vol == nil {
		glog.V(1).Infof("segmentation: volume cleared")
		return nil
	}

	if err := c.tracker.RebuildAll(vol); err != nil {
		c.tracker.Reset()
		return pfx.Err(err)
	}
	c.segmentation = vol

	glog.Infof("segmentation: tracking %dx%dx%d volume with %d time steps (%s voxels)",
		vol.Dims[0], vol.Dims[1], vol.Dims[2], vol.TimeSteps, humanize.Comma(int64(len(vol.Data))))
	return nil
}

// SetReferenceVolume records the grayscale image the segmentation was drawn
// on. It does not influence interpolation.
func (c *Controller) SetReferenceVolume(vol *volume.Volume) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if vol != nil && c.segmentation != nil && vol.Dims != c.segmentation.Dims {
		glog.Warningf("segmentation: reference volume %v differs from segmentation %v", vol.Dims, c.segmentation.Dims)
	}
	c.reference = vol
}

// ReferenceVolume returns the volume set by SetReferenceVolume
func (c *Controller) ReferenceVolume() *volume.Volume {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reference
}

func (c *Controller) checkKey(key models.SliceKey) error {
	if c.segmentation == nil {
		return fmt.Errorf("%s: no segmentation volume: %w", key, ErrInvalidKey)
	}
	if err := c.segmentation.CheckKey(key); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidKey)
	}
	return nil
}

// SliceChanged updates the presence records after the caller wrote slice s
// into the volume at (o, index, t), and drops every cached interpolation the
// write could affect in any orientation. A nil s re-reads the slice from the
// volume.
func (c *Controller) SliceChanged(o models.Orientation, index, t int, s *models.Slice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := models.SliceKey{Orientation: o, Index: index, TimeStep: t}
	if err := c.checkKey(key); err != nil {
		return err
	}

	if s == nil {
		var err error
		if s, err = c.segmentation.ExtractSlice(o, index, t); err != nil {
			return pfx.Err(err)
		}
	}

	changes, err := c.tracker.MarkSliceChanged(o, index, t, s)
	if err != nil {
		return fmt.Errorf("slice changed: %w", err)
	}

	invalidated := 0
	for _, other := range models.Orientations {
		for _, i := range changes[other.Axis()] {
			invalidated += c.cache.InvalidateSlice(other, i, t)
		}
	}
	glog.V(1).Infof("segmentation: %s changed, %d cached interpolations dropped", key, invalidated)
	return nil
}

// SetChangedVolume rescans a whole time step after the caller changed more
// than single slices, and drops that time step's cached interpolations.
func (c *Controller) SetChangedVolume(t int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.segmentation == nil {
		return fmt.Errorf("no segmentation volume: %w", ErrInvalidKey)
	}
	if t < 0 || t >= c.segmentation.TimeSteps {
		return fmt.Errorf("time step %d exceeds %d time steps: %w", t, c.segmentation.TimeSteps, ErrInvalidKey)
	}
	if err := c.tracker.Rebuild(c.segmentation, t); err != nil {
		return pfx.Err(err)
	}
	n := c.cache.InvalidateTimeStep(t)
	glog.V(1).Infof("segmentation: t%d rescanned, %d cached interpolations dropped", t, n)
	return nil
}

// HasContent reports whether a slice contains drawn content
func (c *Controller) HasContent(o models.Orientation, index, t int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.HasContent(o, index, t)
}

// Record returns the presence record of a slice
func (c *Controller) Record(o models.Orientation, index, t int) presence.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.Record(o, index, t)
}

// ContentSlices lists the slices of an orientation that contain content
func (c *Controller) ContentSlices(o models.Orientation, t int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.ContentSlices(o, t)
}

// Bounds returns the nearest content slices around a slice
func (c *Controller) Bounds(o models.Orientation, index, t int) interpolation.Bounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return interpolation.FindBounds(c.tracker, o, index, t)
}

// Interpolate returns the interpolated mask for a slice. A nil mask with a
// nil error means there is nothing to interpolate: the slice already has
// content, it does not lie between two content slices, or no volume is set.
// Errors are only returned for keys outside the volume.
func (c *Controller) Interpolate(o models.Orientation, index, t int) (*models.Mask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok, err := c.interpolate(models.SliceKey{Orientation: o, Index: index, TimeStep: t})
	if err != nil || !ok {
		return nil, err
	}
	return r.Mask, nil
}

// InterpolateResult is like Interpolate but also reports the bounding slices
func (c *Controller) InterpolateResult(o models.Orientation, index, t int) (models.InterpolationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interpolate(models.SliceKey{Orientation: o, Index: index, TimeStep: t})
}

func (c *Controller) interpolate(key models.SliceKey) (models.InterpolationResult, bool, error) {
	var none models.InterpolationResult

	if c.segmentation == nil {
		return none, false, nil
	}
	if err := c.checkKey(key); err != nil {
		return none, false, err
	}
	if c.tracker.HasContent(key.Orientation, key.Index, key.TimeStep) {
		return none, false, nil
	}

	b := interpolation.FindBounds(c.tracker, key.Orientation, key.Index, key.TimeStep)
	if !b.Complete() {
		return none, false, nil
	}

	if r, ok := c.cache.Get(key); ok {
		if r.Lower == b.Lower && r.Upper == b.Upper {
			glog.V(2).Infof("segmentation: cache hit for %s", key)
			return r, true, nil
		}
		c.cache.Invalidate(key)
	}

	lower, err := c.segmentation.ExtractSlice(key.Orientation, b.Lower, key.TimeStep)
	if err != nil {
		return none, false, pfx.Err(err)
	}
	upper, err := c.segmentation.ExtractSlice(key.Orientation, b.Upper, key.TimeStep)
	if err != nil {
		return none, false, pfx.Err(err)
	}

	r := models.InterpolationResult{
		Key:   key,
		Lower: b.Lower,
		Upper: b.Upper,
		Mask:  c.shape.Interpolate(lower.Mask(), upper.Mask(), b.Distance(), key.Index-b.Lower),
	}
	c.cache.Put(r)
	// The caller gets its own copy of the mask
	r.Mask = r.Mask.Clone()

	glog.V(2).Infof("segmentation: interpolated %s between %d and %d", key, b.Lower, b.Upper)
	return r, true, nil
}
