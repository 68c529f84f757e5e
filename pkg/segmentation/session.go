package segmentation

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/golang/glog"

	"seginterp/internal/models"
	"seginterp/pkg/volume"
)

// Session owns a segmentation volume together with the controller tracking
// it, and routes every write through the controller so presence never goes
// stale.
type Session struct {
	vol   *volume.Volume
	ctrl  *Controller
	label float64
}

// NewSession starts tracking vol. Accepted interpolations are written with
// the given label value.
func NewSession(vol *volume.Volume, opts Options, label float64) (*Session, error) {
	if vol == nil {
		return nil, fmt.Errorf("session needs a segmentation volume")
	}
	if label == 0 {
		return nil, fmt.Errorf("label value must be non-zero")
	}

	ctrl := NewController(opts)
	if err := ctrl.SetSegmentationVolume(vol); err != nil {
		return nil, pfx.Err(err)
	}
	return &Session{vol: vol, ctrl: ctrl, label: label}, nil
}

// Volume returns the segmentation volume
func (s *Session) Volume() *volume.Volume { return s.vol }

// Controller returns the controller tracking the volume
func (s *Session) Controller() *Controller { return s.ctrl }

// WriteSlice overwrites one slice of the volume and reports the change
func (s *Session) WriteSlice(o models.Orientation, index, t int, sl *models.Slice) error {
	if err := s.vol.OverwriteSlice(sl, o, index, t); err != nil {
		return err
	}
	return s.ctrl.SliceChanged(o, index, t, sl)
}

// Accept writes the interpolation of a slice into the volume. It reports
// false when there was nothing to interpolate.
func (s *Session) Accept(o models.Orientation, index, t int) (bool, error) {
	mask, err := s.ctrl.Interpolate(o, index, t)
	if err != nil || mask == nil {
		return false, err
	}
	if mask.Empty() {
		glog.V(1).Infof("session: %s slice %d interpolated to nothing", o, index)
		return false, nil
	}
	if err := s.WriteSlice(o, index, t, mask.ToSlice(s.label)); err != nil {
		return false, err
	}
	return true, nil
}

// AcceptAll fills every gap of one orientation. All interpolations are
// computed from the current content first and written afterwards, so a
// filled slice never becomes the bound of another one. It returns the number
// of slices written.
func (s *Session) AcceptAll(o models.Orientation, t int) (int, error) {
	if err := s.vol.CheckKey(models.SliceKey{Orientation: o, Index: 0, TimeStep: t}); err != nil {
		return 0, fmt.Errorf("%v: %w", err, ErrInvalidKey)
	}

	pending := make(map[int]*models.Mask)
	for index := 0; index < s.vol.Dimension(o); index++ {
		mask, err := s.ctrl.Interpolate(o, index, t)
		if err != nil {
			return 0, err
		}
		if mask != nil && !mask.Empty() {
			pending[index] = mask
		}
	}

	written := 0
	for index := 0; index < s.vol.Dimension(o); index++ {
		mask, ok := pending[index]
		if !ok {
			continue
		}
		if err := s.WriteSlice(o, index, t, mask.ToSlice(s.label)); err != nil {
			return written, err
		}
		written++
	}

	glog.Infof("session: filled %d %s slices at t%d", written, o, t)
	return written, nil
}
