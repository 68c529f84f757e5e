package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"seginterp/internal/models"
	"seginterp/pkg/segmentation"
	"seginterp/pkg/volume"
)

// Gray levels of the rendered slices
const (
	ContentLevel      = 255
	InterpolatedLevel = 128
)

// Viewer renders slices of a segmentation volume as images. When a
// controller is attached, slices without content show their interpolation
// in a darker gray, which previews what accepting the interpolation would
// write.
type Viewer struct {
	vol  *volume.Volume
	ctrl *segmentation.Controller

	// timeStep is the time step being rendered
	timeStep int

	// scale enlarges every rendered slice by an integer factor
	scale int
}

// NewViewer creates a viewer for one time step of vol. ctrl may be nil.
func NewViewer(vol *volume.Volume, ctrl *segmentation.Controller, timeStep, scale int) (*Viewer, error) {
	if vol == nil {
		return nil, fmt.Errorf("viewer needs a volume")
	}
	if timeStep < 0 || timeStep >= vol.TimeSteps {
		return nil, fmt.Errorf("time step %d exceeds %d time steps", timeStep, vol.TimeSteps)
	}
	if scale < 1 {
		return nil, fmt.Errorf("scale must be positive, got %d", scale)
	}
	return &Viewer{vol: vol, ctrl: ctrl, timeStep: timeStep, scale: scale}, nil
}

// ExtractSlice renders one slice. Content pixels are white, interpolated
// pixels gray and everything else black.
func (v *Viewer) ExtractSlice(o models.Orientation, position int) (image.Image, error) {
	s, err := v.vol.ExtractSlice(o, position, v.timeStep)
	if err != nil {
		return nil, err
	}

	var interpolated *models.Mask
	if v.ctrl != nil {
		if interpolated, err = v.ctrl.Interpolate(o, position, v.timeStep); err != nil {
			return nil, err
		}
	}

	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for row := 0; row < s.Height; row++ {
		for col := 0; col < s.Width; col++ {
			switch {
			case s.At(col, row) != 0:
				img.SetGray(col, row, color.Gray{Y: ContentLevel})
			case interpolated != nil && interpolated.At(col, row):
				img.SetGray(col, row, color.Gray{Y: InterpolatedLevel})
			}
		}
	}

	if v.scale == 1 {
		return img, nil
	}
	return imaging.Resize(img, s.Width*v.scale, s.Height*v.scale, imaging.NearestNeighbor), nil
}

// SaveSlice saves a rendered slice; the format follows the file extension
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	return imaging.Save(img, filename)
}

// SaveSliceSequence renders and saves every slice of an orientation
func (v *Viewer) SaveSliceSequence(o models.Orientation, outputDir string) error {
	if !o.Valid() {
		return fmt.Errorf("invalid orientation: %s", o)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < v.vol.Dimension(o); pos++ {
		img, err := v.ExtractSlice(o, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", o, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
