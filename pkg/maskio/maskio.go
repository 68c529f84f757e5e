// Package maskio reads and writes segmentation volumes as stacks of 2D
// images, one transversal slice per file.
package maskio

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"
	"github.com/golang/glog"
	_ "golang.org/x/image/bmp"

	"seginterp/internal/models"
	"seginterp/pkg/volume"
)

// Foreground is the gray level written for foreground pixels
const Foreground = 255

var extensions = map[string]bool{
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".jpg":  true,
	".jpeg": true,
}

// ListStack returns the image files of dir ordered by the number in their
// name
func ListStack(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		numI := extractNumber(files[i])
		numJ := extractNumber(files[j])
		if numI != numJ {
			return numI < numJ
		}
		return files[i] < files[j]
	})

	paths := make([]string, len(files))
	for i, name := range files {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// extractNumber returns the digits of a file name as a number, or 0
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// LoadStack reads every image in dir as one transversal slice of a single
// time step volume. Each voxel holds the gray level of its pixel, 16-bit
// for 16-bit images, so any non-black pixel is foreground.
func LoadStack(dir string) (*volume.Volume, error) {
	paths, err := ListStack(dir)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var vol *volume.Volume
	for z, path := range paths {
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", path, err)
		}

		bounds := img.Bounds()
		if vol == nil {
			if vol, err = volume.New(bounds.Dx(), bounds.Dy(), len(paths), 1); err != nil {
				return nil, pfx.Err(err)
			}
		}
		if bounds.Dx() != vol.Dims[0] || bounds.Dy() != vol.Dims[1] {
			return nil, fmt.Errorf("image %s is %dx%d, expected %dx%d: %w",
				path, bounds.Dx(), bounds.Dy(), vol.Dims[0], vol.Dims[1], volume.ErrExtentMismatch)
		}

		s := sliceFromImage(img)
		if err := vol.OverwriteSlice(s, models.Transversal, z, 0); err != nil {
			return nil, pfx.Err(err)
		}
	}

	glog.Infof("maskio: loaded %d slices of %dx%d from %s", vol.Dims[2], vol.Dims[0], vol.Dims[1], dir)
	return vol, nil
}

func sliceFromImage(img image.Image) *models.Slice {
	bounds := img.Bounds()
	s := models.NewSlice(bounds.Dx(), bounds.Dy())
	deep := isDeep(img)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			s.Set(x, y, grayLevel(img.At(bounds.Min.X+x, bounds.Min.Y+y), deep))
		}
	}
	return s
}

// isDeep reports whether img stores 16 bits per channel
func isDeep(img image.Image) bool {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return true
	}
	return false
}

// grayLevel converts c to a label value. Deep images keep their 16-bit
// levels. Any non-black pixel stays foreground.
func grayLevel(c color.Color, deep bool) float64 {
	var level float64
	if deep {
		level = float64(color.Gray16Model.Convert(c).(color.Gray16).Y)
	} else {
		level = float64(color.GrayModel.Convert(c).(color.Gray).Y)
	}
	if level == 0 {
		if r, g, b, _ := c.RGBA(); r|g|b != 0 {
			return 1
		}
	}
	return level
}

// MaskImage renders a mask as a grayscale image
func MaskImage(m *models.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for v := 0; v < m.Height; v++ {
		for u := 0; u < m.Width; u++ {
			if m.At(u, v) {
				img.SetGray(u, v, color.Gray{Y: Foreground})
			}
		}
	}
	return img
}

// SaveMask writes a mask to path. The format follows the file extension.
func SaveMask(m *models.Mask, path string) error {
	return imaging.Save(MaskImage(m), path)
}

// SaveStack writes every transversal slice of time step t into dir as
// slice_NNN.png
func SaveStack(vol *volume.Volume, t int, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var paths []string
	for z := 0; z < vol.Dimension(models.Transversal); z++ {
		s, err := vol.ExtractSlice(models.Transversal, z, t)
		if err != nil {
			return paths, pfx.Err(err)
		}
		path := filepath.Join(dir, fmt.Sprintf("slice_%03d.png", z))
		if err := SaveMask(s.Mask(), path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	glog.V(1).Infof("maskio: wrote %d slices to %s", len(paths), dir)
	return paths, nil
}
