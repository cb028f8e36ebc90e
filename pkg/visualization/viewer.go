// Package visualization renders track-weighted images and per-streamline
// factor profiles for inspection.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"twimap/internal/models"
)

// Viewer extracts and saves 2D slices of a mapped volume
type Viewer struct {
	vol *models.Volume

	// window is the value shown as full white; values are scaled linearly
	// from 0 and clipped
	window float64

	// Zoom enlarges saved slices by an integer factor with nearest
	// neighbour scaling so single voxels stay visible
	Zoom int
}

// NewViewer creates a viewer for vol. The display window is set to the
// largest finite value in the first volume.
func NewViewer(vol *models.Volume) *Viewer {
	v := &Viewer{vol: vol, Zoom: 1}
	n := vol.Dims[0] * vol.Dims[1] * vol.Dims[2]
	for _, x := range vol.Data[:n] {
		if !math.IsNaN(x) && !math.IsInf(x, 0) && x > v.window {
			v.window = x
		}
	}
	return v
}

// Window returns the value displayed as full intensity
func (v *Viewer) Window() float64 { return v.window }

// SetWindow overrides the display window
func (v *Viewer) SetWindow(w float64) { v.window = w }

func (v *Viewer) gray(x float64) color.Gray16 {
	if v.window <= 0 || math.IsNaN(x) {
		return color.Gray16{}
	}
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, x/v.window*65535)))}
}

// ExtractSlice extracts a 2D slice of volume n perpendicular to axis
// ("x", "y" or "z") at the given voxel position
func (v *Viewer) ExtractSlice(axis string, position, n int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	if n < 0 || n >= v.vol.Volumes {
		return nil, fmt.Errorf("volume %d out of range (have %d)", n, v.vol.Volumes)
	}
	dims := v.vol.Dims

	var img *image.Gray16
	switch axis {
	case "x", "X":
		if position >= dims[0] {
			return nil, fmt.Errorf("position %d exceeds x size %d", position, dims[0])
		}
		img = image.NewGray16(image.Rect(0, 0, dims[1], dims[2]))
		for z := 0; z < dims[2]; z++ {
			for y := 0; y < dims[1]; y++ {
				img.SetGray16(y, dims[2]-1-z, v.gray(v.vol.At(position, y, z, n)))
			}
		}

	case "y", "Y":
		if position >= dims[1] {
			return nil, fmt.Errorf("position %d exceeds y size %d", position, dims[1])
		}
		img = image.NewGray16(image.Rect(0, 0, dims[0], dims[2]))
		for z := 0; z < dims[2]; z++ {
			for x := 0; x < dims[0]; x++ {
				img.SetGray16(x, dims[2]-1-z, v.gray(v.vol.At(x, position, z, n)))
			}
		}

	case "z", "Z":
		if position >= dims[2] {
			return nil, fmt.Errorf("position %d exceeds z size %d", position, dims[2])
		}
		img = image.NewGray16(image.Rect(0, 0, dims[0], dims[1]))
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				img.SetGray16(x, dims[1]-1-y, v.gray(v.vol.At(x, y, position, n)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractColourSlice extracts an RGB slice from a three-volume colour image
// whose values lie in [0, 1]
func (v *Viewer) ExtractColourSlice(axis string, position int) (image.Image, error) {
	if v.vol.Volumes != 3 {
		return nil, fmt.Errorf("colour slices need 3 volumes, have %d", v.vol.Volumes)
	}
	var channels [3]*image.Gray16
	saved := v.window
	v.window = 1
	defer func() { v.window = saved }()
	for c := range channels {
		img, err := v.ExtractSlice(axis, position, c)
		if err != nil {
			return nil, err
		}
		channels[c] = img.(*image.Gray16)
	}

	bounds := channels[0].Bounds()
	out := image.NewRGBA64(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetRGBA64(x, y, color.RGBA64{
				R: channels[0].Gray16At(x, y).Y,
				G: channels[1].Gray16At(x, y).Y,
				B: channels[2].Gray16At(x, y).Y,
				A: 0xffff,
			})
		}
	}
	return out, nil
}

// SaveSlice saves an extracted slice as a JPEG image, enlarged by Zoom
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	if v.Zoom > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*v.Zoom, b.Dy()*v.Zoom))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice of volume 0 along axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Dims[0]
	case "y", "Y":
		maxPos = v.vol.Dims[1]
	case "z", "Z":
		maxPos = v.vol.Dims[2]
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos, 0)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
