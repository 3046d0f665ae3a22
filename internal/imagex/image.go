// Package imagex wraps the image operations the marketplace needs: decoding
// user-supplied pictures, cropping a pixel-exact rectangle out of them, and
// producing square thumbnails.
package imagex

import (
	"errors"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

var (
	// ErrEmptyRegion is returned when a crop rectangle has no area.
	ErrEmptyRegion = errors.New("empty crop region")

	// ErrRegionOutOfBounds is returned when a crop rectangle does not fit
	// inside the source image.
	ErrRegionOutOfBounds = errors.New("crop region out of bounds")
)

// Decode reads and decodes an image from r. The format is sniffed from the
// stream (JPEG, PNG, GIF, TIFF, BMP).
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

// Crop copies exactly the rectangle region out of src into a new image.
// The result has dimensions region.Dx() x region.Dy(). Unlike a plain
// clipping crop, a region that has no area or does not fit inside src is an
// error rather than a silently smaller output.
func Crop(src image.Image, region image.Rectangle) (image.Image, error) {
	if region.Empty() {
		return nil, ErrEmptyRegion
	}
	if !region.In(src.Bounds()) {
		return nil, ErrRegionOutOfBounds
	}
	return imaging.Crop(src, region), nil
}

// Thumbnail scales and center-crops src to a size x size square.
func Thumbnail(src image.Image, size int) image.Image {
	return imaging.Fill(src, size, size, imaging.Center, imaging.Lanczos)
}

// EncodeJPEG writes img to w as JPEG.
func EncodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(85))
}
