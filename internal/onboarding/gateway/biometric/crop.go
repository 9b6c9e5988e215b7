package biometric

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// margin widens the detected box slightly so the crop keeps the whole face.
const margin = 0.1

// cropJPEG cuts the bounding-box region out of the source image and
// re-encodes it as JPEG. Rekognition boxes are relative to image dimensions.
func cropJPEG(source []byte, box *types.BoundingBox) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("decode document image: %w", err)
	}

	bounds := img.Bounds()
	width := float32(bounds.Dx())
	height := float32(bounds.Dy())

	left := deref(box.Left) - margin*deref(box.Width)
	top := deref(box.Top) - margin*deref(box.Height)
	right := deref(box.Left) + (1+margin)*deref(box.Width)
	bottom := deref(box.Top) + (1+margin)*deref(box.Height)

	rect := image.Rect(
		clamp(int(left*width), 0, bounds.Dx()),
		clamp(int(top*height), 0, bounds.Dy()),
		clamp(int(right*width), 0, bounds.Dx()),
		clamp(int(bottom*height), 0, bounds.Dy()),
	).Add(bounds.Min)

	if rect.Empty() {
		return nil, fmt.Errorf("bounding box collapses to an empty region")
	}

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("image type %T does not support cropping", img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, si.SubImage(rect), nil); err != nil {
		return nil, fmt.Errorf("encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(f *float32) float32 {
	if f == nil {
		return 0
	}
	return *f
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
