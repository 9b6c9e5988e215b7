package biometric

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestCropJPEG(t *testing.T) {
	source := testJPEG(t, 200, 100)

	t.Run("crops the relative box", func(t *testing.T) {
		box := &types.BoundingBox{
			Left:   aws.Float32(0.25),
			Top:    aws.Float32(0.25),
			Width:  aws.Float32(0.5),
			Height: aws.Float32(0.5),
		}
		out, err := cropJPEG(source, box)
		require.NoError(t, err)

		cropped, _, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		// 0.5 of 200px plus the margin on both sides, clamped to the image.
		assert.InDelta(t, 120, cropped.Bounds().Dx(), 2)
		assert.InDelta(t, 60, cropped.Bounds().Dy(), 2)
	})

	t.Run("clamps a box that exceeds the image", func(t *testing.T) {
		box := &types.BoundingBox{
			Left:   aws.Float32(0.8),
			Top:    aws.Float32(0.8),
			Width:  aws.Float32(0.6),
			Height: aws.Float32(0.6),
		}
		out, err := cropJPEG(source, box)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})

	t.Run("rejects a degenerate box", func(t *testing.T) {
		box := &types.BoundingBox{
			Left:   aws.Float32(1.0),
			Top:    aws.Float32(1.0),
			Width:  aws.Float32(0.0),
			Height: aws.Float32(0.0),
		}
		_, err := cropJPEG(source, box)
		require.Error(t, err)
	})

	t.Run("rejects garbage bytes", func(t *testing.T) {
		_, err := cropJPEG([]byte("not an image"), &types.BoundingBox{})
		require.Error(t, err)
	})
}
