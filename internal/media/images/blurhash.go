package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

const (
	blurHashMaxDim     = 64
	blurHashComponents = 4
)

// ComputeBlurHash generates a compact placeholder hash for an image.
// The image is downscaled first since blurhash encoding cost is
// proportional to pixel count and the hash only captures coarse detail.
func ComputeBlurHash(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("image cannot be nil")
	}

	thumb := scaleDown(img, blurHashMaxDim)

	hash, err := blurhash.Encode(blurHashComponents, 3, thumb)
	if err != nil {
		return "", fmt.Errorf("failed to encode blurhash: %w", err)
	}

	return hash, nil
}

// scaleDown resizes an image so its larger dimension is at most maxDim,
// preserving aspect ratio. Images already within bounds are returned as-is.
func scaleDown(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	var newW, newH int
	if w > h {
		newW = maxDim
		newH = h * maxDim / w
	} else {
		newH = maxDim
		newW = w * maxDim / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
