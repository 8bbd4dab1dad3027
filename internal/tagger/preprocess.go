package tagger

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ImageSize is the square input dimension expected by the tagger models.
const ImageSize = 448

var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Sigmoid maps a model logit to a confidence in (0, 1), clamped to avoid
// overflow on extreme logits.
func Sigmoid(x float32) float32 {
	if x > 50 {
		x = 50
	} else if x < -50 {
		x = -50
	}
	return 1 / (1 + float32(math.Exp(float64(-x))))
}

// Preprocess pads the image to a white square, resizes to the model input
// size, and normalizes channels into CHW float order.
func Preprocess(img image.Image) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	maxDim := max(h, w)

	canvas := imaging.New(maxDim, maxDim, color.White)
	img = imaging.Paste(canvas, img, image.Pt((maxDim-w)/2, (maxDim-h)/2))
	img = imaging.Resize(img, ImageSize, ImageSize, imaging.Lanczos)

	out := make([]float32, 3*ImageSize*ImageSize)
	rBase := 0
	gBase := ImageSize * ImageSize
	bBase := 2 * ImageSize * ImageSize

	for y := range ImageSize {
		for x := range ImageSize {
			r, g, b, _ := img.At(x, y).RGBA()
			fr := float32(r) / 65535.0
			fg := float32(g) / 65535.0
			fb := float32(b) / 65535.0

			out[rBase] = (fr - clipMean[0]) / clipStd[0]
			out[gBase] = (fg - clipMean[1]) / clipStd[1]
			out[bBase] = (fb - clipMean[2]) / clipStd[2]

			rBase++
			gBase++
			bBase++
		}
	}
	return out
}
