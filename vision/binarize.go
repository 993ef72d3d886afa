package vision

import (
	"image"
	"image/color"
)

// BinarizeMode selects the text/background contrast direction.
type BinarizeMode int

const (
	// BinarizeDarkText handles dark glyphs on a light panel.
	// Output is black text on a white background.
	BinarizeDarkText BinarizeMode = iota
	// BinarizeLightText handles light glyphs on a dark panel.
	// Output is also black text on a white background.
	BinarizeLightText
)

// String returns the mode name.
func (m BinarizeMode) String() string {
	switch m {
	case BinarizeDarkText:
		return "DarkText"
	case BinarizeLightText:
		return "LightText"
	default:
		return "Unknown"
	}
}

// backgroundColor defines a color that must be forced to background
// regardless of the threshold result.
type backgroundColor struct {
	R, G, B   uint8
	Tolerance uint8
}

// backgroundColors are shop UI fills that sit close to the glyph
// luminance and would otherwise survive thresholding as noise: the
// green buy button fill and the teal panel accent.
var backgroundColors = []backgroundColor{
	{R: 0x3F, G: 0xC3, B: 0x5A, Tolerance: 24},
	{R: 0x2E, G: 0xB8, B: 0xA6, Tolerance: 20},
}

func isBackgroundColor(r, g, b uint8) bool {
	for _, bg := range backgroundColors {
		dr := absDiff(r, bg.R)
		dg := absDiff(g, bg.G)
		db := absDiff(b, bg.B)
		if dr <= bg.Tolerance && dg <= bg.Tolerance && db <= bg.Tolerance {
			return true
		}
	}
	return false
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// BinarizeForOCR thresholds an image for the recognizer using Otsu's
// method on the grayscale histogram. Pixels matching a known UI fill
// color are forced to background first.
func BinarizeForOCR(img image.Image, mode BinarizeMode) image.Image {
	bounds := img.Bounds()
	grayImg := toGrayscale(img)
	threshold := otsuThreshold(grayImg)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{R: 0, G: 0, B: 0, A: 255}

	result := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pr, pg, pb := uint8(r>>8), uint8(g>>8), uint8(b>>8)
			if isBackgroundColor(pr, pg, pb) {
				result.Set(x, y, white)
				continue
			}

			gray := grayImg.GrayAt(x, y).Y
			var c color.RGBA
			switch mode {
			case BinarizeLightText:
				// Glyphs are brighter than the panel.
				if gray >= threshold {
					c = black
				} else {
					c = white
				}
			default:
				if gray >= threshold {
					c = white
				} else {
					c = black
				}
			}
			result.Set(x, y, c)
		}
	}
	return result
}

// toGrayscale converts using the standard luminance weights.
func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	grayImg := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := uint8(0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8))
			grayImg.SetGray(x, y, color.Gray{Y: lum})
		}
	}
	return grayImg
}

// otsuThreshold picks the threshold maximizing between-class variance.
func otsuThreshold(img *image.Gray) uint8 {
	bounds := img.Bounds()

	var histogram [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			histogram[img.GrayAt(x, y).Y]++
		}
	}

	totalPixels := (bounds.Max.X - bounds.Min.X) * (bounds.Max.Y - bounds.Min.Y)
	if totalPixels == 0 {
		return 128
	}

	var totalSum float64
	for i := 0; i < 256; i++ {
		totalSum += float64(i) * float64(histogram[i])
	}

	var sumBackground float64
	var weightBackground, weightForeground int
	var maxVariance float64
	var bestThreshold uint8

	for t := 0; t < 256; t++ {
		weightBackground += histogram[t]
		if weightBackground == 0 {
			continue
		}

		weightForeground = totalPixels - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(t) * float64(histogram[t])

		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (totalSum - sumBackground) / float64(weightForeground)

		variance := float64(weightBackground) * float64(weightForeground) *
			(meanBackground - meanForeground) * (meanBackground - meanForeground)

		if variance > maxVariance {
			maxVariance = variance
			bestThreshold = uint8(t)
		}
	}

	return bestThreshold
}
