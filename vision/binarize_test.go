package vision

import (
	"image"
	"image/color"
	"testing"
)

// bimodal builds an image that is dark except for a bright block.
func bimodal() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	dark := color.RGBA{R: 30, G: 30, B: 30, A: 255}
	bright := color.RGBA{R: 230, G: 230, B: 230, A: 255}
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if x >= 10 && x < 20 && y >= 5 && y < 15 {
				img.Set(x, y, bright)
			} else {
				img.Set(x, y, dark)
			}
		}
	}
	return img
}

func TestOtsuSplitsBimodalImage(t *testing.T) {
	gray := toGrayscale(bimodal())
	threshold := otsuThreshold(gray)
	if threshold <= 30 || threshold >= 230 {
		t.Errorf("threshold %d does not separate the two modes", threshold)
	}
}

func TestBinarizeLightText(t *testing.T) {
	out := BinarizeForOCR(bimodal(), BinarizeLightText)

	// Bright block becomes black text.
	if r, g, b, _ := out.At(15, 10).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Errorf("expected bright pixel to map to black, got (%d,%d,%d)", r, g, b)
	}
	// Dark surround becomes white background.
	if r, _, _, _ := out.At(2, 2).RGBA(); r != 0xFFFF {
		t.Errorf("expected dark pixel to map to white, got r=%d", r)
	}
}

func TestBinarizeDarkText(t *testing.T) {
	out := BinarizeForOCR(bimodal(), BinarizeDarkText)

	if r, _, _, _ := out.At(15, 10).RGBA(); r != 0xFFFF {
		t.Errorf("expected bright pixel to map to white, got r=%d", r)
	}
	if r, _, _, _ := out.At(2, 2).RGBA(); r != 0 {
		t.Errorf("expected dark pixel to map to black, got r=%d", r)
	}
}

func TestBinarizeBackgroundKnockout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// Fill with the buy-button green, which sits above most Otsu
	// thresholds and would otherwise read as foreground.
	green := color.RGBA{R: 0x3F, G: 0xC3, B: 0x5A, A: 255}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, green)
		}
	}

	out := BinarizeForOCR(img, BinarizeLightText)
	if r, _, _, _ := out.At(5, 5).RGBA(); r != 0xFFFF {
		t.Errorf("expected button green to be forced to background, got r=%d", r)
	}
}

func TestOtsuEmptyImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 0, 0))
	if got := otsuThreshold(gray); got != 128 {
		t.Errorf("expected fallback threshold 128, got %d", got)
	}
}
