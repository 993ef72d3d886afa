package vision

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/verdantloop/garden-autobuyer/config"
)

// Debug artifact file names, overwritten on every dump.
const (
	debugFrameFile     = "frame.png"
	debugMaskFile      = "mask.png"
	debugAnnotatedFile = "annotated.png"
)

// DumpDebug writes the raw frame, the button color mask, and an
// annotated frame into dir. Positions are frame-relative. Failures are
// logged and swallowed; debug output must never break the loop.
func DumpDebug(dir string, frame image.Image, items []DetectedItem, button *image.Point, ranges []config.HSVRange) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		visLog.Warn().Err(err).Str("dir", dir).Msg("cannot create debug dir")
		return
	}

	if f, err := os.Create(filepath.Join(dir, debugFrameFile)); err == nil {
		if err := png.Encode(f, frame); err != nil {
			visLog.Warn().Err(err).Msg("debug frame encode failed")
		}
		f.Close()
	}

	if mask, err := buttonMask(frame, ranges); err == nil {
		gocv.IMWrite(filepath.Join(dir, debugMaskFile), mask)
		mask.Close()
	} else {
		visLog.Warn().Err(err).Msg("debug mask build failed")
	}

	// ImageToMatRGB already yields BGR order, which is what IMWrite
	// expects; no channel swap needed.
	annotated, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		visLog.Warn().Err(err).Msg("debug annotate failed")
		return
	}
	defer annotated.Close()

	red := color.RGBA{R: 255, A: 255}
	yellow := color.RGBA{R: 255, G: 255, A: 255}
	for _, item := range items {
		c := red
		if item.HasStock {
			c = yellow
		}
		gocv.Circle(&annotated, item.Pos, 6, c, 2)
	}
	if button != nil {
		gocv.Rectangle(&annotated, image.Rect(
			button.X-12, button.Y-6, button.X+12, button.Y+6), red, 2)
	}
	gocv.IMWrite(filepath.Join(dir, debugAnnotatedFile), annotated)
}
