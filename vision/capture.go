package vision

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/verdantloop/garden-autobuyer/config"
)

// CaptureRegion grabs the configured screen region as an RGBA frame.
func CaptureRegion(r config.Region) (*image.RGBA, error) {
	img, err := screenshot.Capture(r.X, r.Y, r.W, r.H)
	if err != nil {
		return nil, fmt.Errorf("capture region %dx%d at (%d,%d): %w", r.W, r.H, r.X, r.Y, err)
	}
	return img, nil
}

// CaptureDisplay grabs the primary display. Used when no region is
// configured and by the snapshot utility.
func CaptureDisplay() (*image.RGBA, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, fmt.Errorf("capture display: %w", err)
	}
	return img, nil
}
