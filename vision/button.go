package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/verdantloop/garden-autobuyer/config"
)

// baselineRegionHeight is the capture height the button search window
// constants were tuned at. Distances scale linearly with the actual
// region height.
const baselineRegionHeight = 534

// buttonMask builds the combined HSV mask for the configured color
// ranges. Caller owns the returned Mat.
func buttonMask(img image.Image, ranges []config.HSVRange) (gocv.Mat, error) {
	// ImageToMatRGB hands back BGR channel order, OpenCV's native
	// layout, so the hue conversion must read it as BGR.
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("frame to mat: %w", err)
	}
	defer src.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	for i, r := range ranges {
		part := gocv.NewMat()
		gocv.InRangeWithScalar(hsv,
			gocv.NewScalar(r.LowH, r.LowS, r.LowV, 0),
			gocv.NewScalar(r.HighH, r.HighS, r.HighV, 0),
			&part)
		if i == 0 {
			mask.Close()
			mask = part
			continue
		}
		gocv.BitwiseOr(mask, part, &mask)
		part.Close()
	}
	return mask, nil
}

// FindButtonCandidates extracts color-mask regions as button
// candidates. No candidates is a normal outcome, not an error.
func FindButtonCandidates(img image.Image, ranges []config.HSVRange) ([]ButtonCandidate, error) {
	if len(ranges) == 0 {
		return nil, nil
	}
	mask, err := buttonMask(img, ranges)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	return maskCandidates(mask), nil
}

// maskCandidates turns mask contours into bounding-box candidates.
func maskCandidates(mask gocv.Mat) []ButtonCandidate {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var cands []ButtonCandidate
	for i := 0; i < contours.Size(); i++ {
		bounds := gocv.BoundingRect(contours.At(i))
		w, h := bounds.Dx(), bounds.Dy()
		if w == 0 || h == 0 {
			continue
		}
		cands = append(cands, ButtonCandidate{
			Box:    Rect{X: bounds.Min.X, Y: bounds.Min.Y, W: w, H: h},
			Area:   w * h,
			Aspect: float64(w) / float64(h),
		})
	}
	return cands
}

// PickButton selects the buy button among candidates for an item at
// `near`. The button sits below the expanded item row, so candidates
// above it or outside the horizontal window are dropped; small areas
// and near-square boxes are icon false-positives. The valid candidate
// closest below the item wins.
func PickButton(cands []ButtonCandidate, near image.Point, regionH int, cfg config.ButtonConfig) (image.Point, bool) {
	scale := 1.0
	if regionH > 0 {
		scale = float64(regionH) / baselineRegionHeight
	}
	maxY := int(float64(cfg.MaxYDist) * scale)
	maxX := int(float64(cfg.MaxXDist) * scale)
	minArea := int(float64(cfg.MinArea) * scale * scale)

	best := image.Point{}
	bestDist := maxY + 1
	found := false
	for _, c := range cands {
		if c.Area < minArea {
			continue
		}
		if c.Aspect < cfg.MinAspect || c.Aspect > cfg.MaxAspect {
			continue
		}
		center := c.Box.Center()
		if center.Y <= near.Y || center.Y > near.Y+maxY {
			continue
		}
		if abs(center.X-near.X) > maxX {
			continue
		}
		if d := center.Y - near.Y; d < bestDist {
			bestDist = d
			best = center
			found = true
		}
	}
	return best, found
}
