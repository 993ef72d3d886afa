// Package vision turns captured frames into purchasable shop items: OCR
// word extraction, fuzzy target matching with stock-marker pairing, and
// HSV color detection of the green buy button.
package vision

import (
	"image"

	"github.com/rs/zerolog/log"
)

var visLog = log.With().Str("module", "vision").Logger()

// Rect is an axis-aligned box in frame coordinates.
type Rect struct {
	X, Y, W, H int
}

// Center returns the midpoint of the box.
func (r Rect) Center() image.Point {
	return image.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Union returns the smallest box covering both rects.
func (r Rect) Union(o Rect) Rect {
	if r.W == 0 && r.H == 0 {
		return o
	}
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.X+r.W, o.X+o.W)
	maxY := max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Word is one OCR token with its box and recognizer confidence (0-100).
type Word struct {
	Text       string
	Box        Rect
	Confidence float64
}

// DetectedItem is a transient scan result. It is produced fresh on
// every scan and must never outlive the next click or scroll: the UI
// shifts and the position goes stale.
type DetectedItem struct {
	Target   string
	Text     string
	Pos      image.Point
	HasStock bool
}

// ButtonCandidate is one color-mask region considered as the buy button.
type ButtonCandidate struct {
	Box    Rect
	Area   int
	Aspect float64
}
