package vision

import (
	"image"
	"math"
	"testing"

	"github.com/verdantloop/garden-autobuyer/config"
)

// opencvHue computes the 8-bit OpenCV hue (degrees halved into 0-180)
// for an RGB color, the scale the configured HSV windows are written
// in.
func opencvHue(r, g, b float64) float64 {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	d := max - min
	if d == 0 {
		return 0
	}
	var h float64
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h / 2
}

func TestDefaultRangesCoverButtonGreenHue(t *testing.T) {
	// Buy-button green as sampled from the shop UI.
	hue := opencvHue(63, 195, 90)
	if hue < 65 || hue > 67 {
		t.Fatalf("button green hue = %.1f, expected about 66", hue)
	}

	covered := false
	for _, r := range config.Default().Button.Ranges {
		if hue >= r.LowH && hue <= r.HighH {
			covered = true
		}
	}
	if !covered {
		t.Errorf("no default HSV window covers hue %.1f", hue)
	}

	// Hue is channel-order sensitive: reading the same pixel with red
	// and blue exchanged lands elsewhere on the wheel. The mask code
	// must convert from the Mat's actual BGR layout, not assume RGB.
	if swapped := opencvHue(90, 195, 63); math.Abs(swapped-hue) < 10 {
		t.Errorf("hue insensitive to channel order: %.1f vs %.1f", swapped, hue)
	}
}

func testButtonConfig() config.ButtonConfig {
	return config.ButtonConfig{
		MinArea:   400,
		MinAspect: 1.6,
		MaxAspect: 8.0,
		MaxYDist:  150,
		MaxXDist:  200,
	}
}

func TestPickButtonRejectsSquareIcons(t *testing.T) {
	item := image.Point{X: 200, Y: 100}
	// A large square region right where the button would be: a coin
	// icon, not the button, despite matching the color mask exactly.
	cands := []ButtonCandidate{
		{Box: Rect{X: 180, Y: 140, W: 40, H: 40}, Area: 1600, Aspect: 1.0},
	}

	if _, ok := PickButton(cands, item, baselineRegionHeight, testButtonConfig()); ok {
		t.Error("expected square candidate to be rejected")
	}
}

func TestPickButtonRejectsSmallArea(t *testing.T) {
	item := image.Point{X: 200, Y: 100}
	cands := []ButtonCandidate{
		{Box: Rect{X: 180, Y: 140, W: 30, H: 10}, Area: 300, Aspect: 3.0},
	}

	if _, ok := PickButton(cands, item, baselineRegionHeight, testButtonConfig()); ok {
		t.Error("expected small candidate to be rejected")
	}
}

func TestPickButtonSearchWindow(t *testing.T) {
	item := image.Point{X: 200, Y: 100}
	cfg := testButtonConfig()

	above := ButtonCandidate{Box: Rect{X: 180, Y: 40, W: 80, H: 30}, Area: 2400, Aspect: 80.0 / 30.0}
	tooFarDown := ButtonCandidate{Box: Rect{X: 180, Y: 400, W: 80, H: 30}, Area: 2400, Aspect: 80.0 / 30.0}
	tooFarRight := ButtonCandidate{Box: Rect{X: 500, Y: 140, W: 80, H: 30}, Area: 2400, Aspect: 80.0 / 30.0}

	for name, cand := range map[string]ButtonCandidate{
		"above item":       above,
		"below window":     tooFarDown,
		"outside x window": tooFarRight,
	} {
		if _, ok := PickButton([]ButtonCandidate{cand}, item, baselineRegionHeight, cfg); ok {
			t.Errorf("%s: expected candidate to be rejected", name)
		}
	}
}

func TestPickButtonPrefersNearestBelow(t *testing.T) {
	item := image.Point{X: 200, Y: 100}
	near := ButtonCandidate{Box: Rect{X: 170, Y: 130, W: 80, H: 30}, Area: 2400, Aspect: 80.0 / 30.0}
	far := ButtonCandidate{Box: Rect{X: 170, Y: 190, W: 80, H: 30}, Area: 2400, Aspect: 80.0 / 30.0}

	pos, ok := PickButton([]ButtonCandidate{far, near}, item, baselineRegionHeight, testButtonConfig())
	if !ok {
		t.Fatal("expected a button to be picked")
	}
	if want := near.Box.Center(); pos != want {
		t.Errorf("expected nearest candidate %v, got %v", want, pos)
	}
}

func TestPickButtonScalesWithRegionHeight(t *testing.T) {
	item := image.Point{X: 200, Y: 100}
	// 180px below the item: outside the window at baseline height,
	// inside it when the region is twice as tall.
	cand := ButtonCandidate{Box: Rect{X: 170, Y: 265, W: 160, H: 60}, Area: 9600, Aspect: 160.0 / 60.0}

	if _, ok := PickButton([]ButtonCandidate{cand}, item, baselineRegionHeight, testButtonConfig()); ok {
		t.Error("expected rejection at baseline region height")
	}
	if _, ok := PickButton([]ButtonCandidate{cand}, item, 2*baselineRegionHeight, testButtonConfig()); !ok {
		t.Error("expected acceptance at doubled region height")
	}
}

func TestPickButtonNoCandidates(t *testing.T) {
	if _, ok := PickButton(nil, image.Point{}, baselineRegionHeight, testButtonConfig()); ok {
		t.Error("expected no pick from empty candidates")
	}
}
