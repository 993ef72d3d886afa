package autobuyer

import (
	"context"
	"image"
	"testing"

	"github.com/verdantloop/garden-autobuyer/config"
	"github.com/verdantloop/garden-autobuyer/vision"
)

type fakeDetector struct {
	scan   func(call int, targets []string) ([]vision.DetectedItem, error)
	button func(call int, near image.Point) (image.Point, bool, error)
	text   func(s string) (bool, error)

	scanCalls   int
	buttonCalls int
}

func (f *fakeDetector) ScanShop(targets []string) ([]vision.DetectedItem, error) {
	f.scanCalls++
	if f.scan == nil {
		return nil, nil
	}
	return f.scan(f.scanCalls, targets)
}

func (f *fakeDetector) FindBuyButton(near image.Point) (image.Point, bool, error) {
	f.buttonCalls++
	if f.button == nil {
		return image.Point{}, false, nil
	}
	return f.button(f.buttonCalls, near)
}

func (f *fakeDetector) TextPresent(s string) (bool, error) {
	if f.text == nil {
		return false, nil
	}
	return f.text(s)
}

type fakeDriver struct {
	clicks  []image.Point
	moves   []image.Point
	scrolls int
	keys    []string
}

func (f *fakeDriver) MoveTo(x, y int)                { f.moves = append(f.moves, image.Point{X: x, Y: y}) }
func (f *fakeDriver) Click(x, y int)                 { f.clicks = append(f.clicks, image.Point{X: x, Y: y}) }
func (f *fakeDriver) Scroll(amount int)              { f.scrolls++ }
func (f *fakeDriver) KeyTap(key string, m ...string) { f.keys = append(f.keys, key) }

func (f *fakeDriver) clickedAt(p image.Point) bool {
	for _, c := range f.clicks {
		if c == p {
			return true
		}
	}
	return false
}

// testConfig returns a config with zeroed delays so tests run fast.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ClickDelayMs = 0
	cfg.SettleDelayMs = 0
	cfg.ScanIntervalMs = 0
	cfg.Region = config.Region{X: 0, Y: 0, W: 800, H: 534}
	return cfg
}

func TestClickUntilSoldOutHitsAttemptCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBuyAttempts = 5

	// The button never disappears: the color signal is stuck.
	det := &fakeDetector{
		button: func(call int, near image.Point) (image.Point, bool, error) {
			return image.Point{X: near.X, Y: near.Y + 40}, true, nil
		},
	}
	drv := &fakeDriver{}
	b := New(cfg, det, drv)

	item := vision.DetectedItem{Target: "Bamboo Seed", Pos: image.Point{X: 200, Y: 100}, HasStock: true}
	b.buyUntilSoldOut(context.Background(), item)

	// One click opens the item, then exactly MaxBuyAttempts buys.
	if got := len(drv.clicks); got != 1+cfg.MaxBuyAttempts {
		t.Fatalf("expected %d clicks, got %d", 1+cfg.MaxBuyAttempts, got)
	}
	// One initial detection plus one after every click: the ceiling
	// must have ended the loop, not detection.
	if det.buttonCalls != 1+cfg.MaxBuyAttempts {
		t.Errorf("expected %d button detections, got %d", 1+cfg.MaxBuyAttempts, det.buttonCalls)
	}
}

func TestBuyStopsWhenButtonDisappears(t *testing.T) {
	cfg := testConfig()
	det := &fakeDetector{
		button: func(call int, near image.Point) (image.Point, bool, error) {
			if call == 1 {
				return image.Point{X: near.X, Y: near.Y + 40}, true, nil
			}
			return image.Point{}, false, nil
		},
	}
	drv := &fakeDriver{}
	b := New(cfg, det, drv)

	b.buyUntilSoldOut(context.Background(),
		vision.DetectedItem{Target: "Bamboo Seed", Pos: image.Point{X: 200, Y: 100}})

	// Open click plus a single buy before the button vanished.
	if got := len(drv.clicks); got != 2 {
		t.Fatalf("expected 2 clicks, got %d", got)
	}
	if b.Stats().Purchased != 1 {
		t.Errorf("expected 1 purchase, got %d", b.Stats().Purchased)
	}
}

func TestMissingButtonSkipsItem(t *testing.T) {
	cfg := testConfig()
	det := &fakeDetector{} // no button, ever
	drv := &fakeDriver{}
	b := New(cfg, det, drv)

	b.buyUntilSoldOut(context.Background(),
		vision.DetectedItem{Target: "Bamboo Seed", Pos: image.Point{X: 200, Y: 100}})

	if got := len(drv.clicks); got != 1 {
		t.Fatalf("expected only the open click, got %d", got)
	}
	if b.Stats().Purchased != 0 {
		t.Errorf("expected no purchases, got %d", b.Stats().Purchased)
	}
}

func TestRescanNeverReusesStalePositions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxScrollPages = 1

	staleB := image.Point{X: 200, Y: 200}
	shiftedB := image.Point{X: 200, Y: 240}

	// The page layout shifts after the first purchase: item B moves
	// down 40 pixels once A's row collapses.
	det := &fakeDetector{
		scan: func(call int, targets []string) ([]vision.DetectedItem, error) {
			switch call {
			case 1:
				return []vision.DetectedItem{
					{Target: "Bamboo Seed", Pos: image.Point{X: 200, Y: 100}, HasStock: true},
					{Target: "Mythical Egg", Pos: staleB, HasStock: true},
				}, nil
			case 2:
				return []vision.DetectedItem{
					{Target: "Mythical Egg", Pos: shiftedB, HasStock: true},
				}, nil
			default:
				return nil, nil
			}
		},
		button: newOneClickButtons(),
	}
	drv := &fakeDriver{}
	b := New(cfg, det, drv)

	b.buyShopPages(context.Background(), []string{"Bamboo Seed", "Mythical Egg"})

	if !drv.clickedAt(shiftedB) {
		t.Error("expected the shifted position to be clicked")
	}
	if drv.clickedAt(staleB) {
		t.Errorf("stale pre-purchase position %v was clicked; clicks: %v", staleB, drv.clicks)
	}
	if b.Stats().Purchased != 2 {
		t.Errorf("expected 2 purchases, got %d", b.Stats().Purchased)
	}
}

// newOneClickButtons returns a button fake where each item position
// yields the button exactly once, then reads sold out.
func newOneClickButtons() func(int, image.Point) (image.Point, bool, error) {
	seen := make(map[image.Point]bool)
	return func(call int, near image.Point) (image.Point, bool, error) {
		if seen[near] {
			return image.Point{}, false, nil
		}
		seen[near] = true
		return image.Point{X: near.X, Y: near.Y + 40}, true, nil
	}
}

func TestEndMarkerStopsPageLoop(t *testing.T) {
	cfg := testConfig()
	cfg.MaxScrollPages = 10

	det := &fakeDetector{
		text: func(s string) (bool, error) { return s == cfg.EndMarker, nil },
	}
	drv := &fakeDriver{}
	b := New(cfg, det, drv)

	b.buyShopPages(context.Background(), []string{"Bamboo Seed"})

	if drv.scrolls != 0 {
		t.Errorf("expected no scroll past the end marker, got %d", drv.scrolls)
	}
	if det.scanCalls != 1 {
		t.Errorf("expected a single page scan, got %d", det.scanCalls)
	}
}

func TestPageCeilingBoundsScrolling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxScrollPages = 3

	det := &fakeDetector{} // nothing ever matches, no end marker
	drv := &fakeDriver{}
	b := New(cfg, det, drv)

	b.buyShopPages(context.Background(), []string{"Bamboo Seed"})

	if drv.scrolls != cfg.MaxScrollPages {
		t.Errorf("expected %d scrolls, got %d", cfg.MaxScrollPages, drv.scrolls)
	}
}

func TestScanErrorDegradesToEmptyPage(t *testing.T) {
	cfg := testConfig()
	cfg.MaxScrollPages = 1

	det := &fakeDetector{
		scan: func(call int, targets []string) ([]vision.DetectedItem, error) {
			return nil, context.DeadlineExceeded
		},
	}
	drv := &fakeDriver{}
	b := New(cfg, det, drv)

	b.buyShopPages(context.Background(), []string{"Bamboo Seed"})

	if len(drv.clicks) != 0 {
		t.Errorf("expected no clicks after scan failure, got %d", len(drv.clicks))
	}
	// The loop must keep going: the failed page is still scrolled past.
	if drv.scrolls != 1 {
		t.Errorf("expected the loop to continue scrolling, got %d scrolls", drv.scrolls)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	det := &fakeDetector{}
	b := New(testConfig(), det, &fakeDriver{})

	if err := b.Run(ctx); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if det.scanCalls != 0 {
		t.Errorf("expected no scans after cancellation, got %d", det.scanCalls)
	}
}

func TestCancellationObservedAtSafePoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	det := &fakeDetector{}
	drv := &fakeDriver{}
	b := New(testConfig(), det, drv)

	b.buyShopPages(ctx, []string{"Bamboo Seed"})

	if det.scanCalls != 0 {
		t.Errorf("expected no scans after cancellation, got %d", det.scanCalls)
	}
	if len(drv.clicks) != 0 {
		t.Errorf("expected no clicks after cancellation, got %d", len(drv.clicks))
	}
}

func TestTogglePause(t *testing.T) {
	b := New(testConfig(), &fakeDetector{}, &fakeDriver{})
	if !b.TogglePause() {
		t.Error("expected first toggle to pause")
	}
	if b.TogglePause() {
		t.Error("expected second toggle to resume")
	}
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		PhaseIdle:     "Idle",
		PhaseScan:     "Scan",
		PhaseClicking: "Clicking",
		Phase(99):     "Unknown",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
