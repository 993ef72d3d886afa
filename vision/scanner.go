package vision

import (
	"image"

	"github.com/verdantloop/garden-autobuyer/config"
)

// Scanner is the OCR-mode detector. It owns one capture region and one
// OCR engine and reports positions in absolute screen coordinates so
// the caller can click them directly.
type Scanner struct {
	cfg    *config.Config
	engine *Engine
}

// NewScanner builds a detector for the configured region. Shop text is
// light on a dark panel, hence the binarize mode.
func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{
		cfg:    cfg,
		engine: NewEngine(cfg.MinConfidence, BinarizeLightText),
	}
}

// Close releases the OCR engine.
func (s *Scanner) Close() error {
	return s.engine.Close()
}

func (s *Scanner) frame() (*image.RGBA, error) {
	if s.cfg.Region.Empty() {
		return CaptureDisplay()
	}
	return CaptureRegion(s.cfg.Region)
}

func (s *Scanner) matchOptions() MatchOptions {
	return MatchOptions{
		MaxDistance:      s.cfg.FuzzyDistance,
		StockMarker:      s.cfg.StockMarker,
		NoStockWord:      s.cfg.NoStockWord,
		StockTolerancePx: s.cfg.StockTolerancePx,
	}
}

// ScanShop captures the region once and returns target matches with
// stock, top to bottom, in screen coordinates.
func (s *Scanner) ScanShop(targets []string) ([]DetectedItem, error) {
	img, err := s.frame()
	if err != nil {
		return nil, err
	}
	words, err := s.engine.Words(img)
	if err != nil {
		return nil, err
	}
	items := FindShopItems(words, targets, s.matchOptions())

	if s.cfg.Debug {
		DumpDebug(s.cfg.DebugDir, img, items, nil, s.cfg.Button.Ranges)
	}

	for i := range items {
		items[i].Pos = s.toScreen(items[i].Pos)
	}
	return items, nil
}

// FindBuyButton captures the region once and looks for the green buy
// button near the (screen-coordinate) item position.
func (s *Scanner) FindBuyButton(near image.Point) (image.Point, bool, error) {
	img, err := s.frame()
	if err != nil {
		return image.Point{}, false, err
	}
	rel := s.toFrame(near)
	cands, err := FindButtonCandidates(img, s.cfg.Button.Ranges)
	if err != nil {
		return image.Point{}, false, err
	}
	pos, ok := PickButton(cands, rel, s.regionHeight(img), s.cfg.Button)
	if !ok {
		return image.Point{}, false, nil
	}

	if s.cfg.Debug {
		DumpDebug(s.cfg.DebugDir, img, nil, &pos, s.cfg.Button.Ranges)
	}
	return s.toScreen(pos), true, nil
}

// TextPresent captures the region once and fuzzy-searches for text.
func (s *Scanner) TextPresent(text string) (bool, error) {
	img, err := s.frame()
	if err != nil {
		return false, err
	}
	words, err := s.engine.Words(img)
	if err != nil {
		return false, err
	}
	return TextPresent(words, text, s.cfg.FuzzyDistance), nil
}

func (s *Scanner) toScreen(p image.Point) image.Point {
	return image.Point{X: p.X + s.cfg.Region.X, Y: p.Y + s.cfg.Region.Y}
}

func (s *Scanner) toFrame(p image.Point) image.Point {
	return image.Point{X: p.X - s.cfg.Region.X, Y: p.Y - s.cfg.Region.Y}
}

func (s *Scanner) regionHeight(img image.Image) int {
	if !s.cfg.Region.Empty() {
		return s.cfg.Region.H
	}
	return img.Bounds().Dy()
}
