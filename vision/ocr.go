package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
	xdraw "golang.org/x/image/draw"
)

// ocrScale is the upscale factor applied before recognition. Game UI
// text is small at typical capture sizes and Tesseract misses it at
// native resolution.
const ocrScale = 2

// Engine wraps a Tesseract client. Not safe for concurrent use; the
// bot loop is single-threaded so one engine per process suffices.
type Engine struct {
	client  *gosseract.Client
	minConf float64
	mode    BinarizeMode
}

// NewEngine creates an OCR engine. minConf is the word confidence
// floor (0-100); words below it are discarded.
func NewEngine(minConf float64, mode BinarizeMode) *Engine {
	client := gosseract.NewClient()
	// Shop listings are sparse labels, not paragraphs.
	client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT)
	return &Engine{client: client, minConf: minConf, mode: mode}
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Words extracts word boxes from a frame. Box coordinates are mapped
// back to the frame's own coordinate space.
func (e *Engine) Words(img image.Image) ([]Word, error) {
	prepared := prepareForOCR(img, e.mode)

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return nil, fmt.Errorf("encode frame for ocr: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set ocr image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("ocr bounding boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence < e.minConf || b.Word == "" {
			continue
		}
		words = append(words, Word{
			Text: b.Word,
			Box: Rect{
				X: b.Box.Min.X / ocrScale,
				Y: b.Box.Min.Y / ocrScale,
				W: b.Box.Dx() / ocrScale,
				H: b.Box.Dy() / ocrScale,
			},
			Confidence: b.Confidence,
		})
	}
	return words, nil
}

// prepareForOCR upscales the frame then binarizes it. Catmull-Rom
// keeps glyph edges smooth enough for the threshold pass.
func prepareForOCR(img image.Image, mode BinarizeMode) image.Image {
	bounds := img.Bounds()
	scaled := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*ocrScale, bounds.Dy()*ocrScale))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Src, nil)
	return BinarizeForOCR(scaled, mode)
}
