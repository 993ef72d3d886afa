package vision

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// markerMaxDistance is the edit tolerance for the stock marker and its
// negating word. Markers are short tokens, so the tolerance is tighter
// than the one used for item names.
const markerMaxDistance = 1

// MatchOptions tunes shop item matching.
type MatchOptions struct {
	// MaxDistance is the edit-distance tolerance for target names.
	MaxDistance int
	// StockMarker is the token whose presence near a name means the
	// item is purchasable.
	StockMarker string
	// NoStockWord negates the marker when it immediately precedes it
	// on the same line ("NO STOCK" is the sold-out banner).
	NoStockWord string
	// StockTolerancePx is the max vertical distance between a name
	// match and its stock marker.
	StockTolerancePx int
}

// FindShopItems matches OCR words against the target names and pairs
// each match with a stock marker within the vertical tolerance.
// Matches without a marker in tolerance are excluded: the recognizer
// regularly picks up names of rows that are sold out or half-scrolled,
// and clicking those wastes a cycle. Results are ordered top to
// bottom. Empty input produces an empty result, never an error.
func FindShopItems(words []Word, targets []string, opt MatchOptions) []DetectedItem {
	if len(words) == 0 || len(targets) == 0 {
		return nil
	}

	lines := groupLines(words)
	markers := stockMarkers(lines, opt)

	var items []DetectedItem
	for _, ln := range lines {
		for _, target := range targets {
			box, ok := matchTarget(ln, target, opt.MaxDistance)
			if !ok {
				continue
			}
			center := box.Center()
			item := DetectedItem{
				Target: target,
				Text:   lineText(ln),
				Pos:    center,
			}
			for _, my := range markers {
				if abs(my-center.Y) <= opt.StockTolerancePx {
					item.HasStock = true
					break
				}
			}
			if !item.HasStock {
				visLog.Debug().Str("target", target).Int("y", center.Y).
					Msg("name matched without stock marker, excluded")
				continue
			}
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Pos.Y < items[j].Pos.Y
	})
	return items
}

// TextPresent reports whether text appears anywhere in the OCR words,
// within the given edit tolerance.
func TextPresent(words []Word, text string, maxDist int) bool {
	if text == "" {
		return false
	}
	for _, ln := range groupLines(words) {
		if _, ok := matchTarget(ln, text, maxDist); ok {
			return true
		}
	}
	return false
}

// stockMarkers returns the vertical centers of valid stock markers.
// A marker immediately preceded by the negating word is the sold-out
// banner and does not count.
func stockMarkers(lines [][]Word, opt MatchOptions) []int {
	var centers []int
	for _, ln := range lines {
		for i, w := range ln {
			if !fuzzyEqual(w.Text, opt.StockMarker, markerMaxDistance) {
				continue
			}
			if i > 0 && opt.NoStockWord != "" &&
				fuzzyEqual(ln[i-1].Text, opt.NoStockWord, markerMaxDistance) {
				continue
			}
			centers = append(centers, w.Box.Center().Y)
		}
	}
	return centers
}

// matchTarget slides word windows across a line looking for the target
// name. Window sizes one below and one above the target's word count
// cover OCR splitting or merging tokens.
func matchTarget(line []Word, target string, maxDist int) (Rect, bool) {
	targetNorm := normalize(target)
	if targetNorm == "" {
		return Rect{}, false
	}
	n := len(strings.Fields(target))

	bestDist := maxDist + 1
	var bestBox Rect
	for size := max(1, n-1); size <= n+1 && size <= len(line); size++ {
		for start := 0; start+size <= len(line); start++ {
			window := line[start : start+size]
			d := levenshtein.ComputeDistance(normalize(windowText(window)), targetNorm)
			if d < bestDist {
				bestDist = d
				bestBox = windowBox(window)
			}
		}
	}
	return bestBox, bestDist <= maxDist
}

// groupLines buckets words into visual lines by vertical proximity and
// orders each line left to right.
func groupLines(words []Word) [][]Word {
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Center().Y < sorted[j].Box.Center().Y
	})

	var lines [][]Word
	for _, w := range sorted {
		placed := false
		for i := range lines {
			last := lines[i][len(lines[i])-1]
			tol := max(w.Box.H, last.Box.H)/2 + 1
			if abs(w.Box.Center().Y-last.Box.Center().Y) <= tol {
				lines[i] = append(lines[i], w)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, []Word{w})
		}
	}

	for i := range lines {
		sort.SliceStable(lines[i], func(a, b int) bool {
			return lines[i][a].Box.X < lines[i][b].Box.X
		})
	}
	return lines
}

func fuzzyEqual(a, b string, maxDist int) bool {
	return levenshtein.ComputeDistance(normalize(a), normalize(b)) <= maxDist
}

// normalize uppercases and collapses runs of whitespace so case and
// spacing differences never count against the edit budget.
func normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func windowText(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func windowBox(words []Word) Rect {
	var box Rect
	for _, w := range words {
		box = box.Union(w.Box)
	}
	return box
}

func lineText(words []Word) string {
	return windowText(words)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
