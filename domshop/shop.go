package domshop

import (
	"image"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/playwright-community/playwright-go"

	"github.com/verdantloop/garden-autobuyer/config"
	"github.com/verdantloop/garden-autobuyer/vision"
)

// Shop reads the shop listing out of the document tree. It satisfies
// the same detector contract as the OCR scanner, with positions in
// page coordinates.
type Shop struct {
	client  *Client
	sel     config.DOMSelectors
	maxDist int
}

// NewShop builds a detector over an attached client. maxDist is the
// edit distance tolerated when matching item names, since localized
// clients may vary spacing and casing.
func NewShop(client *Client, sel config.DOMSelectors, maxDist int) *Shop {
	return &Shop{client: client, sel: sel, maxDist: maxDist}
}

// ScanShop walks the item rows and returns in-stock target matches,
// top to bottom.
func (s *Shop) ScanShop(targets []string) ([]vision.DetectedItem, error) {
	rows, err := s.client.FindElements(s.sel.ItemRow)
	if err != nil {
		return nil, err
	}

	var items []vision.DetectedItem
	for i, row := range rows {
		name, err := s.rowName(row)
		if err != nil {
			domLog.Debug().Err(err).Int("row", i).Msg("row name unreadable")
			continue
		}

		target, ok := matchName(name, targets, s.maxDist)
		if !ok {
			continue
		}

		box, err := row.BoundingBox()
		if err != nil || box == nil {
			domLog.Debug().Int("row", i).Str("target", target).Msg("row has no box")
			continue
		}

		items = append(items, vision.DetectedItem{
			Target:   target,
			Text:     name,
			Pos:      boxCenter(box),
			HasStock: s.rowHasStock(row),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Pos.Y < items[j].Pos.Y })

	inStock := items[:0]
	for _, it := range items {
		if it.HasStock {
			inStock = append(inStock, it)
		} else {
			domLog.Debug().Str("target", it.Target).Msg("row out of stock")
		}
	}
	return inStock, nil
}

// FindBuyButton locates the buy button of the row containing the given
// page position. ok is false when the button is missing or disabled.
func (s *Shop) FindBuyButton(near image.Point) (image.Point, bool, error) {
	rows, err := s.client.FindElements(s.sel.ItemRow)
	if err != nil {
		return image.Point{}, false, err
	}

	for _, row := range rows {
		box, err := row.BoundingBox()
		if err != nil || box == nil {
			continue
		}
		if float64(near.Y) < box.Y || float64(near.Y) >= box.Y+box.Height {
			continue
		}

		btn := row.Locator(s.sel.BuyButton).First()
		visible, err := btn.IsVisible()
		if err != nil || !visible {
			return image.Point{}, false, err
		}
		enabled, err := btn.IsEnabled()
		if err != nil || !enabled {
			return image.Point{}, false, err
		}
		bb, err := btn.BoundingBox()
		if err != nil || bb == nil {
			return image.Point{}, false, err
		}
		return boxCenter(bb), true, nil
	}
	return image.Point{}, false, nil
}

// TextPresent reports whether the shop container currently shows the
// given text, case-insensitively.
func (s *Shop) TextPresent(text string) (bool, error) {
	scope := s.sel.Container
	if scope == "" {
		scope = "body"
	}
	content, err := s.client.ElementText(scope)
	if err != nil {
		return false, err
	}
	return strings.Contains(normalizeName(content), normalizeName(text)), nil
}

// rowName reads the item name from a row, falling back to the row's
// own text when no name selector is configured.
func (s *Shop) rowName(row playwright.Locator) (string, error) {
	if s.sel.ItemName != "" {
		name := row.Locator(s.sel.ItemName).First()
		if visible, err := name.IsVisible(); err == nil && visible {
			return name.InnerText()
		}
	}
	return row.InnerText()
}

// rowHasStock checks the row for the out-of-stock class, then for the
// stock indicator element when one is configured.
func (s *Shop) rowHasStock(row playwright.Locator) bool {
	if s.sel.NoStockClass != "" {
		if class, err := row.GetAttribute("class"); err == nil &&
			hasClassToken(class, s.sel.NoStockClass) {
			return false
		}
	}
	if s.sel.StockIndicator != "" {
		ind := row.Locator(s.sel.StockIndicator).First()
		visible, err := ind.IsVisible()
		if err != nil || !visible {
			return false
		}
	}
	return true
}

// matchName finds the closest target within the edit distance budget.
// Row text often carries price and stock suffixes, so a prefix window
// of the row text is compared as well as the whole string.
func matchName(name string, targets []string, maxDist int) (string, bool) {
	norm := normalizeName(name)
	best, bestDist := "", maxDist+1
	for _, target := range targets {
		tn := normalizeName(target)
		d := levenshtein.ComputeDistance(norm, tn)
		if len(norm) > len(tn) {
			if pd := levenshtein.ComputeDistance(norm[:len(tn)], tn); pd < d {
				d = pd
			}
		}
		if d < bestDist {
			best, bestDist = target, d
		}
	}
	return best, bestDist <= maxDist
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func boxCenter(box *playwright.Rect) image.Point {
	return image.Point{
		X: int(box.X + box.Width/2),
		Y: int(box.Y + box.Height/2),
	}
}
