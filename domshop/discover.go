package domshop

import (
	"strings"
)

// candidateSelectors are structural patterns worth probing on an
// unknown client build. Class names change across releases; this list
// is a starting point for filling in the selector config by hand.
var candidateSelectors = []string{
	"iframe",
	".shop-container", "[class*=shop]",
	".shop-item", "[class*=item]",
	".item-name", "[class*=name]",
	"[class*=stock]", "[class*=sold]",
	"button", "[class*=buy]", "[role=button]",
}

// Discover probes the attached page for shop-like elements and logs
// match counts and sample text per candidate selector, then reports
// which configured targets are visible anywhere on the page. Output is
// meant to be read by a human updating the selector config.
func (s *Shop) Discover(targets []string) {
	for _, sel := range candidateSelectors {
		loc := s.client.locate(sel)
		n, err := loc.Count()
		if err != nil {
			domLog.Warn().Err(err).Str("selector", sel).Msg("probe failed")
			continue
		}
		if n == 0 {
			continue
		}

		sample := ""
		if text, err := loc.First().InnerText(); err == nil {
			sample = snippet(text)
		}
		domLog.Info().
			Str("selector", sel).
			Int("matches", n).
			Str("sample", sample).
			Msg("selector candidate")
	}

	if s.sel.ItemRow != "" && s.sel.NoStockClass != "" {
		has, err := s.client.HasClass(s.sel.ItemRow, s.sel.NoStockClass)
		if err != nil {
			domLog.Warn().Err(err).Msg("no-stock class probe failed")
		} else {
			domLog.Info().
				Str("row", s.sel.ItemRow).
				Str("class", s.sel.NoStockClass).
				Bool("first_row_carries_it", has).
				Msg("no-stock class probe")
		}
	}

	for _, target := range targets {
		seen, err := s.TextPresent(target)
		if err != nil {
			domLog.Warn().Err(err).Str("target", target).Msg("target probe failed")
			continue
		}
		domLog.Info().Str("target", target).Bool("visible", seen).Msg("target visibility")
	}
}

// snippet flattens and truncates element text for log output.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
