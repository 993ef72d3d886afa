// Package domshop implements shop detection against the structured
// document of a browser-hosted client, attached over the Chrome
// DevTools Protocol. It is an alternative to pixel OCR: positions come
// from element bounding boxes instead of recognized text, in page
// coordinates, and input goes through the same page so the two stay
// consistent.
package domshop

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"

	"github.com/verdantloop/garden-autobuyer/config"
)

var domLog = log.With().Str("module", "domshop").Logger()

// Client holds the CDP attachment to an already-running browser.
type Client struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	cfg     config.DOMConfig
}

// Connect attaches to the browser listening on the configured CDP port
// and picks the first open page. The browser must already be running
// with remote debugging enabled.
func Connect(cfg config.DOMConfig) (*Client, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	endpoint := fmt.Sprintf("http://localhost:%d", cfg.CDPPort)
	browser, err := pw.Chromium.ConnectOverCDP(endpoint)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("connect %s: %w", endpoint, err)
	}

	contexts := browser.Contexts()
	if len(contexts) == 0 {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("no browser contexts at %s", endpoint)
	}
	pages := contexts[0].Pages()
	if len(pages) == 0 {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("no open pages at %s", endpoint)
	}

	page := pages[0]
	domLog.Info().
		Str("endpoint", endpoint).
		Str("url", page.URL()).
		Msg("attached over CDP")

	return &Client{pw: pw, browser: browser, page: page, cfg: cfg}, nil
}

// locate resolves a selector inside the configured frame, or on the
// page itself when no frame selector is set.
func (c *Client) locate(selector string) playwright.Locator {
	if c.cfg.FrameSelector != "" {
		return c.page.FrameLocator(c.cfg.FrameSelector).Locator(selector)
	}
	return c.page.Locator(selector)
}

// FindElement returns the first element matching the selector, with
// ok=false when nothing matches.
func (c *Client) FindElement(selector string) (playwright.Locator, bool, error) {
	loc := c.locate(selector)
	n, err := loc.Count()
	if err != nil || n == 0 {
		return nil, false, err
	}
	return loc.First(), true, nil
}

// FindElements returns every element matching the selector.
func (c *Client) FindElements(selector string) ([]playwright.Locator, error) {
	return c.locate(selector).All()
}

// ElementText returns the inner text of the first match, or "" when
// nothing matches.
func (c *Client) ElementText(selector string) (string, error) {
	el, ok, err := c.FindElement(selector)
	if err != nil || !ok {
		return "", err
	}
	return el.InnerText()
}

// HasClass reports whether the first match carries the given class
// token.
func (c *Client) HasClass(selector, class string) (bool, error) {
	attr, err := c.locate(selector).First().GetAttribute("class")
	if err != nil {
		return false, err
	}
	return hasClassToken(attr, class), nil
}

// WaitFor blocks until the selector is visible or the timeout passes.
func (c *Client) WaitFor(selector string, timeout time.Duration) error {
	return c.locate(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// hasClassToken matches a whole class name inside a class attribute.
func hasClassToken(attr, class string) bool {
	for _, token := range strings.Fields(attr) {
		if token == class {
			return true
		}
	}
	return false
}

// Close detaches from the browser. The browser itself keeps running.
func (c *Client) Close() {
	if c.browser != nil {
		if err := c.browser.Close(); err != nil {
			domLog.Warn().Err(err).Msg("browser detach failed")
		}
	}
	if c.pw != nil {
		if err := c.pw.Stop(); err != nil {
			domLog.Warn().Err(err).Msg("playwright stop failed")
		}
	}
}
