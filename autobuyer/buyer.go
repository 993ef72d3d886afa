// Package autobuyer drives the scan, buy, rescan, scroll cycle against
// the shop UI. Nothing here is fatal: every failure degrades to "skip
// this cycle, try again next cycle" so the loop can run unattended.
package autobuyer

import (
	"context"
	"image"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verdantloop/garden-autobuyer/config"
	"github.com/verdantloop/garden-autobuyer/vision"
)

var buyLog = log.With().Str("module", "autobuyer").Logger()

// Detector finds purchasable items and the buy button on the current
// shop page. Implemented by the OCR scanner and the DOM shop.
type Detector interface {
	// ScanShop returns target matches with stock on the current page,
	// top to bottom. Positions are valid only until the next click or
	// scroll.
	ScanShop(targets []string) ([]vision.DetectedItem, error)
	// FindBuyButton locates the active buy button near an item
	// position. ok is false when the button is absent or disabled.
	FindBuyButton(near image.Point) (pos image.Point, ok bool, err error)
	// TextPresent reports whether a marker text is visible.
	TextPresent(text string) (bool, error)
}

// Driver injects pointer and keyboard events.
type Driver interface {
	MoveTo(x, y int)
	Click(x, y int)
	Scroll(amount int)
	KeyTap(key string, mods ...string)
}

// UI settle delays, in milliseconds. These wait for the game to render,
// not for scheduling fairness.
const (
	focusSettleMs  = 500
	teleportWaitMs = 1000
	shopOpenWaitMs = 1500
	scrollWaitMs   = 300
	pausePollMs    = 100
)

// eggShopLabel is the button text that opens the egg shop from inside
// the seed shop.
const eggShopLabel = "Egg Shop"

// maxEggShopSearch bounds the upward scroll hunt for the egg shop
// entrance.
const maxEggShopSearch = 10

// Buyer runs the purchase cycle. Single loop goroutine; TogglePause and
// Stats are safe to call from elsewhere.
type Buyer struct {
	cfg    *config.Config
	det    Detector
	drv    Driver
	paused atomic.Bool
	stats  Stats
}

// New builds a buyer over a detector and an input driver.
func New(cfg *config.Config, det Detector, drv Driver) *Buyer {
	return &Buyer{cfg: cfg, det: det, drv: drv}
}

// Run executes shop cycles until the context is cancelled. Cancellation
// and pause are observed at safe points only: a click batch in flight
// always finishes its bounded loop first.
func (b *Buyer) Run(ctx context.Context) error {
	buyLog.Info().
		Str("shopMode", b.cfg.ShopMode).
		Strs("targets", b.cfg.Targets).
		Msg("auto-buyer started")

	for {
		if !b.safePoint(ctx) {
			b.stats.setPhase(PhaseIdle)
			buyLog.Info().Msg("auto-buyer stopped")
			return nil
		}
		b.cycle(ctx)
		if !b.sleep(ctx, time.Duration(b.cfg.ScanIntervalMs)*time.Millisecond) {
			b.stats.setPhase(PhaseIdle)
			buyLog.Info().Msg("auto-buyer stopped")
			return nil
		}
	}
}

// TogglePause flips the pause flag and returns the new state.
func (b *Buyer) TogglePause() bool {
	for {
		old := b.paused.Load()
		if b.paused.CompareAndSwap(old, !old) {
			buyLog.Info().Bool("paused", !old).Msg("pause toggled")
			return !old
		}
	}
}

// Stats returns a snapshot of the run counters.
func (b *Buyer) Stats() Snapshot {
	return b.stats.Snapshot()
}

// cycle runs one full pass: focus, teleport to the shop, open it, then
// work through the seed and egg pages.
func (b *Buyer) cycle(ctx context.Context) {
	b.stats.cycleStarted()
	b.stats.setPhase(PhaseRestart)
	buyLog.Info().Msg("starting shop cycle")

	b.focusGame(ctx)

	// Shift+1 teleports to the shop keeper, space opens the shop.
	b.drv.KeyTap("1", "shift")
	if !b.sleep(ctx, teleportWaitMs*time.Millisecond) {
		return
	}
	b.drv.KeyTap("space")
	if !b.sleep(ctx, shopOpenWaitMs*time.Millisecond) {
		return
	}

	if b.cfg.ShopMode == config.ShopModeSeed || b.cfg.ShopMode == config.ShopModeBoth {
		b.buyShopPages(ctx, b.cfg.TargetsForShop(config.ShopModeSeed))
	}
	if b.cfg.ShopMode == config.ShopModeEgg || b.cfg.ShopMode == config.ShopModeBoth {
		if b.openEggShop(ctx) {
			b.buyShopPages(ctx, b.cfg.TargetsForShop(config.ShopModeEgg))
		}
	}

	buyLog.Info().Msg("shop cycle complete")
}

// focusGame clicks the region center so the game window has keyboard
// focus before the teleport hotkey.
func (b *Buyer) focusGame(ctx context.Context) {
	if b.cfg.Region.Empty() {
		return
	}
	cx := b.cfg.Region.X + b.cfg.Region.W/2
	cy := b.cfg.Region.Y + b.cfg.Region.H/2
	b.drv.Click(cx, cy)
	b.sleep(ctx, focusSettleMs*time.Millisecond)
}

// buyShopPages scrolls through the shop buying every matched item.
// After each purchase the page is re-scanned from a fresh capture,
// since the UI collapses and shifts after a buy; positions from before
// the purchase are never reused. The attempted set bounds rescans of
// a page whose stock marker lags the UI.
func (b *Buyer) buyShopPages(ctx context.Context, targets []string) {
	if len(targets) == 0 {
		return
	}

	for page := 0; page < b.cfg.MaxScrollPages; page++ {
		attempted := make(map[string]bool)
		for {
			if !b.safePoint(ctx) {
				return
			}
			b.stats.setPhase(PhaseScan)
			items, err := b.det.ScanShop(targets)
			b.stats.scanDone()
			if err != nil {
				// Capture or recognition failure: treated as an empty
				// scan, next cycle gets another chance.
				buyLog.Warn().Err(err).Int("page", page+1).Msg("scan failed")
				break
			}

			var next *vision.DetectedItem
			for i := range items {
				if !attempted[items[i].Target] {
					next = &items[i]
					break
				}
			}
			if next == nil {
				break
			}
			attempted[next.Target] = true
			b.buyUntilSoldOut(ctx, *next)
		}

		if seen, err := b.det.TextPresent(b.cfg.EndMarker); err == nil && seen {
			buyLog.Info().
				Str("marker", b.cfg.EndMarker).
				Int("pages", page+1).
				Msg("end of shop reached")
			return
		}

		b.stats.setPhase(PhaseScroll)
		b.scrollPage(ctx)
	}
	buyLog.Info().Int("pages", b.cfg.MaxScrollPages).Msg("page ceiling reached")
}

// buyUntilSoldOut opens an item and clicks its buy button until the
// button disappears (sold out) or the attempt ceiling is reached. The
// pointer moves to the button once; each click is followed by a fresh
// button detection so a disabled button ends the loop.
func (b *Buyer) buyUntilSoldOut(ctx context.Context, item vision.DetectedItem) {
	b.stats.setPhase(PhaseOpenItem)
	b.stats.itemDetected()
	buyLog.Info().
		Str("target", item.Target).
		Int("x", item.Pos.X).
		Int("y", item.Pos.Y).
		Msg("opening item")

	b.drv.Click(item.Pos.X, item.Pos.Y)
	if !b.sleep(ctx, time.Duration(b.cfg.SettleDelayMs)*time.Millisecond) {
		return
	}

	b.stats.setPhase(PhaseFindButton)
	pos, ok, err := b.det.FindBuyButton(item.Pos)
	if err != nil {
		buyLog.Warn().Err(err).Str("target", item.Target).Msg("button detection failed")
		return
	}
	if !ok {
		buyLog.Info().Str("target", item.Target).Msg("no buy button, skipping")
		return
	}

	b.stats.setPhase(PhaseClicking)
	b.drv.MoveTo(pos.X, pos.Y)
	clickDelay := time.Duration(b.cfg.ClickDelayMs) * time.Millisecond
	for attempt := 1; attempt <= b.cfg.MaxBuyAttempts; attempt++ {
		b.drv.Click(pos.X, pos.Y)
		b.stats.itemPurchased()
		time.Sleep(clickDelay)

		next, ok, err := b.det.FindBuyButton(item.Pos)
		if err != nil || !ok {
			buyLog.Info().
				Str("target", item.Target).
				Int("bought", attempt).
				Msg("sold out")
			return
		}
		pos = next
	}
	buyLog.Warn().
		Str("target", item.Target).
		Int("attempts", b.cfg.MaxBuyAttempts).
		Msg("attempt ceiling reached, moving on")
}

// openEggShop hunts upward for the egg shop entrance and opens it.
func (b *Buyer) openEggShop(ctx context.Context) bool {
	for i := 0; i < maxEggShopSearch; i++ {
		if !b.safePoint(ctx) {
			return false
		}
		seen, err := b.det.TextPresent(eggShopLabel)
		if err == nil && seen {
			b.drv.KeyTap("space")
			return b.sleep(ctx, shopOpenWaitMs*time.Millisecond)
		}
		b.drv.KeyTap("up")
		b.sleep(ctx, 2*time.Duration(b.cfg.ClickDelayMs)*time.Millisecond)
	}
	buyLog.Info().Msg("egg shop entrance not found")
	return false
}

// scrollPage moves the pointer to the region center and scrolls down.
func (b *Buyer) scrollPage(ctx context.Context) {
	if !b.cfg.Region.Empty() {
		b.drv.MoveTo(b.cfg.Region.X+b.cfg.Region.W/2, b.cfg.Region.Y+b.cfg.Region.H/2)
	}
	b.drv.Scroll(b.cfg.ScrollAmount)
	b.sleep(ctx, scrollWaitMs*time.Millisecond)
}

// safePoint is where cancellation and pause are observed. Returns
// false when the context is done.
func (b *Buyer) safePoint(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		if !b.paused.Load() {
			return true
		}
		if !b.sleep(ctx, pausePollMs*time.Millisecond) {
			return false
		}
	}
}

// sleep waits for d or until cancellation; reports whether the full
// wait elapsed.
func (b *Buyer) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
