package domshop

import (
	"strings"
)

// wheelStep is the wheel delta applied per scroll unit, matching one
// notch of a physical wheel.
const wheelStep = 100

// Driver injects input through the attached page, so clicks land in
// the same coordinate space the shop detector reports.
type Driver struct {
	client *Client
}

// NewDriver builds a page-backed input driver.
func NewDriver(client *Client) *Driver {
	return &Driver{client: client}
}

func (d *Driver) MoveTo(x, y int) {
	if err := d.client.page.Mouse().Move(float64(x), float64(y)); err != nil {
		domLog.Warn().Err(err).Int("x", x).Int("y", y).Msg("mouse move failed")
	}
}

func (d *Driver) Click(x, y int) {
	if err := d.client.page.Mouse().Click(float64(x), float64(y)); err != nil {
		domLog.Warn().Err(err).Int("x", x).Int("y", y).Msg("mouse click failed")
	}
}

// Scroll scrolls by the given amount. Negative scrolls the page down,
// matching the wheel convention of the desktop driver.
func (d *Driver) Scroll(amount int) {
	if err := d.client.page.Mouse().Wheel(0, float64(-amount)*wheelStep); err != nil {
		domLog.Warn().Err(err).Int("amount", amount).Msg("wheel failed")
	}
}

func (d *Driver) KeyTap(key string, mods ...string) {
	if err := d.client.page.Keyboard().Press(pressName(key, mods)); err != nil {
		domLog.Warn().Err(err).Str("key", key).Msg("key press failed")
	}
}

// pressName translates a desktop key name plus modifiers into the
// "Mod+Key" form the page keyboard expects.
func pressName(key string, mods []string) string {
	var parts []string
	for _, m := range mods {
		switch strings.ToLower(m) {
		case "shift":
			parts = append(parts, "Shift")
		case "ctrl", "control":
			parts = append(parts, "Control")
		case "alt":
			parts = append(parts, "Alt")
		case "cmd", "meta":
			parts = append(parts, "Meta")
		}
	}
	parts = append(parts, keyName(key))
	return strings.Join(parts, "+")
}

func keyName(key string) string {
	switch strings.ToLower(key) {
	case "space":
		return "Space"
	case "up":
		return "ArrowUp"
	case "down":
		return "ArrowDown"
	case "left":
		return "ArrowLeft"
	case "right":
		return "ArrowRight"
	case "enter":
		return "Enter"
	case "esc", "escape":
		return "Escape"
	default:
		return key
	}
}
