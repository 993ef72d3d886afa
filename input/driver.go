// Package input wraps synthetic mouse and keyboard injection. There is
// no confirmation channel for injected events; callers confirm effects
// by re-detecting screen state.
package input

import (
	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog/log"
)

var inLog = log.With().Str("module", "input").Logger()

// actionPauseMs is a short pause after each injected event so the host
// UI registers it before the next one arrives.
const actionPauseMs = 50

// RobotDriver injects events through the OS input layer.
type RobotDriver struct{}

// NewRobotDriver returns the OS-level input driver.
func NewRobotDriver() *RobotDriver {
	return &RobotDriver{}
}

// MoveTo moves the pointer to absolute screen coordinates.
func (d *RobotDriver) MoveTo(x, y int) {
	robotgo.Move(x, y)
	robotgo.MilliSleep(actionPauseMs)
}

// Click moves the pointer and issues a left click.
func (d *RobotDriver) Click(x, y int) {
	robotgo.Move(x, y)
	robotgo.Click()
	robotgo.MilliSleep(actionPauseMs)
}

// Scroll issues a vertical scroll gesture at the current pointer
// position. Negative scrolls down.
func (d *RobotDriver) Scroll(amount int) {
	robotgo.Scroll(0, amount)
	robotgo.MilliSleep(actionPauseMs)
}

// KeyTap presses and releases a key, with optional modifiers.
func (d *RobotDriver) KeyTap(key string, mods ...string) {
	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		// Injection failures are indistinguishable from ignored input;
		// log and let the loop re-detect.
		inLog.Warn().Err(err).Str("key", key).Msg("key tap failed")
	}
	robotgo.MilliSleep(actionPauseMs)
}

// PointerPosition reports the current pointer location. Used by the
// region capture utility.
func PointerPosition() (int, int) {
	return robotgo.Location()
}
