package input

import (
	"context"

	hook "github.com/robotn/gohook"

	"github.com/verdantloop/garden-autobuyer/config"
)

// ListenHotkeys blocks watching the global toggle and stop keys until
// the context is cancelled. Callbacks run on the hook goroutine; keep
// them cheap (flip a flag, cancel a context).
func ListenHotkeys(ctx context.Context, keys config.Hotkeys, onToggle, onStop func()) {
	hook.Register(hook.KeyDown, []string{keys.Toggle}, func(e hook.Event) {
		inLog.Info().Str("key", keys.Toggle).Msg("toggle hotkey")
		onToggle()
	})
	hook.Register(hook.KeyDown, []string{keys.Stop}, func(e hook.Event) {
		inLog.Info().Str("key", keys.Stop).Msg("stop hotkey")
		onStop()
	})

	events := hook.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-hook.Process(events)
	}()

	select {
	case <-ctx.Done():
		hook.End()
		<-done
	case <-done:
	}
}
