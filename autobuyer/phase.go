package autobuyer

// Phase is the current step of the purchase state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScan
	PhaseOpenItem
	PhaseFindButton
	PhaseClicking
	PhaseScroll
	PhaseRestart
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseScan:
		return "Scan"
	case PhaseOpenItem:
		return "OpenItem"
	case PhaseFindButton:
		return "FindButton"
	case PhaseClicking:
		return "Clicking"
	case PhaseScroll:
		return "Scroll"
	case PhaseRestart:
		return "Restart"
	default:
		return "Unknown"
	}
}
