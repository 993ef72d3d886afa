package autobuyer

import (
	"sync"
	"time"
)

// Stats are the run counters surfaced to the operator. Written by the
// loop goroutine, read from wherever status is reported.
type Stats struct {
	mu            sync.Mutex
	cycles        int
	scans         int
	detected      int
	purchased     int
	lastDetection time.Time
	phase         Phase
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Cycles        int
	Scans         int
	Detected      int
	Purchased     int
	LastDetection time.Time
	Phase         Phase
}

func (s *Stats) cycleStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles++
}

func (s *Stats) scanDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans++
}

func (s *Stats) itemDetected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detected++
	s.lastDetection = time.Now()
}

func (s *Stats) itemPurchased() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchased++
}

func (s *Stats) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Cycles:        s.cycles,
		Scans:         s.scans,
		Detected:      s.detected,
		Purchased:     s.purchased,
		LastDetection: s.lastDetection,
		Phase:         s.phase,
	}
}
