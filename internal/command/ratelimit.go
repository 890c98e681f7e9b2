package command

import (
	"sync"
	"time"
)

// SlidingWindow limits events per user to burst occurrences per window.
// Over-limit events are dropped silently by callers.
type SlidingWindow struct {
	mu     sync.Mutex
	burst  int
	window time.Duration
	events map[int32][]time.Time
}

func NewSlidingWindow(burst int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		burst:  burst,
		window: window,
		events: make(map[int32][]time.Time),
	}
}

// Allow records an event for the user and reports whether it fits in the
// window.
func (rl *SlidingWindow) Allow(userID int32) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	kept := rl.events[userID][:0]
	for _, t := range rl.events[userID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.burst {
		rl.events[userID] = kept
		return false
	}
	rl.events[userID] = append(kept, now)
	return true
}

// Forget drops the user's history, for session teardown.
func (rl *SlidingWindow) Forget(userID int32) {
	rl.mu.Lock()
	delete(rl.events, userID)
	rl.mu.Unlock()
}
