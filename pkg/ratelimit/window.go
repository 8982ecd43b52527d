// Package ratelimit implements client-side request throttling for the
// inventory API. It combines a fixed inter-request spacing with a
// proactive sliding-window pause driven by the X-RateLimit-Usage
// response header, so the client backs off before the server starts
// rejecting requests.
package ratelimit

import (
	"time"
)

// Window tracks the dispatch timestamps of recent requests inside a
// trailing time window. Timestamps are appended in chronological order
// and pruned lazily whenever the window is consulted.
type Window struct {
	duration time.Duration
	stamps   []time.Time
}

// NewWindow creates a window covering the trailing duration d.
func NewWindow(d time.Duration) *Window {
	return &Window{duration: d}
}

// Record appends a dispatch timestamp. Callers must record timestamps
// in non-decreasing order.
func (w *Window) Record(now time.Time) {
	w.stamps = append(w.stamps, now)
}

// prune drops all timestamps that have aged out of the window.
func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.duration)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = w.stamps[i:]
	}
}

// Len returns the number of dispatches still inside the window.
func (w *Window) Len(now time.Time) int {
	w.prune(now)
	return len(w.stamps)
}

// TimeUntilRecovered returns how long to wait until at least target of
// the tracked dispatches have aged out of the window. If fewer than
// target dispatches are tracked the window has already recovered and
// the wait is zero. Otherwise the wait ends the moment the target-th
// oldest dispatch expires, which is the minimum safe pause rather than
// a fixed conservative constant.
func (w *Window) TimeUntilRecovered(target int, now time.Time) time.Duration {
	w.prune(now)

	if target <= 0 || len(w.stamps) < target {
		return 0
	}

	wait := w.stamps[target-1].Add(w.duration).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
