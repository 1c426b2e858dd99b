// Package tracking accounts for the time a user spends focused on each
// concept of an exploration graph. One tracker belongs to one session and
// is only ever driven by that session's sequential request cycle, so it
// carries no locking of its own.
package tracking

import (
	"sort"
	"time"
)

// Tracker is a two-state machine: Idle (no active label) or Active(label,
// since). Switching focus flushes the accrued span into the previous
// label's accumulator; reading never mutates state.
type Tracker struct {
	now         func() time.Time
	accumulated map[string]time.Duration
	// discarded holds time that belonged to labels removed with their
	// elapsed time preserved. It counts toward the session total but is
	// no longer attributable to any label.
	discarded   time.Duration
	activeLabel string
	activeSince time.Time
	active      bool
}

// NewTracker creates an idle tracker using wall-clock time
func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock creates an idle tracker with a caller-supplied time
// source. Tests drive the clock by hand.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		now:         now,
		accumulated: make(map[string]time.Duration),
	}
}

// Activate moves focus to label. Any currently active label has its span
// flushed first. Activating the already-active label is a no-op: time
// keeps accruing under the original activation. An empty label is ignored.
func (t *Tracker) Activate(label string) {
	if label == "" {
		return
	}
	if t.active && t.activeLabel == label {
		return
	}

	t.flush()

	if _, seen := t.accumulated[label]; !seen {
		t.accumulated[label] = 0
	}
	t.activeLabel = label
	t.activeSince = t.now()
	t.active = true
}

// Deactivate flushes the active label and returns to Idle
func (t *Tracker) Deactivate() {
	t.flush()
	t.active = false
	t.activeLabel = ""
}

// Elapsed returns the total time accrued for label, including the span
// still running if label is the active one. Unknown labels report zero.
func (t *Tracker) Elapsed(label string) time.Duration {
	elapsed := t.accumulated[label]
	if t.active && t.activeLabel == label {
		elapsed += t.now().Sub(t.activeSince)
	}
	return elapsed
}

// TotalElapsed returns the sum of Elapsed over every known label, plus
// any time preserved from removed labels
func (t *Tracker) TotalElapsed() time.Duration {
	total := t.discarded
	for label := range t.accumulated {
		total += t.accumulated[label]
	}
	if t.active {
		total += t.now().Sub(t.activeSince)
	}
	return total
}

// Drop removes a label's entry. When the dropped label is the active one
// the tracker goes Idle. With preserveElapsed false the label's time, both
// accumulated and running, vanishes from the totals (the historical
// behavior); with preserveElapsed true it is folded into the session total
// before the entry goes, though it is no longer attributable to a label.
func (t *Tracker) Drop(label string, preserveElapsed bool) {
	if preserveElapsed {
		t.discarded += t.accumulated[label]
	}
	if t.active && t.activeLabel == label {
		if preserveElapsed {
			t.discarded += t.now().Sub(t.activeSince)
		}
		t.active = false
		t.activeLabel = ""
	}
	delete(t.accumulated, label)
}

// ActiveLabel returns the focused label, if any
func (t *Tracker) ActiveLabel() (string, bool) {
	if !t.active {
		return "", false
	}
	return t.activeLabel, true
}

// Labels returns every label the tracker has seen, sorted
func (t *Tracker) Labels() []string {
	labels := make([]string, 0, len(t.accumulated))
	for label := range t.accumulated {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ExploredLabels returns the labels with nonzero elapsed time, sorted.
// These are the concepts the user actually dwelt on, as opposed to ones
// merely clicked through.
func (t *Tracker) ExploredLabels() []string {
	var explored []string
	for label := range t.accumulated {
		if t.Elapsed(label) > 0 {
			explored = append(explored, label)
		}
	}
	sort.Strings(explored)
	return explored
}

// flush moves the running span into the active label's accumulator and
// restarts the span. Idle trackers are untouched.
func (t *Tracker) flush() {
	if !t.active {
		return
	}
	now := t.now()
	t.accumulated[t.activeLabel] += now.Sub(t.activeSince)
	t.activeSince = now
}
