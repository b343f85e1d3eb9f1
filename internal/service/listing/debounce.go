package listing

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is how long typing must pause before a search commits.
const DefaultDebounceDelay = 500 * time.Millisecond

// Clock schedules callbacks. The returned stop function reports whether it
// prevented f from running.
type Clock interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SystemClock is the wall-clock Clock.
var SystemClock Clock = systemClock{}

// Debouncer turns a stream of keystrokes into commits.
// At most one timer is pending at any time; every keystroke replaces it.
type Debouncer struct {
	clock    Clock
	delay    time.Duration
	onCommit func(string)

	// commitMu orders deliveries: a commit decided under mu reaches onCommit
	// before any later one is decided.
	commitMu sync.Mutex

	mu      sync.Mutex
	draft   string
	gen     uint64
	pending *pendingCommit
	stopped bool
}

type pendingCommit struct {
	gen    uint64
	stop   func() bool
	result chan bool
}

// NewDebouncer creates a debouncer delivering commits to onCommit.
// A nil clock uses the system clock; a non-positive delay uses DefaultDebounceDelay.
func NewDebouncer(clock Clock, delay time.Duration, onCommit func(string)) *Debouncer {
	if clock == nil {
		clock = SystemClock
	}
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	if onCommit == nil {
		onCommit = func(string) {}
	}
	return &Debouncer{clock: clock, delay: delay, onCommit: onCommit}
}

// Input records a keystroke. The draft updates immediately and the delay
// restarts. The returned channel yields true once this keystroke's timer
// commits, or false when a later keystroke, Submit or Stop supersedes it.
func (d *Debouncer) Input(text string) <-chan bool {
	result := make(chan bool, 1)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.draft = text
	d.supersedeLocked()
	if d.stopped {
		result <- false
		return result
	}

	d.gen++
	gen := d.gen
	p := &pendingCommit{gen: gen, result: result}
	p.stop = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
	d.pending = p
	return result
}

// Submit cancels any pending timer and commits the draft now.
// After Stop it returns the draft without committing.
func (d *Debouncer) Submit() string {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	d.supersedeLocked()
	text, stopped := d.draft, d.stopped
	d.mu.Unlock()

	if !stopped {
		d.onCommit(text)
	}
	return text
}

// SubmitText replaces the draft with text and commits it now.
func (d *Debouncer) SubmitText(text string) string {
	d.mu.Lock()
	d.draft = text
	d.mu.Unlock()
	return d.Submit()
}

// Draft returns the text typed so far, committed or not.
func (d *Debouncer) Draft() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Pending reports whether a commit is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels any pending timer. Nothing is committed afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.supersedeLocked()
}

func (d *Debouncer) supersedeLocked() {
	if d.pending == nil {
		return
	}
	d.pending.stop()
	d.pending.result <- false
	d.pending = nil
}

func (d *Debouncer) fire(gen uint64) {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	p := d.pending
	if d.stopped || p == nil || p.gen != gen {
		// Superseded after the timer had already started running.
		d.mu.Unlock()
		return
	}
	d.pending = nil
	text := d.draft
	d.mu.Unlock()

	d.onCommit(text)
	p.result <- true
}
