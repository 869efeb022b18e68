// Package progress converts raw byte-count deltas into rate-limited,
// human-readable status events for a caller-supplied callback.
package progress

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tanq16/ffgrab/internal/utils"
)

// DefaultInterval is the minimum gap between emitted status events.
const DefaultInterval = 500 * time.Millisecond

// StatusFunc receives formatted status strings. It is invoked from the
// goroutine performing the transfer; callers that update UI state must
// marshal back to their own loop.
type StatusFunc func(status string)

type Reporter struct {
	statusFn StatusFunc
	interval time.Duration

	transferred atomic.Int64

	mu       sync.Mutex
	total    int64
	start    time.Time
	lastEmit time.Time
}

func NewReporter(statusFn StatusFunc, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{
		statusFn: statusFn,
		interval: interval,
	}
}

// Begin resets the reporter for a new transfer. Total of 0 means unknown.
func (r *Reporter) Begin(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	r.start = time.Now()
	r.lastEmit = time.Time{}
	r.transferred.Store(0)
}

// Add accumulates transferred bytes and emits a status event if the
// configured interval has elapsed since the last emission.
func (r *Reporter) Add(n int64) {
	if n < 0 {
		n = 0
	}
	r.transferred.Add(n)
	r.maybeEmit()
}

// Set raises the absolute transferred byte count (used when progress is
// observed by polling a growing file rather than counting reads). Values
// below the current count are ignored so reports never regress.
func (r *Reporter) Set(n int64) {
	for {
		current := r.transferred.Load()
		if n <= current {
			break
		}
		if r.transferred.CompareAndSwap(current, n) {
			break
		}
	}
	r.maybeEmit()
}

// Transferred returns the byte count accumulated so far.
func (r *Reporter) Transferred() int64 {
	return r.transferred.Load()
}

// Message emits a free-form status event immediately, bypassing rate
// limiting. Used for phase transitions (connecting, extracting, etc).
func (r *Reporter) Message(msg string) {
	if r.statusFn != nil {
		r.statusFn(msg)
	}
}

// Finish emits a final summary event unconditionally.
func (r *Reporter) Finish() {
	r.mu.Lock()
	elapsed := time.Since(r.start)
	r.mu.Unlock()
	transferred := r.transferred.Load()
	if r.statusFn != nil {
		r.statusFn(fmt.Sprintf("Download complete: %s in %.1fs (%s)",
			utils.FormatBytes(uint64(transferred)), elapsed.Seconds(),
			utils.FormatSpeed(transferred, elapsed.Seconds())))
	}
}

func (r *Reporter) maybeEmit() {
	if r.statusFn == nil {
		return
	}
	r.mu.Lock()
	now := time.Now()
	if !r.lastEmit.IsZero() && now.Sub(r.lastEmit) < r.interval {
		r.mu.Unlock()
		return
	}
	r.lastEmit = now
	// The callback runs under the lock so concurrent workers cannot
	// deliver byte counts out of order.
	r.statusFn(FormatStatus(r.transferred.Load(), r.total, now.Sub(r.start)))
	r.mu.Unlock()
}

// FormatStatus renders a status line for the given sample. Total of 0
// means the expected size is unknown. Elapsed below 100ms reports no
// rate to avoid meaningless spikes and division by zero.
func FormatStatus(transferred, total int64, elapsed time.Duration) string {
	speed := ""
	if elapsed >= 100*time.Millisecond {
		speed = " @ " + utils.FormatSpeed(transferred, elapsed.Seconds())
	}
	if total <= 0 {
		return fmt.Sprintf("Downloading %s (total size unknown)%s",
			utils.FormatBytes(uint64(transferred)), speed)
	}
	percent := float64(transferred) / float64(total) * 100
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	return fmt.Sprintf("Downloading %.0f%% (%s/%s)%s", percent,
		utils.FormatBytes(uint64(transferred)), utils.FormatBytes(uint64(total)), speed)
}
