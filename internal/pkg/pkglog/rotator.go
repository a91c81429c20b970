package pkglog

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock cutover time.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("pkglog: invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Rotator decides when a file sink must be cut: when the pending write would
// push the file past the size limit, or once per day at a fixed time.
//
// A Rotator is not safe for concurrent use; the owning sink serializes calls.
type Rotator struct {
	sizeLimit    int64
	nextDeadline time.Time
}

// NewRotator computes the first deadline as today at the cutover time, or
// tomorrow when now is already at or past it.
func NewRotator(sizeLimit int64, at TimeOfDay, now time.Time) *Rotator {
	deadline := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, at.Second, 0, now.Location())
	if !now.Before(deadline) {
		deadline = deadline.AddDate(0, 0, 1)
	}
	return &Rotator{sizeLimit: sizeLimit, nextDeadline: deadline}
}

// ShouldRotate reports whether the file must be rotated before writing a
// message of pendingLen bytes stamped at ts. A time-triggered rotation moves
// the deadline forward by exactly one day.
func (r *Rotator) ShouldRotate(pendingLen int, currentSize int64, ts time.Time) bool {
	if currentSize+int64(pendingLen) > r.sizeLimit {
		return true
	}
	if ts.After(r.nextDeadline) {
		r.nextDeadline = r.nextDeadline.AddDate(0, 0, 1)
		return true
	}
	return false
}

// Deadline returns the next daily cutover.
func (r *Rotator) Deadline() time.Time {
	return r.nextDeadline
}

// SizeLimit returns the configured byte threshold.
func (r *Rotator) SizeLimit() int64 {
	return r.sizeLimit
}
