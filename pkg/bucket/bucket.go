// Package bucket floors timestamps onto a fixed-width grid and builds trailing
// windows of grid points for histogram aggregation.
package bucket

import (
	"fmt"
	"time"
)

const (
	DefaultWidth  = 30 * time.Minute
	DefaultWindow = 24 * time.Hour
)

// Floor aligns t to the start of its bucket. The grid is anchored at the Unix
// epoch and computed on milliseconds, so every zone with a whole or half hour
// offset sees 30 minute buckets on :00 and :30.
func Floor(t time.Time, width time.Duration) time.Time {
	w := width.Milliseconds()
	ms := t.UnixMilli()
	floored := ms - mod(ms, w)
	return time.UnixMilli(floored).UTC()
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Count is the number of buckets a window holds.
func Count(window, width time.Duration) (int, error) {
	if width <= 0 || width.Milliseconds() == 0 {
		return 0, fmt.Errorf("bucket width must be at least 1ms, got %v", width)
	}
	if window <= 0 {
		return 0, fmt.Errorf("bucket window must be positive, got %v", window)
	}
	if window%width != 0 {
		return 0, fmt.Errorf("bucket window %v is not a multiple of width %v", window, width)
	}
	return int(window / width), nil
}

// Window returns the bucket starts of the trailing window ending at now, oldest
// first. The last element is the bucket containing now.
func Window(now time.Time, window, width time.Duration) ([]time.Time, error) {
	n, err := Count(window, width)
	if err != nil {
		return nil, err
	}

	starts := make([]time.Time, n)
	for i := range n {
		back := time.Duration(n-1-i) * width
		starts[i] = Floor(now.Add(-back), width)
	}
	return starts, nil
}
