package presence

import "time"

// Window classifies liveness timestamps against the online threshold.
// Room and global scopes share one Window.
type Window struct {
	Threshold time.Duration
}

// Since returns the oldest timestamp still considered online at now
func (w Window) Since(now time.Time) time.Time {
	return now.Add(-w.Threshold)
}

// IsOnline reports whether lastSeen is within the threshold of now
func (w Window) IsOnline(now, lastSeen time.Time) bool {
	return now.Sub(lastSeen) <= w.Threshold
}
