// Package system provides the wall clock used to stamp review records.
package system

import "time"

// Clock implements crawler.Clock. Times are UTC and truncated to
// microseconds, the finest precision Postgres keeps.
type Clock struct{}

// New creates a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
