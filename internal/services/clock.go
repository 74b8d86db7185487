package services

import "time"

// Clock returns the current instant. Services take one so tests can move
// time across window boundaries.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
