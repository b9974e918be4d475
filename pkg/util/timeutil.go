package util

import "time"

// NowUTC is the clock used to stamp position fixes.
func NowUTC() time.Time {
	return time.Now().UTC()
}
