// Package ldtime provides the millisecond-resolution Unix timestamp type used throughout
// event payloads, matching the wire format's numeric timestamps.
package ldtime

import "time"

// UnixMillisecondTime is a timestamp expressed as milliseconds since the Unix epoch, the
// unit used for every "creationDate" and debug-window field in the wire schema.
type UnixMillisecondTime uint64

// Now returns the current time as a UnixMillisecondTime.
func Now() UnixMillisecondTime {
	return UnixMillisFromTime(time.Now())
}

// UnixMillisFromTime converts a time.Time to a UnixMillisecondTime.
func UnixMillisFromTime(t time.Time) UnixMillisecondTime {
	return UnixMillisecondTime(t.UnixNano() / int64(time.Millisecond))
}
