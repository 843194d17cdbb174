package ldevents

import "time"

// EventProcessor defines the interface for dispatching analytics events. Every method is
// non-blocking from the caller's perspective; failures are reported only through logs and
// diagnostic counters (spec §7), never as a return value.
type EventProcessor interface {
	// SendEvent records an event asynchronously.
	SendEvent(Event)
	// Flush specifies that any buffered events should be sent as soon as possible,
	// rather than waiting for the next flush interval. This is itself asynchronous.
	Flush()
	// SetOffline suppresses internally scheduled flushes while true, and Flush is a
	// no-op while offline. SendEvent calls still enqueue; those events are delivered by
	// a later flush once the processor is back online, or by Close (or are dropped
	// permanently if the processor has latched into its unrecoverable-error state).
	SetOffline(bool)
	// Close shuts down all event processor activity, after first ensuring that all
	// buffered events have been flushed and delivered. Subsequent calls to SendEvent,
	// Flush, or SetOffline are ignored.
	Close() error
}

// EventSender defines the interface for delivering already-formatted event data to the
// events service.
type EventSender interface {
	// SendEventData attempts to deliver a data payload, retrying once on a
	// recoverable failure per spec §4.7.
	SendEventData(kind EventDataKind, data []byte, eventCount int) EventSenderResult
}

// EventDataKind is a parameter passed to EventSender to indicate the type of payload.
type EventDataKind string

const (
	// AnalyticsEventDataKind denotes a payload of analytics event data.
	AnalyticsEventDataKind EventDataKind = "analytics"
	// DiagnosticEventDataKind denotes a payload of diagnostic event data.
	DiagnosticEventDataKind EventDataKind = "diagnostic"
)

// EventSenderResult is the return type for EventSender.SendEventData.
type EventSenderResult struct {
	// Success is true if the event payload was delivered.
	Success bool
	// MustShutDown is true if the server returned an error indicating that no
	// further event data should ever be sent (e.g. an invalid SDK key).
	MustShutDown bool
	// TimeFromServer is the last known date/time reported by the server, zero if
	// unavailable.
	TimeFromServer time.Time
}
