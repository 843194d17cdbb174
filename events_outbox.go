package ldevents

import (
	"github.com/launchdarkly/go-sdk-events/v3/ldlog"
	"github.com/launchdarkly/go-sdk-events/v3/ldmetrics"
)

// eventsOutbox is the bounded output buffer from spec §4.5. It and the eventSummarizer it
// wraps are touched only by the dispatcher goroutine.
type eventsOutbox struct {
	capacity           int
	events             []Event
	summarizer         eventSummarizer
	droppedEvents      int
	exceeded           bool
	loggers            ldlog.Loggers
	metrics            *ldmetrics.Registry
	logUserKeyInErrors bool
}

func newEventsOutbox(capacity int, loggers ldlog.Loggers, metrics *ldmetrics.Registry, logUserKeyInErrors bool) *eventsOutbox {
	return &eventsOutbox{
		capacity:           capacity,
		summarizer:         newEventSummarizer(),
		loggers:            loggers,
		metrics:            metrics,
		logUserKeyInErrors: logUserKeyInErrors,
	}
}

// addEvent appends evt if there's room; otherwise it increments the dropped counter and
// logs a warning only on the not-full -> full transition, per spec §4.5.
func (o *eventsOutbox) addEvent(evt Event) {
	if o.capacity > 0 && len(o.events) >= o.capacity {
		o.droppedEvents++
		o.metrics.IncDropped(ldmetrics.DropBufferFull)
		if !o.exceeded {
			o.exceeded = true
			desc := describeUserForErrorLog(evt.GetBase().User.GetKey(), o.logUserKeyInErrors)
			o.loggers.Warnf("Exceeded event queue capacity. Increase capacity to avoid dropping events. Dropped while processing an event for %s", desc)
		}
		return
	}
	o.exceeded = false
	o.events = append(o.events, evt)
}

// addToSummary forwards evt to the summarizer; it is always called, even for events that
// will also be kept in full (spec §4.2.1 step 2).
func (o *eventsOutbox) addToSummary(evt Event) {
	o.summarizer.summarizeEvent(evt)
}

// flushPayload is an immutable snapshot of buffer + summary, the unit of work handed to a
// flush worker.
type flushPayload struct {
	events  []Event
	summary eventSummary
}

// getPayload atomically snapshots {events, summary} without clearing them; callers clear
// separately once they've committed to using the snapshot (see eventDispatcher.startFlush).
func (o *eventsOutbox) getPayload() flushPayload {
	eventsCopy := make([]Event, len(o.events))
	copy(eventsCopy, o.events)
	return flushPayload{events: eventsCopy, summary: o.summarizer.snapshot()}
}

// clear empties both the event list and the summarizer, starting a new window.
func (o *eventsOutbox) clear() {
	o.events = nil
	o.summarizer.clear()
}
