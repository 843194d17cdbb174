package ldevents

import (
	"github.com/launchdarkly/go-sdk-events/v3/ldtime"
	"github.com/launchdarkly/go-sdk-events/v3/ldvalue"
)

// counterKey identifies one (variation, flagVersion) bucket within a flag's summary.
type counterKey struct {
	variation ldvalue.OptionalInt
	version   ldvalue.OptionalInt
}

// counterValue is the mutable count + last-seen-value for one counterKey.
type counterValue struct {
	count int
	value ldvalue.Value
}

// flagSummary aggregates every FeatureRequestEvent seen for one flag key during the
// current window.
type flagSummary struct {
	defaultValue ldvalue.Value
	counters     map[counterKey]*counterValue
}

// eventSummary is an immutable snapshot of the summarizer's state, suitable for handing
// to a flush worker.
type eventSummary struct {
	startDate ldtime.UnixMillisecondTime
	endDate   ldtime.UnixMillisecondTime
	flags     map[string]flagSummary
}

func (s eventSummary) isEmpty() bool { return len(s.flags) == 0 }

// eventSummarizer is touched only by the dispatcher goroutine; see the single-writer
// invariant in spec §9.
type eventSummarizer struct {
	startDate ldtime.UnixMillisecondTime
	endDate   ldtime.UnixMillisecondTime
	flags     map[string]flagSummary
}

func newEventSummarizer() eventSummarizer {
	return eventSummarizer{flags: make(map[string]flagSummary)}
}

// summarizeEvent is a no-op for anything but a FeatureRequestEvent, per spec §4.3.
func (s *eventSummarizer) summarizeEvent(evt Event) {
	fe, ok := evt.(FeatureRequestEvent)
	if !ok {
		return
	}
	if s.startDate == 0 || fe.CreationDate < s.startDate {
		s.startDate = fe.CreationDate
	}
	if fe.CreationDate > s.endDate {
		s.endDate = fe.CreationDate
	}

	fs, ok := s.flags[fe.Key]
	if !ok {
		fs = flagSummary{counters: make(map[counterKey]*counterValue)}
	}
	fs.defaultValue = fe.Default

	key := counterKey{variation: fe.Variation, version: fe.Version}
	if cv, ok := fs.counters[key]; ok {
		cv.count++
	} else {
		fs.counters[key] = &counterValue{count: 1, value: fe.Value}
	}
	s.flags[fe.Key] = fs
}

// snapshot returns the current aggregate state. It does not clear state; callers pair it
// with clear() when starting a new window (see eventDispatcher.startFlush).
func (s *eventSummarizer) snapshot() eventSummary {
	flags := make(map[string]flagSummary, len(s.flags))
	for k, fs := range s.flags {
		counters := make(map[counterKey]*counterValue, len(fs.counters))
		for ck, cv := range fs.counters {
			cvCopy := *cv
			counters[ck] = &cvCopy
		}
		flags[k] = flagSummary{defaultValue: fs.defaultValue, counters: counters}
	}
	return eventSummary{startDate: s.startDate, endDate: s.endDate, flags: flags}
}

// clear resets all accumulated state, per spec §4.3's invariant.
func (s *eventSummarizer) clear() {
	s.startDate = 0
	s.endDate = 0
	s.flags = make(map[string]flagSummary)
}
