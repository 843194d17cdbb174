package ldevents

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/launchdarkly/go-sdk-events/v3/ldlog"
	"github.com/launchdarkly/go-sdk-events/v3/ldmetrics"
	"github.com/launchdarkly/go-sdk-events/v3/ldtime"
)

const maxFlushWorkers = 5

// defaultEventProcessor is the production EventProcessor: a thin non-blocking front end
// over a single dispatcher goroutine (spec §4.1, §4.2).
type defaultEventProcessor struct {
	inboxCh       chan eventDispatcherMessage
	inboxFullOnce sync.Once
	closeOnce     sync.Once
	offline       int32 // atomic bool
	loggers       ldlog.Loggers
	metrics       *ldmetrics.Registry
}

// Payload of the inbox channel.
type eventDispatcherMessage interface{}

type sendEventMessage struct{ event Event }
type flushEventsMessage struct{}
type flushUsersMessage struct{}
type setDiagnosticsEnabledMessage struct{ enabled bool }
type setOfflineMessage struct{ offline bool }
type syncEventsMessage struct{ replyCh chan struct{} }
type shutdownEventsMessage struct{ replyCh chan struct{} }

// NewDefaultEventProcessor creates the production event-processing pipeline. It starts
// the dispatcher goroutine and returns immediately. config.EventSender must be set by the
// caller (e.g. via NewServerSideEventSender) - this module has no SDK-key field to build
// one on the caller's behalf, matching how the teacher SDK always supplies EventSender
// externally instead of giving EventsConfiguration a convenience fallback.
func NewDefaultEventProcessor(config EventsConfiguration) EventProcessor {
	if config.Loggers.IsZero() {
		config.Loggers = ldlog.NewDefaultLoggers()
	}

	inboxCh := make(chan eventDispatcherMessage, config.Capacity)
	startEventDispatcher(config, inboxCh)
	return &defaultEventProcessor{
		inboxCh: inboxCh,
		loggers: config.Loggers,
		metrics: config.Metrics,
	}
}

func (ep *defaultEventProcessor) SendEvent(e Event) {
	ep.postNonBlockingMessageToInbox(sendEventMessage{event: e})
}

func (ep *defaultEventProcessor) Flush() {
	if atomic.LoadInt32(&ep.offline) != 0 {
		return
	}
	ep.postNonBlockingMessageToInbox(flushEventsMessage{})
}

// SetDiagnosticsEnabled turns periodic diagnostic reporting on or off at runtime. This is
// a supplementary control beyond the EventProcessor interface, for embedding SDKs that let
// a user toggle diagnostics after construction.
func (ep *defaultEventProcessor) SetDiagnosticsEnabled(enabled bool) {
	ep.inboxCh <- setDiagnosticsEnabledMessage{enabled: enabled}
}

func (ep *defaultEventProcessor) SetOffline(offline bool) {
	if offline {
		atomic.StoreInt32(&ep.offline, 1)
	} else {
		atomic.StoreInt32(&ep.offline, 0)
	}
	ep.inboxCh <- setOfflineMessage{offline: offline}
}

// postNonBlockingMessageToInbox never blocks: if the inbox is full it drops the message
// and logs a warning, but only on the not-full -> full transition (spec §4.1, §7.1).
func (ep *defaultEventProcessor) postNonBlockingMessageToInbox(e eventDispatcherMessage) bool {
	select {
	case ep.inboxCh <- e:
		ep.inboxFullOnce = sync.Once{} // reset the warn-once edge on a successful send
		return true
	default:
	}
	ep.metrics.IncDropped(ldmetrics.DropQueueFull)
	ep.inboxFullOnce.Do(func() {
		ep.loggers.Warn("Events are being produced faster than they can be processed; some events will be dropped")
	})
	return false
}

func (ep *defaultEventProcessor) Close() error {
	ep.closeOnce.Do(func() {
		// These two go straight into the channel (blocking if necessary) instead of
		// through postNonBlockingMessageToInbox: an orderly shutdown must not be
		// dropped just because the inbox happens to be momentarily full.
		ep.inboxCh <- flushEventsMessage{}
		m := shutdownEventsMessage{replyCh: make(chan struct{})}
		ep.inboxCh <- m
		<-m.replyCh
	})
	return nil
}

// WaitUntilInactive blocks until every in-flight flush worker has completed, or until
// timeout elapses. It exists for this module's own tests and for integration tests of
// embedding SDKs (spec §4.2's TestSyncSentinel).
func (ep *defaultEventProcessor) WaitUntilInactive(timeout time.Duration) bool {
	m := syncEventsMessage{replyCh: make(chan struct{})}
	select {
	case ep.inboxCh <- m:
	case <-time.After(timeout):
		return false
	}
	select {
	case <-m.replyCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

// eventDispatcher is the single consumer of the inbox; it is the sole writer of the
// buffer, summarizer, and deduplicator (spec §9's single-writer invariant).
type eventDispatcher struct {
	config               EventsConfiguration
	lastKnownPastTime    int64 // unix millis, atomic
	disabled             int32 // atomic bool, latched permanently by a 401/403
	deduplicatedUsers    int
	eventsInLastBatch    int
	diagnosticsEnabled   int32 // atomic bool
	diagnosticsArmLock   sync.Mutex
	offline              int32 // atomic bool
}

func startEventDispatcher(config EventsConfiguration, inboxCh <-chan eventDispatcherMessage) {
	ed := &eventDispatcher{config: config}
	atomic.StoreInt32(&ed.diagnosticsEnabled, 1)
	go ed.runMainLoop(inboxCh)
}

func (ed *eventDispatcher) runMainLoop(inboxCh <-chan eventDispatcherMessage) {
	defer func() {
		if err := recover(); err != nil {
			ed.config.Loggers.Errorf("Unexpected panic in event processing thread: %+v", err)
		}
	}()

	outbox := newEventsOutbox(ed.config.Capacity, ed.config.Loggers, ed.config.Metrics, ed.config.LogUserKeyInErrors)
	userKeysFlushInterval := ed.config.UserKeysFlushInterval
	if userKeysFlushInterval <= 0 {
		userKeysFlushInterval = DefaultUserKeysFlushInterval
	}
	dedup := newUserDeduplicator(ed.config.UserKeysCapacity, userKeysFlushInterval)
	formatter := newEventOutputFormatter(ed.config)

	flushInterval := ed.config.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	flushTicker := time.NewTicker(flushInterval)
	defer flushTicker.Stop()
	usersResetTicker := time.NewTicker(userKeysFlushInterval)
	defer usersResetTicker.Stop()

	var workersGroup sync.WaitGroup
	flushSem := semaphore.NewWeighted(maxFlushWorkers)

	var diagnosticsTicker *time.Ticker
	var diagnosticsTickerCh <-chan time.Time
	if ed.config.DiagnosticsManager != nil {
		interval := ed.config.DiagnosticRecordingInterval
		if interval <= 0 {
			interval = DefaultDiagnosticRecordingInterval
		}
		diagnosticsTicker = time.NewTicker(interval)
		diagnosticsTickerCh = diagnosticsTicker.C
		defer diagnosticsTicker.Stop()

		go ed.sendDiagnosticsEvent(ed.config.DiagnosticsManager.CreateInitEvent(), &workersGroup, flushSem)
	}

	for {
		ed.config.Metrics.SetInboxDepth(len(inboxCh))
		select {
		case message := <-inboxCh:
			switch m := message.(type) {
			case sendEventMessage:
				ed.processEvent(m.event, outbox, dedup)
			case flushEventsMessage:
				ed.startFlush(outbox, formatter, &workersGroup, flushSem)
			case flushUsersMessage:
				dedup.flush()
			case setDiagnosticsEnabledMessage:
				ed.setDiagnosticsEnabled(m.enabled, diagnosticsTicker, &workersGroup, flushSem)
			case setOfflineMessage:
				atomic.StoreInt32(&ed.offline, boolToInt32(m.offline))
			case syncEventsMessage:
				workersGroup.Wait()
				m.replyCh <- struct{}{}
			case shutdownEventsMessage:
				workersGroup.Wait()
				m.replyCh <- struct{}{}
				return
			}
		case <-flushTicker.C:
			if atomic.LoadInt32(&ed.offline) == 0 {
				ed.startFlush(outbox, formatter, &workersGroup, flushSem)
			}
		case <-usersResetTicker.C:
			dedup.flush()
		case <-diagnosticsTickerCh:
			if ed.config.DiagnosticsManager == nil || atomic.LoadInt32(&ed.diagnosticsEnabled) == 0 {
				continue
			}
			event := ed.config.DiagnosticsManager.CreateStatsEventAndReset(
				ldtime.Now(), outbox.droppedEvents, ed.deduplicatedUsers, ed.eventsInLastBatch)
			outbox.droppedEvents = 0
			ed.deduplicatedUsers = 0
			ed.eventsInLastBatch = 0
			go ed.sendDiagnosticsEvent(event, &workersGroup, flushSem)
		}
	}
}

// setDiagnosticsEnabled implements spec §4.1's disable/re-enable signal. Per spec §9's
// "Timer re-arming" note, the existing ticker must be reset (not a second ticker started)
// to avoid racing double payloads; re-enabling also re-sends the init payload once, the
// same way dispatcher startup does, so a disable/re-enable cycle looks identical to a
// fresh connection from the events service's point of view.
func (ed *eventDispatcher) setDiagnosticsEnabled(
	enabled bool,
	ticker *time.Ticker,
	workersGroup *sync.WaitGroup,
	flushSem *semaphore.Weighted,
) {
	ed.diagnosticsArmLock.Lock()
	defer ed.diagnosticsArmLock.Unlock()

	wasEnabled := atomic.SwapInt32(&ed.diagnosticsEnabled, boolToInt32(enabled)) != 0
	if enabled && !wasEnabled && ticker != nil {
		ticker.Reset(ed.diagnosticRecordingInterval())
		if ed.config.DiagnosticsManager != nil {
			go ed.sendDiagnosticsEvent(ed.config.DiagnosticsManager.CreateInitEvent(), workersGroup, flushSem)
		}
	}
}

func (ed *eventDispatcher) diagnosticRecordingInterval() time.Duration {
	interval := ed.config.DiagnosticRecordingInterval
	if interval <= 0 {
		interval = DefaultDiagnosticRecordingInterval
	}
	return interval
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// processEvent implements spec §4.2.1.
func (ed *eventDispatcher) processEvent(evt Event, outbox *eventsOutbox, dedup *userDeduplicator) {
	if atomic.LoadInt32(&ed.disabled) != 0 {
		return
	}

	// Step 2: always summarize, even if the event will also be kept in full.
	outbox.addToSummary(evt)

	willAddFullEvent := false
	var debugEvent Event
	switch fe := evt.(type) {
	case FeatureRequestEvent:
		willAddFullEvent = fe.TrackEvents
		if ed.shouldDebugEvent(fe) {
			de := fe
			de.Debug = true
			debugEvent = de
		}
	default:
		willAddFullEvent = true
	}

	// Step 4: user dedup, unless this event will already carry an inline user.
	if !(willAddFullEvent && ed.config.InlineUsersInEvents) {
		key := evt.GetBase().User.GetKey()
		if key != "" {
			if dedup.processUser(key) {
				if _, isIdentify := evt.(IdentifyEvent); !isIdentify {
					outbox.addEvent(IndexEvent{BaseEvent{CreationDate: evt.GetBase().CreationDate, User: evt.GetBase().User}})
				}
			} else {
				ed.deduplicatedUsers++
				ed.config.Metrics.IncDeduplicatedUser()
			}
		}
	}

	if willAddFullEvent {
		outbox.addEvent(evt)
	}
	if debugEvent != nil {
		outbox.addEvent(debugEvent)
	}
}

// shouldDebugEvent implements the clock-skew rule from spec §4.2.1: a debug copy is kept
// iff the debug-until timestamp is still in the future by both the local clock and the
// last known server clock.
func (ed *eventDispatcher) shouldDebugEvent(evt FeatureRequestEvent) bool {
	if evt.DebugEventsUntilDate == 0 {
		return false
	}
	lastKnownPastTime := ldtime.UnixMillisecondTime(atomic.LoadInt64(&ed.lastKnownPastTime))
	return evt.DebugEventsUntilDate > lastKnownPastTime && evt.DebugEventsUntilDate > ldtime.Now()
}

// startFlush implements spec §4.2.2.
func (ed *eventDispatcher) startFlush(
	outbox *eventsOutbox,
	formatter eventOutputFormatter,
	workersGroup *sync.WaitGroup,
	flushSem *semaphore.Weighted,
) {
	if atomic.LoadInt32(&ed.disabled) != 0 {
		outbox.clear()
		return
	}
	payload := outbox.getPayload()
	totalEventCount := len(payload.events)
	if !payload.summary.isEmpty() {
		totalEventCount++
	}
	if totalEventCount == 0 {
		ed.eventsInLastBatch = 0
		return
	}

	if !flushSem.TryAcquire(1) {
		// All flush workers are busy; abandon this flush. The buffer and summary
		// are left intact so the next flush cycle retries them (spec §4.2.2).
		return
	}
	ed.eventsInLastBatch = totalEventCount
	outbox.clear()

	workersGroup.Add(1)
	go func() {
		defer workersGroup.Done()
		defer flushSem.Release(1)
		ed.runFlushWorker(payload, formatter)
	}()
}

func (ed *eventDispatcher) runFlushWorker(payload flushPayload, formatter eventOutputFormatter) {
	data, count, err := formatter.makeOutputEvents(payload.events, payload.summary)
	if err != nil {
		ed.config.Loggers.Errorf("Unexpected error marshalling event json: %+v", err)
		return
	}
	if count == 0 {
		return
	}
	result := ed.config.EventSender.SendEventData(AnalyticsEventDataKind, data, count)
	ed.handleSendResult(result)
}

func (ed *eventDispatcher) sendDiagnosticsEvent(event interface{}, workersGroup *sync.WaitGroup, flushSem *semaphore.Weighted) {
	data, err := json.Marshal(event)
	if err != nil {
		ed.config.Loggers.Errorf("Unexpected error marshalling diagnostic event json: %+v", err)
		return
	}
	if !flushSem.TryAcquire(1) {
		// Diagnostics are nonessential; discard rather than apply backpressure.
		return
	}
	workersGroup.Add(1)
	defer workersGroup.Done()
	defer flushSem.Release(1)
	ed.config.EventSender.SendEventData(DiagnosticEventDataKind, data, 1)
}

func (ed *eventDispatcher) handleSendResult(result EventSenderResult) {
	switch {
	case result.MustShutDown:
		ed.config.Metrics.IncFlush(ldmetrics.FlushShutdown)
		atomic.StoreInt32(&ed.disabled, 1)
		return
	case result.Success:
		ed.config.Metrics.IncFlush(ldmetrics.FlushSuccess)
	default:
		ed.config.Metrics.IncFlush(ldmetrics.FlushFailed)
	}
	if !result.TimeFromServer.IsZero() {
		atomic.StoreInt64(&ed.lastKnownPastTime, int64(ldtime.UnixMillisFromTime(result.TimeFromServer)))
	}
}
