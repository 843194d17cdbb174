package ldevents

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-sdk-events/v3/ldlog"
	"github.com/launchdarkly/go-sdk-events/v3/ldreason"
	"github.com/launchdarkly/go-sdk-events/v3/ldtime"
	"github.com/launchdarkly/go-sdk-events/v3/ldvalue"
)

func basicConfigWithSender(sender EventSender) EventsConfiguration {
	return EventsConfiguration{
		Capacity:              1000,
		FlushInterval:         time.Hour, // tests trigger flushes explicitly
		UserKeysFlushInterval: time.Hour,
		UserKeysCapacity:      DefaultUserKeysCapacity,
		EventSender:           sender,
		Loggers:               ldlog.NewDisabledLoggers(),
	}
}

func flushAndGetEvents(t *testing.T, ep EventProcessor, sender *mockEventSender) []json.RawMessage {
	ep.Flush()
	require.True(t, ep.(*defaultEventProcessor).WaitUntilInactive(time.Second))
	var events []json.RawMessage
	for {
		e, ok := sender.tryAwaitEventCh(sender.eventsCh)
		if !ok {
			break
		}
		events = append(events, e)
	}
	return events
}

func TestIdentifyEventIsQueuedAndSentInline(t *testing.T) {
	sender := newMockEventSender()
	ep := NewDefaultEventProcessor(basicConfigWithSender(sender))
	defer ep.Close()

	user := NewUser("user-key")
	ep.SendEvent(NewEventFactory(false, nil).NewIdentifyEvent(user))

	events := flushAndGetEvents(t, ep, sender)
	require.Len(t, events, 1)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0], &parsed))
	assert.Equal(t, "identify", parsed["kind"])
	assert.Equal(t, "user-key", parsed["user"].(map[string]interface{})["key"])
}

func TestUntrackedFeatureEventProducesIndexAndSummaryOnly(t *testing.T) {
	sender := newMockEventSender()
	ep := NewDefaultEventProcessor(basicConfigWithSender(sender))
	defer ep.Close()

	user := NewUser("user-key")
	factory := NewEventFactory(false, nil)
	evt := factory.NewUnknownFlagEvaluationData("flag-key", user, ldvalue.Bool(false), ldreason.EvaluationReason{})

	ep.SendEvent(evt)
	events := flushAndGetEvents(t, ep, sender)

	// Untracked => no full feature event, but an index event (first time this user is
	// seen) plus a trailing summary event.
	require.Len(t, events, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0], &first))
	assert.Equal(t, "index", first["kind"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal(events[1], &second))
	assert.Equal(t, "summary", second["kind"])
}

func TestTrackedFeatureEventIsSentInFull(t *testing.T) {
	sender := newMockEventSender()
	ep := NewDefaultEventProcessor(basicConfigWithSender(sender))
	defer ep.Close()

	user := NewUser("user-key")
	factory := NewEventFactory(false, nil)
	evt := factory.NewSuccessfulEvalEvent(
		testFlag{key: "flag-key", version: 2, trackEvents: true},
		user,
		ldvalue.NewOptionalInt(1),
		ldvalue.Bool(true),
		ldvalue.Bool(false),
		ldreason.EvaluationReason{},
		"",
	)

	ep.SendEvent(evt)
	events := flushAndGetEvents(t, ep, sender)
	require.Len(t, events, 3) // index, feature, summary

	var feature map[string]interface{}
	require.NoError(t, json.Unmarshal(events[1], &feature))
	assert.Equal(t, "feature", feature["kind"])
	assert.Equal(t, "flag-key", feature["key"])
	assert.EqualValues(t, 2, feature["version"])
}

func TestPrivateAttributesAreRedactedFromInlineUser(t *testing.T) {
	sender := newMockEventSender()
	config := basicConfigWithSender(sender)
	config.PrivateAttributeNames = []UserAttribute{EmailAttribute}
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	user := NewUserBuilder("user-key").Email("secret@example.com").Build()
	ep.SendEvent(NewEventFactory(false, nil).NewIdentifyEvent(user))

	events := flushAndGetEvents(t, ep, sender)
	require.Len(t, events, 1)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0], &parsed))
	u := parsed["user"].(map[string]interface{})
	_, hasEmail := u["email"]
	assert.False(t, hasEmail)
	assert.Contains(t, u["privateAttrs"], "email")
}

func TestCapacityExceededDropsEvents(t *testing.T) {
	sender := newMockEventSender()
	config := basicConfigWithSender(sender)
	config.Capacity = 1
	config.InlineUsersInEvents = true
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	factory := NewEventFactory(false, nil)
	for i := 0; i < 5; i++ {
		ep.SendEvent(factory.NewCustomEvent("custom-key", NewUser("user-key"), ldvalue.Null()))
	}

	events := flushAndGetEvents(t, ep, sender)
	assert.LessOrEqual(t, len(events), 1) // capacity 1, custom events aren't summarized
}

func TestMustShutDownDisablesFurtherDelivery(t *testing.T) {
	sender := newMockEventSender()
	sender.setResult(EventSenderResult{MustShutDown: true})
	ep := NewDefaultEventProcessor(basicConfigWithSender(sender))
	defer ep.Close()

	ep.SendEvent(NewEventFactory(false, nil).NewIdentifyEvent(NewUser("user-key")))
	flushAndGetEvents(t, ep, sender) // first payload still attempted and rejected

	sender.setResult(EventSenderResult{Success: true})
	ep.SendEvent(NewEventFactory(false, nil).NewIdentifyEvent(NewUser("user-key-2")))
	ep.Flush()
	ep.(*defaultEventProcessor).WaitUntilInactive(time.Second)

	// The first (rejected) payload still reached the sender; the second event was
	// silently dropped by the now-disabled dispatcher, so no further payload is sent.
	assert.Equal(t, 1, sender.getPayloadCount())
}

func TestDiagnosticsReEnableResendsInitEventOnce(t *testing.T) {
	sender := newMockEventSender()
	config := basicConfigWithSender(sender)
	config.DiagnosticRecordingInterval = time.Hour // tests drive re-enable explicitly
	config.DiagnosticsManager = NewDiagnosticsManager(NewDiagnosticID("sdk-key"), ldvalue.Null(), ldvalue.Null(), 0)
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	// One init payload is sent automatically at startup.
	init := sender.awaitDiagnosticEvent(t)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(init, &parsed))
	assert.Equal(t, "diagnostic-init", parsed["kind"])
	sender.assertNoMoreDiagnosticEvents(t)

	dep := ep.(*defaultEventProcessor)
	dep.SetDiagnosticsEnabled(false)
	dep.WaitUntilInactive(time.Second)
	sender.assertNoMoreDiagnosticEvents(t)

	dep.SetDiagnosticsEnabled(true)
	reenableInit := sender.awaitDiagnosticEvent(t)
	require.NoError(t, json.Unmarshal(reenableInit, &parsed))
	assert.Equal(t, "diagnostic-init", parsed["kind"])

	// A second enable while already enabled is a no-op: no further init payload.
	dep.SetDiagnosticsEnabled(true)
	dep.WaitUntilInactive(time.Second)
	sender.assertNoMoreDiagnosticEvents(t)
}

func TestOfflineSuppressesAutomaticFlush(t *testing.T) {
	sender := newMockEventSender()
	config := basicConfigWithSender(sender)
	config.FlushInterval = 10 * time.Millisecond
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	ep.SetOffline(true)
	ep.SendEvent(NewEventFactory(false, nil).NewIdentifyEvent(NewUser("user-key")))
	time.Sleep(50 * time.Millisecond)

	_, ok := sender.tryAwaitEventCh(sender.eventsCh)
	assert.False(t, ok, "no automatic flush should have occurred while offline")
}

type testFlag struct {
	key         string
	version     int
	trackEvents bool
	debugUntil  ldtime.UnixMillisecondTime
}

func (f testFlag) GetKey() string  { return f.key }
func (f testFlag) GetVersion() int { return f.version }
func (f testFlag) IsFullEventTrackingEnabled() bool { return f.trackEvents }
func (f testFlag) GetDebugEventsUntilDate() ldtime.UnixMillisecondTime {
	return f.debugUntil
}
func (f testFlag) IsExperimentationEnabled(reason ldreason.EvaluationReason) bool { return false }
