package ldevents

import (
	"github.com/launchdarkly/go-sdk-events/v3/ldreason"
	"github.com/launchdarkly/go-sdk-events/v3/ldtime"
	"github.com/launchdarkly/go-sdk-events/v3/ldvalue"
)

// BaseEvent holds the fields common to every event variant.
type BaseEvent struct {
	CreationDate ldtime.UnixMillisecondTime
	User         User
}

func (b BaseEvent) GetBase() BaseEvent { return b }

// Event is the sum type accepted by EventProcessor.SendEvent. Classification in
// eventDispatcher.processEvent and serialization in eventOutputFormatter are the only
// two places that need to switch on the concrete type.
type Event interface {
	GetBase() BaseEvent
}

// FeatureRequestEvent records a single flag evaluation.
type FeatureRequestEvent struct {
	BaseEvent
	Key                  string
	Version              ldvalue.OptionalInt
	Variation            ldvalue.OptionalInt
	Value                ldvalue.Value
	Default              ldvalue.Value
	PrereqOf             ldvalue.OptionalString
	TrackEvents          bool
	DebugEventsUntilDate ldtime.UnixMillisecondTime // zero means "not set"
	Reason               ldreason.EvaluationReason
	Debug                bool
}

// IdentifyEvent records an explicit user identification.
type IdentifyEvent struct {
	BaseEvent
}

// CustomEvent records a host-application-defined event.
type CustomEvent struct {
	BaseEvent
	Key         string
	Data        ldvalue.Value
	HasMetric   bool
	MetricValue float64
}

// IndexEvent is never constructed by application code; the dispatcher synthesizes it to
// carry a full user payload once per dedup window, ahead of any event that references
// that user by key only.
type IndexEvent struct {
	BaseEvent
}

// FlagEventProperties is the view of a flag that the event pipeline needs in order to
// classify and summarize a FeatureRequestEvent. It deliberately does not depend on any
// flag-evaluation engine type, per spec: flag-evaluation logic is an external collaborator.
type FlagEventProperties interface {
	GetKey() string
	GetVersion() int
	IsFullEventTrackingEnabled() bool
	GetDebugEventsUntilDate() ldtime.UnixMillisecondTime
	IsExperimentationEnabled(reason ldreason.EvaluationReason) bool
}

// EventFactory builds Event values with a consistent creation-date source and
// with-reasons policy. Host applications normally hold two instances - one configured
// with reasons, one without - corresponding to whether the evaluation that produced the
// event was made with the "with reasons" API.
type EventFactory struct {
	withReasons bool
	timeFn      func() ldtime.UnixMillisecondTime
}

// NewEventFactory creates an EventFactory. If timeFn is nil, ldtime.Now is used; a
// non-nil timeFn exists purely for deterministic tests.
func NewEventFactory(withReasons bool, timeFn func() ldtime.UnixMillisecondTime) EventFactory {
	if timeFn == nil {
		timeFn = ldtime.Now
	}
	return EventFactory{withReasons: withReasons, timeFn: timeFn}
}

func (f EventFactory) now() ldtime.UnixMillisecondTime { return f.timeFn() }

// includeReason implements the authoritative rule from spec §9's Open Question: a reason
// is attached iff the factory was built in with-reasons mode, or the evaluation itself is
// flagged as part of an experiment (which forces reason/tracking on regardless of mode).
func (f EventFactory) includeReason(reason ldreason.EvaluationReason, inExperiment bool) bool {
	return f.withReasons || inExperiment
}

// NewSuccessfulEvalEvent builds a FeatureRequestEvent for a flag that evaluated
// successfully against a known flag.
func (f EventFactory) NewSuccessfulEvalEvent(
	flag FlagEventProperties,
	user User,
	variation ldvalue.OptionalInt,
	value ldvalue.Value,
	defaultValue ldvalue.Value,
	reason ldreason.EvaluationReason,
	prereqOf string,
) FeatureRequestEvent {
	inExperiment := flag != nil && flag.IsExperimentationEnabled(reason)
	evt := FeatureRequestEvent{
		BaseEvent:   BaseEvent{CreationDate: f.now(), User: user},
		Variation:   variation,
		Value:       value,
		Default:     defaultValue,
		TrackEvents: inExperiment,
	}
	if flag != nil {
		evt.Key = flag.GetKey()
		evt.Version = ldvalue.NewOptionalInt(flag.GetVersion())
		evt.TrackEvents = flag.IsFullEventTrackingEnabled() || inExperiment
		evt.DebugEventsUntilDate = flag.GetDebugEventsUntilDate()
	}
	if prereqOf != "" {
		evt.PrereqOf = ldvalue.NewOptionalString(prereqOf)
	}
	if f.includeReason(reason, inExperiment) {
		evt.Reason = reason
	}
	return evt
}

// NewUnknownFlagEvaluationData builds a FeatureRequestEvent for a flag key that the
// evaluator could not find; the event carries only the default value and, when
// applicable, an error reason.
func (f EventFactory) NewUnknownFlagEvaluationData(
	key string,
	user User,
	defaultValue ldvalue.Value,
	reason ldreason.EvaluationReason,
) FeatureRequestEvent {
	evt := FeatureRequestEvent{
		BaseEvent: BaseEvent{CreationDate: f.now(), User: user},
		Key:       key,
		Value:     defaultValue,
		Default:   defaultValue,
	}
	if f.includeReason(reason, false) {
		evt.Reason = reason
	}
	return evt
}

// NewIdentifyEvent builds an IdentifyEvent for the given user.
func (f EventFactory) NewIdentifyEvent(user User) IdentifyEvent {
	return IdentifyEvent{BaseEvent: BaseEvent{CreationDate: f.now(), User: user}}
}

// NewCustomEvent builds a CustomEvent with no metric value.
func (f EventFactory) NewCustomEvent(key string, user User, data ldvalue.Value) CustomEvent {
	return CustomEvent{
		BaseEvent: BaseEvent{CreationDate: f.now(), User: user},
		Key:       key,
		Data:      data,
	}
}

// NewCustomEventWithMetric builds a CustomEvent carrying a numeric metric value.
func (f EventFactory) NewCustomEventWithMetric(key string, user User, data ldvalue.Value, metricValue float64) CustomEvent {
	evt := f.NewCustomEvent(key, user, data)
	evt.HasMetric = true
	evt.MetricValue = metricValue
	return evt
}
