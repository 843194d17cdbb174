package ldevents

import (
	"time"

	"github.com/launchdarkly/go-sdk-events/v3/ldlog"
	"github.com/launchdarkly/go-sdk-events/v3/ldmetrics"
)

// DefaultDiagnosticRecordingInterval is the default value for
// EventsConfiguration.DiagnosticRecordingInterval.
const DefaultDiagnosticRecordingInterval = 15 * time.Minute

// DefaultFlushInterval is the default value for EventsConfiguration.FlushInterval.
const DefaultFlushInterval = 5 * time.Second

// DefaultUserKeysFlushInterval is the default value for
// EventsConfiguration.UserKeysFlushInterval.
const DefaultUserKeysFlushInterval = 5 * time.Minute

// DefaultUserKeysCapacity is the default value for EventsConfiguration.UserKeysCapacity.
const DefaultUserKeysCapacity = 1000

// DefaultRetryDelay is the delay between the first and (only) retry of a delivery
// attempt.
const DefaultRetryDelay = 1 * time.Second

// EventsConfiguration contains options affecting the behavior of the events engine. It
// corresponds to spec.md §6's "Recognized options" table, plus the ambient fields needed
// to wire logging, metrics, and HTTP delivery.
type EventsConfiguration struct {
	// AllAttributesPrivate, if true, redacts every user attribute except key.
	AllAttributesPrivate bool
	// Capacity bounds both the ingress queue and the output buffer. Events beyond
	// capacity are dropped and counted.
	Capacity int
	// DiagnosticRecordingInterval is the period of diagnostic payloads, if
	// DiagnosticsManager is non-nil.
	DiagnosticRecordingInterval time.Duration
	// DiagnosticsManager computes and formats diagnostic event data. Leave nil to
	// disable diagnostic reporting entirely.
	DiagnosticsManager *DiagnosticsManager
	// EventSender is the transport used to deliver formatted payloads. Always required:
	// construct one with NewServerSideEventSender (or a test double) and set it here
	// before calling NewDefaultEventProcessor.
	EventSender EventSender
	// FlushInterval is the time between automatic flushes of the event buffer.
	FlushInterval time.Duration
	// InlineUsersInEvents, if true, includes the full user in every event rather than
	// emitting separate Index events.
	InlineUsersInEvents bool
	// Loggers is the destination for log output. The zero value is replaced with
	// ldlog.NewDefaultLoggers() at processor construction time.
	Loggers ldlog.Loggers
	// LogUserKeyInErrors, if true, permits user keys to appear in log messages.
	LogUserKeyInErrors bool
	// Metrics, if non-nil, receives live counters mirroring the diagnostic payload's
	// counters. A nil Metrics makes every metrics call a no-op.
	Metrics *ldmetrics.Registry
	// PrivateAttributeNames marks a set of user attribute names private for every
	// user sent through this configuration.
	PrivateAttributeNames []UserAttribute
	// UserKeysCapacity is the number of user keys the deduplicator can remember at
	// once.
	UserKeysCapacity int
	// UserKeysFlushInterval is the period at which the deduplicator resets its known
	// user keys. Zero or negative means DefaultUserKeysFlushInterval.
	UserKeysFlushInterval time.Duration
}
