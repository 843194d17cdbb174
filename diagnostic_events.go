package ldevents

import (
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/launchdarkly/go-sdk-events/v3/ldtime"
	"github.com/launchdarkly/go-sdk-events/v3/ldvalue"
)

type diagnosticID struct {
	DiagnosticID string `json:"diagnosticId"`
	SDKKeySuffix string `json:"sdkKeySuffix,omitempty"`
}

// NewDiagnosticID builds the identity used on every diagnostic payload: a random UUID
// plus the last 6 characters of the SDK key, which is enough to correlate payloads
// without logging the full key.
func NewDiagnosticID(sdkKey string) diagnosticID {
	id, _ := uuid.NewRandom()
	diagID := diagnosticID{DiagnosticID: id.String()}
	if len(sdkKey) > 6 {
		diagID.SDKKeySuffix = sdkKey[len(sdkKey)-6:]
	} else {
		diagID.SDKKeySuffix = sdkKey
	}
	return diagID
}

type diagnosticPlatformData struct {
	Name      string `json:"name"`
	GoVersion string `json:"goVersion"`
	OSArch    string `json:"osArch"`
	OSName    string `json:"osName"`
}

type diagnosticBaseEvent struct {
	Kind         string                     `json:"kind"`
	ID           diagnosticID               `json:"id"`
	CreationDate ldtime.UnixMillisecondTime `json:"creationDate"`
}

type diagnosticInitEvent struct {
	diagnosticBaseEvent
	SDK           ldvalue.Value          `json:"sdk"`
	Configuration ldvalue.Value          `json:"configuration"`
	Platform      diagnosticPlatformData `json:"platform"`
}

type diagnosticPeriodicEvent struct {
	diagnosticBaseEvent
	DataSinceDate     ldtime.UnixMillisecondTime `json:"dataSinceDate"`
	DroppedEvents     int                        `json:"droppedEvents"`
	DeduplicatedUsers int                        `json:"deduplicatedUsers"`
	EventsInLastBatch int                        `json:"eventsInLastBatch"`
}

// DiagnosticsManager computes and formats the periodic self-diagnostic payloads
// described in spec §6. It is safe for concurrent use; RecordStreamInit-style hooks
// (not modeled here, since streaming data sources are out of this module's scope) would
// also go through m.lock.
type DiagnosticsManager struct {
	id            diagnosticID
	sdkData       ldvalue.Value
	configData    ldvalue.Value
	startTime     ldtime.UnixMillisecondTime
	dataSinceTime ldtime.UnixMillisecondTime
	lock          sync.Mutex
}

// NewDiagnosticsManager creates a manager that will report sdkData/configData unchanged
// on every init event; dataSinceTime starts at construction time and advances each time
// CreateStatsEventAndReset is called.
func NewDiagnosticsManager(id diagnosticID, sdkData ldvalue.Value, configData ldvalue.Value, now ldtime.UnixMillisecondTime) *DiagnosticsManager {
	return &DiagnosticsManager{
		id:            id,
		sdkData:       sdkData,
		configData:    configData,
		startTime:     now,
		dataSinceTime: now,
	}
}

// CreateInitEvent builds the one-time "diagnostic-init" payload describing SDK identity,
// platform, and configuration.
func (m *DiagnosticsManager) CreateInitEvent() diagnosticInitEvent {
	return diagnosticInitEvent{
		diagnosticBaseEvent: diagnosticBaseEvent{
			Kind:         "diagnostic-init",
			ID:           m.id,
			CreationDate: m.startTime,
		},
		SDK:           m.sdkData,
		Configuration: m.configData,
		Platform: diagnosticPlatformData{
			Name:      "Go",
			GoVersion: runtime.Version(),
			OSName:    normalizeOSName(runtime.GOOS),
			OSArch:    runtime.GOARCH,
		},
	}
}

// CreateStatsEventAndReset builds the periodic "diagnostic" payload and resets
// dataSinceTime to now. droppedEvents/deduplicatedUsers/eventsInLastBatch are owned by
// the dispatcher, which passes its current counts in and zeroes them after this call.
func (m *DiagnosticsManager) CreateStatsEventAndReset(now ldtime.UnixMillisecondTime, droppedEvents, deduplicatedUsers, eventsInLastBatch int) diagnosticPeriodicEvent {
	m.lock.Lock()
	defer m.lock.Unlock()
	event := diagnosticPeriodicEvent{
		diagnosticBaseEvent: diagnosticBaseEvent{
			Kind:         "diagnostic",
			ID:           m.id,
			CreationDate: now,
		},
		DataSinceDate:     m.dataSinceTime,
		DroppedEvents:     droppedEvents,
		DeduplicatedUsers: deduplicatedUsers,
		EventsInLastBatch: eventsInLastBatch,
	}
	m.dataSinceTime = now
	return event
}

func normalizeOSName(osName string) string {
	switch osName {
	case "darwin":
		return "MacOS"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	default:
		return osName
	}
}
