package ldevents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/go-sdk-events/v3/ldvalue"
)

func parseOutputEvents(t *testing.T, data []byte) []map[string]interface{} {
	var parsed []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	return parsed
}

func TestFormatterWritesEmptyArrayWhenNoEventsOrSummary(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	data, count, err := f.makeOutputEvents(nil, eventSummary{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.JSONEq(t, "[]", string(data))
}

func TestFormatterWritesFeatureEventWithUserKeyByDefault(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	evt := FeatureRequestEvent{
		BaseEvent: BaseEvent{CreationDate: 1000, User: NewUser("user-key")},
		Key:       "flag-key",
		Version:   ldvalue.NewOptionalInt(3),
		Variation: ldvalue.NewOptionalInt(1),
		Value:     ldvalue.Bool(true),
		Default:   ldvalue.Bool(false),
	}
	data, count, err := f.makeOutputEvents([]Event{evt}, eventSummary{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	out := parseOutputEvents(t, data)
	require.Len(t, out, 1)
	assert.Equal(t, "feature", out[0]["kind"])
	assert.Equal(t, "flag-key", out[0]["key"])
	assert.EqualValues(t, 3, out[0]["version"])
	assert.EqualValues(t, 1, out[0]["variation"])
	assert.Equal(t, true, out[0]["value"])
	assert.Equal(t, "user-key", out[0]["userKey"])
	_, hasInlineUser := out[0]["user"]
	assert.False(t, hasInlineUser)
}

func TestFormatterInlinesUserWhenConfigured(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{InlineUsersInEvents: true})
	evt := FeatureRequestEvent{
		BaseEvent: BaseEvent{CreationDate: 1000, User: NewUser("user-key")},
		Key:       "flag-key",
		Value:     ldvalue.Bool(true),
		Default:   ldvalue.Bool(false),
	}
	data, _, err := f.makeOutputEvents([]Event{evt}, eventSummary{})
	require.NoError(t, err)

	out := parseOutputEvents(t, data)
	require.Len(t, out, 1)
	_, hasUserKey := out[0]["userKey"]
	assert.False(t, hasUserKey)
	user, ok := out[0]["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user-key", user["key"])
}

func TestFormatterWritesDebugEventKindAndInlinesUser(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	evt := FeatureRequestEvent{
		BaseEvent: BaseEvent{CreationDate: 1000, User: NewUser("user-key")},
		Key:       "flag-key",
		Value:     ldvalue.Bool(true),
		Default:   ldvalue.Bool(false),
		Debug:     true,
	}
	data, _, err := f.makeOutputEvents([]Event{evt}, eventSummary{})
	require.NoError(t, err)

	out := parseOutputEvents(t, data)
	require.Len(t, out, 1)
	assert.Equal(t, "debug", out[0]["kind"])
	_, hasUser := out[0]["user"].(map[string]interface{})
	assert.True(t, hasUser)
}

func TestFormatterWritesIdentifyEvent(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	evt := IdentifyEvent{BaseEvent: BaseEvent{CreationDate: 1000, User: NewUser("user-key")}}
	data, _, err := f.makeOutputEvents([]Event{evt}, eventSummary{})
	require.NoError(t, err)

	out := parseOutputEvents(t, data)
	require.Len(t, out, 1)
	assert.Equal(t, "identify", out[0]["kind"])
	user, ok := out[0]["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user-key", user["key"])
}

func TestFormatterWritesCustomEventWithMetric(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	evt := CustomEvent{
		BaseEvent:   BaseEvent{CreationDate: 1000, User: NewUser("user-key")},
		Key:         "custom-key",
		Data:        ldvalue.String("data"),
		HasMetric:   true,
		MetricValue: 3.5,
	}
	data, _, err := f.makeOutputEvents([]Event{evt}, eventSummary{})
	require.NoError(t, err)

	out := parseOutputEvents(t, data)
	require.Len(t, out, 1)
	assert.Equal(t, "custom", out[0]["kind"])
	assert.Equal(t, "custom-key", out[0]["key"])
	assert.Equal(t, "data", out[0]["data"])
	assert.Equal(t, 3.5, out[0]["metricValue"])
	assert.Equal(t, "user-key", out[0]["userKey"])
}

func TestFormatterWritesSummaryEventWithCounters(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	summary := eventSummary{
		startDate: 1000,
		endDate:   2000,
		flags: map[string]flagSummary{
			"flag-key": {
				defaultValue: ldvalue.String("default"),
				counters: map[counterKey]*counterValue{
					{variation: ldvalue.NewOptionalInt(0), version: ldvalue.NewOptionalInt(5)}: {count: 2, value: ldvalue.String("a")},
				},
			},
		},
	}
	data, count, err := f.makeOutputEvents(nil, summary)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	out := parseOutputEvents(t, data)
	require.Len(t, out, 1)
	assert.Equal(t, "summary", out[0]["kind"])
	assert.EqualValues(t, 1000, out[0]["startDate"])
	assert.EqualValues(t, 2000, out[0]["endDate"])

	features, ok := out[0]["features"].(map[string]interface{})
	require.True(t, ok)
	flag, ok := features["flag-key"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "default", flag["default"])

	counters, ok := flag["counters"].([]interface{})
	require.True(t, ok)
	require.Len(t, counters, 1)
	counter := counters[0].(map[string]interface{})
	assert.EqualValues(t, 0, counter["variation"])
	assert.EqualValues(t, 5, counter["version"])
	assert.EqualValues(t, 2, counter["count"])
	assert.Equal(t, "a", counter["value"])
}

func TestFormatterWritesUnknownVariationAsUnknownFlag(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	summary := eventSummary{
		flags: map[string]flagSummary{
			"flag-key": {
				defaultValue: ldvalue.String("default"),
				counters: map[counterKey]*counterValue{
					{}: {count: 1, value: ldvalue.String("default")},
				},
			},
		},
	}
	data, _, err := f.makeOutputEvents(nil, summary)
	require.NoError(t, err)

	out := parseOutputEvents(t, data)
	features := out[0]["features"].(map[string]interface{})
	flag := features["flag-key"].(map[string]interface{})
	counters := flag["counters"].([]interface{})
	counter := counters[0].(map[string]interface{})
	assert.Equal(t, true, counter["unknown"])
	_, hasVariation := counter["variation"]
	assert.False(t, hasVariation)
}

func TestFormatterRoundTripsArrayValues(t *testing.T) {
	f := newEventOutputFormatter(EventsConfiguration{})
	arrVal := ldvalue.ArrayOf(ldvalue.Int(1), ldvalue.Int(2))
	evt := CustomEvent{
		BaseEvent: BaseEvent{CreationDate: 1000, User: NewUser("user-key")},
		Key:       "custom-key",
		Data:      arrVal,
	}
	data, _, err := f.makeOutputEvents([]Event{evt}, eventSummary{})
	require.NoError(t, err)

	out := parseOutputEvents(t, data)
	arr, ok := out[0]["data"].([]interface{})
	require.True(t, ok)
	assert.EqualValues(t, []interface{}{float64(1), float64(2)}, arr)
}
