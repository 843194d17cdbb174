package ldevents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/launchdarkly/go-sdk-events/v3/ldlog"
)

const (
	eventSchemaHeader        = "X-LaunchDarkly-Event-Schema"
	payloadIDHeader          = "X-LaunchDarkly-Payload-ID"
	currentEventSchema       = "3"
	defaultEventsURIPath     = "/bulk"
	defaultDiagnosticURIPath = "/diagnostic"
	defaultBaseURI           = "https://events.launchdarkly.com"
	maxSendAttempts          = 2

	sdkProductName = "GoServerEventsSDK"
	sdkVersion     = "3.0.0"
)

// defaultEventSender is the standard EventSender implementation: an HTTP POST with the
// retry/error-classification policy from spec §4.7.
type defaultEventSender struct {
	httpClient    *http.Client
	eventsURI     string
	diagnosticURI string
	headers       http.Header
	loggers       ldlog.Loggers
	retryDelay    time.Duration
}

// NewServerSideEventSender creates the production EventSender used by
// NewDefaultEventProcessor. baseURI defaults to the production LaunchDarkly events host
// if empty. The User-Agent header carries only this module's product name and version;
// NewServerSideEventSenderWithWrapperInfo adds wrapper-SDK identification to it.
func NewServerSideEventSender(
	httpClient *http.Client,
	sdkKey string,
	baseURI string,
	extraHeaders http.Header,
	loggers ldlog.Loggers,
) EventSender {
	return newServerSideEventSender(httpClient, sdkKey, baseURI, extraHeaders, loggers, "", "")
}

// NewServerSideEventSenderWithWrapperInfo is NewServerSideEventSender plus the wrapper
// SDK identification described in spec §6/SPEC_FULL.md §4 item 1. A non-empty wrapperName
// is appended to the User-Agent header, as "wrapperName/wrapperVersion" when
// wrapperVersion is also set and as the bare name otherwise; an empty wrapperName adds
// nothing.
func NewServerSideEventSenderWithWrapperInfo(
	httpClient *http.Client,
	sdkKey string,
	baseURI string,
	extraHeaders http.Header,
	loggers ldlog.Loggers,
	wrapperName string,
	wrapperVersion string,
) EventSender {
	return newServerSideEventSender(httpClient, sdkKey, baseURI, extraHeaders, loggers, wrapperName, wrapperVersion)
}

func newServerSideEventSender(
	httpClient *http.Client,
	sdkKey string,
	baseURI string,
	extraHeaders http.Header,
	loggers ldlog.Loggers,
	wrapperName string,
	wrapperVersion string,
) EventSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURI == "" {
		baseURI = defaultBaseURI
	}
	headers := make(http.Header)
	for k, vv := range extraHeaders {
		for _, v := range vv {
			headers.Add(k, v)
		}
	}
	headers.Set("Authorization", sdkKey)
	headers.Set("User-Agent", userAgentString(wrapperName, wrapperVersion))
	return &defaultEventSender{
		httpClient:    httpClient,
		eventsURI:     baseURI + defaultEventsURIPath,
		diagnosticURI: baseURI + defaultDiagnosticURIPath,
		headers:       headers,
		loggers:       loggers,
		retryDelay:    DefaultRetryDelay,
	}
}

func userAgentString(wrapperName, wrapperVersion string) string {
	ua := fmt.Sprintf("%s/%s", sdkProductName, sdkVersion)
	if wrapperName != "" {
		if wrapperVersion != "" {
			ua += fmt.Sprintf(" %s/%s", wrapperName, wrapperVersion)
		} else {
			ua += " " + wrapperName
		}
	}
	return ua
}

// SendEventData implements EventSender.
func (s *defaultEventSender) SendEventData(kind EventDataKind, data []byte, eventCount int) EventSenderResult {
	uri := s.eventsURI
	isAnalytics := kind == AnalyticsEventDataKind
	if !isAnalytics {
		uri = s.diagnosticURI
	}

	var payloadID string
	if isAnalytics {
		if id, err := uuid.NewRandom(); err == nil {
			payloadID = id.String()
		}
	}

	description := fmt.Sprintf("%d event(s)", eventCount)
	if !isAnalytics {
		description = "diagnostic event"
	}
	s.loggers.Debugf("Sending %s: %s", description, data)

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), maxSendAttempts-1)

	var result EventSenderResult
	attempt := 0
	_ = backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			s.loggers.Warn("Will retry posting events after 1 second")
		}
		resp, err := s.doRequest(uri, data, payloadID, isAnalytics)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				result = EventSenderResult{Success: false}
				return nil // deliberate cancellation: no retry
			}
			s.loggers.Warnf("Unexpected error while sending events: %+v", err)
			result = EventSenderResult{Success: false}
			return err // transport error: retryable
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch classifyStatus(resp.StatusCode) {
		case statusSuccess:
			result = EventSenderResult{Success: true, TimeFromServer: parseServerTime(resp)}
			return nil
		case statusFailedMustShutDown:
			s.loggers.Error(httpErrorMessage(resp.StatusCode, "posting events", statusFailedMustShutDown))
			result = EventSenderResult{Success: false, MustShutDown: true}
			return nil // do not retry
		case statusFailedRetryable:
			s.loggers.Warnf("Received error status %d when sending events", resp.StatusCode)
			result = EventSenderResult{Success: false}
			return errRetryable
		default: // statusFailedTerminal
			s.loggers.Error(httpErrorMessage(resp.StatusCode, "posting events", statusFailedTerminal))
			result = EventSenderResult{Success: false}
			return nil
		}
	}, policy)

	return result
}

var errRetryable = errors.New("recoverable event delivery error")

func (s *defaultEventSender) doRequest(uri string, data []byte, payloadID string, isAnalytics bool) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, uri, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for k, vv := range s.headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if isAnalytics {
		req.Header.Set(eventSchemaHeader, currentEventSchema)
		req.Header.Set(payloadIDHeader, payloadID)
	}
	return s.httpClient.Do(req)
}

func parseServerTime(resp *http.Response) time.Time {
	dateHeader := resp.Header.Get("Date")
	if dateHeader == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(dateHeader)
	if err != nil {
		return time.Time{}
	}
	return t
}
