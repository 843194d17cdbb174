package ldevents

import (
	"fmt"
	"net/http"
)

func describeUserForErrorLog(key string, logUserKeyInErrors bool) string {
	if logUserKeyInErrors {
		return fmt.Sprintf("user '%s'", key)
	}
	return "a user (enable LogUserKeyInErrors to see the user key)"
}

// statusOutcome classifies an HTTP response status per spec §4.7's error taxonomy.
type statusOutcome int

const (
	statusSuccess statusOutcome = iota
	statusFailedRetryable
	statusFailedTerminal
	statusFailedMustShutDown
)

// classifyStatus implements spec §4.7's delivery error classification:
//   - 2xx -> success
//   - 401/403 -> must shut down, no retry
//   - 400/408/429/5xx -> recoverable, retry once
//   - any other 4xx -> failed, no retry, no shutdown
func classifyStatus(statusCode int) statusOutcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return statusSuccess
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return statusFailedMustShutDown
	case statusCode == http.StatusBadRequest ||
		statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= 500:
		return statusFailedRetryable
	default:
		return statusFailedTerminal
	}
}

func httpErrorMessage(statusCode int, context string, outcome statusOutcome) string {
	statusDesc := ""
	if outcome == statusFailedMustShutDown {
		statusDesc = " (invalid SDK key)"
	}
	resultMessage := "some events were dropped"
	switch outcome {
	case statusFailedMustShutDown:
		resultMessage = "giving up permanently"
	case statusFailedRetryable:
		resultMessage = "will retry"
	}
	return fmt.Sprintf("Received HTTP error %d%s for %s - %s",
		statusCode, statusDesc, context, resultMessage)
}
