// Package ldreason models the structured explanation attached to a flag evaluation result.
package ldreason

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// Kind identifies which variant of EvaluationReason is populated.
type Kind string

const (
	EvalReasonOff                Kind = "OFF"
	EvalReasonFallthrough        Kind = "FALLTHROUGH"
	EvalReasonTargetMatch        Kind = "TARGET_MATCH"
	EvalReasonRuleMatch          Kind = "RULE_MATCH"
	EvalReasonPrerequisiteFailed Kind = "PREREQUISITE_FAILED"
	EvalReasonError              Kind = "ERROR"
)

// BigSegmentsStatus describes the state of any big-segment evaluation that took place.
type BigSegmentsStatus string

const (
	BigSegmentsHealthy      BigSegmentsStatus = "HEALTHY"
	BigSegmentsStale        BigSegmentsStatus = "STALE"
	BigSegmentsNotConfigured BigSegmentsStatus = "NOT_CONFIGURED"
	BigSegmentsStoreError   BigSegmentsStatus = "STORE_ERROR"
)

// EvaluationReason is a tagged union describing why a particular variation was returned.
// The zero value is not a valid reason; use one of the constructor functions.
type EvaluationReason struct {
	kind                    Kind
	ruleIndex               int
	ruleID                  string
	prerequisiteKey         string
	errorKind               string
	inExperiment            bool
	bigSegmentsStatus       BigSegmentsStatus
	hasBigSegmentsStatus    bool
}

// IsDefined returns false for the zero value, which callers use as a sentinel "no reason".
func (r EvaluationReason) IsDefined() bool { return r.kind != "" }

// GetKind returns the reason kind.
func (r EvaluationReason) GetKind() Kind { return r.kind }

// GetRuleIndex returns the matched rule index, for RULE_MATCH.
func (r EvaluationReason) GetRuleIndex() int { return r.ruleIndex }

// GetRuleID returns the matched rule's stable ID, for RULE_MATCH.
func (r EvaluationReason) GetRuleID() string { return r.ruleID }

// GetPrerequisiteKey returns the failed prerequisite's key, for PREREQUISITE_FAILED.
func (r EvaluationReason) GetPrerequisiteKey() string { return r.prerequisiteKey }

// GetErrorKind returns the error category, for ERROR.
func (r EvaluationReason) GetErrorKind() string { return r.errorKind }

// IsInExperiment returns true if the reason was marked with WithInExperiment(true); it is
// then written as "inExperiment" in the reason's JSON. Whether an evaluation forces event
// tracking and reasons on is decided by the flag's IsExperimentationEnabled, not by this
// value.
func (r EvaluationReason) IsInExperiment() bool { return r.inExperiment }

// GetBigSegmentsStatus returns the big-segments status and whether one was recorded.
func (r EvaluationReason) GetBigSegmentsStatus() (BigSegmentsStatus, bool) {
	return r.bigSegmentsStatus, r.hasBigSegmentsStatus
}

// WithInExperiment returns a copy of the reason with the experiment flag set.
func (r EvaluationReason) WithInExperiment(inExperiment bool) EvaluationReason {
	r.inExperiment = inExperiment
	return r
}

// WithBigSegmentsStatus returns a copy of the reason with a big-segments status attached.
func (r EvaluationReason) WithBigSegmentsStatus(status BigSegmentsStatus) EvaluationReason {
	r.bigSegmentsStatus = status
	r.hasBigSegmentsStatus = true
	return r
}

func NewEvalReasonOff() EvaluationReason { return EvaluationReason{kind: EvalReasonOff} }

func NewEvalReasonFallthrough() EvaluationReason {
	return EvaluationReason{kind: EvalReasonFallthrough}
}

func NewEvalReasonTargetMatch() EvaluationReason {
	return EvaluationReason{kind: EvalReasonTargetMatch}
}

func NewEvalReasonRuleMatch(ruleIndex int, ruleID string) EvaluationReason {
	return EvaluationReason{kind: EvalReasonRuleMatch, ruleIndex: ruleIndex, ruleID: ruleID}
}

func NewEvalReasonPrerequisiteFailed(prerequisiteKey string) EvaluationReason {
	return EvaluationReason{kind: EvalReasonPrerequisiteFailed, prerequisiteKey: prerequisiteKey}
}

func NewEvalReasonError(errorKind string) EvaluationReason {
	return EvaluationReason{kind: EvalReasonError, errorKind: errorKind}
}

// MarshalJSON implements json.Marshaler. The event output formatter does not call it; it
// uses WriteToJSONWriter for an event's "reason" field. MarshalJSON writes directly with
// go-jsonstream's streaming writer rather than reflecting over an intermediate struct,
// matching how event_output_formatter.go encodes the rest of the event payload.
func (r EvaluationReason) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	r.WriteToJSONWriter(&w)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteToJSONWriter writes the reason's fields directly onto an in-progress writer, for
// callers (such as the event output formatter) that are already composing a larger JSON
// document and don't want a separate allocation per reason.
func (r EvaluationReason) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("kind").String(string(r.kind))
	if r.kind == EvalReasonRuleMatch {
		obj.Name("ruleIndex").Int(r.ruleIndex)
	}
	if r.ruleID != "" {
		obj.Name("ruleId").String(r.ruleID)
	}
	if r.prerequisiteKey != "" {
		obj.Name("prerequisiteKey").String(r.prerequisiteKey)
	}
	if r.errorKind != "" {
		obj.Name("errorKind").String(r.errorKind)
	}
	if r.inExperiment {
		obj.Name("inExperiment").Bool(true)
	}
	if r.hasBigSegmentsStatus {
		obj.Name("bigSegmentsStatus").String(string(r.bigSegmentsStatus))
	}
	obj.End()
}
