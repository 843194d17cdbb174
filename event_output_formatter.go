package ldevents

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/launchdarkly/go-sdk-events/v3/ldreason"
	"github.com/launchdarkly/go-sdk-events/v3/ldvalue"
)

// eventOutputFormatter serializes a flushPayload to the wire JSON schema documented in
// spec §4.6, encoding directly with a streaming writer rather than reflection (spec §9's
// "from reflective JSON to hand-written encoders" design note).
type eventOutputFormatter struct {
	userFilter          userFilter
	inlineUsersInEvents bool
}

func newEventOutputFormatter(config EventsConfiguration) eventOutputFormatter {
	return eventOutputFormatter{
		userFilter:          newUserFilter(config),
		inlineUsersInEvents: config.InlineUsersInEvents,
	}
}

// makeOutputEvents serializes events plus a trailing summary object (if summary is
// non-empty) to a single JSON array, returning the bytes and the count of top-level
// objects written.
func (f eventOutputFormatter) makeOutputEvents(events []Event, summary eventSummary) ([]byte, int, error) {
	w := jwriter.NewWriter()
	arr := w.Array()
	count := 0
	for _, evt := range events {
		f.writeOutputEvent(evt, &w)
		count++
	}
	if !summary.isEmpty() {
		f.writeSummaryEvent(summary, &w)
		count++
	}
	arr.End()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return w.Bytes(), count, nil
}

func (f eventOutputFormatter) writeOutputEvent(evt Event, w *jwriter.Writer) {
	switch e := evt.(type) {
	case FeatureRequestEvent:
		f.writeFeatureOrDebugEvent(e, w)
	case IdentifyEvent:
		f.writeIdentifyEvent(e, w)
	case CustomEvent:
		f.writeCustomEvent(e, w)
	case IndexEvent:
		f.writeIndexEvent(e, w)
	}
}

func (f eventOutputFormatter) writeFeatureOrDebugEvent(e FeatureRequestEvent, w *jwriter.Writer) {
	obj := w.Object()
	kind := "feature"
	if e.Debug {
		kind = "debug"
	}
	obj.Name("kind").String(kind)
	obj.Name("creationDate").Int(int(e.CreationDate))
	obj.Name("key").String(e.Key)
	if e.Version.IsDefined() {
		obj.Name("version").Int(e.Version.IntValue())
	}
	if e.Variation.IsDefined() {
		obj.Name("variation").Int(e.Variation.IntValue())
	}
	writeValue(obj.Name("value"), e.Value)
	if !e.Default.IsNull() {
		writeValue(obj.Name("default"), e.Default)
	}
	if e.PrereqOf.IsDefined() {
		obj.Name("prereqOf").String(e.PrereqOf.StringValue())
	}
	if e.Reason.IsDefined() {
		writeReason(obj.Name("reason"), e.Reason)
	}
	// Debug events always inline the user; non-debug feature events follow the
	// InlineUsersInEvents policy, falling back to a bare userKey otherwise.
	if e.Debug || f.inlineUsersInEvents {
		f.writeUserFieldInline(obj.Name("user"), e.User)
	} else {
		obj.Name("userKey").String(e.User.GetKey())
	}
	obj.End()
}

func (f eventOutputFormatter) writeIdentifyEvent(e IdentifyEvent, w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("kind").String("identify")
	obj.Name("creationDate").Int(int(e.CreationDate))
	f.writeUserFieldInline(obj.Name("user"), e.User)
	obj.End()
}

func (f eventOutputFormatter) writeIndexEvent(e IndexEvent, w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("kind").String("index")
	obj.Name("creationDate").Int(int(e.CreationDate))
	f.writeUserFieldInline(obj.Name("user"), e.User)
	obj.End()
}

func (f eventOutputFormatter) writeCustomEvent(e CustomEvent, w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("kind").String("custom")
	obj.Name("creationDate").Int(int(e.CreationDate))
	obj.Name("key").String(e.Key)
	if f.inlineUsersInEvents {
		f.writeUserFieldInline(obj.Name("user"), e.User)
	} else {
		obj.Name("userKey").String(e.User.GetKey())
	}
	if !e.Data.IsNull() {
		writeValue(obj.Name("data"), e.Data)
	}
	if e.HasMetric {
		obj.Name("metricValue").Float64(e.MetricValue)
	}
	obj.End()
}

func (f eventOutputFormatter) writeUserFieldInline(w *jwriter.Writer, user User) {
	fu := f.userFilter.scrubUser(user).filteredUser
	obj := w.Object()
	obj.Name("key").String(fu.Key)
	writeOptStringField(obj, "secondary", fu.Secondary)
	writeOptStringField(obj, "ip", fu.IP)
	writeOptStringField(obj, "country", fu.Country)
	writeOptStringField(obj, "firstName", fu.FirstName)
	writeOptStringField(obj, "lastName", fu.LastName)
	writeOptStringField(obj, "name", fu.Name)
	writeOptStringField(obj, "avatar", fu.Avatar)
	writeOptStringField(obj, "email", fu.Email)
	if fu.Anonymous != nil {
		obj.Name("anonymous").Bool(*fu.Anonymous)
	}
	if fu.Custom != nil {
		writeValue(obj.Name("custom"), *fu.Custom)
	}
	if len(fu.PrivateAttrs) > 0 {
		arr := obj.Name("privateAttrs").Array()
		for _, a := range fu.PrivateAttrs {
			arr.String(a)
		}
		arr.End()
	}
	obj.End()
}

func writeOptStringField(obj jwriter.ObjectState, name string, value *string) {
	if value != nil {
		obj.Name(name).String(*value)
	}
}

func (f eventOutputFormatter) writeSummaryEvent(summary eventSummary, w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("kind").String("summary")
	obj.Name("startDate").Int(int(summary.startDate))
	obj.Name("endDate").Int(int(summary.endDate))
	featuresObj := obj.Name("features").Object()
	for flagKey, fs := range summary.flags {
		flagObj := featuresObj.Name(flagKey).Object()
		writeValue(flagObj.Name("default"), fs.defaultValue)
		countersArr := flagObj.Name("counters").Array()
		for ck, cv := range fs.counters {
			counterObj := countersArr.Object()
			if ck.variation.IsDefined() {
				counterObj.Name("variation").Int(ck.variation.IntValue())
			} else {
				counterObj.Name("unknown").Bool(true)
			}
			writeValue(counterObj.Name("value"), cv.value)
			if ck.version.IsDefined() {
				counterObj.Name("version").Int(ck.version.IntValue())
			}
			counterObj.Name("count").Int(cv.count)
			counterObj.End()
		}
		countersArr.End()
		flagObj.End()
	}
	featuresObj.End()
	obj.End()
}

func writeValue(w *jwriter.Writer, v ldvalue.Value) {
	v.WriteToJSONWriter(w)
}

func writeReason(w *jwriter.Writer, reason ldreason.EvaluationReason) {
	reason.WriteToJSONWriter(w)
}
