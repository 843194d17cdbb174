package ldevents

// nullEventProcessor discards every event. It's used when analytics events are disabled
// entirely, so callers still have a valid EventProcessor to hold without nil checks.
type nullEventProcessor struct{}

// NewNullEventProcessor returns an EventProcessor that does nothing.
func NewNullEventProcessor() EventProcessor {
	return nullEventProcessor{}
}

func (n nullEventProcessor) SendEvent(e Event) {}

func (n nullEventProcessor) Flush() {}

func (n nullEventProcessor) SetOffline(offline bool) {}

func (n nullEventProcessor) Close() error {
	return nil
}
