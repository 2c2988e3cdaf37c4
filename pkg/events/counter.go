package events

import "time"

// Counter receives dispatch statistics. Mode values are Mode.String() names.
type Counter interface {
	IncPosted(eventType string)
	IncDelivered(eventType, mode string)
	IncFailed(eventType, mode string)
	IncNoSubscribers(eventType string)
	ObserveHandlerTime(eventType, mode string, d time.Duration)
}

type NoOpCounter struct{}

func (NoOpCounter) IncPosted(string)                                 {}
func (NoOpCounter) IncDelivered(string, string)                      {}
func (NoOpCounter) IncFailed(string, string)                         {}
func (NoOpCounter) IncNoSubscribers(string)                          {}
func (NoOpCounter) ObserveHandlerTime(string, string, time.Duration) {}
