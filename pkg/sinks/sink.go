package sinks

import "context"

// Sink relays lobby events to one downstream system.
type Sink interface {
	ID() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the logging surface sinks report through.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type nopLogger struct{}

func (nopLogger) DebugObj(string, string, interface{}) {}
func (nopLogger) ErrorObj(string, string, interface{}) {}
