package sinks

import (
	"context"
	"errors"
	"fmt"
	"io"
)

type route struct {
	sink Sink
	// ops is nil when the sink takes every operation.
	ops map[string]bool
}

func (r route) accepts(op string) bool {
	return r.ops == nil || r.ops[op]
}

// Fanout dispatches events to the sinks subscribed to their operation.
type Fanout struct {
	routes []route
}

// NewFanout subscribes every sink to all operations.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		f.Add(s)
	}
	return f
}

// Add subscribes s to ops, or to all operations when ops is empty.
func (f *Fanout) Add(s Sink, ops ...string) {
	if s == nil {
		return
	}
	r := route{sink: s}
	if len(ops) > 0 {
		r.ops = make(map[string]bool, len(ops))
		for _, op := range ops {
			r.ops[op] = true
		}
	}
	f.routes = append(f.routes, r)
}

// Publish hands evt to every subscribed sink and returns how many accepted it.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, r := range f.routes {
		if !r.accepts(evt.Op) {
			continue
		}
		if err := r.sink.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", r.sink.ID(), err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}

// Close releases sinks that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, r := range f.routes {
		c, ok := r.sink.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink %s: %w", r.sink.ID(), err))
		}
	}
	return errors.Join(errs...)
}
