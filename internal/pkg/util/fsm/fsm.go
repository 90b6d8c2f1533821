package fsm

import (
	"context"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback to fsm.Callback. A non-nil
// error is stored on the event so Event() reports it to the caller.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// StringArg returns the i-th event argument if it is a string.
func StringArg(event *fsm.Event, i int) string {
	if i < len(event.Args) {
		if s, ok := event.Args[i].(string); ok {
			return s
		}
	}
	return ""
}

// ErrorArg returns the i-th event argument if it is a non-nil error.
func ErrorArg(event *fsm.Event, i int) error {
	if i < len(event.Args) {
		if err, ok := event.Args[i].(error); ok {
			return err
		}
	}
	return nil
}
