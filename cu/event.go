package cu

import (
	"sync"
	"time"
)

// Event marks a point in a stream's execution, following CUDA's event
// timing model. Recording enqueues a timestamp capture that executes in
// stream order, so an event records only after everything submitted
// before it has finished. Bracketing a launch between two events measures
// the launch alone, excluding work enqueued after the stop event.
type Event struct {
	once     sync.Once
	recorded chan struct{}
	when     time.Time
}

// NewEvent creates an unrecorded event.
func NewEvent() *Event {
	return &Event{recorded: make(chan struct{})}
}

// Record enqueues the event on the given stream, or on the default stream
// when stream is nil. An event records at most once; the timestamp of the
// first recording wins and later calls are no-ops.
func (e *Event) Record(stream *Stream) {
	if stream == nil {
		stream = defaultContext.defaultStream
	}
	stream.Submit(func() error {
		e.once.Do(func() {
			e.when = time.Now()
			close(e.recorded)
		})
		return nil
	})
}

// Synchronize blocks until the event has recorded.
func (e *Event) Synchronize() {
	<-e.recorded
}

// Completed reports whether the event has recorded.
func (e *Event) Completed() bool {
	select {
	case <-e.recorded:
		return true
	default:
		return false
	}
}

// ElapsedTime returns the elapsed time between two recorded events in
// milliseconds. It waits for both events to record. A stop event that
// recorded before the start event is an invalid interval.
func ElapsedTime(start, stop *Event) (float32, error) {
	start.Synchronize()
	stop.Synchronize()

	d := stop.when.Sub(start.when)
	if d < 0 {
		return 0, NewInvalidArgError("ElapsedTime", "stop event recorded before start event")
	}
	return float32(d.Seconds() * 1e3), nil
}
