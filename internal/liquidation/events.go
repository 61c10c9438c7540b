package liquidation

import (
	"context"
	"time"
)

// EventType identifies a step of the liquidation workflow.
type EventType string

const (
	EventStarted   EventType = "liquidation.started"
	EventCompleted EventType = "liquidation.completed"
	EventFailed    EventType = "liquidation.failed"
)

// Event is published for every liquidation attempt: one Started followed by exactly
// one Completed or Failed.
type Event struct {
	ID             string // ULID
	Type           EventType
	PositionID     int64
	UserID         string
	Symbol         string
	Reason         string
	ExecutionPrice float64 // Completed only
	PNL            float64 // Completed only
	Err            error   // Failed only
	Time           time.Time
}

// EventSink receives liquidation events.
type EventSink interface {
	Publish(ctx context.Context, e Event)
}

// ChanSink delivers events on a channel. Publish blocks until the event is received
// or ctx is done, so a Failed event is never dropped while the caller is alive.
type ChanSink struct {
	C chan Event
}

// NewChanSink creates a sink with the given buffer size.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{C: make(chan Event, buffer)}
}

// Publish implements EventSink.
func (s *ChanSink) Publish(ctx context.Context, e Event) {
	select {
	case s.C <- e:
	case <-ctx.Done():
	}
}
