// Package events provides an event system for worker pool lifecycle notifications.
package events

import (
	"fmt"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// EventWorkerStarted is emitted when a worker goroutine begins consuming
	EventWorkerStarted EventType = "worker_started"
	// EventWorkerStopped is emitted when a worker goroutine exits
	EventWorkerStopped EventType = "worker_stopped"
	// EventJobPanicked is emitted when a job panics inside a worker
	EventJobPanicked EventType = "job_panicked"
	// EventPoolClosed is emitted once every worker of a pool has been joined
	EventPoolClosed EventType = "pool_closed"
)

// Event represents a pool or worker event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	WorkerID  int       `json:"worker_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Reason  string `json:"reason,omitempty"`
	Panic   string `json:"panic,omitempty"`
	Workers int    `json:"workers,omitempty"`
}

// NewWorkerStartedEvent creates a worker started event
func NewWorkerStartedEvent(workerID int) Event {
	return Event{
		Type:      EventWorkerStarted,
		Timestamp: time.Now(),
		WorkerID:  workerID,
	}
}

// NewWorkerStoppedEvent creates a worker stopped event; reason is empty for a normal Terminate
func NewWorkerStoppedEvent(workerID int, reason error) Event {
	ev := Event{
		Type:      EventWorkerStopped,
		Timestamp: time.Now(),
		WorkerID:  workerID,
	}
	if reason != nil {
		ev.Data.Reason = reason.Error()
	}
	return ev
}

// NewJobPanickedEvent creates a job panicked event
func NewJobPanickedEvent(workerID int, recovered any) Event {
	return Event{
		Type:      EventJobPanicked,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			Panic: fmt.Sprint(recovered),
		},
	}
}

// NewPoolClosedEvent creates a pool closed event. WorkerID is -1 for pool-level events
func NewPoolClosedEvent(workers int) Event {
	return Event{
		Type:      EventPoolClosed,
		Timestamp: time.Now(),
		WorkerID:  -1,
		Data: EventData{
			Workers: workers,
		},
	}
}
