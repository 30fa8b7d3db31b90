package worker

import "errors"

var (
	// ErrInvalidSize is returned by New when the pool size is not positive.
	ErrInvalidSize = errors.New("worker: pool size must be positive")
	// ErrDisconnected is returned when the producer endpoint has been dropped.
	ErrDisconnected = errors.New("worker: channel disconnected")
	// ErrQueueFull is returned by a non-blocking send on a bounded channel at capacity.
	ErrQueueFull = errors.New("worker: queue is full")
	// ErrPoisoned is returned once a failed worker has poisoned the shared channel.
	ErrPoisoned = errors.New("worker: channel poisoned")
	// ErrNilJob is returned when a nil job is submitted.
	ErrNilJob = errors.New("worker: nil job")
)
