// Package worker provides a fixed-size pool of worker goroutines fed by a
// shared work channel.
//
// Producers submit jobs with Submit. Each job is delivered to exactly one
// worker and run exactly once. Close runs the shutdown protocol: one
// Terminate item is queued per worker behind all previously accepted jobs,
// then every worker is joined. Close blocks until the last worker exits and
// is safe to call more than once.
//
// # Basic Usage
//
//	pool, err := worker.New(4)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	for i := 0; i < 100; i++ {
//	    _ = pool.Submit(func() {
//	        // do work
//	    })
//	}
//
// # Configuration
//
// Use NewWithConfig or options for custom settings:
//
//	pool, err := worker.New(8,
//	    worker.WithQueueDepth(1024),          // bounded queue, Submit reports ErrQueueFull
//	    worker.WithPanicPolicy(worker.PanicPoison),
//	)
//
// # Job Failures
//
// With PanicIsolate (the default) a panicking job is recovered at the job
// boundary, recorded, and the worker continues. PanicPoison instead stops the
// worker and poisons the shared channel, after which no worker dequeues
// further items and Submit returns ErrPoisoned.
package worker
