// Package metrics collects job execution statistics for a worker pool.
//
// Metrics counts submitted, completed and panicked jobs, tracks run latency
// (average and sampled P99) and throughput. It is thread-safe and meant to
// be shared by every worker of a pool.
//
// # Basic Usage
//
//	m := metrics.New()
//
//	start := time.Now()
//	// ... run a job ...
//	m.RecordCompleted(time.Since(start))
//
//	snap := m.Snapshot()
//	fmt.Printf("Completed: %d, Jobs/s: %.2f, P99: %v\n",
//	    snap.CompletedJobs, snap.JobsPerSecond, snap.P99Latency)
package metrics
