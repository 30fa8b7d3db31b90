package worker

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threads/internal/events"
	"threads/internal/logger"
)

func newTestPool(t *testing.T, size int, opts ...Option) *Pool {
	t.Helper()
	opts = append([]Option{WithLogger(logger.New(io.Discard, logger.LevelError))}, opts...)
	p, err := New(size, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1, -8} {
		p, err := New(size)
		assert.ErrorIs(t, err, ErrInvalidSize, "size %d", size)
		assert.Nil(t, p)
	}
}

func TestNewStartsWorkers(t *testing.T) {
	p := newTestPool(t, 3)

	assert.Equal(t, 3, p.NumWorkers())
	assert.Equal(t, 3, p.Running())
	for i, w := range p.Workers() {
		assert.Equal(t, i, w.ID())
		assert.Equal(t, StateRunning, w.State())
	}
}

func TestPoolRunsEveryJobExactlyOnce(t *testing.T) {
	tests := []struct {
		size int
		jobs int
	}{
		{1, 1},
		{1, 50},
		{2, 10},
		{4, 500},
		{8, 1000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("size=%d/jobs=%d", tt.size, tt.jobs), func(t *testing.T) {
			p := newTestPool(t, tt.size)

			counts := make([]atomic.Int32, tt.jobs)
			for i := 0; i < tt.jobs; i++ {
				i := i
				require.NoError(t, p.Submit(func() {
					counts[i].Add(1)
				}))
			}
			p.Close()

			for i := range counts {
				assert.Equal(t, int32(1), counts[i].Load(), "job %d", i)
			}
			assert.Equal(t, 0, p.Running())

			snap := p.Metrics().Snapshot()
			assert.Equal(t, uint64(tt.jobs), snap.SubmittedJobs)
			assert.Equal(t, uint64(tt.jobs), snap.CompletedJobs)
		})
	}
}

func TestPoolNineJobsFourWorkers(t *testing.T) {
	p := newTestPool(t, 4)

	var mu sync.Mutex
	var record []int
	for i := 0; i < 9; i++ {
		i := i
		require.NoError(t, p.Submit(func() {
			mu.Lock()
			record = append(record, i)
			mu.Unlock()
		}))
	}
	p.Close()

	slices.Sort(record)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, record)
}

func TestPoolSizeOneIsFIFO(t *testing.T) {
	p := newTestPool(t, 1)

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, p.Submit(func() {
			order = append(order, i)
		}))
	}
	p.Close()

	require.Len(t, order, 100)
	assert.True(t, slices.IsSorted(order))
}

func TestCloseWithNoJobs(t *testing.T) {
	p := newTestPool(t, 4)

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on an idle pool")
	}

	assert.Equal(t, 0, p.Running())
	for _, w := range p.Workers() {
		assert.Equal(t, StateStopped, w.State())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p := newTestPool(t, 2)

	var ran atomic.Int32
	require.NoError(t, p.Submit(func() { ran.Add(1) }))

	p.Close()
	p.Close()

	assert.Equal(t, int32(1), ran.Load())
	select {
	case <-p.Done():
	default:
		t.Error("expected Done to be closed")
	}
}

func TestConcurrentCloseWaitsForShutdown(t *testing.T) {
	p := newTestPool(t, 2)

	release := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, p.Submit(func() {
		<-release
		finished.Store(true)
	}))

	var wg sync.WaitGroup
	for iter := 0; iter < 3; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Close()
			// どの Close も実行中のジョブが終わるまで戻らない
			assert.True(t, finished.Load())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 0, p.Running())
}

func TestCloseWaitsForQueuedJobs(t *testing.T) {
	p := newTestPool(t, 2)

	var completed atomic.Int32
	for iter := 0; iter < 10; iter++ {
		require.NoError(t, p.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			completed.Add(1)
		}))
	}
	p.Close()

	assert.Equal(t, int32(10), completed.Load())
}

func TestSubmitAfterClose(t *testing.T) {
	p := newTestPool(t, 2)
	p.Close()

	assert.ErrorIs(t, p.Submit(func() {}), ErrDisconnected)
	assert.ErrorIs(t, p.SubmitJob(JobFunc(func() {})), ErrDisconnected)
	assert.ErrorIs(t, p.SubmitWait(context.Background(), func() {}), ErrDisconnected)
}

func TestSubmitNilJob(t *testing.T) {
	p := newTestPool(t, 1)

	assert.ErrorIs(t, p.Submit(nil), ErrNilJob)
	assert.ErrorIs(t, p.SubmitJob(nil), ErrNilJob)
	assert.ErrorIs(t, p.SubmitWait(context.Background(), nil), ErrNilJob)
}

func TestLongJobDoesNotBlockOtherWorkers(t *testing.T) {
	p := newTestPool(t, 2)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	quick := make(chan struct{})
	require.NoError(t, p.Submit(func() { close(quick) }))

	select {
	case <-quick:
	case <-time.After(time.Second):
		t.Fatal("second worker did not dequeue while the first was busy")
	}

	close(release)
}

func TestConcurrentSubmit(t *testing.T) {
	p := newTestPool(t, 4)

	const producers = 10
	const jobsPerProducer = 100

	var counter atomic.Int32
	var wg sync.WaitGroup
	for iter := 0; iter < producers; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < jobsPerProducer; iter++ {
				assert.NoError(t, p.Submit(func() { counter.Add(1) }))
			}
		}()
	}
	wg.Wait()
	p.Close()

	assert.Equal(t, int32(producers*jobsPerProducer), counter.Load())
}

func TestSubmitRacingClose(t *testing.T) {
	p := newTestPool(t, 4)

	var accepted, ran atomic.Int32
	var wg sync.WaitGroup
	for iter := 0; iter < 4; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < 200; iter++ {
				if err := p.Submit(func() { ran.Add(1) }); err != nil {
					assert.ErrorIs(t, err, ErrDisconnected)
					return
				}
				accepted.Add(1)
			}
		}()
	}

	time.Sleep(time.Millisecond)
	p.Close()
	wg.Wait()

	// 受け付けたジョブは必ず実行される
	assert.Equal(t, accepted.Load(), ran.Load())
}

func TestPanicIsolate(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe()
	p := newTestPool(t, 2, WithEventBus(bus))

	var counter atomic.Int32
	require.NoError(t, p.Submit(func() { panic("boom") }))
	for iter := 0; iter < 10; iter++ {
		require.NoError(t, p.Submit(func() { counter.Add(1) }))
	}
	p.Close()

	assert.Equal(t, int32(10), counter.Load())
	assert.Equal(t, uint64(1), p.Metrics().PanickedJobs())
	assert.Equal(t, uint64(10), p.Metrics().CompletedJobs())

	var panicked, stopped int
	for drained := false; !drained; {
		select {
		case ev := <-sub:
			switch ev.Type {
			case events.EventJobPanicked:
				panicked++
				assert.Equal(t, "boom", ev.Data.Panic)
			case events.EventWorkerStopped:
				stopped++
				assert.Empty(t, ev.Data.Reason)
			}
		default:
			drained = true
		}
	}
	assert.Equal(t, 1, panicked)
	assert.Equal(t, 2, stopped)
}

func TestPanicPoisonStopsAllWorkers(t *testing.T) {
	p := newTestPool(t, 2, WithPanicPolicy(PanicPoison))

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	// 空いているもう一方のワーカーが panic ジョブを取り出す
	require.NoError(t, p.Submit(func() { panic("boom") }))

	var ranAfter atomic.Bool
	_ = p.Submit(func() { ranAfter.Store(true) })

	require.Eventually(t, func() bool { return p.Running() == 1 }, time.Second, time.Millisecond)

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoisoned)

	close(release)
	p.Close()

	assert.False(t, ranAfter.Load(), "no worker may dequeue after the channel is poisoned")
	assert.Equal(t, 0, p.Running())
	assert.Equal(t, uint64(1), p.Metrics().PanickedJobs())
	for _, w := range p.Workers() {
		assert.Equal(t, StateStopped, w.State())
	}
}

func TestBoundedQueue(t *testing.T) {
	p := newTestPool(t, 1, WithQueueDepth(1))

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started

	var ran atomic.Int32
	require.NoError(t, p.Submit(func() { ran.Add(1) }))
	assert.Equal(t, 1, p.QueueSize())
	assert.ErrorIs(t, p.Submit(func() { ran.Add(1) }), ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.SubmitWait(ctx, func() { ran.Add(1) }), context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.SubmitWait(context.Background(), func() { ran.Add(1) }))
	p.Close()

	assert.Equal(t, int32(2), ran.Load())
}

func TestWorkerJoinOnce(t *testing.T) {
	p := newTestPool(t, 1)
	w := p.Workers()[0]

	require.NoError(t, p.sender.Terminate(1))
	assert.True(t, w.join())
	assert.False(t, w.join())
	assert.Equal(t, StateStopped, w.State())
}

func TestPoolEvents(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe()
	p := newTestPool(t, 3, WithEventBus(bus))
	p.Close()

	counts := make(map[events.EventType]int)
	for drained := false; !drained; {
		select {
		case ev := <-sub:
			counts[ev.Type]++
		default:
			drained = true
		}
	}

	assert.Equal(t, 3, counts[events.EventWorkerStarted])
	assert.Equal(t, 3, counts[events.EventWorkerStopped])
	assert.Equal(t, 1, counts[events.EventPoolClosed])
	assert.Same(t, bus, p.Events())
}

func TestParsePanicPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    PanicPolicy
		wantErr bool
	}{
		{"", PanicIsolate, false},
		{"isolate", PanicIsolate, false},
		{"POISON", PanicPoison, false},
		{"ignore", PanicIsolate, true},
	}

	for _, tt := range tests {
		got, err := ParsePanicPolicy(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) PanicPolicy {
	t.Helper()
	p, err := ParsePanicPolicy(s)
	require.NoError(t, err)
	return p
}
