package worker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"threads/internal/events"
)

// State はワーカーの状態
type State int32

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker は共有受信口からアイテムを取り出し続ける 1 つのゴルーチン
type Worker struct {
	id    int
	name  string
	pool  *Pool
	state atomic.Int32

	mu sync.Mutex
	// done はゴルーチン終了で close される。join で一度だけ取り出され nil になる
	done chan struct{}
}

func newWorker(id int, p *Pool) *Worker {
	w := &Worker{
		id:   id,
		name: fmt.Sprintf("worker-%d", id),
		pool: p,
		done: make(chan struct{}),
	}
	w.state.Store(int32(StateRunning))
	p.running.Add(1)
	go w.loop(w.done)
	return w
}

// ID はワーカーの番号を返す
func (w *Worker) ID() int {
	return w.id
}

// State は現在の状態を返す
func (w *Worker) State() State {
	return State(w.state.Load())
}

// loop は Terminate を受け取るか受信口が使えなくなるまでアイテムを処理する
func (w *Worker) loop(done chan struct{}) {
	defer close(done)

	var reason error
	defer func() {
		w.state.Store(int32(StateStopped))
		w.pool.running.Add(-1)
		w.pool.publish(events.NewWorkerStoppedEvent(w.id, reason))
	}()

	w.pool.publish(events.NewWorkerStartedEvent(w.id))

	for {
		item, err := w.pool.receiver.Receive()
		if err != nil {
			reason = err
			w.pool.log.Error(w.name, "Worker %d cannot receive: %v", w.id, err)
			return
		}

		switch item.Kind {
		case KindExecute:
			if err := w.run(item.Job); err != nil {
				reason = err
				return
			}
		case KindTerminate:
			w.pool.log.Info(w.name, "Worker %d terminating", w.id)
			return
		}
	}
}

// run はジョブを同期的に実行する。受信ロックは保持しない
// PanicPoison のときだけ panic を受信口の汚染として返す
func (w *Worker) run(job Job) (err error) {
	start := time.Now()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		w.pool.metrics.RecordPanicked(time.Since(start))
		w.pool.publish(events.NewJobPanickedEvent(w.id, r))

		if w.pool.config.PanicPolicy == PanicPoison {
			err = fmt.Errorf("%w: worker %d: job panicked: %v", ErrPoisoned, w.id, r)
			w.pool.log.Error(w.name, "Worker %d job panicked, poisoning pool: %v", w.id, r)
			w.pool.receiver.Poison(err)
			return
		}
		w.pool.log.Error(w.name, "Worker %d job panicked (recovered): %v", w.id, r)
	}()

	w.pool.log.Debug(w.name, "Worker %d processing job", w.id)
	job.Run()
	w.pool.metrics.RecordCompleted(time.Since(start))
	return nil
}

// join はゴルーチンの終了を待つ。2 回目以降は何もしない
func (w *Worker) join() bool {
	w.mu.Lock()
	done := w.done
	w.done = nil
	w.mu.Unlock()

	if done == nil {
		return false
	}
	<-done
	return true
}
