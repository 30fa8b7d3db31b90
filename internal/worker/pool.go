package worker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"threads/internal/events"
	"threads/internal/logger"
	"threads/internal/metrics"
)

// PanicPolicy はジョブが panic したときのワーカーの振る舞い
type PanicPolicy int

const (
	// PanicIsolate はジョブ境界で panic を回収し、ワーカーは処理を続ける
	PanicIsolate PanicPolicy = iota
	// PanicPoison はワーカーを停止し共有受信口を汚染する。他のワーカーも以降のアイテムを取り出さない
	PanicPoison
)

func (p PanicPolicy) String() string {
	switch p {
	case PanicIsolate:
		return "isolate"
	case PanicPoison:
		return "poison"
	default:
		return "unknown"
	}
}

// ParsePanicPolicy は文字列から PanicPolicy を得る
func ParsePanicPolicy(s string) (PanicPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "isolate":
		return PanicIsolate, nil
	case "poison":
		return PanicPoison, nil
	default:
		return PanicIsolate, fmt.Errorf("unknown panic policy: %s", s)
	}
}

// Config はワーカープールの設定
type Config struct {
	NumWorkers  int         // ワーカー数（1以上）
	QueueDepth  int         // キュー容量（0で無制限）
	PanicPolicy PanicPolicy // ジョブ panic 時の方針

	Logger   *logger.Logger   // nil なら logger.Default
	Metrics  *metrics.Metrics // nil なら新規作成
	EventBus *events.Bus      // nil ならイベントを発行しない
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		NumWorkers:  2,
		QueueDepth:  0,
		PanicPolicy: PanicIsolate,
	}
}

// Option は New に渡す設定関数
type Option func(*Config)

// WithQueueDepth はキュー容量を設定する
func WithQueueDepth(depth int) Option {
	return func(c *Config) { c.QueueDepth = depth }
}

// WithPanicPolicy は panic 時の方針を設定する
func WithPanicPolicy(policy PanicPolicy) Option {
	return func(c *Config) { c.PanicPolicy = policy }
}

// WithLogger はロガーを設定する
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics はメトリクスの集計先を設定する
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithEventBus はイベントの発行先を設定する
func WithEventBus(bus *events.Bus) Option {
	return func(c *Config) { c.EventBus = bus }
}

// Pool は固定数のワーカーと送信側を所有する
type Pool struct {
	config   Config
	workers  []*Worker
	sender   *Sender
	receiver *Receiver

	log     *logger.Logger
	metrics *metrics.Metrics
	bus     *events.Bus

	running atomic.Int32
	closing atomic.Bool
	stopped chan struct{}
}

// New は size 個のワーカーを起動したプールを返す
func New(size int, opts ...Option) (*Pool, error) {
	config := DefaultConfig()
	config.NumWorkers = size
	for _, opt := range opts {
		opt(&config)
	}
	return NewWithConfig(config)
}

// NewWithConfig は設定を指定してプールを作成する
// 返った時点で全ワーカーが起動している
func NewWithConfig(config Config) (*Pool, error) {
	if config.NumWorkers <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, config.NumWorkers)
	}
	if config.QueueDepth < 0 {
		config.QueueDepth = 0
	}

	sender, receiver := NewChannel(config.QueueDepth)
	p := &Pool{
		config:   config,
		workers:  make([]*Worker, 0, config.NumWorkers),
		sender:   sender,
		receiver: receiver,
		log:      config.Logger,
		metrics:  config.Metrics,
		bus:      config.EventBus,
		stopped:  make(chan struct{}),
	}
	if p.log == nil {
		p.log = logger.Default
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	for id := 0; id < config.NumWorkers; id++ {
		p.workers = append(p.workers, newWorker(id, p))
	}

	p.log.Info("", "Pool started with %d workers (queue depth %d, panic policy %s)",
		config.NumWorkers, config.QueueDepth, config.PanicPolicy)
	return p, nil
}

// Submit はジョブをキューに送信する。ブロックしない
// Close 後は ErrDisconnected、容量付きキューが満杯なら ErrQueueFull を返す
func (p *Pool) Submit(job func()) error {
	if job == nil {
		return ErrNilJob
	}
	return p.SubmitJob(JobFunc(job))
}

// SubmitJob は Job をキューに送信する
func (p *Pool) SubmitJob(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if p.closing.Load() {
		return ErrDisconnected
	}
	if err := p.sender.Send(Execute(job)); err != nil {
		return err
	}
	p.metrics.RecordSubmitted()
	return nil
}

// SubmitWait はキューに空きができるまでブロックしてから送信する
func (p *Pool) SubmitWait(ctx context.Context, job func()) error {
	if job == nil {
		return ErrNilJob
	}
	if p.closing.Load() {
		return ErrDisconnected
	}
	if err := p.sender.SendWait(ctx, Execute(JobFunc(job))); err != nil {
		return err
	}
	p.metrics.RecordSubmitted()
	return nil
}

// Close はシャットダウンを行う
// ワーカーごとに 1 つの Terminate を送り、全ワーカーを join するまでブロックする
// 2 回目以降の呼び出しは最初の Close の完了を待つだけ
func (p *Pool) Close() {
	if !p.closing.CompareAndSwap(false, true) {
		<-p.stopped
		return
	}

	p.log.Info("", "Sending terminate message to all %d workers", len(p.workers))
	if err := p.sender.Terminate(len(p.workers)); err != nil {
		p.log.Warn("", "Terminate not delivered: %v", err)
	}

	for _, w := range p.workers {
		if w.join() {
			p.log.Info(w.name, "Shutting down worker %d", w.id)
		}
	}
	close(p.stopped)

	p.publish(events.NewPoolClosedEvent(len(p.workers)))
	p.log.Info("", "Pool stopped")
}

// Done は Close が完了すると close されるチャネルを返す
func (p *Pool) Done() <-chan struct{} {
	return p.stopped
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return len(p.workers)
}

// Running は稼働中のワーカー数を返す
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// QueueSize は現在のキューサイズを返す
func (p *Pool) QueueSize() int {
	return p.receiver.Len()
}

// Workers はワーカーの一覧を返す
func (p *Pool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Metrics はメトリクスを返す
func (p *Pool) Metrics() *metrics.Metrics {
	return p.metrics
}

// Events はイベントバスを返す。未設定なら nil
func (p *Pool) Events() *events.Bus {
	return p.bus
}

func (p *Pool) publish(ev events.Event) {
	if p.bus != nil {
		p.bus.Publish(ev)
	}
}
