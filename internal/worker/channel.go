package worker

import (
	"context"
	"sync"
)

// channel は Sender と Receiver が共有する FIFO キュー
type channel struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []WorkItem

	disconnected bool
	poison       error

	// slots は容量付きキューの空き枠。nil なら無制限
	slots chan struct{}
	// dead は切断または汚染で close される
	dead     chan struct{}
	deadOnce sync.Once
}

// Sender はチャネルの送信側
type Sender struct {
	ch *channel
}

// Receiver はチャネルの受信側。全ワーカーで共有され、取り出しは 1 つのロックで直列化される
type Receiver struct {
	ch *channel
}

// NewChannel は新しいワークチャネルを作成する
// depth が 0 以下の場合はキューを無制限にする
func NewChannel(depth int) (*Sender, *Receiver) {
	c := &channel{
		dead: make(chan struct{}),
	}
	c.notEmpty = sync.NewCond(&c.mu)
	if depth > 0 {
		c.slots = make(chan struct{}, depth)
	}
	return &Sender{ch: c}, &Receiver{ch: c}
}

// Send はアイテムを送信する。ブロックしない
// 容量付きキューが満杯なら ErrQueueFull を返す。Terminate は容量に数えない
func (s *Sender) Send(item WorkItem) error {
	c := s.ch
	if c.bounded(item) {
		select {
		case c.slots <- struct{}{}:
		default:
			if err := c.err(); err != nil {
				return err
			}
			return ErrQueueFull
		}
	}
	return c.push(item)
}

// SendWait はキューに空きができるまで待ってから送信する
func (s *Sender) SendWait(ctx context.Context, item WorkItem) error {
	c := s.ch
	if c.bounded(item) {
		select {
		case c.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.dead:
			return c.err()
		}
	}
	return c.push(item)
}

// Terminate は n 個の Terminate を積み、同じロック区間で送信側を切断する
// これ以降の Send は ErrDisconnected になるため、Terminate の後ろにジョブが残ることはない
func (s *Sender) Terminate(n int) error {
	c := s.ch
	c.mu.Lock()
	if c.disconnected {
		c.mu.Unlock()
		return ErrDisconnected
	}
	poison := c.poison
	if poison == nil {
		for iter := 0; iter < n; iter++ {
			c.items = append(c.items, Terminate())
		}
	}
	c.disconnected = true
	c.notEmpty.Broadcast()
	c.mu.Unlock()

	c.kill()
	return poison
}

// Disconnect は送信側を切断する。キューに残ったアイテムは引き続き受信できる
func (s *Sender) Disconnect() {
	c := s.ch
	c.mu.Lock()
	c.disconnected = true
	c.notEmpty.Broadcast()
	c.mu.Unlock()

	c.kill()
}

// Receive はアイテムが届くまでブロックし、ちょうど 1 つを返す
// 送信側が切断されキューが空なら ErrDisconnected、汚染されていればその原因を返す
func (r *Receiver) Receive() (WorkItem, error) {
	c := r.ch
	c.mu.Lock()
	for len(c.items) == 0 && !c.disconnected && c.poison == nil {
		c.notEmpty.Wait()
	}
	if c.poison != nil {
		err := c.poison
		c.mu.Unlock()
		return WorkItem{}, err
	}
	if len(c.items) == 0 {
		c.mu.Unlock()
		return WorkItem{}, ErrDisconnected
	}
	item := c.items[0]
	c.items[0] = WorkItem{}
	c.items = c.items[1:]
	c.mu.Unlock()

	if c.bounded(item) {
		<-c.slots
	}
	return item, nil
}

// Poison は共有受信口を使用不能にする。以降の Receive と Send は err を返す
// err は ErrPoisoned をラップしていること
func (r *Receiver) Poison(err error) {
	c := r.ch
	c.mu.Lock()
	if c.poison == nil {
		c.poison = err
	}
	c.items = nil
	c.notEmpty.Broadcast()
	c.mu.Unlock()

	c.kill()
}

// Len はキューに残っているアイテム数を返す
func (r *Receiver) Len() int {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	return len(r.ch.items)
}

func (c *channel) bounded(item WorkItem) bool {
	return c.slots != nil && item.Kind == KindExecute
}

func (c *channel) push(item WorkItem) error {
	c.mu.Lock()
	err := c.poison
	if err == nil && c.disconnected {
		err = ErrDisconnected
	}
	if err != nil {
		c.mu.Unlock()
		if c.bounded(item) {
			<-c.slots
		}
		return err
	}
	c.items = append(c.items, item)
	c.notEmpty.Signal()
	c.mu.Unlock()
	return nil
}

func (c *channel) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poison != nil {
		return c.poison
	}
	if c.disconnected {
		return ErrDisconnected
	}
	return nil
}

func (c *channel) kill() {
	c.deadOnce.Do(func() { close(c.dead) })
}
