package cell

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Task はセルに対して行う出力の種類
type Task int

const (
	TaskSay Task = iota
	TaskShout
)

func (t Task) String() string {
	switch t {
	case TaskSay:
		return "say"
	case TaskShout:
		return "shout"
	default:
		return "unknown"
	}
}

// ParseTask は文字列から Task を得る
func ParseTask(s string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "say":
		return TaskSay, nil
	case "shout":
		return TaskShout, nil
	default:
		return TaskSay, fmt.Errorf("unknown task: %s", s)
	}
}

// Cell は 1 つのフレーズとその出力方法
type Cell struct {
	Text string
	Task Task
}

// ParseCell は "task:text" 形式をパースする。task を省略すると say になる
func ParseCell(s string) (Cell, error) {
	task, text, ok := strings.Cut(s, ":")
	if !ok {
		return Cell{Text: s, Task: TaskSay}, nil
	}
	t, err := ParseTask(task)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Text: text, Task: t}, nil
}

// Emitter はテキストを出力する外部ルーチン
type Emitter interface {
	Say(text string)
	Shout(text string)
}

// ConsoleEmitter は io.Writer に 1 行ずつ書き出す Emitter
type ConsoleEmitter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleEmitter は新しい ConsoleEmitter を作成する
func NewConsoleEmitter(out io.Writer) *ConsoleEmitter {
	return &ConsoleEmitter{out: out}
}

// Say はフレーズをそのまま書く
func (e *ConsoleEmitter) Say(text string) {
	e.write(text)
}

// Shout はフレーズを大文字で書く
func (e *ConsoleEmitter) Shout(text string) {
	e.write(strings.ToUpper(text))
}

func (e *ConsoleEmitter) write(line string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = fmt.Fprintln(e.out, line)
}

// Execute はセルのタスクを実行する
func Execute(e Emitter, c Cell) {
	switch c.Task {
	case TaskShout:
		e.Shout(c.Text)
	default:
		e.Say(c.Text)
	}
}

// Handle はバッチ内のセルを順番に実行する
func Handle(e Emitter, batch []Cell) {
	for _, c := range batch {
		Execute(e, c)
	}
}

// Partition はセルを size 個ずつのバッチに分ける。size が 0 以下なら 1 バッチにまとめる
func Partition(cells []Cell, size int) [][]Cell {
	if len(cells) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(cells)
	}
	batches := make([][]Cell, 0, (len(cells)+size-1)/size)
	for start := 0; start < len(cells); start += size {
		end := min(start+size, len(cells))
		batch := make([]Cell, end-start)
		copy(batch, cells[start:end])
		batches = append(batches, batch)
	}
	return batches
}

// DemoBatches はデモ用の 3 バッチを返す
func DemoBatches() [][]Cell {
	return [][]Cell{
		{{Text: "Hi!", Task: TaskSay}},
		{{Text: "Hello!", Task: TaskShout}, {Text: "Howdy!", Task: TaskShout}},
		{{Text: "Yo!", Task: TaskSay}},
	}
}
