package worker

// Job はワーカーが一度だけ実行する作業単位
type Job interface {
	Run()
}

// JobFunc は関数を Job として扱うアダプタ
type JobFunc func()

// Run は関数を呼び出す
func (f JobFunc) Run() {
	f()
}

// Kind は WorkItem の種別
type Kind int

const (
	KindExecute Kind = iota
	KindTerminate
)

func (k Kind) String() string {
	switch k {
	case KindExecute:
		return "execute"
	case KindTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// WorkItem はチャネルで運ばれる単位。Execute(job) か Terminate のどちらか
type WorkItem struct {
	Kind Kind
	Job  Job
}

// Execute はジョブを運ぶ WorkItem を返す
func Execute(job Job) WorkItem {
	return WorkItem{Kind: KindExecute, Job: job}
}

// Terminate はワーカー停止を指示する WorkItem を返す
func Terminate() WorkItem {
	return WorkItem{Kind: KindTerminate}
}
