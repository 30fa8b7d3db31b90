// Package cell provides the text-emission work that the demo driver runs on
// the worker pool.
//
// A Cell pairs an owned phrase with a Task. Say writes the phrase as is,
// Shout writes it upper-cased. Cells are grouped into batches and each batch
// becomes one pool job.
//
//	e := cell.NewConsoleEmitter(os.Stdout)
//	for _, batch := range cell.Partition(cells, 2) {
//	    _ = pool.Submit(func() { cell.Handle(e, batch) })
//	}
package cell
