package kv

import "sync"

// writerActor serializes every write batch through a single goroutine, so
// that a backend whose underlying store only tolerates one writer at a time
// (SQLite) never sees concurrent transactions (spec.md §4.B, §5: "The
// storage writer is a single-threaded actor per backend instance"). This is
// the same request/result-channel shape as the teacher's WorkerPool in
// storage/concurrency.go, specialized to a single worker since the backend
// itself is the serialization point, not a pool of equivalent workers.
type writerActor struct {
	commit func(map[TableID][]Write) error

	requests chan writeRequest
	done     chan struct{}
	closeOnce sync.Once
}

type writeRequest struct {
	batch  map[TableID][]Write
	result chan error
}

func newWriterActor(commit func(map[TableID][]Write) error) *writerActor {
	a := &writerActor{
		commit:   commit,
		requests: make(chan writeRequest),
		done:     make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *writerActor) run() {
	defer close(a.done)
	for req := range a.requests {
		req.result <- a.commit(req.batch)
	}
}

// submit blocks until the batch has been committed (or failed) by the
// writer goroutine.
func (a *writerActor) submit(batch map[TableID][]Write) error {
	result := make(chan error, 1)
	a.requests <- writeRequest{batch: batch, result: result}
	return <-result
}

func (a *writerActor) close() {
	a.closeOnce.Do(func() {
		close(a.requests)
		<-a.done
	})
}
