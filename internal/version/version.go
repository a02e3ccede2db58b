// Package version implements the version provider (spec.md §4.D): a small
// actor owning the durable, monotonically increasing commit-version counter,
// plus the "done-until" watermark flow consumers use to know which CDC
// events are safe to read.
package version

import (
	"container/heap"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
)

// Provider owns the durable version counter and the done-until watermark.
// Next is called once per command transaction at commit time; Done is
// called once that transaction's whole commit pipeline (including its CDC
// write) has completed, possibly out of order with respect to other
// in-flight transactions.
type Provider struct {
	backend kv.Backend

	mu        sync.Mutex
	current   uint64
	watermark uint64
	inFlight  *versionHeap
	done      map[uint64]bool
	advanced  chan struct{}
}

// NewProvider creates a Provider backed by the persisted counter in backend,
// replaying from its last persisted value (spec.md "restart replays from the
// persisted value"). A fresh backend starts the counter at 0.
func NewProvider(backend kv.Backend) (*Provider, error) {
	persisted, err := loadPersisted(backend)
	if err != nil {
		return nil, err
	}
	h := &versionHeap{}
	heap.Init(h)
	return &Provider{
		backend:   backend,
		current:   persisted,
		watermark: persisted, // nothing in-flight immediately after (re)start
		inFlight:  h,
		done:      make(map[uint64]bool),
		advanced:  make(chan struct{}),
	}, nil
}

func loadPersisted(backend kv.Backend) (uint64, error) {
	raw, ok, err := backend.Get(kv.SingleTable, keycode.VersionProviderKey())
	if err != nil {
		return 0, fmt.Errorf("version: load counter: %w", err)
	}
	if !ok {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("version: corrupt persisted counter: %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// Next allocates and persists the next commit version, and marks it
// in-flight for watermark purposes until Done is called with the same
// version.
func (p *Provider) Next() (uint64, error) {
	p.mu.Lock()
	next := p.current + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	p.mu.Unlock()

	if err := p.backend.Set(map[kv.TableID][]kv.Write{
		kv.SingleTable: {{Key: keycode.VersionProviderKey(), Value: buf}},
	}); err != nil {
		return 0, fmt.Errorf("version: persist counter: %w", err)
	}

	p.mu.Lock()
	p.current = next
	heap.Push(p.inFlight, next)
	p.mu.Unlock()
	return next, nil
}

// Done marks version v's commit pipeline (including its CDC write) as
// complete, and advances the done-until watermark past every
// smallest-first run of now-complete in-flight versions.
func (p *Provider) Done(v uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done[v] = true
	advanced := false
	for p.inFlight.Len() > 0 {
		top := (*p.inFlight)[0]
		if !p.done[top] {
			break
		}
		heap.Pop(p.inFlight)
		delete(p.done, top)
		p.watermark = top
		advanced = true
	}
	if advanced {
		close(p.advanced)
		p.advanced = make(chan struct{})
	}
}

// Watermark returns the current done-until watermark.
func (p *Provider) Watermark() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watermark
}

// Current returns the most recently allocated version, independent of the
// watermark (i.e. including versions still in flight).
func (p *Provider) Current() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// WaitForMarkTimeout blocks until the watermark reaches or passes v, or d
// elapses, whichever comes first (spec.md §4.D, §5 "flow consumers treat
// timeout as 'try again next tick' rather than a fatal error").
func (p *Provider) WaitForMarkTimeout(v uint64, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		p.mu.Lock()
		if p.watermark >= v {
			p.mu.Unlock()
			return true
		}
		ch := p.advanced
		p.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		select {
		case <-ch:
		case <-time.After(remaining):
			return false
		}
	}
}

// versionHeap is a min-heap of in-flight version numbers.
type versionHeap []uint64

func (h versionHeap) Len() int            { return len(h) }
func (h versionHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h versionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *versionHeap) Push(x interface{}) { *h = append(*h, x.(uint64)) }
func (h *versionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
