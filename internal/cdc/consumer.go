package cdc

import (
	"time"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/logutil"
	"github.com/reifydb/reifydb/internal/txn"
	"github.com/reifydb/reifydb/internal/version"
)

// Handler processes a batch of events within cmd, a fresh command
// transaction opened for this batch. Returning an error aborts the batch:
// the cursor does not advance and the same events are redelivered on the
// next tick (spec.md §5 "Consumers must therefore be idempotent").
type Handler func(cmd *txn.Command, events []Event) error

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 30 * time.Second
	watermarkWaitTimeout = 5 * time.Second
)

// Consumer drives one CDC consumer's scheduler loop: wait for new
// committed versions, scan its slice of the CDC log, hand the batch to its
// Handler inside a fresh command transaction, and persist its cursor on
// success (spec.md §4.H).
type Consumer struct {
	id       string
	interval time.Duration
	backend  kv.Backend
	versions *version.Provider
	mgr      *txn.Manager
	cdcTable kv.TableID
	handle   Handler

	isolation txn.IsolationLevel
	stop      chan struct{}
	done      chan struct{}
}

// NewConsumer builds a Consumer identified by id, polling every interval.
// id must be stable across restarts: it is the key the consumer's cursor
// is persisted under.
func NewConsumer(id string, interval time.Duration, backend kv.Backend, versions *version.Provider, mgr *txn.Manager, cdcTable kv.TableID, handle Handler) *Consumer {
	return &Consumer{
		id:        id,
		interval:  interval,
		backend:   backend,
		versions:  versions,
		mgr:       mgr,
		cdcTable:  cdcTable,
		handle:    handle,
		isolation: txn.Serializable,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the consumer's scheduler goroutine.
func (c *Consumer) Start() { go c.run() }

// Stop signals the scheduler goroutine to exit and waits for it.
func (c *Consumer) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Consumer) run() {
	defer close(c.done)
	backoff := minBackoff
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		advanced, err := c.tick()
		if err != nil {
			logutil.Errorf("cdc consumer %s: %v, backing off %s", c.id, err, backoff)
			select {
			case <-time.After(backoff):
			case <-c.stop:
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		if advanced {
			backoff = minBackoff
		}
	}
}

// tick runs one Idle → FetchingCdc → TranslatingDiff/ApplyingGraph →
// Committing cycle (spec.md §4.K state machine, generalized to any
// consumer, not only the flow engine). Returns whether the cursor moved.
func (c *Consumer) tick() (bool, error) {
	cursor, err := loadCursor(c.backend, c.id)
	if err != nil {
		return false, err
	}

	target := cursor + 1
	if !c.versions.WaitForMarkTimeout(target, watermarkWaitTimeout) {
		return false, nil // nothing new yet; try again next tick
	}
	doneUntil := c.versions.Watermark()
	if doneUntil <= cursor {
		return false, nil
	}

	events, err := Scan(c.backend, c.cdcTable, cursor, doneUntil)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return true, saveCursor(c.backend, c.id, doneUntil)
	}

	cmd := c.mgr.BeginCommand(c.isolation)
	if err := c.handle(cmd, events); err != nil {
		cmd.Rollback()
		return false, err
	}
	if _, err := cmd.Commit(); err != nil {
		return false, err
	}
	if err := saveCursor(c.backend, c.id, doneUntil); err != nil {
		return false, err
	}
	return true, nil
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
