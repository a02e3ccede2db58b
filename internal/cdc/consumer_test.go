package cdc

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/txn"
	"github.com/reifydb/reifydb/internal/version"
)

var errTransient = errors.New("transient handler failure")

func TestConsumerDeliversAndAdvancesCursor(t *testing.T) {
	backend := kv.NewMemoryBackend()
	store := mvcc.NewStore(backend)
	versions, err := version.NewProvider(backend)
	if err != nil {
		t.Fatalf("new version provider: %v", err)
	}
	oracle := txn.NewOracle(versions, store, kv.CdcTable, NewWriter(store))
	mgr := txn.NewManager(store, oracle)

	table := kv.SourceTableID(1)
	cmd := mgr.BeginCommand(txn.Optimistic)
	cmd.Set(table, []byte("row-1"), []byte("v1"))
	v1, err := cmd.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	var mu sync.Mutex
	var received []Event
	handle := func(cmd *txn.Command, events []Event) error {
		mu.Lock()
		received = append(received, events...)
		mu.Unlock()
		return nil
	}

	consumer := NewConsumer("test-consumer", 10*time.Millisecond, backend, versions, mgr, kv.CdcTable, handle)
	consumer.Start()
	defer consumer.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(received))
	}
	if received[0].Change.Kind != Insert {
		t.Fatalf("expected Insert, got %v", received[0].Change.Kind)
	}

	cursor, err := loadCursor(backend, "test-consumer")
	if err != nil {
		t.Fatalf("load cursor: %v", err)
	}
	if cursor != v1 {
		t.Fatalf("expected cursor to advance to %d, got %d", v1, cursor)
	}
}

func TestConsumerRetriesOnHandlerError(t *testing.T) {
	backend := kv.NewMemoryBackend()
	store := mvcc.NewStore(backend)
	versions, err := version.NewProvider(backend)
	if err != nil {
		t.Fatalf("new version provider: %v", err)
	}
	oracle := txn.NewOracle(versions, store, kv.CdcTable, NewWriter(store))
	mgr := txn.NewManager(store, oracle)

	table := kv.SourceTableID(1)
	cmd := mgr.BeginCommand(txn.Optimistic)
	cmd.Set(table, []byte("row-1"), []byte("v1"))
	if _, err := cmd.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var mu sync.Mutex
	attempts := 0
	handle := func(cmd *txn.Command, events []Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	}

	consumer := NewConsumer("flaky-consumer", 10*time.Millisecond, backend, versions, mgr, kv.CdcTable, handle)
	consumer.Start()
	defer consumer.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := attempts
		mu.Unlock()
		if n >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts < 3 {
		t.Fatalf("expected at least 3 attempts (redelivery until success), got %d", attempts)
	}
}
