// Package reifydb is the embedded engine facade (spec.md §6 "Exposed
// interfaces the core requires from collaborators"). It wires the storage,
// transaction, catalog, CDC, and flow layers into one Engine exposing
// exactly the contract a network front-end or CLI would target: QueryAs,
// CommandAs, and Subscribe, all carrying a Principal through to catalog
// interceptor hooks without the core itself enforcing policy.
//
// There is no RQL parser in this repository (out of scope per spec.md §1);
// callers supply an already-built exec.Node tree (a "physical plan") in
// place of RQL source text. The internal/rql package builds such trees
// from plain Go values for tests, standing in for the external planner.
package reifydb

import (
	"fmt"
	"time"

	"github.com/reifydb/reifydb/internal/catalog"
	"github.com/reifydb/reifydb/internal/cdc"
	"github.com/reifydb/reifydb/internal/exec"
	"github.com/reifydb/reifydb/internal/flow"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/logutil"
	"github.com/reifydb/reifydb/internal/mvcc"
	"github.com/reifydb/reifydb/internal/txn"
	"github.com/reifydb/reifydb/internal/version"
)

// Engine is the embedded database: one storage stack plus the transaction
// manager, catalog, and CDC consumers layered on top of it.
type Engine struct {
	backend  kv.Backend
	warm     kv.Backend
	store    *mvcc.Store
	versions *version.Provider
	oracle   *txn.Oracle
	mgr      *txn.Manager
	catalog  *catalog.Catalog
	cdcWr    *cdc.Writer

	flowReg    *flow.Registry
	consumers  []*cdc.Consumer
	gc         *cdc.GCScheduler
	gcSchedule string
}

// Open builds an Engine from cfg (spec.md §6 "MultiStoreConfig"). Memory()
// and Open are the two embedded-builder entry points the original repo's
// reifydb::embedded module exposes ("glue — no contract" per spec.md §6);
// everything past backend selection is this engine's own wiring.
func Open(cfg MultiStoreConfig) (*Engine, error) {
	hot, err := openBackend(cfg.Hot)
	if err != nil {
		return nil, fmt.Errorf("reifydb: open hot tier: %w", err)
	}

	var warm kv.Backend
	var store *mvcc.Store
	if cfg.Warm != nil {
		warm, err = openBackend(*cfg.Warm)
		if err != nil {
			return nil, fmt.Errorf("reifydb: open warm tier: %w", err)
		}
		store = mvcc.NewTieredStore(hot, warm, nil)
	} else {
		store = mvcc.NewStore(hot)
	}

	versions, err := version.NewProvider(hot)
	if err != nil {
		return nil, fmt.Errorf("reifydb: load version provider: %w", err)
	}
	cdcWr := cdc.NewWriter(store)
	oracle := txn.NewOracle(versions, store, kv.CdcTable, cdcWr)
	mgr := txn.NewManager(store, oracle)
	cat := catalog.New()

	e := &Engine{
		backend:  hot,
		warm:     warm,
		store:    store,
		versions: versions,
		oracle:   oracle,
		mgr:      mgr,
		catalog:  cat,
		cdcWr:    cdcWr,
	}
	e.gcSchedule = cfg.GCSchedule
	return e, nil
}

// Memory opens an Engine entirely in-process, backed by the default
// memory-only configuration.
func Memory() (*Engine, error) { return Open(DefaultMemoryConfig()) }

func openBackend(cfg StoreConfig) (kv.Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		return kv.NewMemoryBackend(), nil
	case "sqlite":
		return kv.OpenSQLiteBackend(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Catalog exposes the engine's catalog for bootstrapping (creating
// namespaces, tables, flows) ahead of the first QueryAs/CommandAs call.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Manager exposes the transaction manager for callers (test helpers, the
// flow/CDC wiring below) that need to open transactions directly rather
// than through QueryAs/CommandAs.
func (e *Engine) Manager() *txn.Manager { return e.mgr }

// Versions exposes the version provider, e.g. for a collaborator that
// wants to observe watermark progress directly.
func (e *Engine) Versions() *version.Provider { return e.versions }

// RegisterFlows compiles graphs and wires their combined CDC handler as
// one consumer (spec.md §4.I "per-flow CDC consumers"), named id, polling
// at interval. Call before Start.
func (e *Engine) RegisterFlows(id string, interval time.Duration, graphs []*flow.Graph) {
	e.flowReg = flow.NewRegistry(graphs)
	e.consumers = append(e.consumers, cdc.NewConsumer(id, interval, e.backend, e.versions, e.mgr, kv.CdcTable, e.flowReg.Handler()))
}

// Start launches every registered CDC consumer. Call StartDictionaryGC
// separately if this schema uses dictionary-encoded columns.
func (e *Engine) Start() error {
	for _, c := range e.consumers {
		c.Start()
	}
	return nil
}

// StartDictionaryGC wires and starts the dictionary-encoding garbage
// collector (internal/cdc.GCScheduler) on MultiStoreConfig.GCSchedule (or
// every five minutes if that was left unset). columns enumerates the
// dictionary-encoded column ids to sweep and live computes, for one such
// column, the set of indices still referenced by live rows; both are
// supplied by the caller because only the schema/executor layer — not this
// facade — knows which columns are dictionary-encoded and how to decode
// their rows.
func (e *Engine) StartDictionaryGC(columns func() []uint64, live cdc.LiveIndices) error {
	spec := e.gcSchedule
	if spec == "" {
		spec = "0 */5 * * * *"
	}
	e.gc = cdc.NewGCScheduler(e.catalog, e.mgr, columns, live)
	return e.gc.Start(spec)
}

// Close stops every consumer and the GC scheduler, then closes the
// storage backends.
func (e *Engine) Close() error {
	for _, c := range e.consumers {
		c.Stop()
	}
	if e.gc != nil {
		e.gc.Stop()
	}
	if e.warm != nil {
		if err := e.warm.Close(); err != nil {
			logutil.Errorf("reifydb: close warm backend: %v", err)
		}
	}
	return e.backend.Close()
}

// QueryAs runs plan as principal in a fresh read-only snapshot transaction
// and returns its fully materialized result (spec.md §6 "query_as(identity,
// rql, params) -> Vec<Frame>"; this engine returns one Frame per plan since
// it has no RQL statement batching to split on).
func (e *Engine) QueryAs(principal Principal, plan exec.Node) (*Frame, error) {
	q := e.mgr.BeginQuery()
	defer q.Close()

	if err := plan.Initialize(q); err != nil {
		return nil, err
	}
	return drain(plan, func() (*exec.Batch, error) { return plan.Next(q) })
}

// CommandOp performs writes against an open command transaction and
// optionally returns a read plan (e.g. "RETURNING"-style reporting of the
// rows just written) to materialize into the result Frame, or nil for no
// result.
type CommandOp func(cat *catalog.Transaction) (exec.Node, error)

// CommandAs runs op as principal inside one command transaction, committing
// on success and rolling back on any error (spec.md §6 "command_as(identity,
// rql, params) -> Vec<Frame>"). If op returns a non-nil plan, it is run
// against the same transaction's resulting state, read back through a fresh
// query transaction pinned at the version this command just committed, so
// the reported rows are exactly what the caller just wrote.
func (e *Engine) CommandAs(principal Principal, op CommandOp) (*Frame, error) {
	cmd := e.mgr.BeginCommand(txn.Optimistic)
	cat := e.catalog.Begin(cmd)
	cat.SetPrincipal(principal.IdentityID, principal.IsRoot)

	plan, err := op(cat)
	if err != nil {
		cmd.Rollback()
		return nil, err
	}

	v, err := cat.Commit()
	if err != nil {
		return nil, err
	}

	if plan == nil {
		return &Frame{}, nil
	}

	q := e.mgr.BeginQueryAt(v)
	defer q.Close()
	if err := plan.Initialize(q); err != nil {
		return nil, err
	}
	return drain(plan, func() (*exec.Batch, error) { return plan.Next(q) })
}

// ChangePayload is one flow.Change's worth of diffs, re-exported at the
// engine boundary so a Subscribe consumer never needs to import
// internal/flow directly (spec.md §6 "subscription API returning a stream
// of ChangePayload").
type ChangePayload struct {
	SourceID uint64
	Version  uint64
	Diffs    []SubscribedDiff
}

// SubscribedDiff is one row-level change within a ChangePayload.
type SubscribedDiff struct {
	Kind cdc.ChangeKind
	Key  []byte
	Pre  []byte
	Post []byte
}

// Subscribe registers a durable CDC consumer over source, decoding its raw
// events into ChangePayload values pushed onto the returned channel in
// commit-version order. The returned cancel function stops the consumer
// and closes the channel; callers must call it to release the consumer's
// goroutine.
//
// The channel send happens inside the consumer's own command transaction,
// before that transaction commits: a subscriber that stops draining the
// channel stalls this consumer's cursor (spec.md §5 "partial failure
// aborts the batch"), but never blocks any other consumer, since each has
// an independent transaction and cursor.
func (e *Engine) Subscribe(principal Principal, id string, source kv.TableID, interval time.Duration) (<-chan ChangePayload, func(), error) {
	ch := make(chan ChangePayload, 64)
	handler := func(_ *txn.Command, events []cdc.Event) error {
		if len(events) == 0 {
			return nil
		}
		byVersion := map[uint64][]cdc.Event{}
		var order []uint64
		for _, ev := range events {
			if ev.Source != source {
				continue
			}
			if _, seen := byVersion[ev.Version]; !seen {
				order = append(order, ev.Version)
			}
			byVersion[ev.Version] = append(byVersion[ev.Version], ev)
		}
		for _, v := range order {
			payload := ChangePayload{SourceID: source.ID, Version: v}
			for _, ev := range byVersion[v] {
				payload.Diffs = append(payload.Diffs, SubscribedDiff{
					Kind: ev.Change.Kind,
					Key:  ev.Key,
					Pre:  ev.Change.Pre,
					Post: ev.Change.Post,
				})
			}
			ch <- payload
		}
		return nil
	}

	c := cdc.NewConsumer(id, interval, e.backend, e.versions, e.mgr, kv.CdcTable, handler)
	e.consumers = append(e.consumers, c)
	c.Start()

	cancel := func() {
		c.Stop()
		close(ch)
	}
	return ch, cancel, nil
}
