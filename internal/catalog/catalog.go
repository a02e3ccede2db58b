package catalog

import (
	"fmt"

	"github.com/reifydb/reifydb/internal/interceptor"
	"github.com/reifydb/reifydb/internal/keycode"
	"github.com/reifydb/reifydb/internal/kv"
	"github.com/reifydb/reifydb/internal/logutil"
	"github.com/reifydb/reifydb/internal/reifyerr"
	"github.com/reifydb/reifydb/internal/row"
	"github.com/reifydb/reifydb/internal/txn"
)

// Catalog owns the materialized cache and the catalog-wide interceptor
// chain shared by every transaction (spec.md §4.F, §4.G). The storage
// tables themselves are the source of truth; Catalog only adds the cache
// and hook machinery in front of them.
type Catalog struct {
	cache *cache
	hooks *interceptor.Chain
}

// New builds an empty Catalog.
func New() *Catalog {
	return &Catalog{cache: newCache(), hooks: interceptor.NewChain()}
}

// Hooks returns the catalog-wide interceptor chain, for registering
// long-lived hooks (e.g. a flow's own maintenance interceptor).
func (c *Catalog) Hooks() *interceptor.Chain { return c.hooks }

// Transaction wraps a command transaction with the catalog's transactional
// change overlay (spec.md §4.F step 1) and a clone of the catalog-wide
// interceptor chain (spec.md §4.G "cloned per transaction").
type Transaction struct {
	cmd        *txn.Command
	catalog    *Catalog
	overlay    *overlay
	hooks      *interceptor.Chain
	identityID string
	isRoot     bool
}

// Begin opens a catalog transaction over cmd.
func (c *Catalog) Begin(cmd *txn.Command) *Transaction {
	return &Transaction{cmd: cmd, catalog: c, overlay: newOverlay(), hooks: c.hooks.Clone()}
}

// SetPrincipal attaches the caller's identity to this transaction so
// interceptor hooks fired for the rest of the transaction can see who
// requested the mutation (spec.md §6 "the core ... carries the principal
// through to hooks"). A transaction with no principal set reports an empty
// identity and isRoot=false, which is also what a direct internal caller
// (no external identity) should see.
func (t *Transaction) SetPrincipal(identityID string, isRoot bool) {
	t.identityID = identityID
	t.isRoot = isRoot
}

// Hooks returns this transaction's cloned interceptor chain, which callers
// may extend with transaction-scoped hooks without affecting the catalog.
func (t *Transaction) Hooks() *interceptor.Chain { return t.hooks }

// Command returns the underlying command transaction, for callers that
// need to mix catalog operations with direct table-row reads/writes (e.g.
// the executor writing materialized view rows in the same commit).
func (t *Transaction) Command() *txn.Command { return t.cmd }

// put writes def at key, through the pending write of the underlying
// command (so it participates in the same atomic commit and conflict
// detection) and into this transaction's overlay (so later reads within
// the same transaction see it immediately, spec.md §4.F step 1).
func (t *Transaction) put(key keycode.Encoded, def []byte) {
	t.cmd.Set(kv.MultiTable, key, def)
	t.overlay.put(string(key), def)
}

func (t *Transaction) remove(key keycode.Encoded) {
	t.cmd.Remove(kv.MultiTable, key)
	t.overlay.put(string(key), nil)
}

// get implements the read cascade of spec.md §4.F: transactional overlay,
// then the materialized cache at this transaction's version, then storage
// (with a warning on cache miss, since a miss means the cache failed to
// observe a commit it should have been updated for).
func (t *Transaction) get(key keycode.Encoded) (def []byte, found bool, err error) {
	if v, ok := t.overlay.get(string(key)); ok {
		return v, v != nil, nil
	}
	if v, ok := t.catalog.cache.get(string(key), t.cmd.Version()); ok {
		return v, v != nil, nil
	}
	v, found, err := t.cmd.Get(kv.MultiTable, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		logutil.Warnf("catalog cache miss for key kind %v, falling back to storage", keyKind(key))
	}
	return v, found, nil
}

func keyKind(key keycode.Encoded) keycode.Kind {
	k, err := keycode.DecodeKind(key)
	if err != nil {
		return 0
	}
	return k
}

// publish records that key's definition became def as of the transaction's
// commit version, updating the materialized cache. Called after a
// successful Commit() by the caller that owns the txn.Command (catalog
// itself has no commit hook into the oracle, so this is explicit).
func (t *Transaction) publish(version uint64) {
	for _, e := range t.overlay.entries {
		if e.key == "" {
			continue
		}
		t.catalog.cache.put(e.key, version, e.value)
	}
}

// Publish updates the catalog's materialized cache with every definition
// this transaction wrote, at the version its command committed at. Callers
// must call Publish after a successful Command.Commit(); a transaction that
// rolled back must not call it.
func (t *Transaction) Publish(version uint64) { t.publish(version) }

// Commit fires the PreCommit hook, commits the underlying command
// transaction, fires PostCommit, and publishes this transaction's overlay
// into the materialized cache — the one call a caller needs instead of
// manually sequencing Command.Commit()+Publish() (spec.md §4.G's commit
// hooks exist precisely to wrap this sequence). A PreCommit hook returning
// an error aborts the commit: the underlying command is rolled back and
// neither the commit nor PostCommit run.
func (t *Transaction) Commit() (uint64, error) {
	if err := t.runHook(interceptor.PreCommit, "commit", nil, nil); err != nil {
		t.cmd.Rollback()
		return 0, err
	}
	version, err := t.cmd.Commit()
	if err != nil {
		return 0, err
	}
	if err := t.runHook(interceptor.PostCommit, "commit", nil, nil); err != nil {
		return version, err
	}
	t.publish(version)
	return version, nil
}

// runHook fires a table-row-shaped hook for a catalog mutation: namespaces,
// tables, views, columns, flows and subscriptions are themselves rows of
// system catalog tables, so their creation/mutation is a TablePreInsert /
// TablePostInsert (or Update) event on the "catalog" namespace, filtered by
// the entity kind as the table name.
func (t *Transaction) runHook(kind interceptor.Kind, entityKind string, pre, post []byte) error {
	return t.hooks.Run(kind, interceptor.Event{
		Namespace:  "catalog",
		Table:      entityKind,
		Pre:        pre,
		Post:       post,
		IdentityID: t.identityID,
		IsRoot:     t.isRoot,
	})
}

// CreateNamespace allocates and persists a new namespace, rejecting a
// duplicate name (spec.md §4.F "validate invariants: names unique within
// namespace" — namespace names are unique globally, ownerID 0).
func (t *Transaction) CreateNamespace(name string) (*NamespaceDef, error) {
	nameKey := keycode.EncodeEntityByName(0, name)
	if _, found, err := t.get(nameKey); err != nil {
		return nil, err
	} else if found {
		return nil, reifyerr.Schema(fmt.Sprintf("namespace %q already exists", name), "")
	}

	id, err := nextID(t.cmd, keycode.KindNamespace)
	if err != nil {
		return nil, err
	}
	def := &NamespaceDef{ID: id, Name: name}
	raw := encode(def)

	if err := t.runHook(interceptor.TablePreInsert, "namespaces", nil, raw); err != nil {
		return nil, err
	}
	t.put(keycode.EncodeNamespace(id), raw)
	t.put(nameKey, idRecord(id))
	if err := t.runHook(interceptor.TablePostInsert, "namespaces", nil, raw); err != nil {
		return nil, err
	}
	return def, nil
}

// GetNamespace resolves a namespace definition by ID.
func (t *Transaction) GetNamespace(id uint64) (*NamespaceDef, error) {
	raw, found, err := t.get(keycode.EncodeNamespace(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reifyerr.Schema(fmt.Sprintf("namespace %d not found", id), "")
	}
	def, err := decode[NamespaceDef](raw)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// FindNamespaceByName resolves a namespace by name, or found=false.
func (t *Transaction) FindNamespaceByName(name string) (*NamespaceDef, bool, error) {
	raw, found, err := t.get(keycode.EncodeEntityByName(0, name))
	if err != nil || !found {
		return nil, false, err
	}
	id, err := decodeIDRecord(raw)
	if err != nil {
		return nil, false, err
	}
	def, err := t.GetNamespace(id)
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

// CreateTable allocates and persists a new table within namespaceID,
// together with its columns and, if pkColumns is non-empty, a primary key
// definition. Column names must be distinct; pkColumns must name columns
// present in cols (spec.md §4.F "primary-key columns exist").
func (t *Transaction) CreateTable(namespaceID uint64, name string, cols []ColumnSpec, pkColumns []string) (*TableDef, []ColumnDef, error) {
	if _, err := t.GetNamespace(namespaceID); err != nil {
		return nil, nil, err
	}
	nameKey := keycode.EncodeEntityByName(namespaceID, name)
	if _, found, err := t.get(nameKey); err != nil {
		return nil, nil, err
	} else if found {
		return nil, nil, reifyerr.Schema(fmt.Sprintf("table %q already exists in namespace", name), "")
	}
	if err := validateColumnNames(cols); err != nil {
		return nil, nil, err
	}

	id, err := nextID(t.cmd, keycode.KindTable)
	if err != nil {
		return nil, nil, err
	}
	def := &TableDef{ID: id, NamespaceID: namespaceID, Name: name}
	raw := encode(def)

	if err := t.runHook(interceptor.TablePreInsert, "tables", nil, raw); err != nil {
		return nil, nil, err
	}
	t.put(keycode.EncodeTable(namespaceID, id), raw)
	t.put(nameKey, idRecord(id))

	colDefs, err := t.createColumns(id, cols)
	if err != nil {
		return nil, nil, err
	}

	if len(pkColumns) > 0 {
		if err := t.createPrimaryKey(id, colDefs, pkColumns); err != nil {
			return nil, nil, err
		}
	}

	if err := t.runHook(interceptor.TablePostInsert, "tables", nil, raw); err != nil {
		return nil, nil, err
	}
	return def, colDefs, nil
}

// ColumnSpec describes one column to create; Position is assigned by
// CreateTable/AlterTableAddColumn in declaration order.
type ColumnSpec struct {
	Name string
	Type row.Type
}

func validateColumnNames(cols []ColumnSpec) error {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return reifyerr.Schema(fmt.Sprintf("duplicate column name %q", c.Name), "")
		}
		seen[c.Name] = true
	}
	return nil
}

func (t *Transaction) createColumns(sourceID uint64, cols []ColumnSpec) ([]ColumnDef, error) {
	defs := make([]ColumnDef, 0, len(cols))
	for i, c := range cols {
		id, err := nextID(t.cmd, keycode.KindColumn)
		if err != nil {
			return nil, err
		}
		def := ColumnDef{ID: id, SourceID: sourceID, Name: c.Name, Type: c.Type, Position: i}
		t.put(keycode.EncodeColumn(sourceID, id), encode(def))
		defs = append(defs, def)
	}
	return defs, nil
}

func (t *Transaction) createPrimaryKey(tableID uint64, cols []ColumnDef, pkColumns []string) error {
	byName := make(map[string]uint64, len(cols))
	for _, c := range cols {
		byName[c.Name] = c.ID
	}
	ids := make([]uint64, 0, len(pkColumns))
	for _, name := range pkColumns {
		id, ok := byName[name]
		if !ok {
			return reifyerr.Schema(fmt.Sprintf("primary key column %q not found on table", name), "")
		}
		ids = append(ids, id)
	}
	def := PrimaryKeyDef{TableID: tableID, ColumnIDs: ids}
	t.put(keycode.EncodePrimaryKey(tableID), encode(def))
	return nil
}

// GetTable resolves a table definition by namespace and table ID.
func (t *Transaction) GetTable(namespaceID, tableID uint64) (*TableDef, error) {
	raw, found, err := t.get(keycode.EncodeTable(namespaceID, tableID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reifyerr.Schema(fmt.Sprintf("table %d not found", tableID), "")
	}
	def, err := decode[TableDef](raw)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// FindTableByName resolves a table by namespace and name, or found=false.
func (t *Transaction) FindTableByName(namespaceID uint64, name string) (*TableDef, bool, error) {
	raw, found, err := t.get(keycode.EncodeEntityByName(namespaceID, name))
	if err != nil || !found {
		return nil, false, err
	}
	id, err := decodeIDRecord(raw)
	if err != nil {
		return nil, false, err
	}
	def, err := t.GetTable(namespaceID, id)
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

// AlterTableAddColumn appends a new column to an existing table (spec.md
// §4.F operation class "alter_table"). The column is appended after the
// table's current highest position.
func (t *Transaction) AlterTableAddColumn(namespaceID, tableID uint64, spec ColumnSpec) (*ColumnDef, error) {
	tableDef, err := t.GetTable(namespaceID, tableID)
	if err != nil {
		return nil, err
	}
	before := encode(tableDef)

	existing, err := t.ListColumns(tableID)
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		if c.Name == spec.Name {
			return nil, reifyerr.Schema(fmt.Sprintf("column %q already exists", spec.Name), "")
		}
	}

	if err := t.runHook(interceptor.TablePreUpdate, "tables", before, before); err != nil {
		return nil, err
	}

	id, err := nextID(t.cmd, keycode.KindColumn)
	if err != nil {
		return nil, err
	}
	def := ColumnDef{ID: id, SourceID: tableID, Name: spec.Name, Type: spec.Type, Position: len(existing)}
	t.put(keycode.EncodeColumn(tableID, id), encode(def))

	if err := t.runHook(interceptor.TablePostUpdate, "tables", before, before); err != nil {
		return nil, err
	}
	return &def, nil
}

// ListColumns returns every column of sourceID (a table or view), ordered
// by declared position.
func (t *Transaction) ListColumns(sourceID uint64) ([]ColumnDef, error) {
	start, end := keycode.PrefixRange(keycode.KindColumn, columnOwnerPrefix(sourceID))
	items, err := t.cmd.Range(kv.MultiTable, start, end)
	if err != nil {
		return nil, err
	}
	cols := make([]ColumnDef, 0, len(items))
	for _, it := range items {
		c, err := decode[ColumnDef](it.Value)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	sortColumnsByPosition(cols)
	return cols, nil
}

func columnOwnerPrefix(sourceID uint64) []byte {
	full := keycode.NewBuilder(keycode.KindColumn).PutUint64(sourceID).Bytes()
	return full[2:]
}

func sortColumnsByPosition(cols []ColumnDef) {
	for i := 1; i < len(cols); i++ {
		for j := i; j > 0 && cols[j].Position < cols[j-1].Position; j-- {
			cols[j], cols[j-1] = cols[j-1], cols[j]
		}
	}
}

// CreateView allocates and persists a new materialized view bound to an
// already-compiled flow (spec.md §4.F operation class "create_view").
func (t *Transaction) CreateView(namespaceID uint64, name string, flowID uint64) (*ViewDef, error) {
	if _, err := t.GetNamespace(namespaceID); err != nil {
		return nil, err
	}
	nameKey := keycode.EncodeEntityByName(namespaceID, name)
	if _, found, err := t.get(nameKey); err != nil {
		return nil, err
	} else if found {
		return nil, reifyerr.Schema(fmt.Sprintf("view %q already exists in namespace", name), "")
	}

	id, err := nextID(t.cmd, keycode.KindView)
	if err != nil {
		return nil, err
	}
	def := &ViewDef{ID: id, NamespaceID: namespaceID, Name: name, FlowID: flowID}
	raw := encode(def)

	if err := t.runHook(interceptor.ViewPreInsert, "views", nil, raw); err != nil {
		return nil, err
	}
	t.put(keycode.EncodeView(namespaceID, id), raw)
	t.put(nameKey, idRecord(id))
	if err := t.runHook(interceptor.ViewPostInsert, "views", nil, raw); err != nil {
		return nil, err
	}
	return def, nil
}

// GetView resolves a view definition by namespace and view ID.
func (t *Transaction) GetView(namespaceID, viewID uint64) (*ViewDef, error) {
	raw, found, err := t.get(keycode.EncodeView(namespaceID, viewID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, reifyerr.Schema(fmt.Sprintf("view %d not found", viewID), "")
	}
	def, err := decode[ViewDef](raw)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// CreateFlow persists a compiled flow graph: the flow itself, its nodes,
// and its edges, in one catalog transaction. The caller is responsible for
// having already validated the graph is acyclic (internal/flow's job, not
// the catalog's).
func (t *Transaction) CreateFlow(name string, nodes []FlowNodeDef, edges []FlowEdgeDef) (*FlowDef, error) {
	id, err := nextID(t.cmd, keycode.KindFlow)
	if err != nil {
		return nil, err
	}
	def := &FlowDef{ID: id, Name: name}
	t.put(keycode.EncodeFlow(id), encode(def))

	for i := range nodes {
		nodeID, err := nextID(t.cmd, keycode.KindFlowNode)
		if err != nil {
			return nil, err
		}
		nodes[i].ID = nodeID
		nodes[i].FlowID = id
		t.put(keycode.EncodeFlowNode(id, nodeID), encode(nodes[i]))
	}

	for i := range edges {
		edgeID, err := nextID(t.cmd, keycode.KindFlowEdge)
		if err != nil {
			return nil, err
		}
		edges[i].ID = edgeID
		edges[i].FlowID = id
		t.put(keycode.EncodeFlowEdge(edgeID), encode(edges[i]))
		t.put(keycode.EncodeFlowEdgeByFlow(id, edgeID), idRecord(edgeID))
	}

	return def, nil
}

// ListFlowEdges returns every edge belonging to flowID.
func (t *Transaction) ListFlowEdges(flowID uint64) ([]FlowEdgeDef, error) {
	start, end := keycode.PrefixRange(keycode.KindFlowEdgeByFlow, flowOwnerPrefix(flowID))
	items, err := t.cmd.Range(kv.MultiTable, start, end)
	if err != nil {
		return nil, err
	}
	edges := make([]FlowEdgeDef, 0, len(items))
	for _, it := range items {
		edgeID, err := decodeIDRecord(it.Value)
		if err != nil {
			return nil, err
		}
		raw, found, err := t.get(keycode.EncodeFlowEdge(edgeID))
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		e, err := decode[FlowEdgeDef](raw)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func flowOwnerPrefix(flowID uint64) []byte {
	full := keycode.NewBuilder(keycode.KindFlowEdgeByFlow).PutUint64(flowID).Bytes()
	return full[2:]
}

// DeleteFlowEdge removes a single edge from a flow (spec.md §4.F operation
// class "delete_flow_edge"), e.g. while tearing down a flow node.
func (t *Transaction) DeleteFlowEdge(flowID, edgeID uint64) error {
	t.remove(keycode.EncodeFlowEdge(edgeID))
	t.remove(keycode.EncodeFlowEdgeByFlow(flowID, edgeID))
	return nil
}

// CreateSubscription registers a new CDC consumer over sourceID (spec.md
// §4.H "Consumers register a durable ConsumerId").
func (t *Transaction) CreateSubscription(sourceID uint64, name string) (*SubscriptionDef, error) {
	id, err := nextID(t.cmd, keycode.KindSubscriptionRow)
	if err != nil {
		return nil, err
	}
	def := &SubscriptionDef{ID: id, SourceID: sourceID, Name: name}
	t.put(keycode.EncodeSubscriptionRow(id), encode(def))
	return def, nil
}

// idRecord/decodeIDRecord encode a bare uint64 id as a by-name index
// value, reusing the JSON codec for consistency with every other catalog
// record rather than a separate raw-binary format for this one case.
func idRecord(id uint64) []byte { return encode(id) }

func decodeIDRecord(raw []byte) (uint64, error) { return decode[uint64](raw) }
