package keycode

import "fmt"

// This file defines one Encode/Decode pair per entity key kind named in
// spec.md §4.A. Each entity key carries enough discriminators to be unique;
// numeric components are stored bit-inverted (descending byte order),
// variable-length name/row-key bytes are stored raw so their own
// lexicographic order is preserved for prefix scans.

// EncodeNamespace builds a key addressing a single namespace definition.
func EncodeNamespace(id uint64) Encoded {
	return NewBuilder(KindNamespace).PutUint64(id).Bytes()
}

// DecodeNamespace reverses EncodeNamespace.
func DecodeNamespace(enc Encoded) (id uint64, err error) {
	rest, err := expectPrefix(enc, KindNamespace)
	if err != nil {
		return 0, err
	}
	id, _, err = readUint64(rest)
	return id, err
}

// EncodeTable builds a key addressing a single table definition.
func EncodeTable(namespaceID, tableID uint64) Encoded {
	return NewBuilder(KindTable).PutUint64(namespaceID).PutUint64(tableID).Bytes()
}

// DecodeTable reverses EncodeTable.
func DecodeTable(enc Encoded) (namespaceID, tableID uint64, err error) {
	rest, err := expectPrefix(enc, KindTable)
	if err != nil {
		return 0, 0, err
	}
	namespaceID, rest, err = readUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	tableID, _, err = readUint64(rest)
	return namespaceID, tableID, err
}

// EncodeView builds a key addressing a single view definition.
func EncodeView(namespaceID, viewID uint64) Encoded {
	return NewBuilder(KindView).PutUint64(namespaceID).PutUint64(viewID).Bytes()
}

// DecodeView reverses EncodeView.
func DecodeView(enc Encoded) (namespaceID, viewID uint64, err error) {
	rest, err := expectPrefix(enc, KindView)
	if err != nil {
		return 0, 0, err
	}
	namespaceID, rest, err = readUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	viewID, _, err = readUint64(rest)
	return namespaceID, viewID, err
}

// EncodeColumn builds a key addressing a column definition within a source
// (table or view).
func EncodeColumn(sourceID, columnID uint64) Encoded {
	return NewBuilder(KindColumn).PutUint64(sourceID).PutUint64(columnID).Bytes()
}

// DecodeColumn reverses EncodeColumn.
func DecodeColumn(enc Encoded) (sourceID, columnID uint64, err error) {
	rest, err := expectPrefix(enc, KindColumn)
	if err != nil {
		return 0, 0, err
	}
	sourceID, rest, err = readUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	columnID, _, err = readUint64(rest)
	return sourceID, columnID, err
}

// EncodePrimaryKey builds a key addressing a table's primary key definition.
func EncodePrimaryKey(tableID uint64) Encoded {
	return NewBuilder(KindPrimaryKey).PutUint64(tableID).Bytes()
}

// DecodePrimaryKey reverses EncodePrimaryKey.
func DecodePrimaryKey(enc Encoded) (tableID uint64, err error) {
	rest, err := expectPrefix(enc, KindPrimaryKey)
	if err != nil {
		return 0, err
	}
	tableID, _, err = readUint64(rest)
	return tableID, err
}

// EncodeFlow builds a key addressing a flow definition.
func EncodeFlow(flowID uint64) Encoded {
	return NewBuilder(KindFlow).PutUint64(flowID).Bytes()
}

// DecodeFlow reverses EncodeFlow.
func DecodeFlow(enc Encoded) (flowID uint64, err error) {
	rest, err := expectPrefix(enc, KindFlow)
	if err != nil {
		return 0, err
	}
	flowID, _, err = readUint64(rest)
	return flowID, err
}

// EncodeFlowNode builds a key addressing a single flow node definition.
func EncodeFlowNode(flowID, nodeID uint64) Encoded {
	return NewBuilder(KindFlowNode).PutUint64(flowID).PutUint64(nodeID).Bytes()
}

// DecodeFlowNode reverses EncodeFlowNode.
func DecodeFlowNode(enc Encoded) (flowID, nodeID uint64, err error) {
	rest, err := expectPrefix(enc, KindFlowNode)
	if err != nil {
		return 0, 0, err
	}
	flowID, rest, err = readUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	nodeID, _, err = readUint64(rest)
	return flowID, nodeID, err
}

// EncodeFlowEdge builds a key addressing a single edge by its own id.
func EncodeFlowEdge(edgeID uint64) Encoded {
	return NewBuilder(KindFlowEdge).PutUint64(edgeID).Bytes()
}

// DecodeFlowEdge reverses EncodeFlowEdge.
func DecodeFlowEdge(enc Encoded) (edgeID uint64, err error) {
	rest, err := expectPrefix(enc, KindFlowEdge)
	if err != nil {
		return 0, err
	}
	edgeID, _, err = readUint64(rest)
	return edgeID, err
}

// EncodeFlowEdgeByFlow builds a secondary-index key so every edge belonging
// to a flow can be range-scanned without touching edges of other flows.
func EncodeFlowEdgeByFlow(flowID, edgeID uint64) Encoded {
	return NewBuilder(KindFlowEdgeByFlow).PutUint64(flowID).PutUint64(edgeID).Bytes()
}

// DecodeFlowEdgeByFlow reverses EncodeFlowEdgeByFlow.
func DecodeFlowEdgeByFlow(enc Encoded) (flowID, edgeID uint64, err error) {
	rest, err := expectPrefix(enc, KindFlowEdgeByFlow)
	if err != nil {
		return 0, 0, err
	}
	flowID, rest, err = readUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	edgeID, _, err = readUint64(rest)
	return flowID, edgeID, err
}

// FlowEdgeByFlowPrefix returns the range covering every edge of one flow.
func FlowEdgeByFlowPrefix(flowID uint64) (start, end Encoded) {
	raw := NewBuilder(KindFlowEdgeByFlow).PutUint64(flowID).Bytes()
	// Strip the 2-byte header added by NewBuilder, keep only the inverted
	// uint64 payload, usable as a raw prefix for PrefixRange.
	return PrefixRange(KindFlowEdgeByFlow, raw[2:])
}

// EncodeSubscriptionRow builds a key addressing one subscription's durable
// cursor / definition row.
func EncodeSubscriptionRow(subscriptionID uint64) Encoded {
	return NewBuilder(KindSubscriptionRow).PutUint64(subscriptionID).Bytes()
}

// DecodeSubscriptionRow reverses EncodeSubscriptionRow.
func DecodeSubscriptionRow(enc Encoded) (subscriptionID uint64, err error) {
	rest, err := expectPrefix(enc, KindSubscriptionRow)
	if err != nil {
		return 0, err
	}
	subscriptionID, _, err = readUint64(rest)
	return subscriptionID, err
}

// EncodeDictionaryEntryIndex builds a key addressing a dictionary-encoded
// value's index entry within a column's dictionary.
func EncodeDictionaryEntryIndex(columnID uint64, valueHash uint64) Encoded {
	return NewBuilder(KindDictionaryEntryIndex).PutUint64(columnID).PutUint64(valueHash).Bytes()
}

// DecodeDictionaryEntryIndex reverses EncodeDictionaryEntryIndex.
func DecodeDictionaryEntryIndex(enc Encoded) (columnID, valueHash uint64, err error) {
	rest, err := expectPrefix(enc, KindDictionaryEntryIndex)
	if err != nil {
		return 0, 0, err
	}
	columnID, rest, err = readUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	valueHash, _, err = readUint64(rest)
	return columnID, valueHash, err
}

// EncodeTableRow builds a key addressing a single logical row of a table by
// its primary-key bytes. rowKey is caller-supplied, already-encoded primary
// key bytes (see internal/row); it is stored raw (not inverted) so that two
// rows with rowKeyA < rowKeyB keep that relative order within the table,
// which the multi-version store relies on for ordered range scans.
func EncodeTableRow(tableID uint64, rowKey []byte) Encoded {
	return NewBuilder(KindTableRow).PutUint64(tableID).PutRawBytes(rowKey).Bytes()
}

// DecodeTableRow reverses EncodeTableRow.
func DecodeTableRow(enc Encoded) (tableID uint64, rowKey []byte, err error) {
	rest, err := expectPrefix(enc, KindTableRow)
	if err != nil {
		return 0, nil, err
	}
	tableID, rest, err = readUint64(rest)
	if err != nil {
		return 0, nil, err
	}
	rowKey = append([]byte(nil), rest...)
	return tableID, rowKey, nil
}

// TableRowPrefix returns the range covering every row of one table.
func TableRowPrefix(tableID uint64) (start, end Encoded) {
	raw := NewBuilder(KindTableRow).PutUint64(tableID).Bytes()
	return PrefixRange(KindTableRow, raw[2:])
}

// EncodeCdc builds a key addressing one CDC log entry. Ordering requirement
// (spec.md I4, §6): ascending range scan by key yields ascending
// (version, ...) order, so the version component here is stored in plain
// (non-inverted) big-endian form via a dedicated ascending encoder, unlike
// every other key kind in this package.
func EncodeCdc(version uint64, seq uint32) Encoded {
	b := NewBuilder(KindCdc)
	// Ascending version: invert twice (i.e. don't invert) by encoding the
	// bitwise complement up front so PutUint64's inversion cancels out.
	b.PutUint64(^version)
	b.PutUint32(^seq)
	return b.Bytes()
}

// DecodeCdc reverses EncodeCdc.
func DecodeCdc(enc Encoded) (version uint64, seq uint32, err error) {
	rest, err := expectPrefix(enc, KindCdc)
	if err != nil {
		return 0, 0, err
	}
	invVersion, rest, err := readUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	invSeq, _, err := readUint32(rest)
	if err != nil {
		return 0, 0, err
	}
	return ^invVersion, ^invSeq, nil
}

// CdcRangeForVersions returns the range [fromVersion, toVersion] inclusive,
// ascending.
func CdcRangeForVersions(fromVersion, toVersion uint64) (start, end Encoded) {
	start = EncodeCdc(fromVersion, 0)
	end = EncodeCdc(toVersion, ^uint32(0))
	// end must be exclusive-upper for range scans; bump seq past max by
	// encoding toVersion+1 instead when toVersion is not already max.
	if toVersion != ^uint64(0) {
		end = EncodeCdc(toVersion+1, 0)
	}
	return start, end
}

// EncodeSequence builds a key addressing the persisted counter for one
// per-kind ID sequence (namespaces, tables, flows, ...).
func EncodeSequence(kind Kind) Encoded {
	return NewBuilder(KindSequence).PutUint64(uint64(kind)).Bytes()
}

// DecodeSequence reverses EncodeSequence.
func DecodeSequence(enc Encoded) (kind Kind, err error) {
	rest, err := expectPrefix(enc, KindSequence)
	if err != nil {
		return 0, err
	}
	v, _, err := readUint64(rest)
	if err != nil {
		return 0, err
	}
	if v >= uint64(kindMax) {
		return 0, fmt.Errorf("keycode: invalid sequence kind %d", v)
	}
	return Kind(v), nil
}

// EncodeOperatorState builds a key addressing state owned by one flow
// operator node, keyed by operator-specific bytes (spec.md I6: no two
// operators share key space because nodeID is always part of the prefix).
func EncodeOperatorState(nodeID uint64, stateKey []byte) Encoded {
	return NewBuilder(KindOperatorState).PutUint64(nodeID).PutRawBytes(stateKey).Bytes()
}

// DecodeOperatorState reverses EncodeOperatorState.
func DecodeOperatorState(enc Encoded) (nodeID uint64, stateKey []byte, err error) {
	rest, err := expectPrefix(enc, KindOperatorState)
	if err != nil {
		return 0, nil, err
	}
	nodeID, rest, err = readUint64(rest)
	if err != nil {
		return 0, nil, err
	}
	stateKey = append([]byte(nil), rest...)
	return nodeID, stateKey, nil
}

// OperatorStatePrefix returns the range covering every state entry of one
// operator node.
func OperatorStatePrefix(nodeID uint64) (start, end Encoded) {
	raw := NewBuilder(KindOperatorState).PutUint64(nodeID).Bytes()
	return PrefixRange(KindOperatorState, raw[2:])
}

// EncodeEntityByName builds a by-name index key (spec.md §4.F "indexes
// (by-name, by-namespace, by-source)"): ownerID scopes the name space (0
// for the global namespace-name space, a namespace ID for the tables+views
// name space within that namespace), name is the raw entity name.
func EncodeEntityByName(ownerID uint64, name string) Encoded {
	return NewBuilder(KindEntityByName).PutUint64(ownerID).PutRawBytes([]byte(name)).Bytes()
}

// DecodeEntityByName reverses EncodeEntityByName.
func DecodeEntityByName(enc Encoded) (ownerID uint64, name string, err error) {
	rest, err := expectPrefix(enc, KindEntityByName)
	if err != nil {
		return 0, "", err
	}
	ownerID, rest, err = readUint64(rest)
	if err != nil {
		return 0, "", err
	}
	return ownerID, string(rest), nil
}

// EntityByNamePrefix returns the range covering every by-name index entry
// scoped to ownerID, for listing all names registered within it.
func EntityByNamePrefix(ownerID uint64) (start, end Encoded) {
	raw := NewBuilder(KindEntityByName).PutUint64(ownerID).Bytes()
	return PrefixRange(KindEntityByName, raw[2:])
}

// ConsumerCursorKey builds the Single-table key a CDC consumer persists its
// highest-consumed version under (spec.md §4.H "Reads the consumer's saved
// cursor"). Consumer cursors are raw, non-versioned bookkeeping: only the
// one goroutine driving that consumer ever reads or writes its key, so no
// MVCC history or conflict detection is needed, the same reasoning as the
// version provider's own counter.
func ConsumerCursorKey(consumerID string) Encoded {
	return NewBuilder(KindConsumerCursor).PutRawBytes([]byte(consumerID)).Bytes()
}

// VersionProviderKey is the well-known Single-table key the version
// provider persists its monotonic counter under.
func VersionProviderKey() Encoded {
	return NewBuilder(KindSequence).PutUint64(uint64(kindMax) + 1).Bytes()
}

// WatermarkKey is the well-known Single-table key the version provider
// persists its done-until watermark under.
func WatermarkKey() Encoded {
	return NewBuilder(KindSequence).PutUint64(uint64(kindMax) + 2).Bytes()
}
