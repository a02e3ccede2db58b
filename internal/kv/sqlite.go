package kv

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, registers "sqlite"
)

// SQLiteBackend implements Backend over a SQLite database file, one SQL
// table per logical TableID (spec.md §4.B "a SQLite-backed adapter (one SQL
// table per TableId)"). All writes are serialized through a single writer
// goroutine that owns the one write transaction at a time, so that a batch
// spanning several logical tables commits atomically as one SQLite
// transaction (spec.md §4.B, §5 "single-threaded actor").
type SQLiteBackend struct {
	db *sql.DB

	writer *writerActor

	mu      sync.Mutex
	ensured map[string]bool
}

var validTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func sqlTableName(t TableID) string {
	name := "kv_" + t.String()
	if !validTableName.MatchString(name) {
		// TableID.String() is built only from our own enum + uint64, so
		// this should never trigger; guard anyway since the name is
		// interpolated into DDL.
		panic(fmt.Sprintf("kv: unsafe sqlite table name %q", name))
	}
	return name
}

// OpenSQLiteBackend opens (creating if necessary) a SQLite-backed Backend at
// path. Use ":memory:" for an ephemeral in-process database.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kv: open sqlite: %w", err)
	}
	// SQLite handles one writer at a time; our own writer actor already
	// serializes every Set, so a single connection is both sufficient and
	// avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("kv: enable WAL journal: %w", err)
	}
	b := &SQLiteBackend{db: db, ensured: make(map[string]bool)}
	b.writer = newWriterActor(b.commitBatch)
	return b, nil
}

func (b *SQLiteBackend) ensureTableLocked(t TableID) error {
	name := sqlTableName(t)
	if b.ensured[name] {
		return nil
	}
	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (k BLOB PRIMARY KEY, v BLOB NOT NULL)`, name)
	if _, err := b.db.Exec(stmt); err != nil {
		return fmt.Errorf("kv: create table %s: %w", name, err)
	}
	b.ensured[name] = true
	return nil
}

func (b *SQLiteBackend) EnsureTable(t TableID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ensureTableLocked(t)
}

func (b *SQLiteBackend) Get(t TableID, key []byte) ([]byte, bool, error) {
	b.mu.Lock()
	if err := b.ensureTableLocked(t); err != nil {
		b.mu.Unlock()
		return nil, false, err
	}
	b.mu.Unlock()

	var v []byte
	row := b.db.QueryRow(fmt.Sprintf(`SELECT v FROM %s WHERE k = ?`, sqlTableName(t)), key)
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv: get: %w", err)
	}
	return v, true, nil
}

// commitBatch runs inside the writer actor's goroutine: it owns the single
// SQLite write transaction for the whole batch.
func (b *SQLiteBackend) commitBatch(batches map[TableID][]Write) error {
	b.mu.Lock()
	for table := range batches {
		if err := b.ensureTableLocked(table); err != nil {
			b.mu.Unlock()
			return err
		}
	}
	b.mu.Unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("kv: begin: %w", err)
	}
	for table, writes := range batches {
		name := sqlTableName(table)
		upsert := fmt.Sprintf(`INSERT INTO %s (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, name)
		del := fmt.Sprintf(`DELETE FROM %s WHERE k = ?`, name)
		for _, w := range writes {
			if w.Value == nil {
				if _, err := tx.Exec(del, w.Key); err != nil {
					tx.Rollback()
					return fmt.Errorf("kv: delete: %w", err)
				}
				continue
			}
			if _, err := tx.Exec(upsert, w.Key, w.Value); err != nil {
				tx.Rollback()
				return fmt.Errorf("kv: upsert: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("kv: commit: %w", err)
	}
	return nil
}

// Set hands the batch to the writer actor and blocks for its result,
// matching spec.md §5's "async is a thin wrapper around a blocking call".
func (b *SQLiteBackend) Set(batches map[TableID][]Write) error {
	return b.writer.submit(batches)
}

func (b *SQLiteBackend) rangeQuery(t TableID, start, end []byte, n int, desc bool) (RangeResult, error) {
	b.mu.Lock()
	if err := b.ensureTableLocked(t); err != nil {
		b.mu.Unlock()
		return RangeResult{}, err
	}
	b.mu.Unlock()

	name := sqlTableName(t)
	order := "ASC"
	if desc {
		order = "DESC"
	}
	limit := n
	if limit <= 0 {
		limit = -1
	} else {
		limit++ // fetch one extra to detect HasMore
	}
	q := fmt.Sprintf(`SELECT k, v FROM %s WHERE k >= ? AND k < ? ORDER BY k %s LIMIT ?`, name, order)
	rows, err := b.db.Query(q, start, end, limit)
	if err != nil {
		return RangeResult{}, fmt.Errorf("kv: range: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return RangeResult{}, fmt.Errorf("kv: range scan: %w", err)
		}
		out = append(out, Entry{Key: k, Value: v})
	}
	hasMore := false
	if n > 0 && len(out) > n {
		out = out[:n]
		hasMore = true
	}
	return RangeResult{Entries: out, HasMore: hasMore}, nil
}

func (b *SQLiteBackend) RangeBatch(t TableID, start, end []byte, n int) (RangeResult, error) {
	return b.rangeQuery(t, start, end, n, false)
}

func (b *SQLiteBackend) RangeBatchReverse(t TableID, start, end []byte, n int) (RangeResult, error) {
	return b.rangeQuery(t, start, end, n, true)
}

func (b *SQLiteBackend) ClearTable(t TableID) error {
	b.mu.Lock()
	if err := b.ensureTableLocked(t); err != nil {
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()
	_, err := b.db.Exec(fmt.Sprintf(`DELETE FROM %s`, sqlTableName(t)))
	return err
}

func (b *SQLiteBackend) Close() error {
	b.writer.close()
	return b.db.Close()
}
