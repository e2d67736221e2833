// Package dbsink implements spec.md §4.6's database sink: it maps Object
// records to rows, one table per collection. It generalizes
// internal/state/state.go's Manager — which kept every mock-server
// resource type in a single shared "resources" table distinguished by a
// `type` column — into one table per collection, since here collections
// are known statically at compile time rather than discovered at request
// time.
package dbsink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/loomgen/loom/internal/sink"
	"github.com/loomgen/loom/internal/value"
)

// identifierPattern guards against SQL injection through a collection
// name: collection names come from schema document names, which in
// principle could be any string, so every identifier built from one is
// checked before being spliced into a CREATE TABLE/INSERT statement.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Sink writes each collection's records as JSON-blob rows into its own
// sqlite3 table, batched one transaction per collection (mirroring
// state.Manager.Import's prepare-then-loop-insert-then-commit shape).
type Sink struct {
	db *sql.DB

	mu   sync.Mutex
	open map[string]*collectionTx
}

type collectionTx struct {
	name  string
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int64
}

func (c *collectionTx) Collection() string { return c.name }

// Open creates (or reuses) the sqlite3 database file at path.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("dbsink: opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbsink: enabling foreign keys: %w", err)
	}
	return &Sink{db: db, open: make(map[string]*collectionTx)}, nil
}

func (s *Sink) Begin(collection string, sizeHint int) (sink.Handle, error) {
	if !identifierPattern.MatchString(collection) {
		return nil, fmt.Errorf("dbsink: collection name %q is not a valid table identifier", collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.open[collection]; ok {
		return nil, fmt.Errorf("dbsink: collection %q already has an open write session", collection)
	}

	createStmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			data JSON NOT NULL
		)`, collection)
	if _, err := s.db.Exec(createStmt); err != nil {
		return nil, fmt.Errorf("dbsink: creating table for %q: %w", collection, err)
	}
	if _, err := s.db.Exec(fmt.Sprintf(`DELETE FROM "%s"`, collection)); err != nil {
		return nil, fmt.Errorf("dbsink: clearing table for %q: %w", collection, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("dbsink: starting transaction for %q: %w", collection, err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO "%s" (data) VALUES (?)`, collection))
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("dbsink: preparing insert for %q: %w", collection, err)
	}

	h := &collectionTx{name: collection, tx: tx, stmt: stmt}
	s.open[collection] = h
	return h, nil
}

func (s *Sink) Write(h sink.Handle, record value.Value) error {
	ct, ok := h.(*collectionTx)
	if !ok {
		return fmt.Errorf("dbsink: foreign handle")
	}
	b, err := record.MarshalJSON()
	if err != nil {
		return fmt.Errorf("dbsink: encoding record for %q: %w", ct.name, err)
	}
	var asJSON json.RawMessage = b
	if _, err := ct.stmt.Exec(string(asJSON)); err != nil {
		return fmt.Errorf("dbsink: inserting into %q: %w", ct.name, err)
	}
	ct.count++
	return nil
}

func (s *Sink) End(h sink.Handle) error {
	ct, ok := h.(*collectionTx)
	if !ok {
		return fmt.Errorf("dbsink: foreign handle")
	}
	if err := ct.stmt.Close(); err != nil {
		ct.tx.Rollback()
		return fmt.Errorf("dbsink: closing statement for %q: %w", ct.name, err)
	}
	if err := ct.tx.Commit(); err != nil {
		return fmt.Errorf("dbsink: committing %q (%d rows): %w", ct.name, ct.count, err)
	}
	s.mu.Lock()
	delete(s.open, ct.name)
	s.mu.Unlock()
	return nil
}

// Commit is a no-op: each collection's rows are already durable once End
// has committed its transaction.
func (s *Sink) Commit() error { return nil }

// Close releases the underlying database handle. Any collection whose End
// was never called (e.g. the run was canceled mid-write) has its
// transaction rolled back.
func (s *Sink) Close() error {
	s.mu.Lock()
	for _, ct := range s.open {
		ct.tx.Rollback()
	}
	s.open = nil
	s.mu.Unlock()
	return s.db.Close()
}
