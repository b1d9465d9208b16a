package index

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteBatchSize keeps insert transactions bounded; one transaction
// per posting would make the pass I/O bound on fsync.
const sqliteBatchSize = 10000

// SQLiteSink writes candidate keys into one table per key type,
// candidate_{type}(value, record_key), for review tooling that prefers
// SQL over sorted flat files. Inserts are batched into transactions.
type SQLiteSink struct {
	db      *sql.DB
	tx      *sql.Tx
	stmts   map[KeyType]*sql.Stmt
	pending int
}

// NewSQLiteSink opens (or creates) the database and its schema.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; this sink is the only connection user.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	for _, kt := range KeyTypes {
		schema := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS candidate_%s (
				value TEXT NOT NULL,
				record_key TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_candidate_%s_value ON candidate_%s(value);`,
			kt, kt, kt)
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("create candidate_%s schema: %w", kt, err)
		}
	}

	return &SQLiteSink{db: db}, nil
}

// Write inserts one posting, starting a new batch transaction if
// needed.
func (s *SQLiteSink) Write(key CandidateKey) error {
	if s.tx == nil {
		if err := s.begin(); err != nil {
			return err
		}
	}

	stmt, ok := s.stmts[key.Type]
	if !ok {
		return fmt.Errorf("unknown key type %q", key.Type)
	}
	if _, err := stmt.Exec(key.Value, key.Record); err != nil {
		return fmt.Errorf("insert candidate_%s: %w", key.Type, err)
	}

	s.pending++
	if s.pending >= sqliteBatchSize {
		return s.flush()
	}
	return nil
}

// Close flushes the open batch and closes the database.
func (s *SQLiteSink) Close() error {
	flushErr := s.flush()
	closeErr := s.db.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (s *SQLiteSink) begin() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}

	stmts := make(map[KeyType]*sql.Stmt, len(KeyTypes))
	for _, kt := range KeyTypes {
		stmt, err := tx.Prepare(fmt.Sprintf(
			"INSERT INTO candidate_%s (value, record_key) VALUES (?, ?)", kt))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare candidate_%s insert: %w", kt, err)
		}
		stmts[kt] = stmt
	}

	s.tx = tx
	s.stmts = stmts
	return nil
}

func (s *SQLiteSink) flush() error {
	if s.tx == nil {
		return nil
	}
	for _, stmt := range s.stmts {
		stmt.Close()
	}
	err := s.tx.Commit()
	s.tx = nil
	s.stmts = nil
	s.pending = 0
	if err != nil {
		return fmt.Errorf("commit insert batch: %w", err)
	}
	return nil
}
