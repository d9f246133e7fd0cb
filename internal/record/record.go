// Package record provides the input/output boundary of the detector: CSV
// file sources and sinks, plus optional SQLite-backed equivalents. Any
// producer that yields (dimensions, weights) pairs in the documented
// pipe-delimited encoding is an acceptable Source — the detector core never
// sees the storage format.
//
// Dim ordering is passed through verbatim: neither the CSV nor the SQLite
// source reorders a record's entries, so candidate blocking (which reads
// the first K dims in arrival order) reflects whatever order the producer
// chose. Callers that want a canonical ordering should sort upstream.
package record

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"streamann/internal/vector"
)

// Source yields records one at a time until the underlying data is
// exhausted, at which point Next returns io.EOF.
type Source interface {
	Next() (vector.Vector, error)
	Close() error
}

// Sink receives one result per processed record. A record with no
// acceptable neighbor reports itself: bestMatchOrdinal == ordinal and
// distance == 0.0.
type Sink interface {
	Write(ordinal, bestMatchOrdinal uint64, distance float64) error
	Close() error
}

// csvSource reads a CSV file with header "dimensions,weights".
type csvSource struct {
	f       *os.File
	r       *csv.Reader
	vocSize int
}

// NewCSVSource opens path and validates its header. vocSize bounds the
// dimension range accepted from the dimensions column.
func NewCSVSource(path string, vocSize int) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("record: read header of %s: %w", path, err)
	}
	if len(header) != 2 || header[0] != "dimensions" || header[1] != "weights" {
		f.Close()
		return nil, fmt.Errorf("record: %s has header %v, want [dimensions weights]", path, header)
	}

	return &csvSource{f: f, r: r, vocSize: vocSize}, nil
}

func (s *csvSource) Next() (vector.Vector, error) {
	row, err := s.r.Read()
	if err != nil {
		if err == io.EOF {
			return vector.Vector{}, io.EOF
		}
		return vector.Vector{}, fmt.Errorf("record: csv read: %w", err)
	}
	v, err := vector.Parse(row[0], row[1], s.vocSize)
	if err != nil {
		return vector.Vector{}, fmt.Errorf("record: malformed row: %w", err)
	}
	return v, nil
}

func (s *csvSource) Close() error {
	return s.f.Close()
}

// csvSink writes a CSV file with header "ordinal,best_match_ordinal,distance".
type csvSink struct {
	f *os.File
	w *csv.Writer
}

// NewCSVSink creates (or truncates) path and writes the result header.
func NewCSVSink(path string) (Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("record: create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"ordinal", "best_match_ordinal", "distance"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("record: write header of %s: %w", path, err)
	}
	return &csvSink{f: f, w: w}, nil
}

func (s *csvSink) Write(ordinal, bestMatchOrdinal uint64, distance float64) error {
	row := []string{
		fmt.Sprintf("%d", ordinal),
		fmt.Sprintf("%d", bestMatchOrdinal),
		fmt.Sprintf("%g", distance),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("record: csv write: %w", err)
	}
	return nil
}

func (s *csvSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("record: csv flush: %w", err)
	}
	return s.f.Close()
}

// sqliteSource reads records from a SQLite table via a forward-only cursor
// over `SELECT dimensions, weights FROM records ORDER BY rowid`.
type sqliteSource struct {
	db      *sql.DB
	rows    *sql.Rows
	vocSize int
}

// NewSQLiteSource opens dbPath and prepares the records cursor.
func NewSQLiteSource(dbPath string, vocSize int) (Source, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT dimensions, weights FROM records ORDER BY rowid`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("record: query records table: %w", err)
	}
	return &sqliteSource{db: db, rows: rows, vocSize: vocSize}, nil
}

func (s *sqliteSource) Next() (vector.Vector, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return vector.Vector{}, fmt.Errorf("record: sqlite scan: %w", err)
		}
		return vector.Vector{}, io.EOF
	}
	var dims, weights string
	if err := s.rows.Scan(&dims, &weights); err != nil {
		return vector.Vector{}, fmt.Errorf("record: sqlite scan: %w", err)
	}
	v, err := vector.Parse(dims, weights, s.vocSize)
	if err != nil {
		return vector.Vector{}, fmt.Errorf("record: malformed row: %w", err)
	}
	return v, nil
}

func (s *sqliteSource) Close() error {
	s.rows.Close()
	return s.db.Close()
}

// sqliteSink appends results into a SQLite results table, creating it
// idempotently on first use.
type sqliteSink struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewSQLiteSink opens dbPath, ensures the results table exists, and
// prepares the insert statement.
func NewSQLiteSink(dbPath string) (Sink, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS results (
		ordinal            INTEGER PRIMARY KEY,
		best_match_ordinal INTEGER NOT NULL,
		distance           REAL NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: create results table: %w", err)
	}
	stmt, err := db.Prepare(`INSERT INTO results (ordinal, best_match_ordinal, distance) VALUES (?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("record: prepare insert: %w", err)
	}
	return &sqliteSink{db: db, stmt: stmt}, nil
}

func (s *sqliteSink) Write(ordinal, bestMatchOrdinal uint64, distance float64) error {
	if _, err := s.stmt.Exec(int64(ordinal), int64(bestMatchOrdinal), distance); err != nil {
		return fmt.Errorf("record: insert result: %w", err)
	}
	return nil
}

func (s *sqliteSink) Close() error {
	s.stmt.Close()
	return s.db.Close()
}

// openSQLite opens a SQLite connection with the same pragma sequence used
// across the detector's storage layer: WAL journaling and a generous busy
// timeout so the source and sink can share a database file without lock
// contention.
func openSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("record: ping %s: %w", dbPath, err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=30000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("record: %s: %w", p, err)
		}
	}
	return db, nil
}
