package record

import (
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestCSVSource_ReadsRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	content := "dimensions,weights\n1|2|3,0.6|0.6|0.52915\n,\n4|5,0.7071|0.7071\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src, err := NewCSVSource(path, 16)
	if err != nil {
		t.Fatalf("NewCSVSource: %v", err)
	}
	defer src.Close()

	v0, err := src.Next()
	if err != nil {
		t.Fatalf("Next 0: %v", err)
	}
	if v0.Len() != 3 {
		t.Fatalf("row 0: got %d entries, want 3", v0.Len())
	}

	v1, err := src.Next()
	if err != nil {
		t.Fatalf("Next 1: %v", err)
	}
	if !v1.Empty() {
		t.Fatalf("row 1: expected empty vector, got %+v", v1)
	}

	v2, err := src.Next()
	if err != nil {
		t.Fatalf("Next 2: %v", err)
	}
	if v2.Len() != 2 {
		t.Fatalf("row 2: got %d entries, want 2", v2.Len())
	}

	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last row, got %v", err)
	}
}

func TestCSVSource_RejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(path, []byte("dims,ws\n1,0.5\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewCSVSource(path, 16); err == nil {
		t.Fatal("expected error for malformed header")
	}
}

func TestCSVSink_WritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	sink, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}
	if err := sink.Write(0, 0, 0.0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Write(4, 1, 0.28); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "ordinal,best_match_ordinal,distance\n0,0,0\n4,1,0.28\n"
	if string(data) != want {
		t.Fatalf("output = %q, want %q", string(data), want)
	}
}

func TestSQLiteSource_ReadsInArrivalOrder(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "records.sqlite3")

	setup, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open setup db: %v", err)
	}
	if _, err := setup.Exec(`CREATE TABLE records (dimensions TEXT, weights TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := setup.Exec(`INSERT INTO records (dimensions, weights) VALUES (?, ?), (?, ?)`,
		"1|2", "0.6|0.6", "4|5", "0.7071|0.7071"); err != nil {
		t.Fatalf("insert rows: %v", err)
	}
	if err := setup.Close(); err != nil {
		t.Fatalf("close setup db: %v", err)
	}

	src, err := NewSQLiteSource(dbPath, 16)
	if err != nil {
		t.Fatalf("NewSQLiteSource: %v", err)
	}
	defer src.Close()

	v0, err := src.Next()
	if err != nil {
		t.Fatalf("Next 0: %v", err)
	}
	if v0.Len() != 2 {
		t.Fatalf("row 0: got %d entries, want 2", v0.Len())
	}

	if _, err := src.Next(); err != nil {
		t.Fatalf("Next 1: %v", err)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestSQLiteSink_CreatesTableAndInserts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "results.sqlite3")

	sink, err := NewSQLiteSink(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteSink: %v", err)
	}
	if err := sink.Write(4, 1, 0.28); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	verify, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer verify.Close()

	var bestOrd int64
	var distance float64
	if err := verify.QueryRow(`SELECT best_match_ordinal, distance FROM results WHERE ordinal = 4`).Scan(&bestOrd, &distance); err != nil {
		t.Fatalf("query result row: %v", err)
	}
	if bestOrd != 1 || distance != 0.28 {
		t.Fatalf("got (%d, %v), want (1, 0.28)", bestOrd, distance)
	}
}
