package search

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// IndexFileName is the per-directory index database, living next to the
// sprites it describes.
const IndexFileName = ".sprite-index.db"

const schemaVersion = 1

var ErrCorruptStore = errors.New("corrupt sprite index")

// Meta is the small key/value header of a stored index; freshness checks
// read only this, never the descriptor rows.
type Meta struct {
	SchemaVersion int
	Fingerprint   string
	BuiltAt       time.Time
	Count         int
}

// Record is one indexed sprite.
type Record struct {
	Name string
	Desc Descriptor
}

func openStore(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=%d", path, int((5 * time.Second).Milliseconds())))
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	return db, nil
}

// readMeta loads the header of an existing index. A missing file returns
// (nil, nil); a file that is not a readable index is reported as corrupt
// so callers treat it as stale.
func readMeta(path string) (*Meta, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := openStore(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT key, value FROM index_meta`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	meta := &Meta{Fingerprint: kv["fingerprint"]}
	meta.SchemaVersion, _ = strconv.Atoi(kv["schema_version"])
	meta.Count, _ = strconv.Atoi(kv["count"])
	if at, err := time.Parse(time.RFC3339, kv["built_at"]); err == nil {
		meta.BuiltAt = at
	}
	return meta, nil
}

func loadRecords(path string) ([]Record, error) {
	db, err := openStore(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT name, phash, ahash FROM sprites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var name string
		var phash, ahash int64
		if err := rows.Scan(&name, &phash, &ahash); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		records = append(records, Record{
			Name: name,
			Desc: Descriptor{PHash: uint64(phash), AHash: uint64(ahash)},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	return records, nil
}

// writeStore publishes a freshly built index atomically: write to a temp
// file in the same directory, then rename over any previous index.
func writeStore(path string, meta Meta, records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sprite-index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating index temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	db, err := openStore(tmpPath)
	if err != nil {
		return err
	}

	if err := fillStore(db, meta, records); err != nil {
		db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing index: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("publishing index: %w", err)
	}
	return nil
}

func fillStore(db *sql.DB, meta Meta, records []Record) error {
	const schema = `
CREATE TABLE index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE sprites (
	name  TEXT PRIMARY KEY,
	phash INTEGER NOT NULL,
	ahash INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating index schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	defer tx.Rollback()

	metaStmt, err := tx.Prepare(`INSERT INTO index_meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	defer metaStmt.Close()
	for k, v := range map[string]string{
		"schema_version": strconv.Itoa(meta.SchemaVersion),
		"fingerprint":    meta.Fingerprint,
		"built_at":       meta.BuiltAt.UTC().Format(time.RFC3339),
		"count":          strconv.Itoa(meta.Count),
	} {
		if _, err := metaStmt.Exec(k, v); err != nil {
			return fmt.Errorf("writing index: %w", err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO sprites (name, phash, ahash) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.Exec(r.Name, int64(r.Desc.PHash), int64(r.Desc.AHash)); err != nil {
			return fmt.Errorf("writing index record %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
