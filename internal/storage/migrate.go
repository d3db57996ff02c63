package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// MigrateUp applies every embedded migration not yet recorded in
// schema_migrations, oldest first. Each one runs in its own transaction
// together with its version row.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := AppliedMigrations(db)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	files, err := migrationsFor(".up.sql")
	if err != nil {
		return err
	}
	for _, name := range files {
		version := migrationVersion(name)
		if done[version] {
			continue
		}
		err := runMigration(db, name, func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
				version, time.Now().UTC().Format(sqliteTimeLayout))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown reverts every recorded migration, newest first.
func MigrateDown(db *sql.DB) error {
	if _, err := db.Exec(createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := AppliedMigrations(db)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	files, err := migrationsFor(".down.sql")
	if err != nil {
		return err
	}
	for i := len(files) - 1; i >= 0; i-- {
		version := migrationVersion(files[i])
		if !done[version] {
			continue
		}
		err := runMigration(db, files[i], func(tx *sql.Tx) error {
			_, err := tx.Exec(`DELETE FROM schema_migrations WHERE version = ?`, version)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AppliedMigrations lists recorded versions in ascending order.
func AppliedMigrations(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func migrationsFor(suffix string) ([]string, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)
	return entries, nil
}

// migrationVersion is the numeric prefix of a file name: 0001_kv.up.sql is 0001.
func migrationVersion(name string) string {
	base := path.Base(name)
	if v, _, ok := strings.Cut(base, "_"); ok {
		return v
	}
	return strings.SplitN(base, ".", 2)[0]
}

func runMigration(db *sql.DB, name string, record func(*sql.Tx) error) error {
	sqlBytes, err := migrationFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	if _, err := tx.Exec(string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit()
}
