package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}

	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	kv, err := NewSQLiteKV(db)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := kv.Set(ctx, "tasker_tasks", []byte(`[]`)); err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}

	got, ok, err := kv.Get(ctx, "tasker_tasks")
	if err != nil || !ok {
		t.Fatalf("get after roundtrip failed: ok=%v err=%v", ok, err)
	}
	if string(got) != "[]" {
		t.Fatalf("unexpected value after roundtrip: %q", got)
	}
}

func TestMigrateUpRecordsVersionAndSkipsApplied(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "versions.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	got, err := AppliedMigrations(db)
	if err != nil {
		t.Fatalf("applied migrations: %v", err)
	}
	if len(got) != 1 || got[0] != "0001" {
		t.Fatalf("expected [0001], got %v", got)
	}

	// A second open must not re-run 0001 over existing data.
	if _, err := db.Exec(`DROP TABLE kv`); err != nil {
		t.Fatalf("drop kv: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'kv'`).Scan(&n); err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if n != 0 {
		t.Fatal("expected recorded migration to be skipped")
	}

	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	got, err = AppliedMigrations(db)
	if err != nil {
		t.Fatalf("applied migrations: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no versions after down, got %v", got)
	}
}

func TestMigrationVersion(t *testing.T) {
	cases := map[string]string{
		"migrations/0001_kv.up.sql":  "0001",
		"migrations/0002_x.down.sql": "0002",
		"migrations/0003.up.sql":     "0003",
	}
	for in, want := range cases {
		if got := migrationVersion(in); got != want {
			t.Fatalf("%s: got %q, want %q", in, got, want)
		}
	}
}

func TestMigrateUpIsRepeatable(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "repeat.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	for i := 0; i < 2; i++ {
		if err := MigrateUp(db); err != nil {
			t.Fatalf("migrate up #%d: %v", i+1, err)
		}
	}
}
