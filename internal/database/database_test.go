package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), Options{
		Path:        filepath.Join(t.TempDir(), "nested", "history.db"),
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestOpenAndClose(t *testing.T) {
	db := testDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db := testDB(t)

	var on int
	if err := db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&on); err != nil {
		t.Fatalf("pragma query failed: %v", err)
	}
	if on != 1 {
		t.Errorf("expected foreign_keys = 1, got %d", on)
	}
}

func TestTransaction(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)")
	if err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	err = db.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.Exec("INSERT INTO test (id, name) VALUES (1, 'alice')")
		if err != nil {
			return err
		}
		_, err = tx.Exec("INSERT INTO test (id, name) VALUES (2, 'bob')")
		return err
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM test").Scan(&count)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows, got %d", count)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT UNIQUE)")
	if err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	err = db.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.Exec("INSERT INTO test (id, name) VALUES (1, 'alice')")
		if err != nil {
			return err
		}
		_, err = tx.Exec("INSERT INTO test (id, name) VALUES (2, 'alice')")
		return ClassifyError(err)
	})
	if !IsUniqueError(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConstraintError, got %T", err)
	}
	if ce.Table != "test" || ce.Column != "name" {
		t.Errorf("expected test.name, got %s.%s", ce.Table, ce.Column)
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM test").Scan(&count)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rows after rollback, got %d", count)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"constraint failed: FOREIGN KEY constraint failed (787)", ErrForeignKey},
		{"constraint failed: UNIQUE constraint failed: runs.id (1555)", ErrUniqueViolation},
		{"constraint failed: NOT NULL constraint failed: runs.runnable (1299)", ErrNotNull},
		{"constraint failed: CHECK constraint failed: repetitions > 0 (275)", ErrCheckConstraint},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := ClassifyError(errors.New(tt.msg))
			if !errors.Is(err, tt.want) {
				t.Errorf("ClassifyError() = %v, want %v", err, tt.want)
			}
		})
	}

	plain := errors.New("disk I/O error")
	if got := ClassifyError(plain); got != plain {
		t.Errorf("expected unrelated error to pass through, got %v", got)
	}
	if ClassifyError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
