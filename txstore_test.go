package txstore_test

import (
	"path/filepath"
	"testing"

	txstore "github.com/wavetable-db/txstore"
)

func TestOpenInsertReadCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := txstore.Open(path, txstore.DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	rid, err := db.Insert([]byte("Alice"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := db.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := db.Update(rid, []byte("Alice Cooper")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := db.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := db.Read(rid)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "Alice Cooper" {
		t.Fatalf("Read = %q, want %q", got, "Alice Cooper")
	}
	if db.RecordCount() != 1 {
		t.Fatalf("RecordCount = %d, want 1", db.RecordCount())
	}
}

func TestReadUnknownRecordIsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := txstore.Open(path, txstore.DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	_, err = db.Read(0)
	if err == nil || !txstore.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestCrashAndRecoverAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := txstore.Open(path, txstore.DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rid, err := db.Insert([]byte("Alice"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := db.Update(rid, []byte("Alice Cooper")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := db.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	// No db.Close() call: simulate a crash by opening a fresh Engine against
	// the same files without calling Close on the first one.

	recovered, err := txstore.Open(path, txstore.DefaultConfig())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer recovered.Close()
	if err := recovered.Recover(); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	got, err := recovered.Read(rid)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "Alice Cooper" {
		t.Fatalf("Read after recover = %q, want %q", got, "Alice Cooper")
	}

	db.Close()
}

func TestLoadConfig_RejectsMissingFile(t *testing.T) {
	_, err := txstore.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error loading a missing config file")
	}
}
