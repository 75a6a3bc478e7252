// Package txstore is a single-process, single-threaded transactional record
// store: a paged file, a buffer pool, a before-image buffer and no-wait lock
// table, a write-ahead log, and an ARIES-style recovery pass, wired together
// by internal/engine.Engine. This file is the package's public surface —
// everything below delegates straight to that engine.
package txstore

import (
	"github.com/wavetable-db/txstore/internal/config"
	"github.com/wavetable-db/txstore/internal/engine"
	"github.com/wavetable-db/txstore/internal/store"
)

// RID identifies a record by its insertion order: record ids are dense,
// starting at 0 (spec.md §3). An id given out by an insert that is then
// rolled back, or undone by recovery as the tail record, is given out again
// by the next Insert.
type RID = store.RID

// Config holds the page/record geometry and durability knobs that must stay
// fixed across a database's lifetime.
type Config = config.Config

// DefaultConfig returns the 4096-byte page / 100-byte record configuration
// used throughout spec.md's worked examples.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// Engine is a single open database: a data file plus its companion
// write-ahead log. Not safe for concurrent use from more than one goroutine
// at a time — see the concurrency model in spec.md §5.
type Engine struct {
	e *engine.Engine
}

// Open opens (or creates) the database at path, along with its companion
// "<path>.log" write-ahead log (or cfg.WALPathOverride, if set). It does not
// replay the log; call Recover explicitly after Open if the previous run may
// have crashed.
func Open(path string, cfg *Config) (*Engine, error) {
	e, err := engine.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{e: e}, nil
}

// Close fsyncs the write-ahead log, persists the header, and closes both
// files, checkpointing first if cfg.CheckpointOnClose is set.
func (db *Engine) Close() error { return db.e.Close() }

// Begin starts a new transaction. A transaction already open is implicitly
// committed first (spec.md §9).
func (db *Engine) Begin() error { return db.e.Begin() }

// Commit durably commits the active transaction.
func (db *Engine) Commit() error { return db.e.Commit() }

// Rollback discards the active transaction's writes.
func (db *Engine) Rollback() error { return db.e.Rollback() }

// Insert appends a new record and returns its id. Outside a transaction the
// write is immediately durable; inside one, only once the transaction
// commits.
func (db *Engine) Insert(data []byte) (RID, error) { return db.e.Insert(data) }

// Update overwrites an existing record. Requires an active transaction.
func (db *Engine) Update(rid RID, newData []byte) error { return db.e.Update(rid, newData) }

// Read returns the current bytes of rid, applying the consistent-read policy
// for records locked by another transaction (spec.md §4.4).
func (db *Engine) Read(rid RID) ([]byte, error) { return db.e.Read(rid) }

// RecordCount returns the current high-water mark: valid ids are
// [0, RecordCount()).
func (db *Engine) RecordCount() uint64 { return db.e.RecordCount() }

// InTransaction reports whether a transaction is currently open.
func (db *Engine) InTransaction() bool { return db.e.InTransaction() }

// Checkpoint forces all dirty pages to disk, persists the header, and
// appends a durable CHECKPOINT record so a later Recover can skip everything
// before it.
func (db *Engine) Checkpoint() error { return db.e.Checkpoint() }

// Recover replays the write-ahead log since the last checkpoint: committed
// transactions are redone, everything else is undone. Safe to call on a
// database that did not crash — an empty or fully-checkpointed log is a
// no-op.
func (db *Engine) Recover() error { return db.e.Recover() }
