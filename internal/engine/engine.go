// Package engine implements the Transaction & Recovery Manager: the only
// component that touches the paged file store, the buffer pool, the
// before-image buffer, the lock table, and the write-ahead log. It
// orchestrates begin/insert/update/read/commit/rollback/checkpoint/recover.
package engine

import (
	"log"

	"github.com/google/uuid"

	"github.com/wavetable-db/txstore/internal/buffer"
	"github.com/wavetable-db/txstore/internal/config"
	"github.com/wavetable-db/txstore/internal/store"
	"github.com/wavetable-db/txstore/internal/txerr"
	"github.com/wavetable-db/txstore/internal/txn"
	"github.com/wavetable-db/txstore/internal/wal"
)

// Engine owns every layer below the transactional API. Per spec.md §9, the
// before-image buffer and lock table are not separate components with their
// own lifecycle — they are plain maps the Engine mutates directly.
type Engine struct {
	cfg   *config.Config
	store *store.FileStore
	pool  *buffer.Pool
	wal   *wal.WAL
	bib   *txn.BIB
	locks *txn.LockTable

	recordSize     int
	recordsPerPage int

	inTransaction       bool
	currentTxID         int32
	recordCount         uint64
	recordCountBeforeTx uint64

	// InstanceID identifies this open engine instance across process
	// restarts, for correlating checkpoint/recovery log lines when several
	// runs' logs are interleaved in an operator's aggregator.
	InstanceID uuid.UUID
	logger     *log.Logger

	lastCheckpointLSN uint64 // hint only; recovery always rescans the whole log
}

// Open opens (or creates) the data file at dataPath and its companion WAL
// file, but does not replay the log — call Recover explicitly if the caller
// wants crash recovery to run before issuing new transactions.
func Open(dataPath string, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := store.Open(dataPath, cfg.PageSize, cfg.RecordSize)
	if err != nil {
		return nil, err
	}

	walPath := cfg.WALPathOverride
	if walPath == "" {
		walPath = dataPath + ".log"
	}
	w, err := wal.Open(walPath)
	if err != nil {
		s.Close()
		return nil, err
	}

	recordCount, err := s.ReadHeader()
	if err != nil {
		s.Close()
		w.Close()
		return nil, err
	}

	e := &Engine{
		cfg:            cfg,
		store:          s,
		pool:           buffer.New(s),
		wal:            w,
		bib:            txn.NewBIB(),
		locks:          txn.NewLockTable(),
		recordSize:     cfg.RecordSize,
		recordsPerPage: store.RecordsPerPage(cfg.PageSize, cfg.RecordSize),
		recordCount:    recordCount,
		InstanceID:     uuid.New(),
		logger:         log.Default(),
	}
	return e, nil
}

// SetLogger overrides the default logger used for checkpoint/recovery lines.
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// RecordCount returns the current high-water mark: valid record ids are
// [0, RecordCount()).
func (e *Engine) RecordCount() uint64 { return e.recordCount }

// InTransaction reports whether a transaction is currently open.
func (e *Engine) InTransaction() bool { return e.inTransaction }

// Close fsyncs the WAL, persists the header, and closes both files. If
// cfg.CheckpointOnClose is set, a full Checkpoint runs first.
func (e *Engine) Close() error {
	if e.cfg.CheckpointOnClose {
		if err := e.Checkpoint(); err != nil {
			return err
		}
	}
	if err := e.wal.Flush(); err != nil {
		return err
	}
	if err := e.store.WriteHeader(e.recordCount); err != nil {
		return err
	}
	if err := e.wal.Close(); err != nil {
		return err
	}
	if err := e.store.Close(); err != nil {
		return err
	}
	return nil
}

// WALPath returns the path of the companion log file.
func (e *Engine) WALPath() string { return e.wal.Path() }

// DataPath returns the path of the data file.
func (e *Engine) DataPath() string { return e.store.Path() }

func invariant(op, msg string) error {
	return txerr.New(txerr.InvariantViolation, op, msg)
}
