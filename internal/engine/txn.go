package engine

import (
	"fmt"

	"github.com/wavetable-db/txstore/internal/store"
	"github.com/wavetable-db/txstore/internal/txerr"
	"github.com/wavetable-db/txstore/internal/txn"
	"github.com/wavetable-db/txstore/internal/wal"
)

// Begin starts a new transaction. If one is already open, it is implicitly
// committed first — surprising, but spec.md §9 mandates preserving this
// behavior rather than hardening it into an error.
func (e *Engine) Begin() error {
	if e.inTransaction {
		if err := e.Commit(); err != nil {
			return err
		}
	}
	e.currentTxID++
	e.recordCountBeforeTx = e.recordCount
	e.inTransaction = true
	if _, err := e.wal.Log(&wal.Record{Kind: wal.Begin, TxID: e.currentTxID, RecordID: wal.NoRecord}); err != nil {
		return err
	}
	return nil
}

// Insert appends a new record and returns its id. Outside a transaction the
// write is forced to disk immediately (there is no WAL/commit to make it
// durable otherwise); inside a transaction it is logged and locked like any
// other write, and becomes durable only once the transaction commits.
func (e *Engine) Insert(data []byte) (store.RID, error) {
	rid := store.RID(e.recordCount)
	pageID, slot := store.Locate(rid, e.recordsPerPage)

	pg, err := e.pool.Fix(pageID)
	if err != nil {
		return 0, err
	}

	if e.inTransaction {
		e.bib.Snapshot(pageID, pg.Data)
	}

	store.PutSlot(pg.Data, slot, e.recordSize, data)
	after := store.GetSlot(pg.Data, slot, e.recordSize)
	if err := e.pool.MarkDirty(pageID); err != nil {
		e.pool.Unfix(pageID)
		return 0, err
	}

	if e.inTransaction {
		if err := e.pool.MarkTransactional(pageID); err != nil {
			e.pool.Unfix(pageID)
			return 0, err
		}
		if err := e.locks.Acquire(rid, txn.TxID(e.currentTxID)); err != nil {
			e.pool.Unfix(pageID)
			return 0, err
		}
	}

	if err := e.pool.Unfix(pageID); err != nil {
		return 0, err
	}

	e.recordCount++
	// Persisted immediately, even mid-transaction: recovery's UNDO pass
	// decrements recordCount for an uncommitted INSERT, so a transiently
	// high on-disk count is safe (spec.md §4.4).
	if err := e.store.WriteHeader(e.recordCount); err != nil {
		return 0, err
	}

	if !e.inTransaction {
		if err := e.pool.Force(pageID); err != nil {
			return 0, err
		}
	} else {
		if _, err := e.wal.Log(&wal.Record{Kind: wal.Insert, TxID: e.currentTxID, RecordID: int32(rid), After: after}); err != nil {
			return 0, err
		}
	}

	return rid, nil
}

// Update requires an active transaction: locking, before-image capture, and
// WAL logging all attribute the write to the current transaction id, which
// only exists while one is open.
func (e *Engine) Update(rid store.RID, newData []byte) error {
	if !e.inTransaction {
		return invariant("Update", "no active transaction")
	}
	if uint64(rid) >= e.recordCount {
		return txerr.New(txerr.NotFound, "Update", fmt.Sprintf("record %d does not exist", rid))
	}

	tx := txn.TxID(e.currentTxID)
	if e.locks.IsLocked(rid) && !e.locks.OwnedByCurrent(rid, tx) {
		return txerr.New(txerr.LockConflict, "Update", fmt.Sprintf("record %d is locked by another transaction", rid))
	}

	pageID, slot := store.Locate(rid, e.recordsPerPage)

	if !e.locks.OwnedByCurrent(rid, tx) {
		pg, err := e.pool.Fix(pageID)
		if err != nil {
			return err
		}
		e.bib.Snapshot(pageID, pg.Data)
		if err := e.pool.Unfix(pageID); err != nil {
			return err
		}
		if err := e.locks.Acquire(rid, tx); err != nil {
			return err
		}
	}

	pg, err := e.pool.Fix(pageID)
	if err != nil {
		return err
	}
	before := store.GetSlot(pg.Data, slot, e.recordSize)
	store.PutSlot(pg.Data, slot, e.recordSize, newData)
	after := store.GetSlot(pg.Data, slot, e.recordSize)
	if err := e.pool.MarkDirty(pageID); err != nil {
		e.pool.Unfix(pageID)
		return err
	}
	if err := e.pool.MarkTransactional(pageID); err != nil {
		e.pool.Unfix(pageID)
		return err
	}
	if err := e.pool.Unfix(pageID); err != nil {
		return err
	}

	if _, err := e.wal.Log(&wal.Record{Kind: wal.Update, TxID: e.currentTxID, RecordID: int32(rid), Before: before, After: after}); err != nil {
		return err
	}
	return nil
}

// UpdateAsTx simulates a second transaction askingTx attempting to write rid
// while the real active transaction (e.currentTxID) holds the lock. The
// engine only ever drives one transaction's WAL/BIB state at a time, so this
// does not execute askingTx's write under its own identity — it only proves
// out the no-wait lock-conflict path of spec.md §4.3 for a tx id other than
// the current one; once no conflict is found it falls through to the normal
// Update, attributed to the real current transaction.
func (e *Engine) UpdateAsTx(rid store.RID, newData []byte, askingTx int32) error {
	if uint64(rid) >= e.recordCount {
		return txerr.New(txerr.NotFound, "Update", fmt.Sprintf("record %d does not exist", rid))
	}
	if owner, locked := e.locks.OwnerOf(rid); locked && owner != txn.TxID(askingTx) {
		return txerr.New(txerr.LockConflict, "Update", fmt.Sprintf("record %d is locked by another transaction", rid))
	}
	return e.Update(rid, newData)
}

// Read returns the current value of rid, as seen by the active transaction
// (if any). See ReadAsTx for the consistent-read policy exercised against a
// different transaction's locks.
func (e *Engine) Read(rid store.RID) ([]byte, error) {
	return e.readAs(rid, e.currentTxID)
}

// ReadAsTx reads rid as if asked by transaction askingTx, applying the
// consistent-read policy of spec.md §4.4: a record locked by a different
// transaction is read from that owner's before-image snapshot rather than
// the live (possibly uncommitted) buffer contents.
func (e *Engine) ReadAsTx(rid store.RID, askingTx int32) ([]byte, error) {
	return e.readAs(rid, askingTx)
}

func (e *Engine) readAs(rid store.RID, askingTx int32) ([]byte, error) {
	if uint64(rid) >= e.recordCount {
		return nil, txerr.New(txerr.NotFound, "Read", fmt.Sprintf("record %d does not exist", rid))
	}
	pageID, slot := store.Locate(rid, e.recordsPerPage)

	if owner, locked := e.locks.OwnerOf(rid); locked && owner != txn.TxID(askingTx) {
		if snapshot, ok := e.bib.Get(pageID); ok {
			return store.TrimSlot(store.GetSlot(snapshot, slot, e.recordSize)), nil
		}
	}

	pg, err := e.pool.Fix(pageID)
	if err != nil {
		return nil, err
	}
	data := store.GetSlot(pg.Data, slot, e.recordSize)
	if err := e.pool.Unfix(pageID); err != nil {
		return nil, err
	}
	return store.TrimSlot(data), nil
}

// Commit durably commits the active transaction: a COMMIT record is
// appended and the WAL is fsynced — that fsync is the commit point. Data
// pages are deliberately not forced here; durability comes from the WAL
// alone until the next checkpoint.
func (e *Engine) Commit() error {
	if !e.inTransaction {
		return invariant("Commit", "no active transaction")
	}

	if _, err := e.wal.Log(&wal.Record{Kind: wal.Commit, TxID: e.currentTxID, RecordID: wal.NoRecord}); err != nil {
		return err
	}
	if err := e.wal.Flush(); err != nil {
		return err
	}

	for _, pid := range e.pool.TransactionalPageIDs() {
		e.pool.ClearTransactional(pid)
	}

	e.locks.ReleaseAll(txn.TxID(e.currentTxID))
	e.bib.Clear()
	e.inTransaction = false
	return nil
}

// Rollback discards the active transaction: every page snapshotted in the
// before-image buffer is restored in memory, the record count reverts to
// its pre-begin value, and a ROLLBACK record is flushed for recovery's
// benefit (its absence alone would already be enough to treat the
// transaction as a loser, but writing it keeps the log self-describing).
func (e *Engine) Rollback() error {
	if !e.inTransaction {
		return invariant("Rollback", "no active transaction")
	}

	for _, pid := range e.bib.PageIDs() {
		snapshot, _ := e.bib.Get(pid)
		if err := e.pool.Restore(pid, snapshot); err != nil {
			return err
		}
	}

	if _, err := e.wal.Log(&wal.Record{Kind: wal.Rollback, TxID: e.currentTxID, RecordID: wal.NoRecord}); err != nil {
		return err
	}
	if err := e.wal.Flush(); err != nil {
		return err
	}

	e.locks.ReleaseAll(txn.TxID(e.currentTxID))
	e.bib.Clear()

	e.recordCount = e.recordCountBeforeTx
	if err := e.store.WriteHeader(e.recordCount); err != nil {
		return err
	}

	e.inTransaction = false
	return nil
}
