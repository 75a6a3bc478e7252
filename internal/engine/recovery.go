package engine

import (
	"github.com/wavetable-db/txstore/internal/store"
	"github.com/wavetable-db/txstore/internal/wal"
)

// Recover replays the on-disk WAL after a crash: analysis classifies every
// transaction seen since the last checkpoint as committed or a loser, REDO
// reapplies committed writes, and UNDO reverts everything else. REDO must
// run before UNDO — a winner's UPDATE and a loser's later UPDATE can target
// the same slot, and only redo-then-undo leaves the winner's bytes in place
// (spec.md §4.6).
func (e *Engine) Recover() error {
	records, err := wal.ReadAll(e.wal.Path())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	startIndex := 0
	for i, r := range records {
		if r.Kind == wal.Checkpoint {
			startIndex = i + 1
		}
	}

	committed := make(map[int32]bool)
	active := make(map[int32]bool)
	for i := startIndex; i < len(records); i++ {
		r := records[i]
		switch r.Kind {
		case wal.Begin:
			active[r.TxID] = true
		case wal.Commit:
			delete(active, r.TxID)
			committed[r.TxID] = true
		case wal.Rollback:
			delete(active, r.TxID)
		}
	}
	// Every transaction still present in `active` at the end of the pass is
	// a loser. A transaction that explicitly rolled back is removed from
	// `active` without ever joining `committed` — it is neither a winner
	// nor a loser, since its in-memory changes were already reverted before
	// the crash and never reached disk.
	losers := active

	var maxLSN uint64
	var redone, undone int

	// REDO pass: forward, winners only.
	for i := startIndex; i < len(records); i++ {
		r := records[i]
		if r.LSN > maxLSN {
			maxLSN = r.LSN
		}
		if !committed[r.TxID] {
			continue
		}
		switch r.Kind {
		case wal.Update, wal.Insert:
			if err := e.redoSlot(r); err != nil {
				return err
			}
			redone++
			if r.Kind == wal.Insert {
				rid := store.RID(r.RecordID)
				if uint64(rid) >= e.recordCount {
					e.recordCount = uint64(rid) + 1
				}
			}
		}
	}

	// UNDO pass: backward, losers only.
	for i := len(records) - 1; i >= startIndex; i-- {
		r := records[i]
		if r.Kind != wal.Update && r.Kind != wal.Insert {
			continue
		}
		if !losers[r.TxID] {
			continue
		}
		switch r.Kind {
		case wal.Update:
			if err := e.undoSlot(r); err != nil {
				return err
			}
			undone++
		case wal.Insert:
			// Interior holes from non-tail undone inserts are a known
			// limitation shared with the textbook design this follows
			// (spec.md §9): only a tail insert can shrink recordCount
			// without slot-level liveness metadata.
			rid := store.RID(r.RecordID)
			if uint64(rid) == e.recordCount-1 {
				e.recordCount--
			}
			undone++
		}
	}

	if err := e.pool.ForceAllDirty(); err != nil {
		return err
	}
	if err := e.store.WriteHeader(e.recordCount); err != nil {
		return err
	}
	if maxLSN > 0 {
		e.wal.SetLSN(maxLSN)
	}

	e.logger.Printf("txstore[%s]: recover redone=%d undone=%d recordCount=%d", e.InstanceID, redone, undone, e.recordCount)
	return nil
}

func (e *Engine) redoSlot(r *wal.Record) error {
	rid := store.RID(r.RecordID)
	pageID, slot := store.Locate(rid, e.recordsPerPage)
	pg, err := e.pool.Fix(pageID)
	if err != nil {
		return err
	}
	store.PutSlot(pg.Data, slot, e.recordSize, r.After)
	if err := e.pool.MarkDirty(pageID); err != nil {
		e.pool.Unfix(pageID)
		return err
	}
	return e.pool.Unfix(pageID)
}

func (e *Engine) undoSlot(r *wal.Record) error {
	rid := store.RID(r.RecordID)
	pageID, slot := store.Locate(rid, e.recordsPerPage)
	pg, err := e.pool.Fix(pageID)
	if err != nil {
		return err
	}
	store.PutSlot(pg.Data, slot, e.recordSize, r.Before)
	if err := e.pool.MarkDirty(pageID); err != nil {
		e.pool.Unfix(pageID)
		return err
	}
	return e.pool.Unfix(pageID)
}
