package engine

import "github.com/wavetable-db/txstore/internal/wal"

// Checkpoint forces every dirty buffered page to disk, persists the header,
// appends a CHECKPOINT record, and flushes the WAL. Ordering matters: dirty
// pages must hit disk before the CHECKPOINT record is durable, or recovery
// could treat work as covered by the checkpoint before it actually is.
func (e *Engine) Checkpoint() error {
	if err := e.pool.ForceAllDirty(); err != nil {
		return err
	}
	if err := e.store.WriteHeader(e.recordCount); err != nil {
		return err
	}

	lsn, err := e.wal.Log(&wal.Record{Kind: wal.Checkpoint, TxID: wal.NoRecord, RecordID: wal.NoRecord})
	if err != nil {
		return err
	}
	if err := e.wal.Flush(); err != nil {
		return err
	}
	e.lastCheckpointLSN = lsn

	e.logger.Printf("txstore[%s]: checkpoint lsn=%d recordCount=%d", e.InstanceID, lsn, e.recordCount)
	return nil
}
