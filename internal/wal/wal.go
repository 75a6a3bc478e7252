// Package wal implements the write-ahead log: an append-only on-disk file
// of length-prefixed log records.
package wal

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/wavetable-db/txstore/internal/txerr"
)

// lengthPrefixSize is the size of the u32 big-endian frame length prefix.
const lengthPrefixSize = 4

// WAL manages the on-disk log file. Log writes a frame immediately (an
// ordinary buffered write, visible to any other reader of the same file);
// Flush additionally fsyncs, which is the actual durability barrier against
// power loss. A process-level "crash" that only discards in-memory engine
// state (buffer pool, BIB, locks — see spec.md §8 property 2) still sees
// every record ever logged, committed or not, which is exactly what
// recovery's analysis pass needs to find losers. Readers (recovery) read
// directly from the on-disk file via ReadAll rather than through a WAL
// instance.
type WAL struct {
	path       string
	f          *os.File
	unflushed  bool
	currentLSN uint64 // LSN of the last record assigned; 0 means none yet
}

// Open opens or creates the log file at path and seeds the LSN counter from
// the last on-disk record, if any. A corrupt on-disk log is tolerated here
// (best-effort reset to LSN 0) — only recover() treats mid-log corruption as
// fatal, per spec.md §7.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, txerr.Wrap(txerr.IO, "wal.Open", "open log file", err)
	}
	w := &WAL{path: path, f: f}

	if records, err := ReadAll(path); err == nil && len(records) > 0 {
		w.currentLSN = records[len(records)-1].LSN
	}
	return w, nil
}

// Log assigns rec the next monotonic LSN and appends it to the log file.
// The write is visible to subsequent reads of the file immediately, but is
// only durable against a real power-loss crash once Flush fsyncs it.
func (w *WAL) Log(rec *Record) (uint64, error) {
	w.currentLSN++
	rec.LSN = w.currentLSN

	body := Marshal(rec)
	frame := make([]byte, lengthPrefixSize+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[lengthPrefixSize:], body)
	if _, err := w.f.Write(frame); err != nil {
		return 0, txerr.Wrap(txerr.IO, "wal.Log", "append frame", err)
	}
	w.unflushed = true
	return rec.LSN, nil
}

// NextLSN previews the LSN that the next Log call will assign, without
// consuming it.
func (w *WAL) NextLSN() uint64 { return w.currentLSN + 1 }

// SetLSN forces the LSN counter, used by recovery to continue numbering
// past whatever was replayed.
func (w *WAL) SetLSN(lsn uint64) { w.currentLSN = lsn }

// Flush fsyncs the log file, the commit point for every record written
// since the last Flush. A no-op if nothing has been written since.
func (w *WAL) Flush() error {
	if !w.unflushed {
		return nil
	}
	if err := w.f.Sync(); err != nil {
		return txerr.Wrap(txerr.IO, "wal.Flush", "sync log file", err)
	}
	w.unflushed = false
	return nil
}

// Close closes the underlying log file.
func (w *WAL) Close() error {
	if err := w.f.Close(); err != nil {
		return txerr.Wrap(txerr.IO, "wal.Close", "close log file", err)
	}
	return nil
}

// Path returns the log file path.
func (w *WAL) Path() string { return w.path }

// ReadAll reads every complete record from the on-disk log at path, in
// order. A missing file yields an empty slice and no error.
//
// A frame whose length prefix or body is cut short by the end of the file
// is a truncated trailing write (the process crashed mid-append) and is
// silently discarded — this is the normal, expected shape of a crashed log,
// not an error. A frame that reads in full but whose internal image-length
// fields do not add up to its declared size is genuinely malformed: ReadAll
// returns the records collected before it along with a CorruptLog error, and
// the caller (recovery) must treat that as fatal rather than guess past it.
func ReadAll(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, txerr.Wrap(txerr.IO, "wal.ReadAll", "open log file", err)
	}
	defer f.Close()

	var records []*Record
	for {
		var lenBuf [lengthPrefixSize]byte
		if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
			// Clean EOF or a partially-written length prefix: either way,
			// there is no more log to read.
			break
		}
		length := binary.BigEndian.Uint32(lenBuf[:])
		body := make([]byte, length)
		if _, err := io.ReadFull(f, body); err != nil {
			// Declared length exceeds what the crashed process actually
			// wrote: truncated trailing frame, discard and stop.
			break
		}
		rec, err := Unmarshal(body)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}
