// Package store implements the paged file store: a single data file with an
// 8-byte header holding the persisted record count, followed by fixed-size
// pages. It knows nothing about transactions, buffering, or the log — it is
// the leaf of the layering described by the spec.
package store

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/wavetable-db/txstore/internal/txerr"
)

// HeaderSize is the fixed size, in bytes, of the data file header.
const HeaderSize = 8

// FileStore owns the single data file: an 8-byte big-endian record-count
// header followed by fixed-size pages at offset HeaderSize + id*PageSize.
type FileStore struct {
	f          *os.File
	path       string
	pageSize   int
	recordSize int
}

// Open opens path read-write, creating it (with a zeroed header) if absent.
func Open(path string, pageSize, recordSize int) (*FileStore, error) {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, txerr.Wrap(txerr.IO, "store.Open", "open data file", err)
	}
	s := &FileStore{f: f, path: path, pageSize: pageSize, recordSize: recordSize}

	if isNew {
		if err := s.WriteHeader(0); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

// ReadHeader returns the persisted record count.
func (s *FileStore) ReadHeader() (uint64, error) {
	var buf [HeaderSize]byte
	n, err := s.f.ReadAt(buf[:], 0)
	if err != nil && n < HeaderSize {
		// A brand new, never-written file reads as all zero.
		if n == 0 {
			return 0, nil
		}
		return 0, txerr.Wrap(txerr.IO, "store.ReadHeader", "read header", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteHeader persists the record count synchronously.
func (s *FileStore) WriteHeader(count uint64) error {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint64(buf[:], count)
	if _, err := s.f.WriteAt(buf[:], 0); err != nil {
		return txerr.Wrap(txerr.IO, "store.WriteHeader", "write header", err)
	}
	if err := s.f.Sync(); err != nil {
		return txerr.Wrap(txerr.IO, "store.WriteHeader", "sync header", err)
	}
	return nil
}

// pageOffset returns the file offset of page id.
func (s *FileStore) pageOffset(id PageID) int64 {
	return int64(HeaderSize) + int64(id)*int64(s.pageSize)
}

// ReadPage reads page id into buf, which must be exactly PageSize bytes.
// A read that falls past the end of the file yields a zero-filled page
// (pages are materialised lazily on first write).
func (s *FileStore) ReadPage(id PageID, buf []byte) error {
	if len(buf) != s.pageSize {
		return txerr.New(txerr.InvariantViolation, "store.ReadPage", fmt.Sprintf("buffer size %d != page size %d", len(buf), s.pageSize))
	}
	n, err := s.f.ReadAt(buf, s.pageOffset(id))
	if n < len(buf) {
		// Read past end-of-file (or the file doesn't reach this page yet):
		// the page is materialised lazily, so treat the gap as zero bytes.
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return nil
	}
	if err != nil {
		return txerr.Wrap(txerr.IO, "store.ReadPage", fmt.Sprintf("read page %d", id), err)
	}
	return nil
}

// WritePage writes buf (exactly PageSize bytes) to page id, extending the
// file as needed, and durably syncs it.
func (s *FileStore) WritePage(id PageID, buf []byte) error {
	if len(buf) != s.pageSize {
		return txerr.New(txerr.InvariantViolation, "store.WritePage", fmt.Sprintf("buffer size %d != page size %d", len(buf), s.pageSize))
	}
	if _, err := s.f.WriteAt(buf, s.pageOffset(id)); err != nil {
		return txerr.Wrap(txerr.IO, "store.WritePage", fmt.Sprintf("write page %d", id), err)
	}
	if err := s.f.Sync(); err != nil {
		return txerr.Wrap(txerr.IO, "store.WritePage", fmt.Sprintf("sync page %d", id), err)
	}
	return nil
}

// PageSize returns the fixed page size for this store.
func (s *FileStore) PageSize() int { return s.pageSize }

// RecordSize returns the fixed record (slot) size for this store.
func (s *FileStore) RecordSize() int { return s.recordSize }

// Path returns the data file path.
func (s *FileStore) Path() string { return s.path }

// Close closes the underlying file.
func (s *FileStore) Close() error {
	if err := s.f.Close(); err != nil {
		return txerr.Wrap(txerr.IO, "store.Close", "close data file", err)
	}
	return nil
}
