package wal

import (
	"encoding/binary"
	"fmt"

	"github.com/wavetable-db/txstore/internal/txerr"
)

// Kind identifies the event a log record describes.
type Kind uint32

const (
	Begin      Kind = 0
	Commit     Kind = 1
	Rollback   Kind = 2
	Update     Kind = 3
	Insert     Kind = 4
	Checkpoint Kind = 5
)

func (k Kind) String() string {
	switch k {
	case Begin:
		return "BEGIN"
	case Commit:
		return "COMMIT"
	case Rollback:
		return "ROLLBACK"
	case Update:
		return "UPDATE"
	case Insert:
		return "INSERT"
	case Checkpoint:
		return "CHECKPOINT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(k))
	}
}

func validKind(k Kind) bool {
	return k <= Checkpoint
}

// NoRecord is the sentinel record id / tx id for records that carry none
// (BEGIN/COMMIT/ROLLBACK have no record id; CHECKPOINT has neither).
const NoRecord int32 = -1

// Record is one write-ahead log entry. LSN is assigned by the WAL when the
// record is logged, not by the caller.
type Record struct {
	LSN      uint64
	Kind     Kind
	TxID     int32
	RecordID int32
	Before   []byte // nil/absent unless Kind == Update
	After    []byte // nil/absent unless Kind == Update or Insert
}

// recHeaderSize is the fixed portion of a frame body, before the two
// length-prefixed image fields: lsn(8) + kind(4) + txId(4) + recordId(4).
const recHeaderSize = 8 + 4 + 4 + 4

// Marshal encodes rec into a frame body (without the outer u32 length
// prefix — that is added by the WAL writer).
func Marshal(rec *Record) []byte {
	buf := make([]byte, recHeaderSize+4+len(rec.Before)+4+len(rec.After))
	off := 0
	binary.BigEndian.PutUint64(buf[off:], rec.LSN)
	off += 8
	binary.BigEndian.PutUint32(buf[off:], uint32(rec.Kind))
	off += 4
	binary.BigEndian.PutUint32(buf[off:], uint32(rec.TxID))
	off += 4
	binary.BigEndian.PutUint32(buf[off:], uint32(rec.RecordID))
	off += 4
	binary.BigEndian.PutUint32(buf[off:], uint32(len(rec.Before)))
	off += 4
	off += copy(buf[off:], rec.Before)
	binary.BigEndian.PutUint32(buf[off:], uint32(len(rec.After)))
	off += 4
	off += copy(buf[off:], rec.After)
	return buf
}

// Unmarshal decodes a complete frame body. It returns a *txerr.Error of kind
// CorruptLog if the declared image lengths do not exactly account for the
// bytes present — the caller is responsible for deciding whether an
// incomplete frame (too few bytes to even attempt this) means truncation
// instead of corruption.
func Unmarshal(data []byte) (*Record, error) {
	if len(data) < recHeaderSize+8 {
		return nil, txerr.New(txerr.CorruptLog, "wal.Unmarshal", "frame shorter than minimum header")
	}
	rec := &Record{}
	off := 0
	rec.LSN = binary.BigEndian.Uint64(data[off:])
	off += 8
	rec.Kind = Kind(binary.BigEndian.Uint32(data[off:]))
	off += 4
	if !validKind(rec.Kind) {
		return nil, txerr.New(txerr.CorruptLog, "wal.Unmarshal", fmt.Sprintf("unknown record kind %d", uint32(rec.Kind)))
	}
	rec.TxID = int32(binary.BigEndian.Uint32(data[off:]))
	off += 4
	rec.RecordID = int32(binary.BigEndian.Uint32(data[off:]))
	off += 4

	beforeLen := binary.BigEndian.Uint32(data[off:])
	off += 4
	if uint64(off)+uint64(beforeLen)+4 > uint64(len(data)) {
		return nil, txerr.New(txerr.CorruptLog, "wal.Unmarshal", "beforeLen exceeds frame bounds")
	}
	if beforeLen > 0 {
		rec.Before = append([]byte(nil), data[off:off+int(beforeLen)]...)
	}
	off += int(beforeLen)

	afterLen := binary.BigEndian.Uint32(data[off:])
	off += 4
	if uint64(off)+uint64(afterLen) != uint64(len(data)) {
		return nil, txerr.New(txerr.CorruptLog, "wal.Unmarshal", "afterLen does not account for remaining frame bytes")
	}
	if afterLen > 0 {
		rec.After = append([]byte(nil), data[off:off+int(afterLen)]...)
	}
	return rec, nil
}
