package wal

import (
	"testing"

	"github.com/wavetable-db/txstore/internal/txerr"
)

func TestMarshalUnmarshal_RoundTripUpdate(t *testing.T) {
	rec := &Record{
		LSN:      7,
		Kind:     Update,
		TxID:     3,
		RecordID: 12,
		Before:   []byte("old"),
		After:    []byte("new value"),
	}
	body := Marshal(rec)
	got, err := Unmarshal(body)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.LSN != rec.LSN || got.Kind != rec.Kind || got.TxID != rec.TxID || got.RecordID != rec.RecordID {
		t.Fatalf("header mismatch: got %+v, want %+v", got, rec)
	}
	if string(got.Before) != string(rec.Before) || string(got.After) != string(rec.After) {
		t.Fatalf("image mismatch: got before=%q after=%q, want before=%q after=%q", got.Before, got.After, rec.Before, rec.After)
	}
}

func TestMarshalUnmarshal_RoundTripWithNoImages(t *testing.T) {
	rec := &Record{LSN: 1, Kind: Begin, TxID: 1, RecordID: NoRecord}
	got, err := Unmarshal(Marshal(rec))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Before) != 0 || len(got.After) != 0 {
		t.Fatalf("expected empty images, got before=%v after=%v", got.Before, got.After)
	}
}

func TestUnmarshal_UnknownKindIsCorruptLog(t *testing.T) {
	rec := &Record{LSN: 1, Kind: Checkpoint, TxID: NoRecord, RecordID: NoRecord}
	body := Marshal(rec)
	body[11] = 0xFF // kind's low byte, at offset 8..11
	_, err := Unmarshal(body)
	if err == nil || !txerr.Is(err, txerr.CorruptLog) {
		t.Fatalf("err = %v, want CorruptLog", err)
	}
}

func TestUnmarshal_TruncatedFrameIsCorruptLog(t *testing.T) {
	rec := &Record{LSN: 1, Kind: Insert, TxID: 1, RecordID: 0, After: []byte("hello")}
	body := Marshal(rec)
	_, err := Unmarshal(body[:len(body)-2])
	if err == nil || !txerr.Is(err, txerr.CorruptLog) {
		t.Fatalf("err = %v, want CorruptLog", err)
	}
}

func TestKindString_CoversAllKinds(t *testing.T) {
	for k, want := range map[Kind]string{
		Begin: "BEGIN", Commit: "COMMIT", Rollback: "ROLLBACK",
		Update: "UPDATE", Insert: "INSERT", Checkpoint: "CHECKPOINT",
	} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
