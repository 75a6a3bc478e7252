package store

import "testing"

func TestLocate_SpreadsAcrossPages(t *testing.T) {
	cases := []struct {
		rid        RID
		wantPage   PageID
		wantSlot   int
	}{
		{0, 0, 0},
		{9, 0, 9},
		{10, 1, 0},
		{25, 2, 5},
	}
	for _, c := range cases {
		pid, slot := Locate(c.rid, 10)
		if pid != c.wantPage || slot != c.wantSlot {
			t.Errorf("Locate(%d, 10) = (%d, %d), want (%d, %d)", c.rid, pid, slot, c.wantPage, c.wantSlot)
		}
	}
}

func TestRecordsPerPage(t *testing.T) {
	if got := RecordsPerPage(4096, 100); got != 40 {
		t.Errorf("RecordsPerPage(4096, 100) = %d, want 40", got)
	}
}

func TestPutSlotGetSlot_PadsAndTruncates(t *testing.T) {
	page := make([]byte, 30)
	PutSlot(page, 1, 10, []byte("hi"))
	got := GetSlot(page, 1, 10)
	want := append([]byte("hi"), make([]byte, 8)...)
	if string(got) != string(want) {
		t.Fatalf("GetSlot = %x, want %x", got, want)
	}

	PutSlot(page, 1, 10, []byte("waytoolongforthisslot"))
	got = GetSlot(page, 1, 10)
	if len(got) != 10 {
		t.Fatalf("len(got) = %d, want 10", len(got))
	}
	if string(got) != "waytoolong" {
		t.Fatalf("got = %q, want truncated to %q", got, "waytoolong")
	}
}

func TestTrimSlot_StripsTrailingNUL(t *testing.T) {
	raw := append([]byte("Alice"), make([]byte, 5)...)
	got := TrimSlot(raw)
	if string(got) != "Alice" {
		t.Fatalf("TrimSlot = %q, want %q", got, "Alice")
	}
}

func TestPutSlot_DoesNotTouchAdjacentSlots(t *testing.T) {
	page := make([]byte, 30)
	for i := range page {
		page[i] = 0xFF
	}
	PutSlot(page, 1, 10, []byte("middle"))
	for i := 0; i < 10; i++ {
		if page[i] != 0xFF {
			t.Fatalf("slot 0 byte %d clobbered: %x", i, page[i])
		}
	}
	for i := 20; i < 30; i++ {
		if page[i] != 0xFF {
			t.Fatalf("slot 2 byte %d clobbered: %x", i, page[i])
		}
	}
}
