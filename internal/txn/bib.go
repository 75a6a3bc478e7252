// Package txn holds the two plain, engine-owned maps that back an in-flight
// transaction: the before-image buffer and the lock table. Per spec.md §9
// ("flatten inheritance into composed components with explicit ownership"),
// these are not objects with their own lifecycle threads — they are data the
// Transaction Manager mutates directly.
package txn

import "github.com/wavetable-db/txstore/internal/store"

// BIB is the before-image buffer: a per-transaction map from page id to the
// bytes of that page at the moment the transaction first intended to write
// to it. Entries are first-write-wins — Snapshot never overwrites an
// existing entry.
type BIB struct {
	pages map[store.PageID][]byte
}

// NewBIB returns an empty before-image buffer.
func NewBIB() *BIB {
	return &BIB{pages: make(map[store.PageID][]byte)}
}

// Snapshot records current as the before-image of id if no snapshot exists
// yet for id. Returns true if a new snapshot was taken.
func (b *BIB) Snapshot(id store.PageID, current []byte) bool {
	if _, ok := b.pages[id]; ok {
		return false
	}
	cp := make([]byte, len(current))
	copy(cp, current)
	b.pages[id] = cp
	return true
}

// Get returns the before-image of id, if any.
func (b *BIB) Get(id store.PageID) ([]byte, bool) {
	bs, ok := b.pages[id]
	return bs, ok
}

// Has reports whether id has a before-image snapshot.
func (b *BIB) Has(id store.PageID) bool {
	_, ok := b.pages[id]
	return ok
}

// PageIDs returns the snapshotted page ids, in no particular order.
func (b *BIB) PageIDs() []store.PageID {
	ids := make([]store.PageID, 0, len(b.pages))
	for id := range b.pages {
		ids = append(ids, id)
	}
	return ids
}

// Clear discards all snapshots, e.g. on commit or rollback.
func (b *BIB) Clear() {
	b.pages = make(map[store.PageID][]byte)
}
