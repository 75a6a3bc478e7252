package txn

import (
	"fmt"

	"github.com/wavetable-db/txstore/internal/store"
	"github.com/wavetable-db/txstore/internal/txerr"
)

// TxID is a logical transaction identity, used only for lock ownership —
// per spec.md §5 at most one transaction is ever in flight at a time.
type TxID int32

// LockTable maps record id to the owning transaction id. Record-granularity
// exclusive locks only, no shared locks: presence means locked. Acquisition
// is strict no-wait — a conflicting acquire fails immediately rather than
// blocking, so there is no deadlock detector to write.
type LockTable struct {
	owners map[store.RID]TxID
}

// NewLockTable returns an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{owners: make(map[store.RID]TxID)}
}

// IsLocked reports whether r is currently held by any transaction.
func (lt *LockTable) IsLocked(r store.RID) bool {
	_, ok := lt.owners[r]
	return ok
}

// OwnedByCurrent reports whether r is held by tx.
func (lt *LockTable) OwnedByCurrent(r store.RID, tx TxID) bool {
	owner, ok := lt.owners[r]
	return ok && owner == tx
}

// OwnerOf returns the owning tx of r, if locked.
func (lt *LockTable) OwnerOf(r store.RID) (TxID, bool) {
	owner, ok := lt.owners[r]
	return owner, ok
}

// Acquire grants tx an exclusive lock on r. It fails immediately, with no
// waiting, if another transaction already holds r.
func (lt *LockTable) Acquire(r store.RID, tx TxID) error {
	if owner, ok := lt.owners[r]; ok && owner != tx {
		return txerr.New(txerr.LockConflict, "locks.Acquire", fmt.Sprintf("record %d is locked by transaction %d", r, owner))
	}
	lt.owners[r] = tx
	return nil
}

// Release drops the lock on r, regardless of owner.
func (lt *LockTable) Release(r store.RID) {
	delete(lt.owners, r)
}

// ReleaseAll drops every lock owned by tx.
func (lt *LockTable) ReleaseAll(tx TxID) {
	for r, owner := range lt.owners {
		if owner == tx {
			delete(lt.owners, r)
		}
	}
}
