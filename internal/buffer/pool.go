// Package buffer implements the buffer pool: an in-memory cache of pages
// with dirty/fix-count/transactional tracking, sitting directly on top of
// the paged file store. The engine is specified single-threaded and
// cooperative (no background task, no suspension — see the concurrency
// model in spec.md §5), so unlike a typical production buffer pool this one
// carries no internal locking; the single caller thread is the only
// synchronization the design needs.
package buffer

import (
	"fmt"

	"github.com/wavetable-db/txstore/internal/store"
	"github.com/wavetable-db/txstore/internal/txerr"
)

// Page is an in-memory cached page plus its bookkeeping flags.
type Page struct {
	Data          []byte
	Dirty         bool
	FixCount      int
	Transactional bool
}

// Pool caches pages loaded from a FileStore. There is no fixed capacity —
// the spec leaves eviction policy to the caller; this implementation keeps
// every fixed-or-dirty page resident and only drops a page when Evict is
// called explicitly.
type Pool struct {
	store *store.FileStore
	pages map[store.PageID]*Page
}

// New creates a buffer pool backed by s.
func New(s *store.FileStore) *Pool {
	return &Pool{store: s, pages: make(map[store.PageID]*Page)}
}

// Fix loads page id into the pool if absent, pins it (increments FixCount),
// and returns a reference to its bytes. Callers must call Unfix exactly once
// per Fix once done with the page.
func (p *Pool) Fix(id store.PageID) (*Page, error) {
	pg, ok := p.pages[id]
	if ok {
		pg.FixCount++
		return pg, nil
	}
	buf := make([]byte, p.store.PageSize())
	if err := p.store.ReadPage(id, buf); err != nil {
		return nil, err
	}
	pg = &Page{Data: buf, FixCount: 1}
	p.pages[id] = pg
	return pg, nil
}

// Unfix decrements id's fix count. Unfixing a page that is not resident, or
// whose fix count is already zero, is an invariant violation — every fix
// must be balanced by exactly one unfix.
func (p *Pool) Unfix(id store.PageID) error {
	pg, ok := p.pages[id]
	if !ok || pg.FixCount == 0 {
		return txerr.New(txerr.InvariantViolation, "buffer.Unfix", fmt.Sprintf("page %d is not fixed", id))
	}
	pg.FixCount--
	return nil
}

// MarkDirty flags id as modified since its last write to disk. The page
// must already be resident (fixed).
func (p *Pool) MarkDirty(id store.PageID) error {
	pg, ok := p.pages[id]
	if !ok {
		return txerr.New(txerr.InvariantViolation, "buffer.MarkDirty", fmt.Sprintf("page %d is not resident", id))
	}
	pg.Dirty = true
	return nil
}

// MarkTransactional flags id as touched by the in-flight transaction. The
// page must already be resident.
func (p *Pool) MarkTransactional(id store.PageID) error {
	pg, ok := p.pages[id]
	if !ok {
		return txerr.New(txerr.InvariantViolation, "buffer.MarkTransactional", fmt.Sprintf("page %d is not resident", id))
	}
	pg.Transactional = true
	return nil
}

// ClearTransactional clears the transactional flag without touching Dirty.
func (p *Pool) ClearTransactional(id store.PageID) {
	if pg, ok := p.pages[id]; ok {
		pg.Transactional = false
	}
}

// Force writes id to disk if dirty, then clears Dirty and Transactional.
// A no-op if id is absent or already clean.
func (p *Pool) Force(id store.PageID) error {
	pg, ok := p.pages[id]
	if !ok || !pg.Dirty {
		return nil
	}
	if err := p.store.WritePage(id, pg.Data); err != nil {
		return err
	}
	pg.Dirty = false
	pg.Transactional = false
	return nil
}

// ForceAllDirty forces every dirty resident page, in ascending page-id order
// for deterministic I/O ordering in tests.
func (p *Pool) ForceAllDirty() error {
	for _, id := range p.DirtyPageIDs() {
		if err := p.Force(id); err != nil {
			return err
		}
	}
	return nil
}

// TransactionalPageIDs returns the ids of all resident pages currently
// flagged as touched by the in-flight transaction, sorted.
func (p *Pool) TransactionalPageIDs() []store.PageID {
	var ids []store.PageID
	for id, pg := range p.pages {
		if pg.Transactional {
			ids = append(ids, id)
		}
	}
	sortPageIDs(ids)
	return ids
}

// Restore overwrites id's in-memory bytes with snapshot (a rollback undoing
// a transaction's in-memory writes) and clears Dirty/Transactional, since
// the page once again matches what is on disk. If id is not resident, it is
// loaded into the pool first.
func (p *Pool) Restore(id store.PageID, snapshot []byte) error {
	pg, ok := p.pages[id]
	if !ok {
		buf := make([]byte, p.store.PageSize())
		if err := p.store.ReadPage(id, buf); err != nil {
			return err
		}
		pg = &Page{Data: buf}
		p.pages[id] = pg
	}
	copy(pg.Data, snapshot)
	pg.Dirty = false
	pg.Transactional = false
	return nil
}

// DirtyPageIDs returns the ids of all resident dirty pages, sorted.
func (p *Pool) DirtyPageIDs() []store.PageID {
	var ids []store.PageID
	for id, pg := range p.pages {
		if pg.Dirty {
			ids = append(ids, id)
		}
	}
	sortPageIDs(ids)
	return ids
}

// Evict drops id from the pool unconditionally, regardless of fix count or
// dirty state. This is a low-level primitive retained for parity with the
// textbook design (e.g. discarding a speculative insert's page when the
// before-image path does not already cover it); callers are responsible for
// not losing unsaved data.
func (p *Pool) Evict(id store.PageID) {
	delete(p.pages, id)
}

// Peek returns the resident page for id without fixing it, or nil if absent.
// Used by read paths that must not perturb the fix-count discipline (e.g.
// consistent reads served from a snapshot elsewhere).
func (p *Pool) Peek(id store.PageID) (*Page, bool) {
	pg, ok := p.pages[id]
	return pg, ok
}

func sortPageIDs(ids []store.PageID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
