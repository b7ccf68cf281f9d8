package ralloc

import "unsafe"

// Manager is the process-wide singleton owning every arena and the global
// free list. It is itself backed by an OS mapping sized to its own
// footprint, created lazily on first use.
//
// There is exactly one Manager per process; see theManager. Nothing in
// this package takes a lock around it: the package is documented as
// single-threaded and carries none of the synchronization a concurrent
// allocator would need.
type Manager struct {
	arenas     *arenaHeader
	globalFree *blockHeader

	// globalLiveBytes tracks payload bytes held by live global blocks.
	// Global blocks are never linked into any list while live (per the
	// free-list invariant). Arenas stay walkable in their entirety
	// regardless of liveness, but global blocks have no such structure
	// to walk for this number, so it is maintained incrementally instead.
	globalLiveBytes int
}

var globalManager *Manager

// theManager returns the process-wide Manager, mapping it from the OS on
// first use. If the mapping fails, it returns nil and leaves the manager
// unset so a later call may retry; every public operation treats a nil
// Manager the same way it treats any other resource-exhaustion failure.
func theManager() *Manager {
	if globalManager != nil {
		return globalManager
	}
	addr, err := mmapRegion(unsafe.Sizeof(Manager{}))
	if err != nil {
		return nil
	}
	m := (*Manager)(addr)
	*m = Manager{}
	globalManager = m
	return m
}

// resetManagerForTest unmaps the manager, every arena, and every block on
// the global free list, returning the package to its pre-first-use state.
// Live global blocks are on no list and stay mapped. It exists
// only for tests, which would otherwise leak arenas mapped by earlier
// tests into later ones' arena counts.
func resetManagerForTest() {
	if globalManager == nil {
		return
	}
	for ar := globalManager.arenas; ar != nil; {
		next := ar.next
		_ = munmapRegion(unsafe.Pointer(ar), arenaHeaderSize+arenaDataSize)
		ar = next
	}
	for blk := globalManager.globalFree; blk != nil; {
		next := blk.next
		_ = munmapRegion(unsafe.Pointer(blk), blk.size)
		blk = next
	}
	_ = munmapRegion(unsafe.Pointer(globalManager), unsafe.Sizeof(Manager{}))
	globalManager = nil
}
