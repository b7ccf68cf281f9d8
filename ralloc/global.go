package ralloc

import "unsafe"

// newGlobalBlock maps planned bytes from the OS as a standalone region and
// initializes it as a single live block. It is never linked into the
// global free list: live blocks never appear on any free list.
func newGlobalBlock(planned uintptr) (*blockHeader, error) {
	addr, err := mmapRegion(planned)
	if err != nil {
		return nil, err
	}
	blk := blockHeaderAt(addr)
	blk.size = planned
	blk.next = nil
	blk.live = true
	return blk, nil
}

// unlinkGlobalFreeBlock removes target from the Manager's global free
// list.
func unlinkGlobalFreeBlock(mgr *Manager, target *blockHeader) {
	if mgr.globalFree == target {
		mgr.globalFree = target.next
		target.next = nil
		return
	}
	for cur := mgr.globalFree; cur != nil; cur = cur.next {
		if cur.next == target {
			cur.next = target.next
			target.next = nil
			return
		}
	}
}

// splitGlobalFreeBlock applies the same split rule as the arena allocator:
// shrink blk to planned bytes, pushing a large-enough remainder back onto
// the global free list.
func splitGlobalFreeBlock(mgr *Manager, blk *blockHeader, planned uintptr) {
	remainder := blk.size - planned
	if remainder < headerSize+minSplitPayload {
		return
	}
	split := blockHeaderAt(unsafe.Add(unsafe.Pointer(blk), planned))
	split.size = remainder
	split.live = false
	split.next = mgr.globalFree
	mgr.globalFree = split
	blk.size = planned
}

// findGlobalFit is the global-tier analogue of findArenaFit: a first-fit
// scan of the global free list, unlinking and splitting the winner.
func findGlobalFit(mgr *Manager, planned uintptr) *blockHeader {
	var prev *blockHeader
	for cur := mgr.globalFree; cur != nil; cur = cur.next {
		if cur.size >= planned {
			if prev == nil {
				mgr.globalFree = cur.next
			} else {
				prev.next = cur.next
			}
			cur.next = nil
			splitGlobalFreeBlock(mgr, cur, planned)
			return cur
		}
		prev = cur
	}
	return nil
}

// allocGlobal serves a large request: reuse from the global free list
// first, falling back to a fresh standalone mapping. Returns nil on OS
// mapping failure.
func (mgr *Manager) allocGlobal(planned uintptr) *blockHeader {
	if blk := findGlobalFit(mgr, planned); blk != nil {
		blk.live = true
		mgr.globalLiveBytes += blk.payloadCap()
		return blk
	}

	blk, err := newGlobalBlock(planned)
	if err != nil {
		return nil
	}
	mgr.globalLiveBytes += blk.payloadCap()
	return blk
}

// coalesceGlobalBlock merges blk with any global free-list entry that is
// physically adjacent, forward or backward, and returns the resulting
// (possibly enlarged) block. Unlike arena coalescing, there is no
// containing region to bound the scan, so every entry on the list is a
// candidate neighbour.
func coalesceGlobalBlock(mgr *Manager, blk *blockHeader) *blockHeader {
	for cur, next := mgr.globalFree, (*blockHeader)(nil); cur != nil; cur = next {
		next = cur.next
		switch {
		case uintptr(cur.end()) == blk.addr():
			cur.size += blk.size
			unlinkGlobalFreeBlock(mgr, cur)
			blk = cur
		case uintptr(blk.end()) == cur.addr():
			blk.size += cur.size
			unlinkGlobalFreeBlock(mgr, cur)
		}
	}
	return blk
}

// releaseGlobalBlock returns a global block to the free list, coalescing
// with any physically adjacent neighbour first. The underlying OS mapping
// is never unmapped here: global blocks persist until reused.
func (mgr *Manager) releaseGlobalBlock(blk *blockHeader) {
	mgr.globalLiveBytes -= blk.payloadCap()
	blk = coalesceGlobalBlock(mgr, blk)
	blk.live = false
	blk.next = mgr.globalFree
	mgr.globalFree = blk
}

// globalContainsFreeBlock reports whether blk currently sits on the
// global free list, used by the liveness query.
func globalContainsFreeBlock(mgr *Manager, blk *blockHeader) bool {
	for cur := mgr.globalFree; cur != nil; cur = cur.next {
		if cur == blk {
			return true
		}
	}
	return false
}
