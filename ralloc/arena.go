package ralloc

import "unsafe"

const (
	// arenaDataSize is the size of an arena's data region: 8 MiB.
	arenaDataSize = 8 * 1024 * 1024

	// largeThreshold is the boundary between small (arena) and large
	// (global) requests: one-sixteenth of arenaDataSize, i.e. 512 KiB.
	// It is a tuning constant, not a derived invariant (see DESIGN.md).
	largeThreshold = arenaDataSize / 16

	// minSplitPayload is the minimum payload a split-off remainder must
	// retain; splits smaller than this are left unsplit to avoid
	// orphaning fragments too small to ever be usefully reallocated.
	minSplitPayload = 32
)

// arenaHeader prefixes every arena mapping: a successor link through the
// Manager's arena sequence, and the head of this arena's own free list.
type arenaHeader struct {
	next     *arenaHeader
	freeList *blockHeader
}

// arenaHeaderSize is the size of the header prefixing an arena's data
// region.
const arenaHeaderSize = unsafe.Sizeof(arenaHeader{})

// dataStart returns the first address of the arena's data region.
func (a *arenaHeader) dataStart() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(a), arenaHeaderSize)
}

// dataEnd returns the address immediately past the arena's data region.
func (a *arenaHeader) dataEnd() unsafe.Pointer {
	return unsafe.Add(a.dataStart(), arenaDataSize)
}

// contains reports whether addr falls within this arena's data region.
func (a *arenaHeader) contains(addr unsafe.Pointer) bool {
	p := uintptr(addr)
	return p >= uintptr(a.dataStart()) && p < uintptr(a.dataEnd())
}

// newArena maps a fresh 8 MiB arena from the OS, initializes its header
// and single whole-arena free block, and returns it. The caller is
// responsible for linking it into the Manager's arena sequence.
func newArena() (*arenaHeader, error) {
	addr, err := mmapRegion(arenaHeaderSize + arenaDataSize)
	if err != nil {
		return nil, err
	}
	ar := (*arenaHeader)(addr)
	ar.next = nil
	ar.freeList = nil

	whole := blockHeaderAt(ar.dataStart())
	whole.size = arenaDataSize
	whole.next = nil
	whole.live = false
	ar.freeList = whole

	return ar, nil
}

// findContainingArena returns the arena whose data region holds blk, or
// nil if no arena does (an invariant violation: every live arena block
// must belong to exactly one arena).
func (mgr *Manager) findContainingArena(blk *blockHeader) *arenaHeader {
	addr := unsafe.Pointer(blk)
	for ar := mgr.arenas; ar != nil; ar = ar.next {
		if ar.contains(addr) {
			return ar
		}
	}
	return nil
}

// unlinkArenaFreeBlock removes target from ar's free list. target must
// currently be on the list; it is a programming error otherwise and is
// silently ignored, matching this package's invariant-violation policy.
func unlinkArenaFreeBlock(ar *arenaHeader, target *blockHeader) {
	if ar.freeList == target {
		ar.freeList = target.next
		target.next = nil
		return
	}
	for cur := ar.freeList; cur != nil; cur = cur.next {
		if cur.next == target {
			cur.next = target.next
			target.next = nil
			return
		}
	}
}

// splitArenaFreeBlock shrinks blk to planned bytes, pushing the leftover
// remainder back onto ar's free list when it is large enough to be worth
// keeping as its own block.
func splitArenaFreeBlock(ar *arenaHeader, blk *blockHeader, planned uintptr) {
	remainder := blk.size - planned
	if remainder < headerSize+minSplitPayload {
		return
	}
	split := blockHeaderAt(unsafe.Add(unsafe.Pointer(blk), planned))
	split.size = remainder
	split.live = false
	split.next = ar.freeList
	ar.freeList = split
	blk.size = planned
}

// findArenaFit walks the Manager's arena sequence in order and, within
// each arena, its free list, returning the first block of sufficient
// size (first-fit). The returned block has been unlinked from its free
// list and, if it had enough leftover space, split.
func findArenaFit(mgr *Manager, planned uintptr) *blockHeader {
	for ar := mgr.arenas; ar != nil; ar = ar.next {
		var prev *blockHeader
		for cur := ar.freeList; cur != nil; cur = cur.next {
			if cur.size >= planned {
				if prev == nil {
					ar.freeList = cur.next
				} else {
					prev.next = cur.next
				}
				cur.next = nil
				splitArenaFreeBlock(ar, cur, planned)
				return cur
			}
			prev = cur
		}
	}
	return nil
}

// allocArena serves a small request: it tries every existing arena first,
// and only maps a fresh one when none has room. Returns nil on OS mapping
// failure.
func (mgr *Manager) allocArena(planned uintptr) *blockHeader {
	if blk := findArenaFit(mgr, planned); blk != nil {
		blk.live = true
		return blk
	}

	ar, err := newArena()
	if err != nil {
		return nil
	}
	ar.next = mgr.arenas
	mgr.arenas = ar

	blk := findArenaFit(mgr, planned)
	if blk == nil {
		// A fresh 8 MiB arena cannot fail to satisfy a small request;
		// reaching here would mean planned exceeds the arena itself.
		return nil
	}
	blk.live = true
	return blk
}

// findArenaPredecessor returns the free block whose in-memory layout
// immediately precedes blk, i.e. pred.end() == blk: the arena-layout
// predecessor, not the free-list predecessor. This requires a full scan
// of the free list since the list is unordered by address.
func findArenaPredecessor(ar *arenaHeader, blk *blockHeader) *blockHeader {
	target := blk.addr()
	for cur := ar.freeList; cur != nil; cur = cur.next {
		if uintptr(cur.end()) == target {
			return cur
		}
	}
	return nil
}

// coalesceArenaBlock merges blk with any physically adjacent free
// neighbours within ar, forward then backward, and returns the resulting
// (possibly different, possibly enlarged) block. blk must not itself be
// linked into ar's free list yet.
func coalesceArenaBlock(ar *arenaHeader, blk *blockHeader) *blockHeader {
	if succAddr := blk.end(); uintptr(succAddr) < uintptr(ar.dataEnd()) {
		succ := blockHeaderAt(succAddr)
		if !succ.live {
			blk.size += succ.size
			unlinkArenaFreeBlock(ar, succ)
		}
	}

	if pred := findArenaPredecessor(ar, blk); pred != nil && !pred.live {
		pred.size += blk.size
		unlinkArenaFreeBlock(ar, pred)
		blk = pred
	}

	return blk
}

// reclaimArenaIfEmpty unmaps ar and removes it from the Manager's arena
// sequence if its free list has collapsed to a single block spanning the
// whole data region, i.e. the arena holds no live blocks at all.
func (mgr *Manager) reclaimArenaIfEmpty(ar *arenaHeader) {
	head := ar.freeList
	if head == nil || head.next != nil || head.size != arenaDataSize {
		return
	}

	if mgr.arenas == ar {
		mgr.arenas = ar.next
	} else {
		for cur := mgr.arenas; cur != nil; cur = cur.next {
			if cur.next == ar {
				cur.next = ar.next
				break
			}
		}
	}
	_ = munmapRegion(unsafe.Pointer(ar), arenaHeaderSize+arenaDataSize)
}

// releaseArenaBlock returns a block to its containing arena's free list,
// coalescing with adjacent free neighbours first, then reclaiming the
// arena entirely if it has become empty.
func (mgr *Manager) releaseArenaBlock(blk *blockHeader) {
	ar := mgr.findContainingArena(blk)
	if ar == nil {
		// Invariant violation: a pointer claiming to be arena-sized but
		// not contained in any arena. No recovery path exists; see
		// spec §7's "invariant violation" category.
		return
	}

	blk = coalesceArenaBlock(ar, blk)
	blk.live = false
	blk.next = ar.freeList
	ar.freeList = blk

	mgr.reclaimArenaIfEmpty(ar)
}

// arenaLiveBytes sums the payload size of every live block in ar by
// walking its data region linearly from start to end. This is exhaustive
// by construction: the blocks in an arena perfectly partition its data
// region at every quiescent moment.
func arenaLiveBytes(ar *arenaHeader) int {
	total := 0
	end := uintptr(ar.dataEnd())
	for p := uintptr(ar.dataStart()); p < end; {
		blk := blockHeaderAt(unsafe.Pointer(p))
		if blk.live {
			total += blk.payloadCap()
		}
		p += blk.size
	}
	return total
}

// arenaContainsFreeBlock reports whether blk currently sits on ar's free
// list, used by the liveness query.
func arenaContainsFreeBlock(ar *arenaHeader, blk *blockHeader) bool {
	for cur := ar.freeList; cur != nil; cur = cur.next {
		if cur == blk {
			return true
		}
	}
	return false
}
