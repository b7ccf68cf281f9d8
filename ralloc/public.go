package ralloc

import "unsafe"

// Allocate returns the address of a fresh payload of at least size bytes,
// or nil if size is zero or the OS refuses the underlying mapping.
func Allocate(size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}
	mgr := theManager()
	if mgr == nil {
		return nil
	}

	planned := plannedSize(size)

	var blk *blockHeader
	if planned < largeThreshold {
		blk = mgr.allocArena(planned)
	} else {
		blk = mgr.allocGlobal(planned)
	}
	if blk == nil {
		return nil
	}
	return blk.payload()
}

// Reallocate grows or shrinks the allocation at ptr to hold size bytes.
//
//   - ptr == nil behaves like Allocate(size).
//   - size == 0 behaves like Release(ptr) followed by returning nil.
//   - otherwise, if the existing block already satisfies size, ptr is
//     returned unchanged (no shrink-in-place, no header rewrite).
//   - otherwise a fresh block is allocated, the old payload is copied
//     into it, the old block is released, and the new address is
//     returned. If the fresh allocation fails, the old block is left
//     intact and nil is returned.
func Reallocate(ptr unsafe.Pointer, size int) unsafe.Pointer {
	if ptr == nil {
		return Allocate(size)
	}
	if size == 0 {
		Release(ptr)
		return nil
	}

	blk := headerAt(ptr)
	if blk.payloadCap() >= size {
		return ptr
	}

	newPtr := Allocate(size)
	if newPtr == nil {
		return nil
	}

	oldLen := blk.payloadCap()
	src := unsafe.Slice((*byte)(ptr), oldLen)
	dst := unsafe.Slice((*byte)(newPtr), oldLen)
	copy(dst, src)

	Release(ptr)
	return newPtr
}

// Release returns the block at ptr to the allocator. It is a no-op if ptr
// is nil.
func Release(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	mgr := theManager()
	if mgr == nil {
		return
	}

	blk := headerAt(ptr)
	// An arena fit that was too small to split keeps its leftover bytes,
	// so an arena block can reach largeThreshold; arena containment
	// settles those cases.
	if blk.size < largeThreshold || mgr.findContainingArena(blk) != nil {
		mgr.releaseArenaBlock(blk)
	} else {
		mgr.releaseGlobalBlock(blk)
	}
}

// Size returns the usable payload byte count of the block at ptr, or 0 if
// ptr is nil.
func Size(ptr unsafe.Pointer) int {
	if ptr == nil {
		return 0
	}
	return headerAt(ptr).payloadCap()
}

// IsLive reports whether ptr currently refers to a live allocation. It is
// advisory: passing an address this package never returned yields an
// undefined but bounded answer rather than a crash.
func IsLive(ptr unsafe.Pointer) bool {
	if ptr == nil {
		return false
	}
	mgr := theManager()
	if mgr == nil {
		return false
	}

	blk := headerAt(ptr)

	if globalContainsFreeBlock(mgr, blk) {
		return false
	}

	if ar := mgr.findContainingArena(blk); ar != nil {
		return !arenaContainsFreeBlock(ar, blk)
	}

	// Not on the global free list and not inside any arena: either a
	// live global block (global blocks are never linked into any list
	// while live, so the header's own flag is the only ground truth
	// available) or an address this package never produced, for which
	// the header's flag is read anyway, an advisory, bounded guess, as
	// documented above.
	return blk.live
}

// TotalAllocated returns the sum of payload bytes over every block
// currently live, across both arenas and the global tier.
func TotalAllocated() int {
	mgr := theManager()
	if mgr == nil {
		return 0
	}

	total := 0
	for ar := mgr.arenas; ar != nil; ar = ar.next {
		total += arenaLiveBytes(ar)
	}
	total += mgr.globalLiveBytes
	return total
}
