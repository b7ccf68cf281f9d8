package ralloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArenaInitialFreeBlock(t *testing.T) {
	ar, err := newArena()
	require.NoError(t, err)
	defer munmapRegion(unsafe.Pointer(ar), arenaHeaderSize+arenaDataSize)

	require.NotNil(t, ar.freeList)
	assert.Equal(t, uintptr(arenaDataSize), ar.freeList.size)
	assert.False(t, ar.freeList.live)
	assert.Same(t, ar.freeList, blockHeaderAt(ar.dataStart()))
}

func TestArenaLinearWalkPartitionsExactly(t *testing.T) {
	withFreshManager(t)
	mgr := theManager()

	var ptrs []unsafe.Pointer
	for i := 0; i < 50; i++ {
		p := Allocate(128)
		require.NotNil(t, p)
		ptrs = append(ptrs, p)
	}

	ar := mgr.arenas
	require.NotNil(t, ar)

	var walked uintptr
	end := uintptr(ar.dataEnd())
	for p := uintptr(ar.dataStart()); p < end; {
		blk := blockHeaderAt(unsafe.Pointer(p))
		walked += blk.size
		p += blk.size
	}
	assert.Equal(t, uintptr(arenaDataSize), walked, "linear walk must land exactly on the data end")

	for _, p := range ptrs {
		Release(p)
	}
}

func TestArenaSplitLeavesNoOrphanBelowFloor(t *testing.T) {
	withFreshManager(t)

	// A request that leaves under headerSize+minSplitPayload of remainder
	// must not split: the whole free block is consumed.
	ar, err := newArena()
	require.NoError(t, err)
	defer munmapRegion(unsafe.Pointer(ar), arenaHeaderSize+arenaDataSize)

	whole := ar.freeList
	tiny := whole.size - (headerSize + minSplitPayload - 1)

	blk := findArenaFit(&Manager{arenas: ar}, tiny)
	require.NotNil(t, blk)
	assert.Equal(t, whole.size, blk.size, "whole block is consumed unshrunk when the remainder is below the split floor")
	assert.Nil(t, ar.freeList, "undersized remainder must not be split off")
}

func TestArenaForwardAndBackwardCoalesce(t *testing.T) {
	// Exercised directly against a standalone arena, bypassing
	// reclaimArenaIfEmpty: releasing both blocks below would collapse the
	// arena back to a single whole-region block and unmap it, leaving
	// nothing left to inspect.
	ar, err := newArena()
	require.NoError(t, err)
	defer munmapRegion(unsafe.Pointer(ar), arenaHeaderSize+arenaDataSize)
	mgr := &Manager{arenas: ar}

	planned := plannedSize(200)
	blk1 := findArenaFit(mgr, planned)
	blk2 := findArenaFit(mgr, planned)
	require.NotNil(t, blk1)
	require.NotNil(t, blk2)
	blk1.live = true
	blk2.live = true

	// Release blk1 first: no free neighbour on either side yet, so it
	// lands on the free list unmerged.
	blk1.live = false
	merged := coalesceArenaBlock(ar, blk1)
	merged.live = false
	merged.next = ar.freeList
	ar.freeList = merged

	// Release blk2: its forward neighbour is the leftover split remainder
	// (free), its backward neighbour is blk1 (also now free), so both merge
	// into one block spanning the whole arena.
	blk2.live = false
	merged = coalesceArenaBlock(ar, blk2)
	merged.live = false
	merged.next = ar.freeList
	ar.freeList = merged

	require.NotNil(t, ar.freeList)
	assert.Equal(t, uintptr(arenaDataSize), ar.freeList.size)
	assert.Nil(t, ar.freeList.next)
}

func TestArenaReclamationUnmapsEmptyArena(t *testing.T) {
	withFreshManager(t)
	mgr := theManager()

	p1 := Allocate(200)
	p2 := Allocate(200)

	assert.Equal(t, 1, arenaCount(mgr))

	Release(p1)
	Release(p2)

	assert.Equal(t, 0, arenaCount(mgr), "arena must be unmapped once fully vacant")
}

func TestArenaFreshArenaOnExhaustion(t *testing.T) {
	withFreshManager(t)
	mgr := theManager()

	// Fill the first arena with small, same-sized allocations until it
	// has no room left, then confirm the next small request forces a
	// second arena rather than failing.
	for i := 0; i < arenaDataSize/64+1; i++ {
		p := Allocate(64)
		require.NotNil(t, p)
		if arenaCount(mgr) == 2 {
			return
		}
	}
	t.Fatal("exhausted arena never forced a fresh mapping")
}
