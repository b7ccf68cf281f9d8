package ralloc

import "testing"

// withFreshManager resets all allocator state before the test body runs
// and unmaps everything left over once it finishes, so tests don't leak
// arenas (or their effect on arena counts) into one another.
func withFreshManager(t *testing.T) {
	t.Helper()
	resetManagerForTest()
	t.Cleanup(resetManagerForTest)
}

// arenaCount returns the number of arenas currently mapped.
func arenaCount(mgr *Manager) int {
	n := 0
	for ar := mgr.arenas; ar != nil; ar = ar.next {
		n++
	}
	return n
}

// freeListLen returns the number of blocks on ar's free list.
func freeListLen(ar *arenaHeader) int {
	n := 0
	for cur := ar.freeList; cur != nil; cur = cur.next {
		n++
	}
	return n
}
