// Package ralloc is a two-tier dynamic memory allocator that manages
// virtual address space obtained directly from the operating system.
//
// Small requests (below one-sixteenth of an 8 MiB arena) are served out of
// a pool of fixed-size arenas with first-fit placement, splitting, and
// bidirectional coalescing on release. Large requests bypass the arena
// pool entirely and are served by dedicated OS mappings, reused from a
// global free list on subsequent requests of a similar size.
//
// The package is not safe for concurrent use. It targets a single-threaded
// process and intentionally carries no locks, no alignment beyond the
// machine word, and no allocation debugging.
package ralloc
