package ralloc

import "unsafe"

// blockHeader is the bookkeeping record immediately preceding every
// payload, whether the block lives inside an arena or is a standalone
// global mapping. It is the one piece of state every tier shares.
type blockHeader struct {
	size uintptr      // total block size, header included
	next *blockHeader // free-list successor; unused while live
	live bool
}

// wordSize is the machine's native alignment granularity.
const wordSize = unsafe.Sizeof(uintptr(0))

// headerSize is the size of the header prefixing every block.
const headerSize = unsafe.Sizeof(blockHeader{})

// alignUp rounds n up to the next multiple of the machine word size.
func alignUp(n uintptr) uintptr {
	return (n + wordSize - 1) &^ (wordSize - 1)
}

// plannedSize returns the total block size (header plus word-aligned
// payload) to plan for when satisfying a request of payload bytes.
// Callers must have already rejected payload <= 0.
func plannedSize(payload int) uintptr {
	return headerSize + alignUp(uintptr(payload))
}

// headerAt recovers the header immediately preceding a payload address.
func headerAt(payload unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(uintptr(payload) - headerSize))
}

// blockHeaderAt reinterprets an arbitrary in-bounds address as a header.
// Used to walk arena layout and free lists, where the address is known by
// construction to be the start of a block.
func blockHeaderAt(addr unsafe.Pointer) *blockHeader {
	return (*blockHeader)(addr)
}

// payload returns the address handed to the caller for this header.
func (b *blockHeader) payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(b), headerSize)
}

// payloadCap returns the usable byte count of the block, header excluded.
func (b *blockHeader) payloadCap() int {
	return int(b.size - headerSize)
}

// end returns the address immediately following this block, i.e. the
// address of whatever block (if any) is laid out next in memory.
func (b *blockHeader) end() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(b), b.size)
}

// addr is a convenience accessor for comparing header identity by address.
func (b *blockHeader) addr() uintptr {
	return uintptr(unsafe.Pointer(b))
}
