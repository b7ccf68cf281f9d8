//go:build !unix

package ralloc

import (
	"errors"
	"unsafe"
)

// errUnsupportedPlatform is returned by every mapping attempt on
// platforms without a POSIX mmap. Per spec, resource exhaustion has no
// fallback: callers see the same nil/zero/false sentinels they would see
// if a unix kernel simply refused the mapping.
var errUnsupportedPlatform = errors.New("ralloc: anonymous memory mapping is not supported on this platform")

func mmapRegion(size uintptr) (unsafe.Pointer, error) {
	return nil, errUnsupportedPlatform
}

func munmapRegion(addr unsafe.Pointer, size uintptr) error {
	return errUnsupportedPlatform
}
