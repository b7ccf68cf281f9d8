// Command ralloc-bench drives a mixed allocate/release workload through
// both ralloc and the platform allocator and reports per-allocation
// latency as CSV; releases are not timed. It is a plain consumer of ralloc's public surface;
// the benchmark itself carries none of the allocator's invariants.
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/hhro/ralloc/ralloc"
)

var (
	ops    = flag.Int("ops", 200000, "number of allocate/release pairs to run per allocator")
	seed   = flag.Int64("seed", 1, "PRNG seed, fixed for reproducible size distributions")
	outCSV = flag.String("out", "", "CSV output path; empty means stdout")
)

// sizeClasses mirrors the mix exercised by the public test suite's cycling
// scenario: a handful of small classes plus an occasional large one that
// crosses into the global tier.
var sizeClasses = []int{16, 128, 1024, 8192, 600 * 1024}

func main() {
	flag.Parse()

	sizes := make([]int, *ops)
	rng := rand.New(rand.NewSource(*seed))
	for i := range sizes {
		sizes[i] = sizeClasses[rng.Intn(len(sizeClasses))]
	}

	out := os.Stdout
	if *outCSV != "" {
		f, err := os.Create(*outCSV)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ralloc-bench:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	bw := bufio.NewWriter(out)
	w := csv.NewWriter(bw)
	writeRow(w, "allocator", "op_index", "size", "nanoseconds")

	runRalloc(sizes, w)
	runPlatform(sizes, w)

	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintln(os.Stderr, "ralloc-bench: write:", err)
		os.Exit(1)
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "ralloc-bench: flush:", err)
		os.Exit(1)
	}
}

func runRalloc(sizes []int, w *csv.Writer) {
	ptrs := make([]unsafe.Pointer, len(sizes))
	scratch := dirtmake.Bytes(8192, 8192)

	for i, size := range sizes {
		start := time.Now()
		p := ralloc.Allocate(size)
		elapsed := time.Since(start)

		if p != nil {
			n := size
			if n > len(scratch) {
				n = len(scratch)
			}
			buf := unsafe.Slice((*byte)(p), n)
			copy(buf, scratch[:n])
		}

		ptrs[i] = p
		writeRow(w, "ralloc", strconv.Itoa(i), strconv.Itoa(size), strconv.FormatInt(elapsed.Nanoseconds(), 10))
	}

	for _, p := range ptrs {
		if p == nil {
			continue
		}
		ralloc.Release(p)
	}
}

func runPlatform(sizes []int, w *csv.Writer) {
	bufs := make([][]byte, len(sizes))

	for i, size := range sizes {
		start := time.Now()
		b := dirtmake.Bytes(size, size)
		elapsed := time.Since(start)

		bufs[i] = b
		writeRow(w, "platform", strconv.Itoa(i), strconv.Itoa(size), strconv.FormatInt(elapsed.Nanoseconds(), 10))
	}

	// The platform allocator has no explicit release; dropping the slice
	// references is the closest equivalent, left to the garbage collector.
	for i := range bufs {
		bufs[i] = nil
	}
}

func writeRow(w *csv.Writer, fields ...string) {
	if err := w.Write(fields); err != nil {
		fmt.Fprintln(os.Stderr, "ralloc-bench: write:", err)
		os.Exit(1)
	}
}
