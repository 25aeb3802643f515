package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/zpool/mempool/pool"
	"github.com/zpool/mempool/pool/sizeclass"
)

var (
	stressWorkers int
	stressOps     int
	stressSeed    int64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressWorkers, "workers", "w", 4, "Concurrent workers")
	cmd.Flags().IntVarP(&stressOps, "ops", "n", 100_000, "Operations per worker")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Workload seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a concurrent mixed-size workload with invariant checks",
		Long: `The stress command runs workers that allocate random managed sizes,
scribble over every block, and free in random order, some blocks on a worker
other than the one that allocated them. Page cache coverage is checked at the
end.

Example:
  poolctl stress -w 8 -n 500000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

type stressBlock struct {
	ptr  unsafe.Pointer
	size uintptr
}

func runStress() error {
	p := pool.New(nil)
	defer p.Close()

	// Blocks freed by a different worker than allocated them travel through
	// this channel; the allocator tracks no per-block owner.
	crossings := make(chan stressBlock, stressWorkers*4)

	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < stressWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(stressSeed + int64(w)))
			l := p.Local()
			defer l.Close()

			held := make([]stressBlock, 0, 128)
			for i := 0; i < stressOps; i++ {
				size := uintptr(rng.Intn(sizeclass.MaxBytes)) + 1
				ptr, err := l.Allocate(size)
				if err != nil {
					slog.Error("allocation failed", "worker", w, "size", size, "err", err)
					return
				}
				// Scribble: corruption here would surface as a crash in a
				// later pop when a link word is garbage.
				for b := uintptr(0); b < size; b++ {
					*(*byte)(unsafe.Add(ptr, b)) = byte(i)
				}

				held = append(held, stressBlock{ptr, size})
				switch {
				case len(held) > 64:
					j := rng.Intn(len(held))
					l.Deallocate(held[j].ptr, held[j].size)
					held[j] = held[len(held)-1]
					held = held[:len(held)-1]
				case i%97 == 0:
					select {
					case crossings <- held[len(held)-1]:
						held = held[:len(held)-1]
					default:
					}
				}

				// Drain someone else's blocks now and then.
				if i%131 == 0 {
					select {
					case blk := <-crossings:
						l.Deallocate(blk.ptr, blk.size)
					default:
					}
				}
			}
			for _, blk := range held {
				l.Deallocate(blk.ptr, blk.size)
			}
		}(w)
	}
	wg.Wait()
	close(crossings)

	final := p.Local()
	for blk := range crossings {
		final.Deallocate(blk.ptr, blk.size)
	}
	final.Close()
	elapsed := time.Since(start)

	st := p.Stats()
	if st.AllocCalls != st.FreeCalls {
		return fmt.Errorf("stress: %d allocations but %d frees", st.AllocCalls, st.FreeCalls)
	}
	if got := st.Pages.FreeBytes + st.Pages.InUseBytes; got != st.Pages.MappedBytes {
		return fmt.Errorf("stress: coverage broken: %d mapped, %d accounted", st.Pages.MappedBytes, got)
	}

	printInfo("stress: %d workers x %d ops in %v\n", stressWorkers, stressOps, elapsed)
	printInfo("  %d allocations, %d frees, %d oversized\n", st.AllocCalls, st.FreeCalls, st.LargeAlloc)
	printInfo("  page cache: %d grow calls, %d bytes mapped, %d splits, %d merges\n",
		st.Pages.GrowCalls, st.Pages.MappedBytes, st.Pages.Splits, st.Pages.Merges)
	printInfo("  central: %d fetches, %d returns, %d spans carved\n",
		st.Central.Fetches, st.Central.Returns, st.Central.CarvedSpans)
	return nil
}
