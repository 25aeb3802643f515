package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/zpool/mempool/pool"
)

var (
	benchIters int
	benchSize  uint
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVarP(&benchIters, "iterations", "n", 1_000_000, "Allocate/free pairs to run")
	cmd.Flags().UintVarP(&benchSize, "size", "s", 64, "Request size in bytes")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Time allocate/free cycles against the runtime allocator",
		Long: `The bench command runs sequential allocate/free pairs of one size
through the pool and through the Go runtime allocator, and reports both.

Example:
  poolctl bench -n 5000000 -s 32`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

func runBench() error {
	size := uintptr(benchSize)

	p := pool.New(nil)
	defer p.Close()
	l := p.Local()
	defer l.Close()

	slog.Debug("warming up", "size", size)
	for i := 0; i < 1000; i++ {
		ptr, err := l.Allocate(size)
		if err != nil {
			return err
		}
		l.Deallocate(ptr, size)
	}

	start := time.Now()
	for i := 0; i < benchIters; i++ {
		ptr, err := l.Allocate(size)
		if err != nil {
			return err
		}
		l.Deallocate(ptr, size)
	}
	poolTime := time.Since(start)

	// Baseline: the Go runtime allocator doing the same cycle. The sink
	// keeps the compiler from eliding the allocation.
	var sink *byte
	start = time.Now()
	for i := 0; i < benchIters; i++ {
		buf := make([]byte, size)
		sink = &buf[0]
	}
	runtimeTime := time.Since(start)
	_ = sink

	st := p.Stats()
	printInfo("bench: %d pairs of %d bytes\n", benchIters, size)
	printInfo("  pool:    %v  (%.1f ns/op)\n", poolTime, float64(poolTime.Nanoseconds())/float64(benchIters))
	printInfo("  runtime: %v  (%.1f ns/op)\n", runtimeTime, float64(runtimeTime.Nanoseconds())/float64(benchIters))
	printInfo("  page cache: %d grow calls, %d bytes mapped\n", st.Pages.GrowCalls, st.Pages.MappedBytes)
	printInfo("  central: %d fetches, %d returns, %d blocks carved\n",
		st.Central.Fetches, st.Central.Returns, st.Central.CarvedBlocks)
	return nil
}
