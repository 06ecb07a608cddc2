// Package parallel provides the worker helpers used by the CPU kernels and
// by chunked gradient computation.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// Workers returns a config that spreads coarse work items over n goroutines.
// n <= 1 yields sequential execution.
func Workers(n int) Config {
	return Config{
		Enabled:      n > 1,
		NumWorkers:   max(n, 1),
		MinChunkSize: 1,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize || n < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForErr executes f(i) for i in [0, n) like For and returns the error of the
// lowest index that failed, so the result does not depend on scheduling.
// Indices above a known failure are skipped.
func ForErr(n int, f func(i int) error, cfg Config) error {
	errs := make([]error, n)
	var firstFailed atomic.Int64
	firstFailed.Store(int64(n))

	For(n, func(i int) {
		if int64(i) > firstFailed.Load() {
			return
		}
		if errs[i] = f(i); errs[i] != nil {
			for {
				cur := firstFailed.Load()
				if int64(i) >= cur || firstFailed.CompareAndSwap(cur, int64(i)) {
					break
				}
			}
		}
	}, cfg)

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ForBatch is optimized for the batch*channels iteration pattern
// of the convolution kernels.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	n := batch * channels
	For(n, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
