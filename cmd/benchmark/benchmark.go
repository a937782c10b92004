package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/krisalay/request-cache"
	"github.com/krisalay/request-cache/eviction"
	"github.com/krisalay/request-cache/types"
)

// ================= FETCHER =================

// tableFetcher stands in for the portal API: it returns the row count for a
// key after a fixed delay and counts how often it was called.
type tableFetcher struct {
	delay time.Duration
	calls *atomic.Int64
	rows  int
}

func (f tableFetcher) Fetch(ctx context.Context) (any, error) {
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
		return f.rows, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ================= BENCHMARK =================

func main() {
	var (
		shards      = flag.Int("shards", 8, "number of shards")
		capacity    = flag.Int("capacity", 200000, "max cached keys, 0 for unbounded")
		preloadKeys = flag.Int("keys", 100000, "keys to preload")
		goroutines  = flag.Int("goroutines", 200, "concurrent readers")
		opsPerG     = flag.Int("ops", 5000, "fetches per reader")
		forceEvery  = flag.Int("force-every", 0, "issue a ForceFresh fetch every N ops, 0 to disable")
		delay       = flag.Duration("delay", 0, "simulated fetch latency")
	)
	flag.Parse()
	if *preloadKeys <= 0 {
		*preloadKeys = 1
	}

	ctx := context.Background()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", *shards)
	fmt.Println("Capacity     :", *capacity)
	fmt.Println("Preload Keys :", *preloadKeys)
	fmt.Println("Goroutines   :", *goroutines)
	fmt.Println("Ops/Goroutine:", *opsPerG)
	fmt.Println("Force Every  :", *forceEvery)
	fmt.Println("---------------------------------")

	c, err := cache.New(
		cache.WithShards(*shards),
		cache.WithCapacity(*capacity, eviction.LRU),
		cache.WithDefaultTTL(time.Minute),
		cache.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "benchmark:", err)
		os.Exit(1)
	}
	defer c.Close()

	var calls atomic.Int64
	fetcher := func(i int) types.Fetcher {
		return tableFetcher{delay: *delay, calls: &calls, rows: i}
	}

	// ---------------- Preload ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < *preloadKeys; i++ {
		c.Fetch(ctx, fmt.Sprintf("key-%d", i), fetcher(i), cache.Options{})
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")
	calls.Store(0)

	var superseded atomic.Int64
	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(*goroutines)
	for g := 0; g < *goroutines; g++ {
		go func() {
			defer wg.Done()
			for j := 0; j < *opsPerG; j++ {
				k := j % *preloadKeys
				opts := cache.Options{}
				if *forceEvery > 0 && j%*forceEvery == 0 {
					opts.ForceFresh = true
				}
				if _, err := c.Fetch(ctx, fmt.Sprintf("key-%d", k), fetcher(k), opts); types.IsCancelled(err) {
					superseded.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	duration := time.Since(start)
	totalOps := *goroutines * *opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Fetcher Calls    : %d\n", calls.Load())
	fmt.Printf("Superseded       : %d\n", superseded.Load())
	fmt.Printf("Cached Keys      : %d\n", c.Len())
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")
}
