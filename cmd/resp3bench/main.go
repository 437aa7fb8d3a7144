// Command resp3bench feeds synthetic RESP3 traffic through a pool of
// independent *resp3.Parser instances — one per simulated connection — and
// reports parsed-value throughput plus periodic process memory usage. It is
// a caller-side benchmarking harness, not part of the parser's contract.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/IceFireDB/redhub/pkg/resp3"
)

func main() {
	var workers int
	var duration time.Duration
	var maxDepth, maxElements int
	var payload string
	flag.IntVar(&workers, "workers", 8, "number of concurrent simulated connections")
	flag.DurationVar(&duration, "duration", 5*time.Second, "how long to run")
	flag.IntVar(&maxDepth, "max-depth", 32, "parser aggregate nesting limit")
	flag.IntVar(&maxElements, "max-elements", 1<<20, "parser element-count limit")
	flag.StringVar(&payload, "payload", "array", "synthetic payload shape: array|map|bulk")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	wire := syntheticWire(payload)

	var totalValues int64
	var totalBytes int64

	pool, err := ants.NewPool(workers)
	if err != nil {
		logger.Fatal("failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	stop := make(chan struct{})
	done := make(chan struct{})

	for i := 0; i < workers; i++ {
		i := i
		err := pool.Submit(func() {
			runWorker(i, wire, maxDepth, maxElements, stop, &totalValues, &totalBytes)
			done <- struct{}{}
		})
		if err != nil {
			logger.Fatal("failed to submit worker", zap.Error(err))
		}
	}

	rssTicker := time.NewTicker(time.Second)
	defer rssTicker.Stop()
	deadline := time.After(duration)

	proc, procErr := process.NewProcess(int32(os.Getpid()))

loop:
	for {
		select {
		case <-deadline:
			close(stop)
			break loop
		case <-rssTicker.C:
			if procErr != nil {
				continue
			}
			mem, err := proc.MemoryInfo()
			if err != nil {
				continue
			}
			logger.Info("progress",
				zap.Int64("values", atomic.LoadInt64(&totalValues)),
				zap.Int64("bytes", atomic.LoadInt64(&totalBytes)),
				zap.Uint64("rss_bytes", mem.RSS))
		}
	}

	for i := 0; i < workers; i++ {
		<-done
	}

	fmt.Printf("values=%d bytes=%d\n", atomic.LoadInt64(&totalValues), atomic.LoadInt64(&totalBytes))
}

// runWorker repeatedly feeds wire into its own *resp3.Parser, parsing one
// top-level value per iteration, until stop is closed.
func runWorker(id int, wire []byte, maxDepth, maxElements int, stop <-chan struct{}, totalValues, totalBytes *int64) {
	p := resp3.New(maxDepth, maxElements)
	for {
		select {
		case <-stop:
			return
		default:
		}
		p.Feed(wire)
		for {
			_, n, err := p.TryParse()
			if err != nil {
				p.Reset()
				break
			}
			atomic.AddInt64(totalValues, 1)
			atomic.AddInt64(totalBytes, int64(n))
		}
	}
}

// syntheticWire builds a repeated, self-contained RESP3 encoding of the
// requested shape so each worker iteration parses exactly one top-level
// value without cross-iteration leftover bytes.
func syntheticWire(shape string) []byte {
	switch shape {
	case "map":
		return resp3.Append(nil, resp3.NewMap([]resp3.KVPair{
			{Key: resp3.NewSimpleString("field1"), Value: resp3.NewInteger(1)},
			{Key: resp3.NewSimpleString("field2"), Value: resp3.NewBulkString([]byte("value2"))},
		}))
	case "bulk":
		return resp3.Append(nil, resp3.NewBulkString(make([]byte, 512)))
	default:
		return resp3.Append(nil, resp3.NewArray([]resp3.Value{
			resp3.NewBulkString([]byte("SET")),
			resp3.NewBulkString([]byte("key")),
			resp3.NewBulkString([]byte("value")),
		}))
	}
}
