// Package parallel provides the fork-join execution policy of the engine.
//
// Work is either run inline on the calling goroutine or split across a
// fixed-size pool of persistent workers. A parallel call always blocks until
// every partition has finished; there is no cancellation.
package parallel

import (
	"os"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
)

// DefaultMinChunkSize is the default number of elements each thread must
// receive before a call goes parallel.
const DefaultMinChunkSize = 1024

// BatchFactor is the multiple of the thread count that the number of batch
// tasks must exceed before batches run in parallel.
const BatchFactor = 2

// Environment variables read by ConfigFromEnv.
const (
	EnvNumThreads   = "STRIDED_NUM_THREADS"
	EnvMinChunkSize = "STRIDED_MIN_CHUNK"
)

// Config controls parallel execution behavior.
type Config struct {
	NumThreads   int // Worker count; 0 means runtime.GOMAXPROCS(0).
	MinChunkSize int // Elements per thread below which work stays serial.
}

// DefaultConfig returns the ambient defaults: one thread per GOMAXPROCS.
func DefaultConfig() Config {
	return Config{
		NumThreads:   0,
		MinChunkSize: DefaultMinChunkSize,
	}
}

// ConfigFromEnv returns DefaultConfig overlaid with STRIDED_NUM_THREADS and
// STRIDED_MIN_CHUNK when they are set.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if v, ok := os.LookupEnv(EnvNumThreads); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, errors.Errorf("%s: invalid thread count %q", EnvNumThreads, v)
		}
		cfg.NumThreads = n
	}
	if v, ok := os.LookupEnv(EnvMinChunkSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, errors.Errorf("%s: invalid chunk size %q", EnvMinChunkSize, v)
		}
		cfg.MinChunkSize = n
	}
	return cfg, nil
}

// Threads resolves NumThreads, mapping 0 to runtime.GOMAXPROCS(0).
func (c Config) Threads() int {
	if c.NumThreads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.NumThreads
}
