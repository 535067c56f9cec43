// Package main provides cow-bench, a micro-benchmark harness for the
// copy-on-write buffer core.
//
// Usage:
//
//	cow-bench [--config cow-bench.jsonc] [--counts n,...] [--iterations n]
//	          [--alloc heap,...] [--out report.json]
//
// It measures three costs at each configured element count:
//
//   - append: n single-element grows (power-of-two amortization)
//   - fork: first mutation of a shared buffer (full O(n) copy)
//   - read: sequential scan through a shared read-only view
//
// Results are written to the report path as JSON, atomically (temp file
// plus rename), so a crashed run never leaves a truncated report.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/cowdata/pkg/cowdata"
	"github.com/calvinalkan/cowdata/pkg/vector"
)

// Result is one benchmark measurement at one element count.
type Result struct {
	Name      string  `json:"name"`
	Allocator string  `json:"allocator"`
	Count     int     `json:"count"`
	Runs      int     `json:"runs"`
	MeanNs    int64   `json:"mean_ns"`
	MinNs     int64   `json:"min_ns"`
	MaxNs     int64   `json:"max_ns"`
	OpsPerSec float64 `json:"ops_per_sec"`
}

// Report is the JSON document cow-bench writes.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Results   []Result  `json:"results"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.StringP("config", "c", "cow-bench.jsonc", "config file (JSONC)")
	counts := flag.IntSlice("counts", nil, "element counts to benchmark at")
	iterations := flag.IntP("iterations", "n", 0, "repetitions per benchmark")
	allocators := flag.StringSlice("alloc", nil, "allocators: heap, mmap")
	out := flag.StringP("out", "o", "", "report path")

	flag.Parse()

	// File config sits between the defaults and the flags. The file is
	// only required when the caller pointed at a non-default path.
	mustExist := flag.CommandLine.Changed("config")

	fileCfg, _, err := loadConfigFile(*configPath, mustExist)
	if err != nil {
		return err
	}

	cfg := mergeConfig(defaultConfig(), fileCfg)
	cfg = mergeConfig(cfg, Config{
		Counts:     *counts,
		Iterations: *iterations,
		Allocators: *allocators,
		Out:        *out,
	})

	if err := cfg.validate(); err != nil {
		return err
	}

	report := Report{Timestamp: time.Now().UTC()}

	for _, name := range cfg.Allocators {
		alloc, err := allocatorByName(name)
		if err != nil {
			return err
		}

		for _, n := range cfg.Counts {
			for _, b := range []struct {
				name string
				fn   func(cowdata.Allocator, int) error
			}{
				{"append", benchAppend},
				{"fork", benchFork},
				{"read", benchRead},
			} {
				res, err := measure(b.name, name, alloc, n, cfg.Iterations, b.fn)
				if err != nil {
					return fmt.Errorf("%s/%s/%d: %w", b.name, name, n, err)
				}

				report.Results = append(report.Results, res)
				fmt.Printf("%-6s  %-4s  n=%-8d  mean=%-12s  %.0f ops/sec\n",
					res.Name, res.Allocator, res.Count,
					time.Duration(res.MeanNs), res.OpsPerSec)
			}
		}
	}

	if err := writeReport(cfg.Out, report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Printf("\nreport written to %s\n", cfg.Out)

	return nil
}

// measure runs fn `runs` times and aggregates wall-clock durations.
func measure(name, allocName string, alloc cowdata.Allocator, n, runs int, fn func(cowdata.Allocator, int) error) (Result, error) {
	var total, minNs, maxNs int64

	for i := 0; i < runs; i++ {
		start := time.Now()

		if err := fn(alloc, n); err != nil {
			return Result{}, err
		}

		elapsed := time.Since(start).Nanoseconds()

		total += elapsed
		if i == 0 || elapsed < minNs {
			minNs = elapsed
		}

		if elapsed > maxNs {
			maxNs = elapsed
		}
	}

	mean := total / int64(runs)

	res := Result{
		Name:      name,
		Allocator: allocName,
		Count:     n,
		Runs:      runs,
		MeanNs:    mean,
		MinNs:     minNs,
		MaxNs:     maxNs,
	}

	if mean > 0 {
		res.OpsPerSec = float64(n) / (float64(mean) / float64(time.Second))
	}

	return res, nil
}

// benchAppend grows a vector one element at a time.
func benchAppend(alloc cowdata.Allocator, n int) error {
	v := vector.NewIn[uint64](alloc)
	defer v.Release()

	for i := 0; i < n; i++ {
		if err := v.Append(uint64(i)); err != nil {
			return err
		}
	}

	return nil
}

// benchFork measures the first mutation of a shared buffer.
func benchFork(alloc cowdata.Allocator, n int) error {
	base := vector.NewIn[uint64](alloc)
	defer base.Release()

	if err := base.Resize(n); err != nil {
		return err
	}

	clone := base.Copy()
	defer clone.Release()

	return clone.Set(0, 1)
}

// benchRead scans a shared read-only view.
func benchRead(alloc cowdata.Allocator, n int) error {
	base := vector.NewIn[uint64](alloc)
	defer base.Release()

	if err := base.Resize(n); err != nil {
		return err
	}

	clone := base.Copy()
	defer clone.Release()

	var sink uint64
	for _, e := range clone.Slice() {
		sink += e
	}

	_ = sink

	return nil
}

// writeReport marshals the report and replaces the output file atomically.
func writeReport(path string, report Report) error {
	buf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	buf = append(buf, '\n')

	return atomic.WriteFile(path, bytes.NewReader(buf))
}
