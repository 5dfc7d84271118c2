// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/common/parallel"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/schollz/progressbar/v3"
)

// result is one row of the output table.
type result struct {
	Type      string
	Dim       Dim
	Batch     int
	Time      time.Duration
	Gflops    float64
	RefTime   time.Duration
	RefGflops float64
}

func printResults(w io.Writer, results []result) error {
	// headers are printed as written
	table := tablewriter.NewTable(w, tablewriter.WithHeaderAutoFormat(tw.Off))
	table.Header("Type", "M", "N", "K", "Batch", "Time (ms)", "Gflop/s", "Ref time (ms)", "Ref Gflop/s")
	for _, r := range results {
		row := []string{
			r.Type,
			strconv.Itoa(r.Dim.M),
			strconv.Itoa(r.Dim.N),
			strconv.Itoa(r.Dim.K),
			strconv.Itoa(r.Batch),
			milliseconds(r.Time),
			fmt.Sprintf("%.3f", r.Gflops),
			"NA",
			"NA",
		}
		if r.RefTime > 0 {
			row[7] = milliseconds(r.RefTime)
			row[8] = fmt.Sprintf("%.3f", r.RefGflops)
		}
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func milliseconds(d time.Duration) string {
	return fmt.Sprintf("%.4f", float64(d)/float64(time.Millisecond))
}

// gflops converts a flop count and its run time to Gflop/s.
func gflops(flops float64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return flops / d.Seconds() / 1e9
}

// gemmFlops counts the floating point operations of an m-by-n-by-k Gemm. A
// complex multiply-add is 6 real multiplications and 2 real additions.
func gemmFlops[T blas.Scalar](m, n, k int) float64 {
	flops := 2 * float64(m) * float64(n) * float64(k)
	if blas.IsComplex[T]() {
		flops *= 4
	}
	return flops
}

// syrkFlops counts the floating point operations of a rank-k update of one
// n-by-n triangle.
func syrkFlops[T blas.Scalar](n, k int) float64 {
	flops := float64(k) * float64(n) * float64(n+1)
	if blas.IsComplex[T]() {
		flops *= 4
	}
	return flops
}

// best runs fn repeat times and returns the fastest run. setup, if not nil,
// runs untimed before every run.
func best(repeat int, setup, fn func() error) (time.Duration, error) {
	var fastest time.Duration
	for i := 0; i < repeat; i++ {
		if setup != nil {
			if err := setup(); err != nil {
				return 0, errors.Trace(err)
			}
		}
		start := time.Now()
		if err := fn(); err != nil {
			return 0, errors.Trace(err)
		}
		if elapsed := time.Since(start); i == 0 || elapsed < fastest {
			fastest = elapsed
		}
	}
	return fastest, nil
}

const fillChunk = 1 << 14

// fill returns n values drawn uniformly from (0, 1). Both parts of a complex
// value are drawn. The values depend only on seed.
func fill[T blas.Scalar](seed int64, n, workers int) []T {
	x := make([]T, n)
	parallel.For((n+fillChunk-1)/fillChunk, workers, func(chunk int) {
		rng := rand.New(rand.NewSource(seed + int64(chunk)))
		for i := chunk * fillChunk; i < min(n, (chunk+1)*fillChunk); i++ {
			x[i] = random[T](rng)
		}
	})
	return x
}

func random[T blas.Scalar](rng *rand.Rand) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(rng.Float32()).(T)
	case float64:
		return any(rng.Float64()).(T)
	case complex64:
		return any(complex(rng.Float32(), rng.Float32())).(T)
	default:
		return any(complex(rng.Float64(), rng.Float64())).(T)
	}
}

type sizeRunner[T blas.Scalar] func(ctx context.Context, e *env, dim Dim) (result, bool, error)

// sweep runs fn over dims with a progress bar. Sizes fn reports as skipped
// are left out of the table.
func sweep[T blas.Scalar](ctx context.Context, e *env, dims []Dim, description string, fn sizeRunner[T]) ([]result, error) {
	bar := progressbar.Default(int64(len(dims)), description)
	defer func() {
		_ = bar.Finish()
	}()
	results := make([]result, 0, len(dims))
	for _, dim := range dims {
		r, ok, err := fn(ctx, e, dim)
		if err != nil {
			return nil, errors.Annotatef(err, "%dx%dx%d", dim.M, dim.N, dim.K)
		}
		if ok {
			r.Type = string(blas.TypeChar[T]())
			results = append(results, r)
		}
		_ = bar.Add(1)
	}
	return results, nil
}

// byType instantiates a sweep for the configured element type.
func byType(ctx context.Context, e *env, dims []Dim, description string,
	s sizeRunner[float32], d sizeRunner[float64], c sizeRunner[complex64], z sizeRunner[complex128]) ([]result, error) {
	switch e.conf.Tester.Type {
	case "s":
		return sweep(ctx, e, dims, description, s)
	case "d":
		return sweep(ctx, e, dims, description, d)
	case "c":
		return sweep(ctx, e, dims, description, c)
	case "z":
		return sweep(ctx, e, dims, description, z)
	default:
		return nil, errors.NotValidf("type %q", e.conf.Tester.Type)
	}
}
