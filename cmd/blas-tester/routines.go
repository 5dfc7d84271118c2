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
	"strings"

	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/counter"
	"github.com/gorse-io/blas/tile"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	layouts = map[string]blas.Layout{"c": blas.ColMajor, "r": blas.RowMajor}
	opChars = map[string]blas.Op{"n": blas.NoTrans, "t": blas.Trans, "c": blas.ConjTrans}
	uplos   = map[string]blas.Uplo{"l": blas.Lower, "u": blas.Upper}
)

func lookup[V any](table map[string]V, flagSet *pflag.FlagSet, name string) (V, error) {
	text, _ := flagSet.GetString(name)
	v, ok := table[strings.ToLower(text)]
	if !ok {
		return v, errors.NotValidf("%s %q", name, text)
	}
	return v, nil
}

// hostOptions are the operand options of a host routine.
type hostOptions struct {
	layout blas.Layout
	transA blas.Op
	transB blas.Op
	uplo   blas.Uplo
}

func parseHostOptions(flagSet *pflag.FlagSet, names ...string) (opts hostOptions, err error) {
	if opts.layout, err = lookup(layouts, flagSet, "layout"); err != nil {
		return
	}
	for _, name := range names {
		switch name {
		case "trans-a":
			opts.transA, err = lookup(opChars, flagSet, name)
		case "trans-b":
			opts.transB, err = lookup(opChars, flagSet, name)
		case "uplo":
			opts.uplo, err = lookup(uplos, flagSet, name)
		}
		if err != nil {
			return
		}
	}
	return
}

var gemmCommand = &cobra.Command{
	Use:   "gemm",
	Short: "Run the host Gemm C = alpha op(A) op(B) + beta C.",
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, e *env, dims []Dim) ([]result, error) {
			opts, err := parseHostOptions(cmd.Flags(), "trans-a", "trans-b")
			if err != nil {
				return nil, errors.Trace(err)
			}
			return byType(ctx, e, dims, "gemm",
				hostGemm[float32](opts), hostGemm[float64](opts), hostGemm[complex64](opts), hostGemm[complex128](opts))
		})
	},
}

var syrkCommand = &cobra.Command{
	Use:   "syrk",
	Short: "Run the host rank-k update C = alpha op(A) op(A)^T + beta C.",
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, e *env, dims []Dim) ([]result, error) {
			opts, err := parseHostOptions(cmd.Flags(), "trans-a", "uplo")
			if err != nil {
				return nil, errors.Trace(err)
			}
			return byType(ctx, e, dims, "syrk",
				hostSyrk[float32](opts), hostSyrk[float64](opts), hostSyrk[complex64](opts), hostSyrk[complex128](opts))
		})
	},
}

func init() {
	rootCommand.AddCommand(gemmCommand)
	sweepFlags(gemmCommand.Flags())
	gemmCommand.Flags().String("layout", "c", "Matrix layout (c - column major, r - row major).")
	gemmCommand.Flags().String("trans-a", "n", "Operation on A (n, t or c).")
	gemmCommand.Flags().String("trans-b", "n", "Operation on B (n, t or c).")

	rootCommand.AddCommand(syrkCommand)
	sweepFlags(syrkCommand.Flags())
	syrkCommand.Flags().String("layout", "c", "Matrix layout (c - column major, r - row major).")
	syrkCommand.Flags().String("trans-a", "n", "Operation on A (n or t).")
	syrkCommand.Flags().String("uplo", "l", "Referenced triangle of C (l or u).")
}

// hostMatrix returns the number of columns a rows-by-cols operand takes in
// memory under layout and its leading dimension.
func hostMatrix(layout blas.Layout, rows, cols, align int) (int, int) {
	if layout == blas.RowMajor {
		rows, cols = cols, rows
	}
	return cols, tile.LeadingDim(rows, align)
}

func hostGemm[T blas.Scalar](opts hostOptions) sizeRunner[T] {
	return func(_ context.Context, e *env, dim Dim) (result, bool, error) {
		cfg := e.conf.Tester
		m, n, k := dim.M, dim.N, dim.K
		am, an := blas.Extents(opts.transA, m, k)
		bm, bn := blas.Extents(opts.transB, k, n)
		aCols, lda := hostMatrix(opts.layout, am, an, cfg.Align)
		bCols, ldb := hostMatrix(opts.layout, bm, bn, cfg.Align)
		cCols, ldc := hostMatrix(opts.layout, m, n, cfg.Align)
		workers := e.dev.Workers()
		a := fill[T](1, lda*aCols, workers)
		b := fill[T](1<<20, ldb*bCols, workers)
		c := fill[T](1<<21, ldc*cCols, workers)
		alpha, beta := blas.FromFloat[T](cfg.Alpha), blas.FromFloat[T](cfg.Beta)
		elapsed, err := best(cfg.Repeat, nil, func() error {
			return blas.Gemm(opts.layout, opts.transA, opts.transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
		})
		if err != nil {
			return result{}, false, errors.Trace(err)
		}
		e.queue.Counter().Insert(counter.Gemm, counter.Shape{TransA: opts.transA, TransB: opts.transB, M: m, N: n, K: k}, cfg.Repeat)
		return result{
			Dim:    dim,
			Batch:  1,
			Time:   elapsed,
			Gflops: gflops(gemmFlops[T](m, n, k), elapsed),
		}, true, nil
	}
}

func hostSyrk[T blas.Scalar](opts hostOptions) sizeRunner[T] {
	return func(_ context.Context, e *env, dim Dim) (result, bool, error) {
		cfg := e.conf.Tester
		n, k := dim.N, dim.K
		am, an := blas.Extents(opts.transA, n, k)
		aCols, lda := hostMatrix(opts.layout, am, an, cfg.Align)
		cCols, ldc := hostMatrix(opts.layout, n, n, cfg.Align)
		workers := e.dev.Workers()
		a := fill[T](1, lda*aCols, workers)
		c := fill[T](1<<21, ldc*cCols, workers)
		alpha, beta := blas.FromFloat[T](cfg.Alpha), blas.FromFloat[T](cfg.Beta)
		elapsed, err := best(cfg.Repeat, nil, func() error {
			return blas.Syrk(opts.layout, opts.uplo, opts.transA, n, k, alpha, a, lda, beta, c, ldc)
		})
		if err != nil {
			return result{}, false, errors.Trace(err)
		}
		e.queue.Counter().Insert(counter.Syrk, counter.Shape{Uplo: opts.uplo, TransA: opts.transA, N: n, K: k}, cfg.Repeat)
		return result{
			Dim:    Dim{M: n, N: n, K: k},
			Batch:  1,
			Time:   elapsed,
			Gflops: gflops(syrkFlops[T](n, k), elapsed),
		}, true, nil
	}
}
