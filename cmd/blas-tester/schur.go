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

	"github.com/gorse-io/blas/base/log"
	"github.com/gorse-io/blas/batch"
	"github.com/gorse-io/blas/blas"
	"github.com/gorse-io/blas/device"
	"github.com/gorse-io/blas/ops"
	"github.com/gorse-io/blas/tile"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var schurCommand = &cobra.Command{
	Use:   "schur-gemm",
	Short: "Run a tiled Schur complement update C = alpha A B + beta C as one batched Gemm.",
	Long: `Run a tiled Schur complement update C = alpha A B + beta C as one batched Gemm.

The tile size is K. M and N are rounded down to multiples of K, and every
K-by-K tile of C is one item of the batch.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, e *env, dims []Dim) ([]result, error) {
			return byType(ctx, e, dims, "schur-gemm",
				schurGemm[float32], schurGemm[float64], schurGemm[complex64], schurGemm[complex128])
		})
	},
}

func init() {
	rootCommand.AddCommand(schurCommand)
	sweepFlags(schurCommand.Flags())
	schurCommand.Flags().Bool("ref", false, "Time a single Gemm over the whole matrix as reference.")
}

// buffers frees device buffers allocated by one run.
type buffers []interface{ Free() error }

func (b buffers) Free() error {
	var err error
	for _, buf := range b {
		if freeErr := buf.Free(); err == nil {
			err = freeErr
		}
	}
	return err
}

func upload[T blas.Scalar](q *device.Queue, bufs *buffers, rows, cols int, host []T, ld int) (*device.Buffer[T], error) {
	buf, err := device.Malloc[T](q.Device(), len(host))
	if err != nil {
		return nil, errors.Trace(err)
	}
	*bufs = append(*bufs, buf)
	if err = device.SetMatrix(rows, cols, host, ld, buf.Ptr(), ld, q); err != nil {
		return nil, errors.Trace(err)
	}
	return buf, nil
}

// schurOutput is a timed Schur complement update and the C it produced.
type schurOutput[T blas.Scalar] struct {
	result
	// C is downloaded after the batched update and RefC after the reference
	// Gemm. Both start from the same C.
	C    []T
	RefC []T
}

// schurGemm times the tiled update of an m-by-n matrix C by an m-by-nb
// block column A and an nb-by-n block row B, where nb is dim.K.
func schurGemm[T blas.Scalar](ctx context.Context, e *env, dim Dim) (result, bool, error) {
	out, ok, err := schur[T](ctx, e, dim)
	return out.result, ok, err
}

func schur[T blas.Scalar](_ context.Context, e *env, dim Dim) (out schurOutput[T], ok bool, err error) {
	cfg := e.conf.Tester
	nb := dim.K
	m, n := dim.M, dim.N
	if nb > 0 {
		m, n = tile.RoundDown(m, nb), tile.RoundDown(n, nb)
	}
	if nb <= 0 || m == 0 || n == 0 {
		log.Logger().Warn("skip size smaller than one tile",
			zap.Int("m", dim.M), zap.Int("n", dim.N), zap.Int("k", dim.K))
		return out, false, nil
	}
	g, err := tile.NewGrid(m, n, nb)
	if err != nil {
		return out, false, errors.Trace(err)
	}

	lda := tile.LeadingDim(m, cfg.Align)
	ldb := tile.LeadingDim(nb, cfg.Align)
	ldc := tile.LeadingDim(m, cfg.Align)
	workers := e.dev.Workers()
	a := fill[T](1, lda*nb, workers)
	b := fill[T](1<<20, ldb*n, workers)
	c := fill[T](1<<21, ldc*n, workers)

	var bufs buffers
	defer func() {
		if freeErr := bufs.Free(); err == nil {
			err = errors.Trace(freeErr)
		}
	}()
	q := e.queue
	da, err := upload(q, &bufs, m, nb, a, lda)
	if err != nil {
		return out, false, errors.Trace(err)
	}
	db, err := upload(q, &bufs, nb, n, b, ldb)
	if err != nil {
		return out, false, errors.Trace(err)
	}
	dc, err := upload(q, &bufs, m, n, c, ldc)
	if err != nil {
		return out, false, errors.Trace(err)
	}
	if err = q.Sync(); err != nil {
		return out, false, errors.Trace(err)
	}
	// every timed run starts from the initial C
	restore := func() error {
		if err := device.SetMatrix(m, n, c, ldc, dc.Ptr(), ldc, q); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(q.Sync())
	}
	download := func() ([]T, error) {
		host := make([]T, len(c))
		if err := device.GetMatrix(m, n, dc.Ptr(), ldc, host, ldc, q); err != nil {
			return nil, errors.Trace(err)
		}
		return host, errors.Trace(q.Sync())
	}

	alpha, beta := blas.FromFloat[T](cfg.Alpha), blas.FromFloat[T](cfg.Beta)
	pa, pb, pc := tile.Pointers(g, da.Ptr(), db.Ptr(), ldb, dc.Ptr(), ldc)
	args := batch.GemmArgs[T]{
		Layout: blas.ColMajor,
		TransA: []blas.Op{blas.NoTrans},
		TransB: []blas.Op{blas.NoTrans},
		M:      []int{nb},
		N:      []int{nb},
		K:      []int{nb},
		Alpha:  []T{alpha},
		A:      pa,
		LdA:    []int{lda},
		B:      pb,
		LdB:    []int{ldb},
		Beta:   []T{beta},
		C:      pc,
		LdC:    []int{ldc},
	}
	elapsed, err := best(cfg.Repeat, restore, func() error {
		if err := batch.Gemm(q, args, g.Count(), nil); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(q.Sync())
	})
	if err != nil {
		return out, false, errors.Trace(err)
	}
	if out.C, err = download(); err != nil {
		return out, false, errors.Trace(err)
	}
	flops := gemmFlops[T](m, n, nb)
	out.result = result{
		Dim:    Dim{M: m, N: n, K: nb},
		Batch:  g.Count(),
		Time:   elapsed,
		Gflops: gflops(flops, elapsed),
	}

	if cfg.Ref {
		out.RefTime, err = best(cfg.Repeat, restore, func() error {
			if err := ops.Gemm(q, blas.ColMajor, blas.NoTrans, blas.NoTrans, m, n, nb,
				alpha, da.Ptr(), lda, db.Ptr(), ldb, beta, dc.Ptr(), ldc); err != nil {
				return errors.Trace(err)
			}
			return errors.Trace(q.Sync())
		})
		if err != nil {
			return out, false, errors.Trace(err)
		}
		if out.RefC, err = download(); err != nil {
			return out, false, errors.Trace(err)
		}
		out.RefGflops = gflops(flops, out.RefTime)
	}
	return out, true, nil
}
